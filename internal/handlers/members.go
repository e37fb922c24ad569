package handlers

import (
    "fmt"

    "github.com/gofiber/fiber/v2"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/database"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/store"
)

// Справочник клиентов — внешняя часть CRM; здесь только чтение для
// селектов записи на занятие и выбора тренера.

// для записи на занятие: список клиентов (id + «ФИО (#id)»)
func GetMembersForSelect(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    members, err := store.ListMembersForSelect(ctx, db)
    if err != nil {
        return jsonError(c, 500, "Ошибка загрузки клиентов", err)
    }
    type item struct {
        ID    int    `json:"id"`
        Label string `json:"label"`
    }
    out := make([]item, 0, len(members))
    for _, m := range members {
        out = append(out, item{ID: m.ID, Label: fmt.Sprintf("%s (#%d)", m.FIO, m.ID)})
    }
    return jsonOK(c, fiber.Map{"members": out})
}

func GetCoachesForSelect(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    coaches, err := store.ListCoachesForSelect(ctx, db)
    if err != nil {
        return jsonError(c, 500, "Ошибка загрузки тренеров", err)
    }
    return jsonOK(c, fiber.Map{"coaches": coaches})
}
