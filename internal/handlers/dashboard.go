package handlers

import (
    "log"
    "time"

    "github.com/gofiber/fiber/v2"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/database"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/schedule"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/store"
)

func Dashboard(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    var templateCount, roomCount, reservedToday, checkedInToday int

    db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "Шаблон_занятия" WHERE "Активен" = TRUE`).Scan(&templateCount)
    db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "Зал" WHERE "Активен" = TRUE`).Scan(&roomCount)

    today := schedule.DateOnly(time.Now())
    db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM "Запись_на_занятие" WHERE "Дата" = $1 AND "Статус" <> $2
    `, today, models.ReservationCancelled).Scan(&reservedToday)
    db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM "Запись_на_занятие" WHERE "Дата" = $1 AND "Статус" = $2
    `, today, models.ReservationCheckedIn).Scan(&checkedInToday)

    // занятий сегодня: вхождения виртуальны, считаем резолвером
    classesToday := 0
    if templates, err := store.ListTemplates(ctx, db, true); err == nil {
        classesToday = len(schedule.TemplatesForDate(templates, today))
    } else {
        log.Printf("❌ Ошибка загрузки шаблонов для сводки: %v", err)
    }

    log.Printf("📊 Сводка: Шаблоны=%d, Залы=%d, Занятий сегодня=%d, Записей=%d, Посещений=%d",
        templateCount, roomCount, classesToday, reservedToday, checkedInToday)

    return c.Render("dashboard", fiber.Map{
        "Title": "Главная панель",
        "Stats": fiber.Map{
            "Templates":      templateCount,
            "Rooms":          roomCount,
            "ClassesToday":   classesToday,
            "ReservedToday":  reservedToday,
            "CheckedInToday": checkedInToday,
        },
    })
}
