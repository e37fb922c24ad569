package handlers

import (
    "errors"
    "log"
    "strconv"
    "strings"

    "github.com/gofiber/fiber/v2"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/database"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/store"
)

// Форма справочной записи (зал / направление / поток).
type refForm struct {
    Name      string `form:"name" json:"name"`
    Color     string `form:"color" json:"color"`
    SortOrder int    `form:"sort_order" json:"sort_order"`
    Active    bool   `form:"active" json:"active"`
}

func parseRefForm(c *fiber.Ctx) (refForm, error) {
    var f refForm
    if err := c.BodyParser(&f); err != nil {
        return f, err
    }
    f.Name = strings.TrimSpace(f.Name)
    return f, nil
}

// ====== Залы ======

// GetRoomsPage отображает страницу залов
func GetRoomsPage(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    rooms, err := store.ListRooms(ctx, db, false)
    if err != nil {
        log.Printf("❌ Ошибка получения залов: %v", err)
        return c.Render("rooms", fiber.Map{
            "Title": "Залы",
            "Rooms": []models.Room{},
            "Error": "Не удалось загрузить данные залов",
        })
    }
    return c.Render("rooms", fiber.Map{
        "Title": "Залы",
        "Rooms": rooms,
        "ExtraScripts": templateScript("/static/js/rooms.js"),
    })
}

func CreateRoom(c *fiber.Ctx) error {
    f, err := parseRefForm(c)
    if err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" {
        return jsonError(c, 400, "Название зала обязательно", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    room := models.Room{Name: f.Name, Color: f.Color, SortOrder: f.SortOrder}
    if err := store.CreateRoom(ctx, db, &room); err != nil {
        return jsonError(c, 500, "Ошибка сохранения", err)
    }
    log.Printf("✅ Создан зал: %s (ID: %d)", room.Name, room.ID)
    return jsonOK(c, fiber.Map{"id": room.ID, "message": "Зал создан"})
}

func UpdateRoom(c *fiber.Ctx) error {
    id, _ := strconv.Atoi(c.Params("id"))
    if id <= 0 {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    f, err := parseRefForm(c)
    if err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" {
        return jsonError(c, 400, "Название зала обязательно", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    err = store.UpdateRoom(ctx, db, models.Room{ID: id, Name: f.Name, Color: f.Color, SortOrder: f.SortOrder, Active: f.Active})
    if errors.Is(err, store.ErrNotFound) {
        return jsonError(c, 404, "Зал не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "Ошибка обновления", err)
    }
    return jsonOK(c, fiber.Map{"message": "Обновлено"})
}

func GetRoomByID(c *fiber.Ctx) error {
    id, _ := strconv.Atoi(c.Params("id"))
    if id <= 0 {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    room, err := store.GetRoom(ctx, db, id)
    if errors.Is(err, store.ErrNotFound) {
        return jsonError(c, 404, "Зал не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "Ошибка БД", err)
    }
    return jsonOK(c, fiber.Map{"room": room})
}

// ====== API для селектов ======

func GetRoomsForSelect(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    rooms, err := store.ListRooms(ctx, db, true)
    if err != nil {
        return jsonError(c, 500, "Ошибка загрузки залов", err)
    }
    return jsonOK(c, fiber.Map{"rooms": rooms})
}

func GetDisciplinesForSelect(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    disciplines, err := store.ListDisciplines(ctx, db, true)
    if err != nil {
        return jsonError(c, 500, "Ошибка загрузки направлений", err)
    }
    return jsonOK(c, fiber.Map{"disciplines": disciplines})
}

func GetTracksForSelect(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    tracks, err := store.ListTracks(ctx, db, true)
    if err != nil {
        return jsonError(c, 500, "Ошибка загрузки потоков", err)
    }
    return jsonOK(c, fiber.Map{"tracks": tracks})
}

// ====== Направления и потоки (CRUD) ======

func CreateDiscipline(c *fiber.Ctx) error {
    f, err := parseRefForm(c)
    if err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" {
        return jsonError(c, 400, "Название направления обязательно", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    d := models.Discipline{Name: f.Name, Color: f.Color, SortOrder: f.SortOrder}
    if err := store.CreateDiscipline(ctx, db, &d); err != nil {
        return jsonError(c, 500, "Ошибка сохранения", err)
    }
    return jsonOK(c, fiber.Map{"id": d.ID, "message": "Направление создано"})
}

func UpdateDiscipline(c *fiber.Ctx) error {
    id, _ := strconv.Atoi(c.Params("id"))
    if id <= 0 {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    f, err := parseRefForm(c)
    if err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    err = store.UpdateDiscipline(ctx, db, models.Discipline{ID: id, Name: f.Name, Color: f.Color, SortOrder: f.SortOrder, Active: f.Active})
    if errors.Is(err, store.ErrNotFound) {
        return jsonError(c, 404, "Направление не найдено", nil)
    }
    if err != nil {
        return jsonError(c, 500, "Ошибка обновления", err)
    }
    return jsonOK(c, fiber.Map{"message": "Обновлено"})
}

func CreateTrack(c *fiber.Ctx) error {
    f, err := parseRefForm(c)
    if err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.Name == "" {
        return jsonError(c, 400, "Название потока обязательно", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    t := models.Track{Name: f.Name, Color: f.Color, SortOrder: f.SortOrder}
    if err := store.CreateTrack(ctx, db, &t); err != nil {
        return jsonError(c, 500, "Ошибка сохранения", err)
    }
    return jsonOK(c, fiber.Map{"id": t.ID, "message": "Поток создан"})
}

func UpdateTrack(c *fiber.Ctx) error {
    id, _ := strconv.Atoi(c.Params("id"))
    if id <= 0 {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    f, err := parseRefForm(c)
    if err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    err = store.UpdateTrack(ctx, db, models.Track{ID: id, Name: f.Name, Color: f.Color, SortOrder: f.SortOrder, Active: f.Active})
    if errors.Is(err, store.ErrNotFound) {
        return jsonError(c, 404, "Поток не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "Ошибка обновления", err)
    }
    return jsonOK(c, fiber.Map{"message": "Обновлено"})
}
