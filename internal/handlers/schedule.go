package handlers

import (
    "errors"
    "log"
    "strconv"
    "strings"
    "time"

    "github.com/gofiber/fiber/v2"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/database"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/schedule"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/store"
)

// ====== Страница расписания ======

func GetSchedulePage(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    rooms, err := store.ListRooms(ctx, db, true)
    if err != nil {
        log.Printf("❌ Ошибка загрузки залов: %v", err)
    }
    disciplines, err := store.ListDisciplines(ctx, db, true)
    if err != nil {
        log.Printf("❌ Ошибка загрузки направлений: %v", err)
    }
    tracks, err := store.ListTracks(ctx, db, true)
    if err != nil {
        log.Printf("❌ Ошибка загрузки потоков: %v", err)
    }

    return c.Render("schedule", fiber.Map{
        "Title":       "Расписание",
        "Rooms":       rooms,
        "Disciplines": disciplines,
        "Tracks":      tracks,
        "Filter": fiber.Map{
            "view":    strings.TrimSpace(c.Query("view", "week")),
            "room_id": strings.TrimSpace(c.Query("room_id")),
        },
        "ExtraScripts": templateScript("/static/js/schedule.js"),
    })
}

// ====== Сетка расписания (JSON) ======

// GetScheduleGrid собирает сетку дата x зал за диапазон.
// Параметры: from, to (2006-01-02), view (day|week|month), room_id (опц.).
func GetScheduleGrid(c *fiber.Ctx) error {
    from, err1 := time.Parse("2006-01-02", c.Query("from"))
    to, err2 := time.Parse("2006-01-02", c.Query("to"))
    if err1 != nil || err2 != nil {
        return jsonError(c, 400, "Неверный формат даты", nil)
    }
    mode := schedule.ViewMode(c.Query("view", string(schedule.ViewWeek)))
    roomFilter, _ := strconv.Atoi(c.Query("room_id"))

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    templates, err := store.ListTemplates(ctx, db, true)
    if err != nil {
        return jsonError(c, 500, "Ошибка БД", err)
    }
    rooms, err := store.ListRooms(ctx, db, true)
    if err != nil {
        return jsonError(c, 500, "Ошибка БД", err)
    }

    // неполные шаблоны резолвер молча пропустит; логируем их как сигнал
    // о качестве данных
    for _, tpl := range templates {
        if schedule.IsMalformed(tpl) {
            log.Printf("⚠️ Шаблон %d «%s»: неполные даты серии, в сетке не показывается", tpl.ID, tpl.Name)
        }
    }

    grid, err := schedule.BuildGrid(templates, rooms, from, to, mode, roomFilter)
    if err != nil {
        if errors.Is(err, schedule.ErrInvalidRange) {
            return jsonError(c, 400, "Некорректный диапазон", err)
        }
        return jsonError(c, 500, "Ошибка построения сетки", err)
    }

    // бейджи вместимости: счётчики записей одним запросом на весь диапазон
    counts, err := store.CountReservationsInRange(ctx, db, from, to)
    if err != nil {
        return jsonError(c, 500, "Ошибка БД", err)
    }
    for di := range grid.Days {
        for ci := range grid.Days[di].Columns {
            col := &grid.Days[di].Columns[ci]
            for oi := range col.Occurrences {
                o := &col.Occurrences[oi]
                o.Reserved = counts[store.OccurrenceKey{
                    TemplateID: o.TemplateID,
                    Date:       o.Date.Format("2006-01-02"),
                }]
            }
        }
    }

    return jsonOK(c, fiber.Map{"grid": grid})
}

// ====== Перенос шаблона (drag-and-drop) ======

// ReassignTemplate переносит шаблон на другой день недели и/или в другой
// зал. Вхождения виртуальны, поэтому перенос меняет и все прошлые даты
// серии — фронтенд предупреждает об этом перед сохранением. 404 здесь
// означает устаревшую сетку: фронтенд перерисовывает её заново.
func ReassignTemplate(c *fiber.Ctx) error {
    type fT struct {
        TemplateID int `form:"template_id" json:"template_id"`
        DayOfWeek  int `form:"day_of_week" json:"day_of_week"`
        RoomID     int `form:"room_id" json:"room_id"` // 0 = без зала
    }
    var f fT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.TemplateID <= 0 {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    if f.DayOfWeek < 0 || f.DayOfWeek > 6 {
        return jsonError(c, 400, "Некорректный диапазон", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    tpl, err := store.ReassignTemplate(ctx, db, f.TemplateID, f.DayOfWeek, f.RoomID)
    if errors.Is(err, store.ErrNotFound) {
        return jsonError(c, 404, "Шаблон не найден", err)
    }
    if err != nil {
        if errors.Is(err, schedule.ErrInvalidRange) {
            return jsonError(c, 400, "Некорректный диапазон", err)
        }
        return jsonError(c, 500, "Ошибка сохранения", err)
    }

    log.Printf("🔀 Шаблон %d перенесён: день %d, зал %v", tpl.ID, tpl.DayOfWeek, tpl.RoomID.Int64)
    return jsonOK(c, fiber.Map{"template": tpl, "message": "Шаблон перенесён"})
}
