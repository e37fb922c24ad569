package handlers

import (
    "database/sql"
    "errors"
    "log"
    "strconv"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/gofiber/fiber/v2"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/database"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/schedule"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/store"
)

var validate = validator.New()

// Форма шаблона занятия. Нулевые id (тренер, поток, зал) означают «не задан».
type templateForm struct {
    Name        string `form:"name" json:"name" validate:"required,max=200"`
    Discipline  int    `form:"discipline_id" json:"discipline_id" validate:"required,gt=0"`
    Coach       int    `form:"coach_id" json:"coach_id" validate:"gte=0"`
    Track       int    `form:"track_id" json:"track_id" validate:"gte=0"`
    Room        int    `form:"room_id" json:"room_id" validate:"gte=0"`
    DayOfWeek   int    `form:"day_of_week" json:"day_of_week" validate:"gte=0,lte=6"`
    Start       string `form:"start_time" json:"start_time" validate:"required,len=5"`
    End         string `form:"end_time" json:"end_time" validate:"required,len=5"`
    MaxCapacity int    `form:"max_capacity" json:"max_capacity" validate:"gte=0"` // 0 = без ограничения
    StartDate   string `form:"start_date" json:"start_date"`                      // 2006-01-02
    EndDate     string `form:"end_date" json:"end_date"`
    Recurring   bool   `form:"recurring" json:"recurring"`
}

func (f templateForm) apply(t *models.ClassTemplate) error {
    t.Name = strings.TrimSpace(f.Name)
    t.DisciplineID = f.Discipline
    t.CoachID = nullableID(f.Coach)
    t.TrackID = nullableID(f.Track)
    t.RoomID = nullableID(f.Room)
    t.DayOfWeek = f.DayOfWeek
    t.StartTime = f.Start
    t.EndTime = f.End
    if f.MaxCapacity > 0 {
        t.MaxCapacity = sql.NullInt64{Int64: int64(f.MaxCapacity), Valid: true}
    } else {
        t.MaxCapacity = sql.NullInt64{}
    }
    var err error
    if t.StartDate, err = nullableDate(f.StartDate); err != nil {
        return err
    }
    if t.EndDate, err = nullableDate(f.EndDate); err != nil {
        return err
    }
    t.Recurring = f.Recurring
    return nil
}

func nullableID(id int) sql.NullInt64 {
    if id <= 0 {
        return sql.NullInt64{}
    }
    return sql.NullInt64{Int64: int64(id), Valid: true}
}

func nullableDate(s string) (sql.NullTime, error) {
    if s == "" {
        return sql.NullTime{}, nil
    }
    d, err := time.Parse("2006-01-02", s)
    if err != nil {
        return sql.NullTime{}, err
    }
    return sql.NullTime{Time: d, Valid: true}, nil
}

// ====== Страница шаблонов ======

func GetClassTemplatesPage(c *fiber.Ctx) error {
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    // ---- параметры фильтра ----
    q := strings.TrimSpace(c.Query("q"))
    qDiscipline, _ := strconv.Atoi(c.Query("discipline_id"))
    qRoom, _ := strconv.Atoi(c.Query("room_id"))
    qCoach, _ := strconv.Atoi(c.Query("coach_id"))
    showDeleted := c.Query("deleted") == "1"

    templates, err := store.ListTemplatesEnriched(ctx, db, !showDeleted)
    if err != nil {
        log.Printf("❌ Ошибка загрузки шаблонов: %v", err)
        templates = nil
    }

    var items []models.ClassTemplate
    for _, t := range templates {
        if q != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(q)) &&
            !strings.Contains(strings.ToLower(t.CoachName), strings.ToLower(q)) {
            continue
        }
        if qDiscipline > 0 && t.DisciplineID != qDiscipline {
            continue
        }
        if qRoom > 0 && int(t.RoomID.Int64) != qRoom {
            continue
        }
        if qCoach > 0 && int(t.CoachID.Int64) != qCoach {
            continue
        }
        items = append(items, t)
    }

    disciplines, _ := store.ListDisciplines(ctx, db, true)
    rooms, _ := store.ListRooms(ctx, db, true)

    return c.Render("class-templates", fiber.Map{
        "Title":       "Шаблоны занятий",
        "Templates":   items,
        "Disciplines": disciplines,
        "Rooms":       rooms,
        "Filter": fiber.Map{
            "q":             q,
            "discipline_id": c.Query("discipline_id"),
            "room_id":       c.Query("room_id"),
            "coach_id":      c.Query("coach_id"),
            "deleted":       showDeleted,
        },
        "ExtraScripts": templateScript("/static/js/class-templates.js"),
    })
}

// ====== CRUD: шаблоны занятий ======

func GetClassTemplateByID(c *fiber.Ctx) error {
    id, _ := strconv.Atoi(c.Params("id"))
    if id <= 0 {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    tpl, err := store.GetTemplate(ctx, db, id)
    if errors.Is(err, store.ErrNotFound) {
        return jsonError(c, 404, "Шаблон не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "Ошибка БД", err)
    }
    return jsonOK(c, fiber.Map{"template": tpl})
}

func CreateClassTemplate(c *fiber.Ctx) error {
    var f templateForm
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if err := validate.Struct(f); err != nil {
        return jsonError(c, 400, "Заполните обязательные поля", err)
    }

    var tpl models.ClassTemplate
    if err := f.apply(&tpl); err != nil {
        return jsonError(c, 400, "Неверный формат даты", err)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    if err := store.CreateTemplate(ctx, db, &tpl); err != nil {
        if errors.Is(err, schedule.ErrInvalidRange) {
            return jsonError(c, 400, "Время начала должно быть раньше окончания", err)
        }
        return jsonError(c, 500, "Ошибка сохранения", err)
    }

    log.Printf("✅ Создан шаблон занятия %d «%s»", tpl.ID, tpl.Name)
    return jsonOK(c, fiber.Map{"id": tpl.ID, "template": tpl, "message": "Шаблон занятия создан"})
}

func UpdateClassTemplate(c *fiber.Ctx) error {
    id, _ := strconv.Atoi(c.Params("id"))
    if id <= 0 {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    var f templateForm
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if err := validate.Struct(f); err != nil {
        return jsonError(c, 400, "Заполните обязательные поля", err)
    }

    tpl := models.ClassTemplate{ID: id}
    if err := f.apply(&tpl); err != nil {
        return jsonError(c, 400, "Неверный формат даты", err)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    err := store.UpdateTemplate(ctx, db, &tpl)
    if errors.Is(err, store.ErrNotFound) {
        return jsonError(c, 404, "Шаблон не найден", nil)
    }
    if err != nil {
        if errors.Is(err, schedule.ErrInvalidRange) {
            return jsonError(c, 400, "Время начала должно быть раньше окончания", err)
        }
        return jsonError(c, 500, "Ошибка обновления", err)
    }
    return jsonOK(c, fiber.Map{"message": "Обновлено"})
}

// DeleteClassTemplate — мягкое удаление: строка остаётся, шаблон перестаёт
// давать вхождения. Жёсткое удаление — только через массовую операцию.
func DeleteClassTemplate(c *fiber.Ctx) error {
    id, _ := strconv.Atoi(c.Params("id"))
    if id <= 0 {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    err := store.DeactivateTemplate(ctx, db, id)
    if errors.Is(err, store.ErrNotFound) {
        return jsonError(c, 404, "Шаблон не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "Ошибка удаления", err)
    }
    return jsonOK(c, fiber.Map{"message": "Удалено"})
}

// BulkDeleteClassTemplates — жёсткое удаление выбранных шаблонов вместе с
// записями на них.
func BulkDeleteClassTemplates(c *fiber.Ctx) error {
    type fT struct {
        IDs []int `form:"ids" json:"ids"`
    }
    var f fT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if len(f.IDs) == 0 {
        return jsonError(c, 400, "Заполните обязательные поля", nil)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    n, err := store.BulkDeleteTemplates(ctx, db, f.IDs)
    if err != nil {
        return jsonError(c, 500, "Ошибка удаления", err)
    }

    log.Printf("🗑 Массовое удаление шаблонов: выбрано %d, удалено %d", len(f.IDs), n)
    return jsonOK(c, fiber.Map{"deleted": n, "message": "Удалено"})
}
