package handlers

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "strconv"
    "time"

    "github.com/gofiber/fiber/v2"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/database"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/schedule"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/store"
)

// ====== Запись на занятие ======

// CreateReservation записывает клиента на вхождение (шаблон, дата).
// Перед записью проверяем, что вхождение реально существует: день недели
// совпадает и дата попадает в окно серии. Ошибки вместимости и дубликата
// показываются пользователю прямо у формы записи.
func CreateReservation(c *fiber.Ctx) error {
    type fT struct {
        MemberID   int    `form:"member_id" json:"member_id"`
        TemplateID int    `form:"template_id" json:"template_id"`
        Date       string `form:"date" json:"date"` // 2006-01-02
    }
    var f fT
    if err := c.BodyParser(&f); err != nil {
        return jsonError(c, 400, "Неверные данные формы", err)
    }
    if f.MemberID <= 0 || f.TemplateID <= 0 || f.Date == "" {
        return jsonError(c, 400, "Заполните обязательные поля", nil)
    }
    date, err := time.Parse("2006-01-02", f.Date)
    if err != nil {
        return jsonError(c, 400, "Неверный формат даты", err)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    tpl, err := store.GetTemplate(ctx, db, f.TemplateID)
    if errors.Is(err, store.ErrNotFound) {
        return jsonError(c, 404, "Шаблон не найден", nil)
    }
    if err != nil {
        return jsonError(c, 500, "Ошибка БД", err)
    }
    if schedule.IsMalformed(*tpl) {
        log.Printf("⚠️ Шаблон %d «%s»: неполные даты серии", tpl.ID, tpl.Name)
    }
    if int(date.Weekday()) != tpl.DayOfWeek || !schedule.IsOccurrenceActive(*tpl, date) {
        return jsonError(c, 400, "В этот день занятие не проводится", nil)
    }

    r, err := store.CreateReservation(ctx, db, f.MemberID, f.TemplateID, date)
    switch {
    case errors.Is(err, store.ErrCapacityExceeded):
        return jsonError(c, 409, "Превышена вместимость занятия", nil)
    case errors.Is(err, store.ErrDuplicateReservation):
        return jsonError(c, 409, "Клиент уже записан на это занятие", nil)
    case errors.Is(err, store.ErrNotFound):
        return jsonError(c, 404, "Шаблон не найден", nil)
    case err != nil:
        return jsonError(c, 500, "Ошибка сохранения", err)
    }

    log.Printf("✅ Запись %d: клиент %d, шаблон %d, %s", r.ID, r.MemberID, r.TemplateID, f.Date)
    return jsonOK(c, fiber.Map{"id": r.ID, "reservation": r, "message": "Запись создана"})
}

// CancelReservation отменяет запись. Повторная отмена — no-op.
func CancelReservation(c *fiber.Ctx) error {
    return reservationTransition(c, store.CancelReservation, "Запись отменена")
}

// CheckInReservation отмечает посещение. Повторная отметка — no-op.
func CheckInReservation(c *fiber.Ctx) error {
    return reservationTransition(c, store.CheckIn, "Посещение отмечено")
}

func reservationTransition(c *fiber.Ctx, fn func(context.Context, *sql.DB, int) error, okMsg string) error {
    id, _ := strconv.Atoi(c.Params("id"))
    if id <= 0 {
        return jsonError(c, 400, "Некорректный id", nil)
    }
    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    err := fn(ctx, db, id)
    switch {
    case errors.Is(err, store.ErrNotFound):
        return jsonError(c, 404, "Запись не найдена", nil)
    case errors.Is(err, store.ErrStatusConflict):
        return jsonError(c, 409, "Недопустимый переход статуса записи", nil)
    case err != nil:
        return jsonError(c, 500, "Ошибка сохранения", err)
    }
    return jsonOK(c, fiber.Map{"message": okMsg})
}

// GetReservationCount — счётчик неотменённых записей на вхождение,
// используется бейджем вместимости.
func GetReservationCount(c *fiber.Ctx) error {
    templateID, _ := strconv.Atoi(c.Query("template_id"))
    date, err := time.Parse("2006-01-02", c.Query("date"))
    if templateID <= 0 || err != nil {
        return jsonError(c, 400, "Заполните обязательные поля", err)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    n, err := store.CountReservations(ctx, db, templateID, date)
    if err != nil {
        return jsonError(c, 500, "Ошибка БД", err)
    }
    return jsonOK(c, fiber.Map{"count": n})
}

// GetOccurrenceReservations — участники вхождения для карточки занятия.
func GetOccurrenceReservations(c *fiber.Ctx) error {
    templateID, _ := strconv.Atoi(c.Query("template_id"))
    date, err := time.Parse("2006-01-02", c.Query("date"))
    if templateID <= 0 || err != nil {
        return jsonError(c, 400, "Заполните обязательные поля", err)
    }

    db := database.GetDB()
    ctx, cancel := withDBTimeout()
    defer cancel()

    items, err := store.ListReservations(ctx, db, templateID, date)
    if err != nil {
        return jsonError(c, 500, "Ошибка БД", err)
    }
    return jsonOK(c, fiber.Map{"reservations": items})
}
