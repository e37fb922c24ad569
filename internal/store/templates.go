package store

import (
    "context"
    "database/sql"
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/schedule"
)

// SQL здесь переносимый (Postgres в проде, SQLite в тестах): метки времени
// передаются из Go, диалектных функций и кастов в запросах нет.

const templateColumns = `
    s."id_шаблона", s."Серия", s."Название", s."id_направления", s."id_тренера",
    s."id_потока", s."id_зала", s."День_недели", s."Время_начала", s."Время_окончания",
    s."Максимум_участников", s."Дата_начала", s."Дата_окончания",
    s."Повторяется", s."Активен", s."Создан", s."Обновлён"`

func scanTemplate(row interface{ Scan(...any) error }, t *models.ClassTemplate) error {
    return row.Scan(
        &t.ID, &t.Series, &t.Name, &t.DisciplineID, &t.CoachID,
        &t.TrackID, &t.RoomID, &t.DayOfWeek, &t.StartTime, &t.EndTime,
        &t.MaxCapacity, &t.StartDate, &t.EndDate,
        &t.Recurring, &t.Active, &t.CreatedAt, &t.UpdatedAt,
    )
}

// ValidateTemplateTimes проверяет формат "15:04" и порядок начала/окончания.
func ValidateTemplateTimes(startTime, endTime string) error {
    s, err1 := time.Parse("15:04", startTime)
    e, err2 := time.Parse("15:04", endTime)
    if err1 != nil || err2 != nil {
        return fmt.Errorf("время в формате ЧЧ:ММ: %w", schedule.ErrInvalidRange)
    }
    if !e.After(s) {
        return fmt.Errorf("время начала должно быть раньше окончания: %w", schedule.ErrInvalidRange)
    }
    return nil
}

// CreateTemplate заводит шаблон и назначает ему новый uuid серии.
func CreateTemplate(ctx context.Context, db *sql.DB, t *models.ClassTemplate) error {
    if err := ValidateTemplateTimes(t.StartTime, t.EndTime); err != nil {
        return err
    }
    if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
        return fmt.Errorf("день недели 0-6: %w", schedule.ErrInvalidRange)
    }
    t.Series = uuid.NewString()
    now := time.Now().UTC()
    t.CreatedAt, t.UpdatedAt = now, now
    t.Active = true
    err := db.QueryRowContext(ctx, `
        INSERT INTO "Шаблон_занятия"
        ("Серия","Название","id_направления","id_тренера","id_потока","id_зала",
         "День_недели","Время_начала","Время_окончания","Максимум_участников",
         "Дата_начала","Дата_окончания","Повторяется","Активен","Создан","Обновлён")
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING "id_шаблона"
    `, t.Series, t.Name, t.DisciplineID, t.CoachID, t.TrackID, t.RoomID,
        t.DayOfWeek, t.StartTime, t.EndTime, t.MaxCapacity,
        t.StartDate, t.EndDate, t.Recurring, t.Active, now, now).Scan(&t.ID)
    if err != nil {
        return fmt.Errorf("создание шаблона: %w", err)
    }
    return nil
}

// GetTemplate возвращает шаблон по id, включая мягко удалённые.
func GetTemplate(ctx context.Context, db *sql.DB, id int) (*models.ClassTemplate, error) {
    var t models.ClassTemplate
    err := scanTemplate(db.QueryRowContext(ctx, `
        SELECT`+templateColumns+`
        FROM "Шаблон_занятия" s WHERE s."id_шаблона" = $1
    `, id), &t)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("чтение шаблона: %w", err)
    }
    return &t, nil
}

// ListTemplates возвращает шаблоны; onlyActive=true отсекает мягко удалённые.
func ListTemplates(ctx context.Context, db *sql.DB, onlyActive bool) ([]models.ClassTemplate, error) {
    query := `SELECT` + templateColumns + ` FROM "Шаблон_занятия" s`
    if onlyActive {
        query += ` WHERE s."Активен" = TRUE`
    }
    query += ` ORDER BY s."Время_начала", s."id_шаблона"`
    rows, err := db.QueryContext(ctx, query)
    if err != nil {
        return nil, fmt.Errorf("список шаблонов: %w", err)
    }
    defer rows.Close()

    var out []models.ClassTemplate
    for rows.Next() {
        var t models.ClassTemplate
        if err := scanTemplate(rows, &t); err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

// ListTemplatesEnriched — то же, но с названиями для таблицы шаблонов.
func ListTemplatesEnriched(ctx context.Context, db *sql.DB, onlyActive bool) ([]models.ClassTemplate, error) {
    query := `
        SELECT` + templateColumns + `,
               d."Название", COALESCE(c."ФИО",''), COALESCE(z."Название",''), COALESCE(p."Название",'')
        FROM "Шаблон_занятия" s
        JOIN "Направление" d ON d."id_направления" = s."id_направления"
        LEFT JOIN "Клиент" c ON c."id_клиента" = s."id_тренера"
        LEFT JOIN "Зал" z ON z."id_зала" = s."id_зала"
        LEFT JOIN "Поток" p ON p."id_потока" = s."id_потока"`
    if onlyActive {
        query += ` WHERE s."Активен" = TRUE`
    }
    query += ` ORDER BY s."День_недели", s."Время_начала", s."id_шаблона"`
    rows, err := db.QueryContext(ctx, query)
    if err != nil {
        return nil, fmt.Errorf("список шаблонов: %w", err)
    }
    defer rows.Close()

    var out []models.ClassTemplate
    for rows.Next() {
        var t models.ClassTemplate
        if err := rows.Scan(
            &t.ID, &t.Series, &t.Name, &t.DisciplineID, &t.CoachID,
            &t.TrackID, &t.RoomID, &t.DayOfWeek, &t.StartTime, &t.EndTime,
            &t.MaxCapacity, &t.StartDate, &t.EndDate,
            &t.Recurring, &t.Active, &t.CreatedAt, &t.UpdatedAt,
            &t.DisciplineName, &t.CoachName, &t.RoomName, &t.TrackName,
        ); err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

// UpdateTemplate перезаписывает редактируемые поля шаблона целиком.
func UpdateTemplate(ctx context.Context, db *sql.DB, t *models.ClassTemplate) error {
    if err := ValidateTemplateTimes(t.StartTime, t.EndTime); err != nil {
        return err
    }
    if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
        return fmt.Errorf("день недели 0-6: %w", schedule.ErrInvalidRange)
    }
    t.UpdatedAt = time.Now().UTC()
    res, err := db.ExecContext(ctx, `
        UPDATE "Шаблон_занятия"
        SET "Название"=$1, "id_направления"=$2, "id_тренера"=$3, "id_потока"=$4,
            "id_зала"=$5, "День_недели"=$6, "Время_начала"=$7, "Время_окончания"=$8,
            "Максимум_участников"=$9, "Дата_начала"=$10, "Дата_окончания"=$11,
            "Повторяется"=$12, "Обновлён"=$13
        WHERE "id_шаблона"=$14
    `, t.Name, t.DisciplineID, t.CoachID, t.TrackID, t.RoomID,
        t.DayOfWeek, t.StartTime, t.EndTime, t.MaxCapacity,
        t.StartDate, t.EndDate, t.Recurring, t.UpdatedAt, t.ID)
    if err != nil {
        return fmt.Errorf("обновление шаблона: %w", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// DeactivateTemplate — мягкое удаление одного шаблона: строка остаётся,
// вхождений больше нет. Симметрии с BulkDeleteTemplates тут нет намеренно.
func DeactivateTemplate(ctx context.Context, db *sql.DB, id int) error {
    res, err := db.ExecContext(ctx, `
        UPDATE "Шаблон_занятия" SET "Активен"=FALSE, "Обновлён"=$1 WHERE "id_шаблона"=$2
    `, time.Now().UTC(), id)
    if err != nil {
        return fmt.Errorf("удаление шаблона: %w", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// BulkDeleteTemplates — ЖЁСТКОЕ удаление выбранных шаблонов вместе с их
// записями (каскад). Асимметрия с мягким одиночным удалением — поведение
// исходной системы, сохранено как есть.
func BulkDeleteTemplates(ctx context.Context, db *sql.DB, ids []int) (int64, error) {
    if len(ids) == 0 {
        return 0, nil
    }
    ph := make([]string, len(ids))
    args := make([]any, len(ids))
    for i, id := range ids {
        ph[i] = "$" + strconv.Itoa(i+1)
        args[i] = id
    }
    res, err := db.ExecContext(ctx, `
        DELETE FROM "Шаблон_занятия" WHERE "id_шаблона" IN (`+strings.Join(ph, ",")+`)
    `, args...)
    if err != nil {
        return 0, fmt.Errorf("массовое удаление шаблонов: %w", err)
    }
    n, _ := res.RowsAffected()
    return n, nil
}

// ReassignTemplate — перенос шаблона мышью на другой день недели и/или в
// другой зал (roomID 0 = без зала). Меняются только эти два поля, но так
// как вхождения виртуальны, перенос задним числом меняет и все прошлые
// вхождения шаблона — контракт, который интерфейс обязан показать
// пользователю. Одновременные переносы не сериализуются: последняя запись
// побеждает.
func ReassignTemplate(ctx context.Context, db *sql.DB, id, dayOfWeek, roomID int) (*models.ClassTemplate, error) {
    if dayOfWeek < 0 || dayOfWeek > 6 {
        return nil, fmt.Errorf("день недели 0-6: %w", schedule.ErrInvalidRange)
    }
    var room sql.NullInt64
    if roomID > 0 {
        room = sql.NullInt64{Int64: int64(roomID), Valid: true}
    }
    res, err := db.ExecContext(ctx, `
        UPDATE "Шаблон_занятия"
        SET "День_недели"=$1, "id_зала"=$2, "Обновлён"=$3
        WHERE "id_шаблона"=$4
    `, dayOfWeek, room, time.Now().UTC(), id)
    if err != nil {
        return nil, fmt.Errorf("перенос шаблона: %w", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return nil, ErrNotFound
    }
    return GetTemplate(ctx, db, id)
}
