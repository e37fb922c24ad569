package store

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/lib/pq"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
    "github.com/MaydayTM/mma-gym-crm-sub001/internal/schedule"
)

// Машина состояний записи: Записан -> Посетил | Отменил, из терминальных
// состояний переходов нет. Повторный вызов с тем же целевым состоянием —
// идемпотентный no-op, чтобы двойной клик не превращался в ошибку.

// CreateReservation записывает клиента на вхождение (шаблон, дата).
//
// Проверка вместимости — не «прочитал-сравнил-вставил» из приложения:
// вставка и контрольный пересчёт выполняются в одной сериализуемой
// транзакции, и если после вставки неотменённых записей оказалось больше
// максимума, транзакция откатывается с ErrCapacityExceeded. Два
// одновременных запроса на последнее место так не проходят оба.
//
// При настоящем пересечении транзакций Postgres не даёт пересчёту увидеть
// чужую незафиксированную вставку — проигравшая транзакция обрывается на
// коммите с serialization_failure (40001). Это не отказ по вместимости и не
// повод отдавать клиенту 500: транзакция повторяется, и пересчёт в повторе
// уже видит зафиксированного победителя.
func CreateReservation(ctx context.Context, db *sql.DB, memberID, templateID int, date time.Time) (*models.Reservation, error) {
    date = schedule.DateOnly(date)

    var r *models.Reservation
    var err error
    for attempt := 0; attempt < reservationTxRetries; attempt++ {
        r, err = createReservationTx(ctx, db, memberID, templateID, date)
        if !isSerializationFailure(err) {
            return r, err
        }
    }
    return r, err
}

const reservationTxRetries = 3

// isSerializationFailure распознаёт обрыв сериализуемой транзакции
// (SQLSTATE 40001) — единственный класс ошибок, который имеет смысл
// повторять.
func isSerializationFailure(err error) bool {
    var pqErr *pq.Error
    return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

func createReservationTx(ctx context.Context, db *sql.DB, memberID, templateID int, date time.Time) (*models.Reservation, error) {
    tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
    if err != nil {
        return nil, fmt.Errorf("начало транзакции: %w", err)
    }
    defer tx.Rollback()

    var capacity sql.NullInt64
    err = tx.QueryRowContext(ctx, `
        SELECT "Максимум_участников" FROM "Шаблон_занятия" WHERE "id_шаблона"=$1
    `, templateID).Scan(&capacity)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("чтение шаблона: %w", err)
    }

    var dup int
    err = tx.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM "Запись_на_занятие"
        WHERE "id_клиента"=$1 AND "id_шаблона"=$2 AND "Дата"=$3 AND "Статус" <> $4
    `, memberID, templateID, date, models.ReservationCancelled).Scan(&dup)
    if err != nil {
        return nil, fmt.Errorf("проверка дубликата: %w", err)
    }
    if dup > 0 {
        return nil, ErrDuplicateReservation
    }

    r := models.Reservation{
        MemberID:   memberID,
        TemplateID: templateID,
        Date:       date,
        Status:     models.ReservationReserved,
        CreatedAt:  time.Now().UTC(),
    }
    err = tx.QueryRowContext(ctx, `
        INSERT INTO "Запись_на_занятие" ("id_клиента","id_шаблона","Дата","Статус","Создана")
        VALUES ($1,$2,$3,$4,$5)
        RETURNING "id_записи"
    `, r.MemberID, r.TemplateID, r.Date, r.Status, r.CreatedAt).Scan(&r.ID)
    if err != nil {
        return nil, fmt.Errorf("создание записи: %w", err)
    }

    // контрольный пересчёт уже с учётом собственной вставки
    if capacity.Valid {
        var n int64
        err = tx.QueryRowContext(ctx, `
            SELECT COUNT(*) FROM "Запись_на_занятие"
            WHERE "id_шаблона"=$1 AND "Дата"=$2 AND "Статус" <> $3
        `, templateID, date, models.ReservationCancelled).Scan(&n)
        if err != nil {
            return nil, fmt.Errorf("пересчёт вместимости: %w", err)
        }
        if n > capacity.Int64 {
            return nil, ErrCapacityExceeded
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, fmt.Errorf("фиксация записи: %w", err)
    }
    return &r, nil
}

// CancelReservation переводит запись в «Отменил». Повторная отмена — no-op.
func CancelReservation(ctx context.Context, db *sql.DB, id int) error {
    return transition(ctx, db, id, models.ReservationCancelled, `"Время_отмены"`)
}

// CheckIn отмечает посещение. Повторная отметка — no-op; отметить
// отменённую запись нельзя.
func CheckIn(ctx context.Context, db *sql.DB, id int) error {
    return transition(ctx, db, id, models.ReservationCheckedIn, `"Время_отметки"`)
}

// Предикат по статусу прямо в UPDATE: переход срабатывает только из
// «Записан», так что два одновременных перехода одной записи не выведут её
// из терминального состояния — второй UPDATE просто ничего не затронет.
func transition(ctx context.Context, db *sql.DB, id int, target, tsColumn string) error {
    res, err := db.ExecContext(ctx, `
        UPDATE "Запись_на_занятие" SET "Статус"=$1, `+tsColumn+`=$2
        WHERE "id_записи"=$3 AND "Статус"=$4
    `, target, time.Now().UTC(), id, models.ReservationReserved)
    if err != nil {
        return fmt.Errorf("смена статуса записи: %w", err)
    }
    if n, _ := res.RowsAffected(); n > 0 {
        return nil
    }

    // ничего не обновилось: записи нет, статус уже целевой (идемпотентный
    // повтор) либо запись в другом терминальном состоянии
    var current string
    err = db.QueryRowContext(ctx, `
        SELECT "Статус" FROM "Запись_на_занятие" WHERE "id_записи"=$1
    `, id).Scan(&current)
    if err == sql.ErrNoRows {
        return ErrNotFound
    }
    if err != nil {
        return fmt.Errorf("чтение записи: %w", err)
    }
    if current == target {
        return nil
    }
    return ErrStatusConflict
}

// CountReservations — число неотменённых записей на вхождение. Используется
// и бейджами вместимости в сетке, и проверкой при создании записи.
func CountReservations(ctx context.Context, db *sql.DB, templateID int, date time.Time) (int, error) {
    var n int
    err := db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM "Запись_на_занятие"
        WHERE "id_шаблона"=$1 AND "Дата"=$2 AND "Статус" <> $3
    `, templateID, schedule.DateOnly(date), models.ReservationCancelled).Scan(&n)
    if err != nil {
        return 0, fmt.Errorf("счёт записей: %w", err)
    }
    return n, nil
}

// OccurrenceKey адресует вхождение в счётчиках вместимости.
type OccurrenceKey struct {
    TemplateID int
    Date       string // "2006-01-02"
}

// CountReservationsInRange — счётчики неотменённых записей по всем
// вхождениям диапазона одним запросом, для бейджей вместимости в сетке.
func CountReservationsInRange(ctx context.Context, db *sql.DB, from, to time.Time) (map[OccurrenceKey]int, error) {
    rows, err := db.QueryContext(ctx, `
        SELECT "id_шаблона", "Дата", COUNT(*)
        FROM "Запись_на_занятие"
        WHERE "Дата" >= $1 AND "Дата" <= $2 AND "Статус" <> $3
        GROUP BY "id_шаблона", "Дата"
    `, schedule.DateOnly(from), schedule.DateOnly(to), models.ReservationCancelled)
    if err != nil {
        return nil, fmt.Errorf("счётчики записей: %w", err)
    }
    defer rows.Close()

    out := map[OccurrenceKey]int{}
    for rows.Next() {
        var tplID, n int
        var date time.Time
        if err := rows.Scan(&tplID, &date, &n); err != nil {
            return nil, err
        }
        out[OccurrenceKey{TemplateID: tplID, Date: date.Format("2006-01-02")}] = n
    }
    return out, rows.Err()
}

// GetReservation возвращает запись по id.
func GetReservation(ctx context.Context, db *sql.DB, id int) (*models.Reservation, error) {
    var r models.Reservation
    err := db.QueryRowContext(ctx, `
        SELECT "id_записи","id_клиента","id_шаблона","Дата","Статус","Создана","Время_отметки","Время_отмены"
        FROM "Запись_на_занятие" WHERE "id_записи"=$1
    `, id).Scan(&r.ID, &r.MemberID, &r.TemplateID, &r.Date, &r.Status, &r.CreatedAt, &r.CheckedInAt, &r.CancelledAt)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("чтение записи: %w", err)
    }
    return &r, nil
}

// ListReservations — записи на вхождение с ФИО клиентов, для списка
// участников в карточке занятия.
func ListReservations(ctx context.Context, db *sql.DB, templateID int, date time.Time) ([]models.Reservation, error) {
    rows, err := db.QueryContext(ctx, `
        SELECT r."id_записи", r."id_клиента", r."id_шаблона", r."Дата", r."Статус",
               r."Создана", r."Время_отметки", r."Время_отмены", c."ФИО"
        FROM "Запись_на_занятие" r
        JOIN "Клиент" c ON c."id_клиента" = r."id_клиента"
        WHERE r."id_шаблона"=$1 AND r."Дата"=$2
        ORDER BY r."Создана", r."id_записи"
    `, templateID, schedule.DateOnly(date))
    if err != nil {
        return nil, fmt.Errorf("список записей: %w", err)
    }
    defer rows.Close()

    var out []models.Reservation
    for rows.Next() {
        var r models.Reservation
        if err := rows.Scan(&r.ID, &r.MemberID, &r.TemplateID, &r.Date, &r.Status,
            &r.CreatedAt, &r.CheckedInAt, &r.CancelledAt, &r.MemberName); err != nil {
            return nil, err
        }
        out = append(out, r)
    }
    return out, rows.Err()
}
