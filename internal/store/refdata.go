package store

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
)

// Справочники (зал / направление / поток) устроены одинаково: id, название,
// цвет, порядок сортировки, флаг активности. Таблицы разные, поэтому
// запросы собираются из констант с именами таблицы и ключа.

type refTable struct {
    table string
    pk    string
}

var (
    roomsTable       = refTable{`"Зал"`, `"id_зала"`}
    disciplinesTable = refTable{`"Направление"`, `"id_направления"`}
    tracksTable      = refTable{`"Поток"`, `"id_потока"`}
)

type refEntry struct {
    ID        int
    Name      string
    Color     string
    SortOrder int
    Active    bool
}

func (r refTable) list(ctx context.Context, db *sql.DB, onlyActive bool) ([]refEntry, error) {
    query := `SELECT ` + r.pk + `, "Название", "Цвет", "Порядок", "Активен" FROM ` + r.table
    if onlyActive {
        query += ` WHERE "Активен" = TRUE`
    }
    query += ` ORDER BY "Порядок", "Название", ` + r.pk
    rows, err := db.QueryContext(ctx, query)
    if err != nil {
        return nil, fmt.Errorf("справочник %s: %w", r.table, err)
    }
    defer rows.Close()

    var out []refEntry
    for rows.Next() {
        var e refEntry
        if err := rows.Scan(&e.ID, &e.Name, &e.Color, &e.SortOrder, &e.Active); err != nil {
            return nil, err
        }
        out = append(out, e)
    }
    return out, rows.Err()
}

func (r refTable) get(ctx context.Context, db *sql.DB, id int) (refEntry, error) {
    var e refEntry
    err := db.QueryRowContext(ctx, `
        SELECT `+r.pk+`, "Название", "Цвет", "Порядок", "Активен" FROM `+r.table+` WHERE `+r.pk+`=$1
    `, id).Scan(&e.ID, &e.Name, &e.Color, &e.SortOrder, &e.Active)
    if err == sql.ErrNoRows {
        return e, ErrNotFound
    }
    if err != nil {
        return e, fmt.Errorf("справочник %s: %w", r.table, err)
    }
    return e, nil
}

func (r refTable) create(ctx context.Context, db *sql.DB, e *refEntry) error {
    err := db.QueryRowContext(ctx, `
        INSERT INTO `+r.table+` ("Название","Цвет","Порядок","Активен") VALUES ($1,$2,$3,TRUE)
        RETURNING `+r.pk+`
    `, e.Name, e.Color, e.SortOrder).Scan(&e.ID)
    if err != nil {
        return fmt.Errorf("создание в %s: %w", r.table, err)
    }
    e.Active = true
    return nil
}

func (r refTable) update(ctx context.Context, db *sql.DB, e refEntry) error {
    res, err := db.ExecContext(ctx, `
        UPDATE `+r.table+` SET "Название"=$1, "Цвет"=$2, "Порядок"=$3, "Активен"=$4 WHERE `+r.pk+`=$5
    `, e.Name, e.Color, e.SortOrder, e.Active, e.ID)
    if err != nil {
        return fmt.Errorf("обновление в %s: %w", r.table, err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// --- Залы ---

func ListRooms(ctx context.Context, db *sql.DB, onlyActive bool) ([]models.Room, error) {
    entries, err := roomsTable.list(ctx, db, onlyActive)
    if err != nil {
        return nil, err
    }
    out := make([]models.Room, len(entries))
    for i, e := range entries {
        out[i] = models.Room(e)
    }
    return out, nil
}

func GetRoom(ctx context.Context, db *sql.DB, id int) (*models.Room, error) {
    e, err := roomsTable.get(ctx, db, id)
    if err != nil {
        return nil, err
    }
    room := models.Room(e)
    return &room, nil
}

func CreateRoom(ctx context.Context, db *sql.DB, room *models.Room) error {
    e := refEntry(*room)
    if err := roomsTable.create(ctx, db, &e); err != nil {
        return err
    }
    *room = models.Room(e)
    return nil
}

func UpdateRoom(ctx context.Context, db *sql.DB, room models.Room) error {
    return roomsTable.update(ctx, db, refEntry(room))
}

// --- Направления ---

func ListDisciplines(ctx context.Context, db *sql.DB, onlyActive bool) ([]models.Discipline, error) {
    entries, err := disciplinesTable.list(ctx, db, onlyActive)
    if err != nil {
        return nil, err
    }
    out := make([]models.Discipline, len(entries))
    for i, e := range entries {
        out[i] = models.Discipline(e)
    }
    return out, nil
}

func CreateDiscipline(ctx context.Context, db *sql.DB, d *models.Discipline) error {
    e := refEntry(*d)
    if err := disciplinesTable.create(ctx, db, &e); err != nil {
        return err
    }
    *d = models.Discipline(e)
    return nil
}

func UpdateDiscipline(ctx context.Context, db *sql.DB, d models.Discipline) error {
    return disciplinesTable.update(ctx, db, refEntry(d))
}

// --- Потоки ---

func ListTracks(ctx context.Context, db *sql.DB, onlyActive bool) ([]models.Track, error) {
    entries, err := tracksTable.list(ctx, db, onlyActive)
    if err != nil {
        return nil, err
    }
    out := make([]models.Track, len(entries))
    for i, e := range entries {
        out[i] = models.Track(e)
    }
    return out, nil
}

func CreateTrack(ctx context.Context, db *sql.DB, t *models.Track) error {
    e := refEntry(*t)
    if err := tracksTable.create(ctx, db, &e); err != nil {
        return err
    }
    *t = models.Track(e)
    return nil
}

func UpdateTrack(ctx context.Context, db *sql.DB, t models.Track) error {
    return tracksTable.update(ctx, db, refEntry(t))
}
