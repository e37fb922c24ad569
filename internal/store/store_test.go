package store

import (
    "context"
    "database/sql"
    "testing"
    "time"

    _ "github.com/mattn/go-sqlite3"
    "github.com/stretchr/testify/require"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
)

// Тестовая схема — SQLite-вариант схемы из internal/database/migrations.go.
// SQL самого хранилища переносимый, поэтому тесты гоняются на встроенном
// движке без поднятого Postgres.
var testSchema = []string{
    `CREATE TABLE "Зал" (
        "id_зала"   INTEGER PRIMARY KEY AUTOINCREMENT,
        "Название"  TEXT NOT NULL,
        "Цвет"      TEXT NOT NULL DEFAULT '#6c757d',
        "Порядок"   INTEGER NOT NULL DEFAULT 0,
        "Активен"   BOOLEAN NOT NULL DEFAULT TRUE
    )`,
    `CREATE TABLE "Направление" (
        "id_направления" INTEGER PRIMARY KEY AUTOINCREMENT,
        "Название"       TEXT NOT NULL,
        "Цвет"           TEXT NOT NULL DEFAULT '#0d6efd',
        "Порядок"        INTEGER NOT NULL DEFAULT 0,
        "Активен"        BOOLEAN NOT NULL DEFAULT TRUE
    )`,
    `CREATE TABLE "Поток" (
        "id_потока" INTEGER PRIMARY KEY AUTOINCREMENT,
        "Название"  TEXT NOT NULL,
        "Цвет"      TEXT NOT NULL DEFAULT '#198754',
        "Порядок"   INTEGER NOT NULL DEFAULT 0,
        "Активен"   BOOLEAN NOT NULL DEFAULT TRUE
    )`,
    `CREATE TABLE "Клиент" (
        "id_клиента" INTEGER PRIMARY KEY AUTOINCREMENT,
        "ФИО"        TEXT NOT NULL,
        "Статус"     TEXT NOT NULL DEFAULT 'активен',
        "Роль"       TEXT
    )`,
    `CREATE TABLE "Шаблон_занятия" (
        "id_шаблона"          INTEGER PRIMARY KEY AUTOINCREMENT,
        "Серия"               TEXT NOT NULL,
        "Название"            TEXT NOT NULL,
        "id_направления"      INTEGER NOT NULL,
        "id_тренера"          INTEGER,
        "id_потока"           INTEGER,
        "id_зала"             INTEGER,
        "День_недели"         INTEGER NOT NULL,
        "Время_начала"        TEXT NOT NULL,
        "Время_окончания"     TEXT NOT NULL,
        "Максимум_участников" INTEGER,
        "Дата_начала"         DATE,
        "Дата_окончания"      DATE,
        "Повторяется"         BOOLEAN NOT NULL DEFAULT TRUE,
        "Активен"             BOOLEAN NOT NULL DEFAULT TRUE,
        "Создан"              TIMESTAMP NOT NULL,
        "Обновлён"            TIMESTAMP NOT NULL
    )`,
    `CREATE TABLE "Запись_на_занятие" (
        "id_записи"      INTEGER PRIMARY KEY AUTOINCREMENT,
        "id_клиента"     INTEGER NOT NULL,
        "id_шаблона"     INTEGER NOT NULL REFERENCES "Шаблон_занятия"("id_шаблона") ON DELETE CASCADE,
        "Дата"           DATE NOT NULL,
        "Статус"         TEXT NOT NULL DEFAULT 'Записан',
        "Создана"        TIMESTAMP NOT NULL,
        "Время_отметки"  TIMESTAMP,
        "Время_отмены"   TIMESTAMP
    )`,
}

func openTestDB(t *testing.T) *sql.DB {
    t.Helper()
    db, err := sql.Open("sqlite3", "file::memory:?_fk=1")
    require.NoError(t, err)
    // один коннект: БД в памяти живёт на нём, а конкурентные транзакции
    // сериализуются пулом
    db.SetMaxOpenConns(1)
    t.Cleanup(func() { db.Close() })

    for _, ddl := range testSchema {
        _, err := db.Exec(ddl)
        require.NoError(t, err)
    }

    seed := []string{
        `INSERT INTO "Направление" ("Название") VALUES ('ММА'), ('Грэпплинг')`,
        `INSERT INTO "Зал" ("Название","Порядок") VALUES ('Ринг', 1), ('Татами', 2)`,
        `INSERT INTO "Поток" ("Название") VALUES ('Взрослые')`,
        `INSERT INTO "Клиент" ("ФИО","Статус","Роль") VALUES
            ('Иванов Иван', 'активен', NULL),
            ('Петров Пётр', 'активен', NULL),
            ('Сидоров Семён', 'активен', NULL),
            ('Кузнецов Артём', 'активен', 'тренер')`,
    }
    for _, q := range seed {
        _, err := db.Exec(q)
        require.NoError(t, err)
    }
    return db
}

func testTemplate(capacity int) *models.ClassTemplate {
    tpl := &models.ClassTemplate{
        Name:         "ММА базовая",
        DisciplineID: 1,
        RoomID:       sql.NullInt64{Int64: 1, Valid: true},
        DayOfWeek:    1,
        StartTime:    "18:00",
        EndTime:      "19:30",
        StartDate:    sql.NullTime{Time: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), Valid: true},
        EndDate:      sql.NullTime{Time: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), Valid: true},
        Recurring:    true,
    }
    if capacity > 0 {
        tpl.MaxCapacity = sql.NullInt64{Int64: int64(capacity), Valid: true}
    }
    return tpl
}

func mustCreateTemplate(t *testing.T, db *sql.DB, capacity int) *models.ClassTemplate {
    t.Helper()
    tpl := testTemplate(capacity)
    require.NoError(t, CreateTemplate(context.Background(), db, tpl))
    return tpl
}
