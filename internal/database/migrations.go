package database

import (
    "database/sql"
    "log"
)

// Migrate доводит схему ядра расписания до актуальной. Запускается при
// старте, все шаги идемпотентны. Таблица "Клиент" принадлежит оболочке
// CRM и здесь не создаётся.
func Migrate(db *sql.DB) error {
    log.Println("Миграция схемы расписания...")

    for _, ddl := range migrations {
        if _, err := db.Exec(ddl); err != nil {
            log.Printf("❌ Ошибка миграции: %v", err)
            return err
        }
    }

    log.Println("✅ Схема расписания актуальна")
    return nil
}

var migrations = []string{
    `CREATE TABLE IF NOT EXISTS "Зал" (
        "id_зала"   SERIAL PRIMARY KEY,
        "Название"  TEXT NOT NULL,
        "Цвет"      TEXT NOT NULL DEFAULT '#6c757d',
        "Порядок"   INT NOT NULL DEFAULT 0,
        "Активен"   BOOLEAN NOT NULL DEFAULT TRUE
    )`,
    `CREATE TABLE IF NOT EXISTS "Направление" (
        "id_направления" SERIAL PRIMARY KEY,
        "Название"       TEXT NOT NULL,
        "Цвет"           TEXT NOT NULL DEFAULT '#0d6efd',
        "Порядок"        INT NOT NULL DEFAULT 0,
        "Активен"        BOOLEAN NOT NULL DEFAULT TRUE
    )`,
    `CREATE TABLE IF NOT EXISTS "Поток" (
        "id_потока" SERIAL PRIMARY KEY,
        "Название"  TEXT NOT NULL,
        "Цвет"      TEXT NOT NULL DEFAULT '#198754',
        "Порядок"   INT NOT NULL DEFAULT 0,
        "Активен"   BOOLEAN NOT NULL DEFAULT TRUE
    )`,
    `CREATE TABLE IF NOT EXISTS "Шаблон_занятия" (
        "id_шаблона"          SERIAL PRIMARY KEY,
        "Серия"               UUID NOT NULL,
        "Название"            TEXT NOT NULL,
        "id_направления"      INT NOT NULL REFERENCES "Направление"("id_направления"),
        "id_тренера"          INT,
        "id_потока"           INT REFERENCES "Поток"("id_потока"),
        "id_зала"             INT REFERENCES "Зал"("id_зала"),
        "День_недели"         SMALLINT NOT NULL CHECK ("День_недели" BETWEEN 0 AND 6),
        "Время_начала"        TEXT NOT NULL,
        "Время_окончания"     TEXT NOT NULL,
        "Максимум_участников" INT,
        "Дата_начала"         DATE,
        "Дата_окончания"      DATE,
        "Повторяется"         BOOLEAN NOT NULL DEFAULT TRUE,
        "Активен"             BOOLEAN NOT NULL DEFAULT TRUE,
        "Создан"              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        "Обновлён"            TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
    `CREATE TABLE IF NOT EXISTS "Запись_на_занятие" (
        "id_записи"      SERIAL PRIMARY KEY,
        "id_клиента"     INT NOT NULL,
        "id_шаблона"     INT NOT NULL REFERENCES "Шаблон_занятия"("id_шаблона") ON DELETE CASCADE,
        "Дата"           DATE NOT NULL,
        "Статус"         TEXT NOT NULL DEFAULT 'Записан',
        "Создана"        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        "Время_отметки"  TIMESTAMPTZ,
        "Время_отмены"   TIMESTAMPTZ
    )`,
    `CREATE INDEX IF NOT EXISTS "idx_записи_вхождение"
        ON "Запись_на_занятие" ("id_шаблона", "Дата")`,
    `CREATE INDEX IF NOT EXISTS "idx_шаблоны_день"
        ON "Шаблон_занятия" ("День_недели") WHERE "Активен"`,
}
