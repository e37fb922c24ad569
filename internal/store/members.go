package store

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
)

// Таблица "Клиент" принадлежит внешней части приложения (CRM-оболочке);
// ядро расписания только читает её для селектов тренера и участников.

const memberRoleCoach = "тренер"

// ListMembersForSelect — активные клиенты для выпадающего списка записи.
func ListMembersForSelect(ctx context.Context, db *sql.DB) ([]models.Member, error) {
    return listMembers(ctx, db, "")
}

// ListCoachesForSelect — клиенты с ролью тренера.
func ListCoachesForSelect(ctx context.Context, db *sql.DB) ([]models.Member, error) {
    return listMembers(ctx, db, memberRoleCoach)
}

func listMembers(ctx context.Context, db *sql.DB, role string) ([]models.Member, error) {
    query := `
        SELECT "id_клиента", "ФИО", "Статус", COALESCE("Роль",'')
        FROM "Клиент"
        WHERE "Статус" = 'активен'`
    args := []any{}
    if role != "" {
        query += ` AND "Роль" = $1`
        args = append(args, role)
    }
    query += ` ORDER BY "ФИО", "id_клиента"`
    rows, err := db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, fmt.Errorf("список клиентов: %w", err)
    }
    defer rows.Close()

    var out []models.Member
    for rows.Next() {
        var m models.Member
        if err := rows.Scan(&m.ID, &m.FIO, &m.Status, &m.Role); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}
