package models

import (
    "database/sql"
    "time"
)

// Справочники сетки расписания: зал, направление, поток.
// Цвет используется фронтендом для раскраски ячеек сетки.

type Room struct {
    ID        int    `json:"id_зала"`
    Name      string `json:"название"`
    Color     string `json:"цвет"`
    SortOrder int    `json:"порядок"`
    Active    bool   `json:"активен"`
}

type Discipline struct {
    ID        int    `json:"id_направления"`
    Name      string `json:"название"`
    Color     string `json:"цвет"`
    SortOrder int    `json:"порядок"`
    Active    bool   `json:"активен"`
}

type Track struct {
    ID        int    `json:"id_потока"`
    Name      string `json:"название"`
    Color     string `json:"цвет"`
    SortOrder int    `json:"порядок"`
    Active    bool   `json:"активен"`
}

// ClassTemplate — шаблон занятия: повторяющийся (еженедельно по дню недели
// в окне [Дата_начала, Дата_окончания]) либо разовый. Конкретные вхождения
// в БД не хранятся — они каждый раз вычисляются из шаблона (см. internal/schedule).
type ClassTemplate struct {
    ID           int           `json:"id_шаблона"`
    Series       string        `json:"серия"` // uuid, связывает копии шаблона при переносе серии
    Name         string        `json:"название"`
    DisciplineID int           `json:"id_направления"`
    CoachID      sql.NullInt64 `json:"id_тренера"`
    TrackID      sql.NullInt64 `json:"id_потока"`
    RoomID       sql.NullInt64 `json:"id_зала"`             // NULL = без зала
    DayOfWeek    int           `json:"день_недели"`          // 0=воскресенье ... 6=суббота
    StartTime    string        `json:"время_начала"`         // "15:04"
    EndTime      string        `json:"время_окончания"`
    MaxCapacity  sql.NullInt64 `json:"максимум_участников"` // NULL = без ограничения
    StartDate    sql.NullTime  `json:"дата_начала"`
    EndDate      sql.NullTime  `json:"дата_окончания"`
    Recurring    bool          `json:"повторяется"`
    Active       bool          `json:"активен"` // false = мягко удалён
    CreatedAt    time.Time     `json:"создан"`
    UpdatedAt    time.Time     `json:"обновлён"`

    DisciplineName string `json:"название_направления"` // Для JOIN запросов
    CoachName      string `json:"фио_тренера"`          // Для JOIN запросов
    RoomName       string `json:"название_зала"`        // Для JOIN запросов
    TrackName      string `json:"название_потока"`      // Для JOIN запросов
}

// Статусы записи на занятие.
const (
    ReservationReserved  = "Записан"
    ReservationCheckedIn = "Посетил"
    ReservationCancelled = "Отменил"
)

// Reservation — запись клиента на вхождение (id_шаблона, Дата).
// Записи не удаляются физически, только меняют статус.
type Reservation struct {
    ID          int          `json:"id_записи"`
    MemberID    int          `json:"id_клиента"`
    TemplateID  int          `json:"id_шаблона"`
    Date        time.Time    `json:"дата"`
    Status      string       `json:"статус"`
    CreatedAt   time.Time    `json:"создана"`
    CheckedInAt sql.NullTime `json:"время_отметки"`
    CancelledAt sql.NullTime `json:"время_отмены"`

    MemberName   string `json:"фио_клиента"`      // Для JOIN запросов
    TemplateName string `json:"название_шаблона"` // Для JOIN запросов
}

// Member — строка справочника клиентов. Таблицей владеет внешняя часть
// приложения, здесь только чтение (выбор тренера и участников).
type Member struct {
    ID     int    `json:"id_клиента"`
    FIO    string `json:"фио"`
    Status string `json:"статус"`
    Role   string `json:"роль"`
}
