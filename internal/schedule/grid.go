package schedule

import (
    "errors"
    "sort"
    "time"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
)

// Режим отображения сетки. Влияет только на обрезку ячеек: в месячном виде
// показываем не больше monthCellLimit занятий на ячейку, остальное уходит
// в счётчик «ещё N».
type ViewMode string

const (
    ViewDay   ViewMode = "day"
    ViewWeek  ViewMode = "week"
    ViewMonth ViewMode = "month"
)

const (
    monthCellLimit = 3
    maxRangeDays   = 62 // с запасом на месячную сетку 6x7
)

var ErrInvalidRange = errors.New("некорректный диапазон")

// Occurrence — вычисленное вхождение шаблона для одной ячейки сетки.
type Occurrence struct {
    TemplateID   int       `json:"template_id"`
    Date         time.Time `json:"date"`
    Name         string    `json:"name"`
    StartTime    string    `json:"start_time"`
    EndTime      string    `json:"end_time"`
    DisciplineID int       `json:"discipline_id"`
    CoachID      int       `json:"coach_id,omitempty"`
    TrackID      int       `json:"track_id,omitempty"`
    RoomID       int       `json:"room_id,omitempty"`
    MaxCapacity  int       `json:"max_capacity,omitempty"` // 0 = без ограничения
    Reserved     int       `json:"reserved"`               // заполняется снаружи счётчиком записей
    Unassigned   bool      `json:"unassigned,omitempty"`   // шаблон без зала, прикреплён к первой колонке
}

// RoomColumn — колонка одного зала внутри дня.
type RoomColumn struct {
    RoomID      int          `json:"room_id"` // 0 — псевдоколонка «без зала»
    RoomName    string       `json:"room_name"`
    RoomColor   string       `json:"room_color,omitempty"`
    Occurrences []Occurrence `json:"occurrences"`
    Overflow    int          `json:"overflow,omitempty"` // скрыто занятий в месячном виде
}

type Day struct {
    Date    time.Time    `json:"date"`
    Columns []RoomColumn `json:"columns"`
}

type Grid struct {
    Mode ViewMode  `json:"mode"`
    From time.Time `json:"from"`
    To   time.Time `json:"to"`
    Days []Day     `json:"days"`
}

// BuildGrid раскладывает вхождения шаблонов по ячейкам дата x зал.
//
// Функция чистая: без побочных эффектов и скрытых кэшей, одинаковый вход
// всегда даёт одинаковый результат (занятия в ячейке отсортированы по
// времени начала, при равенстве — по id шаблона). roomFilter > 0 оставляет
// один зал; без фильтра на каждый день строится колонка на каждый активный
// зал, а шаблоны без зала прикрепляются к первой колонке — это только
// отрисовка, назначением зала такое прикрепление не является и в БД
// не сохраняется.
func BuildGrid(templates []models.ClassTemplate, rooms []models.Room, from, to time.Time, mode ViewMode, roomFilter int) (Grid, error) {
    switch mode {
    case ViewDay, ViewWeek, ViewMonth:
    default:
        return Grid{}, ErrInvalidRange
    }
    from = DateOnly(from)
    to = DateOnly(to)
    if to.Before(from) || to.Sub(from) > maxRangeDays*24*time.Hour {
        return Grid{}, ErrInvalidRange
    }

    // колонки считаем один раз, порядок залов — как в справочнике
    cols := planColumns(rooms, roomFilter)

    grid := Grid{Mode: mode, From: from, To: to}
    for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
        day := Day{Date: d}
        active := TemplatesForDate(templates, d)

        for _, col := range cols {
            day.Columns = append(day.Columns, buildColumn(col, active, d, roomFilter == 0))
        }
        if mode == ViewMonth {
            for i := range day.Columns {
                c := &day.Columns[i]
                if n := len(c.Occurrences); n > monthCellLimit {
                    c.Overflow = n - monthCellLimit
                    c.Occurrences = c.Occurrences[:monthCellLimit]
                }
            }
        }
        grid.Days = append(grid.Days, day)
    }
    return grid, nil
}

type columnPlan struct {
    room           models.Room
    takeUnassigned bool
}

func planColumns(rooms []models.Room, roomFilter int) []columnPlan {
    if roomFilter > 0 {
        for _, r := range rooms {
            if r.ID == roomFilter {
                return []columnPlan{{room: r}}
            }
        }
        // фильтр по неизвестному залу — пустая колонка-заглушка
        return []columnPlan{{room: models.Room{ID: roomFilter}}}
    }

    sorted := make([]models.Room, 0, len(rooms))
    for _, r := range rooms {
        if r.Active {
            sorted = append(sorted, r)
        }
    }
    sort.Slice(sorted, func(i, j int) bool {
        if sorted[i].SortOrder != sorted[j].SortOrder {
            return sorted[i].SortOrder < sorted[j].SortOrder
        }
        if sorted[i].Name != sorted[j].Name {
            return sorted[i].Name < sorted[j].Name
        }
        return sorted[i].ID < sorted[j].ID
    })

    if len(sorted) == 0 {
        // залов нет вовсе — одна псевдоколонка «без зала»
        return []columnPlan{{room: models.Room{Name: "Без зала"}, takeUnassigned: true}}
    }
    cols := make([]columnPlan, len(sorted))
    for i, r := range sorted {
        cols[i] = columnPlan{room: r, takeUnassigned: i == 0}
    }
    return cols
}

func buildColumn(plan columnPlan, active []models.ClassTemplate, date time.Time, withUnassigned bool) RoomColumn {
    col := RoomColumn{
        RoomID:    plan.room.ID,
        RoomName:  plan.room.Name,
        RoomColor: plan.room.Color,
    }
    for _, tpl := range active {
        switch {
        case tpl.RoomID.Valid && int(tpl.RoomID.Int64) == plan.room.ID:
            col.Occurrences = append(col.Occurrences, newOccurrence(tpl, date, false))
        case !tpl.RoomID.Valid && withUnassigned && plan.takeUnassigned:
            col.Occurrences = append(col.Occurrences, newOccurrence(tpl, date, true))
        }
    }
    sort.Slice(col.Occurrences, func(i, j int) bool {
        if col.Occurrences[i].StartTime != col.Occurrences[j].StartTime {
            return col.Occurrences[i].StartTime < col.Occurrences[j].StartTime
        }
        return col.Occurrences[i].TemplateID < col.Occurrences[j].TemplateID
    })
    return col
}

func newOccurrence(tpl models.ClassTemplate, date time.Time, unassigned bool) Occurrence {
    return Occurrence{
        TemplateID:   tpl.ID,
        Date:         date,
        Name:         tpl.Name,
        StartTime:    tpl.StartTime,
        EndTime:      tpl.EndTime,
        DisciplineID: tpl.DisciplineID,
        CoachID:      int(tpl.CoachID.Int64),
        TrackID:      int(tpl.TrackID.Int64),
        RoomID:       int(tpl.RoomID.Int64),
        MaxCapacity:  int(tpl.MaxCapacity.Int64),
        Unassigned:   unassigned,
    }
}
