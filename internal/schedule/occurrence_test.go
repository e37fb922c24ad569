package schedule

import (
    "database/sql"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nullDate(t time.Time) sql.NullTime {
    return sql.NullTime{Time: t, Valid: true}
}

func weeklyTemplate(id int, start, end time.Time, dow int) models.ClassTemplate {
    return models.ClassTemplate{
        ID:           id,
        Name:         "ММА базовая",
        DisciplineID: 1,
        DayOfWeek:    dow,
        StartTime:    "18:00",
        EndTime:      "19:30",
        StartDate:    nullDate(start),
        EndDate:      nullDate(end),
        Recurring:    true,
        Active:       true,
    }
}

func TestIsOccurrenceActive_NoStartDate(t *testing.T) {
    tpl := models.ClassTemplate{
        ID: 1, DayOfWeek: 1, Recurring: true, Active: true,
        EndDate: nullDate(date(2030, 1, 1)),
    }
    // шаблон без даты начала не показывается никогда, ни на какую дату
    for _, d := range []time.Time{
        date(2020, 1, 6), date(2025, 6, 2), date(2029, 12, 31),
    } {
        assert.False(t, IsOccurrenceActive(tpl, d))
    }
    assert.True(t, IsMalformed(tpl))
}

func TestIsOccurrenceActive_OneTime(t *testing.T) {
    start := date(2025, 6, 2) // понедельник
    tpl := models.ClassTemplate{
        ID: 2, DayOfWeek: 1, Recurring: false, Active: true,
        StartDate: nullDate(start),
    }
    // разовое занятие: ровно одна дата — дата начала
    assert.True(t, IsOccurrenceActive(tpl, start))
    assert.False(t, IsOccurrenceActive(tpl, start.AddDate(0, 0, 7)))
    assert.False(t, IsOccurrenceActive(tpl, start.AddDate(0, 0, -7)))
    assert.False(t, IsOccurrenceActive(tpl, start.AddDate(0, 0, 1)))
    assert.False(t, IsMalformed(tpl))
}

func TestIsOccurrenceActive_RecurringWithoutEndDate(t *testing.T) {
    start := date(2025, 6, 2)
    tpl := models.ClassTemplate{
        ID: 3, DayOfWeek: 1, Recurring: true, Active: true,
        StartDate: nullDate(start),
    }
    // повторяющийся шаблон без даты окончания — неполные данные, не
    // «повторяется вечно»: вхождений нет даже на дату начала
    assert.False(t, IsOccurrenceActive(tpl, start))
    assert.False(t, IsOccurrenceActive(tpl, start.AddDate(0, 0, 7)))
    assert.True(t, IsMalformed(tpl))
}

func TestIsOccurrenceActive_Window(t *testing.T) {
    tpl := weeklyTemplate(4, date(2025, 6, 2), date(2025, 6, 16), 1)
    // внутри окна [начало, окончание] — включительно с обеих сторон
    assert.True(t, IsOccurrenceActive(tpl, date(2025, 6, 2)))
    assert.True(t, IsOccurrenceActive(tpl, date(2025, 6, 9)))
    assert.True(t, IsOccurrenceActive(tpl, date(2025, 6, 16)))
    // день недели резолвер не проверяет — среда внутри окна тоже true
    assert.True(t, IsOccurrenceActive(tpl, date(2025, 6, 4)))
    // за границами окна
    assert.False(t, IsOccurrenceActive(tpl, date(2025, 6, 1)))
    assert.False(t, IsOccurrenceActive(tpl, date(2025, 6, 17)))
    assert.False(t, IsOccurrenceActive(tpl, date(2025, 6, 23)))
}

func TestIsOccurrenceActive_Inactive(t *testing.T) {
    tpl := weeklyTemplate(5, date(2025, 6, 2), date(2025, 6, 16), 1)
    tpl.Active = false
    // мягко удалённый шаблон не даёт вхождений независимо от полей
    assert.False(t, IsOccurrenceActive(tpl, date(2025, 6, 9)))
}

func TestIsOccurrenceActive_TimeOfDayIgnored(t *testing.T) {
    tpl := weeklyTemplate(6, date(2025, 6, 2), date(2025, 6, 16), 1)
    late := time.Date(2025, 6, 16, 23, 55, 0, 0, time.UTC)
    assert.True(t, IsOccurrenceActive(tpl, late))
}

func TestTemplatesForDate_JuneScenario(t *testing.T) {
    // шаблон A: начало 2025-06-02 (понедельник), день недели 1,
    // окончание 2025-06-16
    a := weeklyTemplate(7, date(2025, 6, 2), date(2025, 6, 16), 1)
    all := []models.ClassTemplate{a}

    for _, d := range []time.Time{date(2025, 6, 2), date(2025, 6, 9), date(2025, 6, 16)} {
        got := TemplatesForDate(all, d)
        require.Len(t, got, 1, "ожидалось вхождение на %s", d.Format("2006-01-02"))
        assert.Equal(t, a.ID, got[0].ID)
    }
    for _, d := range []time.Time{
        date(2025, 6, 1),  // воскресенье до начала
        date(2025, 6, 23), // понедельник после окончания
        date(2025, 6, 4),  // среда внутри окна: день недели не совпадает
    } {
        assert.Empty(t, TemplatesForDate(all, d), "вхождения на %s быть не должно", d.Format("2006-01-02"))
    }
}

func TestDateOnly(t *testing.T) {
    in := time.Date(2025, 6, 2, 18, 45, 12, 999, time.FixedZone("MSK", 3*3600))
    got := DateOnly(in)
    assert.Equal(t, date(2025, 6, 2), got)
}
