package schedule

import (
    "time"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
)

// Вхождение (занятие на конкретную дату) — виртуальная сущность: строк под
// него в БД нет, пара (шаблон, дата) каждый раз проверяется заново. Поэтому
// перенос шаблона на другой день недели или в другой зал сразу меняет все
// его прошлые и будущие вхождения — отдельного «перенести только одно
// занятие» в этой модели не существует.

// DateOnly отбрасывает время, оставляя календарную дату (UTC).
func DateOnly(t time.Time) time.Time {
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsOccurrenceActive сообщает, показывается ли шаблон tpl на дату date.
// День недели здесь НЕ проверяется — вызывающий сначала отбирает шаблоны
// по date.Weekday() == tpl.DayOfWeek (см. TemplatesForDate).
//
// Функция чистая и тотальная: для любого неполного шаблона возвращает
// false, а не ошибку. Отсутствие вхождения — обычный ответ, не сбой.
func IsOccurrenceActive(tpl models.ClassTemplate, date time.Time) bool {
    if !tpl.Active {
        // мягко удалённый шаблон не даёт вхождений ни при каких полях
        return false
    }
    if !tpl.StartDate.Valid {
        // шаблоны, заведённые до появления дат серии, не должны молча
        // показываться каждую неделю до бесконечности
        return false
    }
    d := DateOnly(date)
    start := DateOnly(tpl.StartDate.Time)
    if d.Before(start) {
        return false // серия ещё не началась
    }
    if !tpl.EndDate.Valid {
        if !tpl.Recurring {
            // разовое занятие: ровно одна дата — дата начала
            return d.Equal(start)
        }
        // повторяющийся шаблон без даты окончания — неполные данные,
        // а не «повторяется вечно»
        return false
    }
    if d.After(DateOnly(tpl.EndDate.Time)) {
        return false
    }
    return true
}

// IsMalformed помечает шаблон с неполными датами серии: резолвер для таких
// молча возвращает false, но вызывающим стоит логировать их как сигнал о
// качестве данных (строки до миграции, оборванное редактирование).
func IsMalformed(tpl models.ClassTemplate) bool {
    if !tpl.StartDate.Valid {
        return true
    }
    return tpl.Recurring && !tpl.EndDate.Valid
}

// TemplatesForDate отбирает шаблоны, дающие вхождение на дату date:
// сначала фильтр по дню недели, затем резолвер окна серии.
func TemplatesForDate(tpls []models.ClassTemplate, date time.Time) []models.ClassTemplate {
    weekday := int(date.Weekday())
    var out []models.ClassTemplate
    for _, tpl := range tpls {
        if tpl.DayOfWeek != weekday {
            continue
        }
        if !IsOccurrenceActive(tpl, date) {
            continue
        }
        out = append(out, tpl)
    }
    return out
}
