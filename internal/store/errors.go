package store

import "errors"

// Типизированные ошибки хранилища. Обработчики переводят их в problem-JSON,
// автоматических повторов нет — повтор только по действию пользователя.
var (
    ErrNotFound             = errors.New("запись не найдена")
    ErrCapacityExceeded     = errors.New("превышена вместимость занятия")
    ErrDuplicateReservation = errors.New("клиент уже записан на это занятие")
    ErrStatusConflict       = errors.New("недопустимый переход статуса записи")
)
