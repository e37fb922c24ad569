package store

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/lib/pq"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/MaydayTM/mma-gym-crm-sub001/internal/models"
)

var occurrenceDate = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC) // понедельник в окне серии

func TestCreateReservation(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 10)
    r, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    require.NotZero(t, r.ID)
    assert.Equal(t, models.ReservationReserved, r.Status)

    got, err := GetReservation(ctx, db, r.ID)
    require.NoError(t, err)
    assert.Equal(t, 1, got.MemberID)
    assert.Equal(t, tpl.ID, got.TemplateID)
    assert.Equal(t, "2025-06-09", got.Date.Format("2006-01-02"))

    _, err = CreateReservation(ctx, db, 1, 9999, occurrenceDate)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateReservation_Duplicate(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 10)
    _, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)

    _, err = CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    assert.ErrorIs(t, err, ErrDuplicateReservation)

    // на другую дату серии — можно
    _, err = CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate.AddDate(0, 0, 7))
    require.NoError(t, err)
}

func TestCreateReservation_AfterCancelAllowed(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 1)
    r, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    require.NoError(t, CancelReservation(ctx, db, r.ID))

    // отменённая запись не занимает место и не считается дубликатом
    _, err = CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)
}

func TestCreateReservation_CapacityExceeded(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 2)
    _, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    _, err = CreateReservation(ctx, db, 2, tpl.ID, occurrenceDate)
    require.NoError(t, err)

    _, err = CreateReservation(ctx, db, 3, tpl.ID, occurrenceDate)
    assert.ErrorIs(t, err, ErrCapacityExceeded)

    n, err := CountReservations(ctx, db, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    assert.Equal(t, 2, n)
}

func TestCreateReservation_ConcurrentLastSlot(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    // вместимость 2, три одновременных запроса: ровно два проходят
    tpl := mustCreateTemplate(t, db, 2)

    var wg sync.WaitGroup
    errs := make([]error, 3)
    for i := 0; i < 3; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = CreateReservation(ctx, db, i+1, tpl.ID, occurrenceDate)
        }(i)
    }
    wg.Wait()

    ok, capacity := 0, 0
    for _, err := range errs {
        switch {
        case err == nil:
            ok++
        case errors.Is(err, ErrCapacityExceeded):
            capacity++
        default:
            t.Fatalf("неожиданная ошибка: %v", err)
        }
    }
    assert.Equal(t, 2, ok)
    assert.Equal(t, 1, capacity)

    n, err := CountReservations(ctx, db, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    assert.Equal(t, 2, n)
}

func TestCreateReservation_UnlimitedCapacity(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    // максимум не задан — ограничения нет
    tpl := mustCreateTemplate(t, db, 0)
    for member := 1; member <= 4; member++ {
        _, err := CreateReservation(ctx, db, member, tpl.ID, occurrenceDate)
        require.NoError(t, err)
    }
}

// Обрыв сериализуемой транзакции Postgres (40001) — повторяемая ошибка,
// даже завёрнутая по пути наверх; всё остальное отдаётся как есть.
func TestIsSerializationFailure(t *testing.T) {
    abort := &pq.Error{Code: "40001", Message: "could not serialize access"}
    assert.True(t, isSerializationFailure(abort))
    assert.True(t, isSerializationFailure(fmt.Errorf("фиксация записи: %w", abort)))

    assert.False(t, isSerializationFailure(nil))
    assert.False(t, isSerializationFailure(errors.New("обрыв соединения")))
    assert.False(t, isSerializationFailure(&pq.Error{Code: "23505"}))
    assert.False(t, isSerializationFailure(ErrCapacityExceeded))
}

// Одновременные отметка посещения и отмена одной записи: побеждает ровно
// один переход, запись не оказывается сразу в двух терминальных состояниях.
func TestConcurrentCheckInAndCancel(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 0)
    for i := 0; i < 50; i++ {
        r, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate.AddDate(0, 0, 7*i))
        require.NoError(t, err)

        var wg sync.WaitGroup
        var checkInErr, cancelErr error
        wg.Add(2)
        go func() {
            defer wg.Done()
            checkInErr = CheckIn(ctx, db, r.ID)
        }()
        go func() {
            defer wg.Done()
            cancelErr = CancelReservation(ctx, db, r.ID)
        }()
        wg.Wait()

        // один переход прошёл, второй упёрся в терминальное состояние
        if checkInErr == nil {
            assert.ErrorIs(t, cancelErr, ErrStatusConflict)
        } else {
            assert.ErrorIs(t, checkInErr, ErrStatusConflict)
            require.NoError(t, cancelErr)
        }

        got, err := GetReservation(ctx, db, r.ID)
        require.NoError(t, err)
        assert.NotEqual(t, models.ReservationReserved, got.Status)
        assert.False(t, got.CheckedInAt.Valid && got.CancelledAt.Valid,
            "запись %d в двух терминальных состояниях сразу", r.ID)
    }
}

func TestCheckInIdempotent(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 0)
    r, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)

    require.NoError(t, CheckIn(ctx, db, r.ID))
    // повторная отметка — no-op без ошибки
    require.NoError(t, CheckIn(ctx, db, r.ID))

    got, err := GetReservation(ctx, db, r.ID)
    require.NoError(t, err)
    assert.Equal(t, models.ReservationCheckedIn, got.Status)
    assert.True(t, got.CheckedInAt.Valid)

    // из терминального состояния выхода нет
    assert.ErrorIs(t, CancelReservation(ctx, db, r.ID), ErrStatusConflict)
}

func TestCancelIdempotent(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 0)
    r, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)

    require.NoError(t, CancelReservation(ctx, db, r.ID))
    require.NoError(t, CancelReservation(ctx, db, r.ID))

    got, err := GetReservation(ctx, db, r.ID)
    require.NoError(t, err)
    assert.Equal(t, models.ReservationCancelled, got.Status)
    assert.True(t, got.CancelledAt.Valid)

    assert.ErrorIs(t, CheckIn(ctx, db, r.ID), ErrStatusConflict)
    assert.ErrorIs(t, CheckIn(ctx, db, 9999), ErrNotFound)
    assert.ErrorIs(t, CancelReservation(ctx, db, 9999), ErrNotFound)
}

func TestCountReservationsExcludesCancelled(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 0)
    r1, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    _, err = CreateReservation(ctx, db, 2, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    require.NoError(t, CancelReservation(ctx, db, r1.ID))

    n, err := CountReservations(ctx, db, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    assert.Equal(t, 1, n)
}

func TestCountReservationsInRange(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 0)
    other := mustCreateTemplate(t, db, 0)

    week2 := occurrenceDate.AddDate(0, 0, 7)
    _, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    _, err = CreateReservation(ctx, db, 2, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    _, err = CreateReservation(ctx, db, 1, other.ID, week2)
    require.NoError(t, err)

    counts, err := CountReservationsInRange(ctx, db, occurrenceDate, week2)
    require.NoError(t, err)
    assert.Equal(t, 2, counts[OccurrenceKey{TemplateID: tpl.ID, Date: "2025-06-09"}])
    assert.Equal(t, 1, counts[OccurrenceKey{TemplateID: other.ID, Date: "2025-06-16"}])
    assert.Len(t, counts, 2)
}

func TestListReservationsWithNames(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 0)
    _, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    _, err = CreateReservation(ctx, db, 2, tpl.ID, occurrenceDate)
    require.NoError(t, err)

    items, err := ListReservations(ctx, db, tpl.ID, occurrenceDate)
    require.NoError(t, err)
    require.Len(t, items, 2)
    assert.Equal(t, "Иванов Иван", items[0].MemberName)
    assert.Equal(t, "Петров Пётр", items[1].MemberName)
}

func TestBulkDeleteCascadesReservations(t *testing.T) {
    db := openTestDB(t)
    ctx := context.Background()

    tpl := mustCreateTemplate(t, db, 0)
    r, err := CreateReservation(ctx, db, 1, tpl.ID, occurrenceDate)
    require.NoError(t, err)

    _, err = BulkDeleteTemplates(ctx, db, []int{tpl.ID})
    require.NoError(t, err)

    _, err = GetReservation(ctx, db, r.ID)
    assert.ErrorIs(t, err, ErrNotFound)
}
