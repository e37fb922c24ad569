package handlers

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestProblemType(t *testing.T) {
    SetProblemBaseURL("")
    assert.Equal(t, "urn:mma-gym-crm:problem:capacity-exceeded", problemType("Превышена вместимость занятия", 409))
    assert.Equal(t, "urn:mma-gym-crm:problem:no-occurrence", problemType("В этот день занятие не проводится", 400))
    assert.Equal(t, "urn:mma-gym-crm:problem:not-found", problemType("Шаблон не найден", 404))
    // без распознанного текста — код по HTTP-статусу
    assert.Equal(t, "urn:mma-gym-crm:problem:conflict", problemType("Что-то пошло не так", 409))
}

func TestProblemTypeWithBaseURL(t *testing.T) {
    SetProblemBaseURL("https://crm.example.com/problem/")
    t.Cleanup(func() { SetProblemBaseURL("") })

    assert.Equal(t, "https://crm.example.com/problem/duplicate-reservation",
        problemType("Клиент уже записан на это занятие", 409))

    // относительный путь не принимается, остаётся URN
    SetProblemBaseURL("crm.example.com/problem")
    assert.Equal(t, "urn:mma-gym-crm:problem:invalid-id", problemType("Некорректный id", 400))
}
