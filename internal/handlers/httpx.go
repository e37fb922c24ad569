package handlers

import (
    "fmt"
    "html/template"
    "log"
    "strings"

    "github.com/gofiber/fiber/v2"
)

// подключение скрипта на странице через layout ({{.ExtraScripts}})
func templateScript(src string) template.HTML {
    return template.HTML(fmt.Sprintf(`<script src="%s"></script>`, src))
}

var problemBaseURL string

// SetProblemBaseURL задаёт базовый URL для поля type Problem Details.
// Пример: https://mma-gym-crm.dev/problem
func SetProblemBaseURL(base string) {
    problemBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// jsonError — единый ответ об ошибке в формате RFC 7807 (application/problem+json)
// Для обратной совместимости добавляет поля success=false и error.
func jsonError(c *fiber.Ctx, status int, publicMsg string, err error) error {
    if err != nil {
        log.Printf("handler error: %v", err)
    }
    if publicMsg == "" {
        publicMsg = fiber.ErrInternalServerError.Message
    }
    pType := problemType(publicMsg, status)
    problem := fiber.Map{
        "type":     pType,
        "title":    publicMsg,
        "status":   status,
        "instance": c.OriginalURL(),
    }
    if err != nil {
        problem["detail"] = err.Error()
    }
    // backward-compat fields
    problem["success"] = false
    problem["error"] = publicMsg

    c.Type("application/problem+json")
    return c.Status(status).JSON(problem)
}

func jsonOK(c *fiber.Ctx, payload fiber.Map) error {
    if payload == nil {
        payload = fiber.Map{}
    }
    payload["success"] = true
    c.Type("application/json")
    return c.JSON(payload)
}

// problemType возвращает осмысленный URI для поля "type" Problem Details.
// Базовая схема использует URN, чтобы не зависеть от внешнего домена.
func problemType(title string, status int) string {
    t := strings.ToLower(strings.TrimSpace(title))
    code := ""
    // Частные случаи по тексту сообщения → код
    switch {
    case strings.Contains(t, "некорректный id"):
        code = "invalid-id"
    case strings.Contains(t, "неверные данные формы"):
        code = "invalid-form"
    case strings.Contains(t, "заполните обязательные поля"):
        code = "missing-required-fields"
    case strings.Contains(t, "неверный формат даты") || strings.Contains(t, "неверная дата"):
        code = "invalid-date"
    case strings.Contains(t, "некорректный диапазон") || strings.Contains(t, "раньше окончания"):
        code = "invalid-range"
    case strings.Contains(t, "не найден") || strings.Contains(t, "не найдено"):
        code = "not-found"
    case strings.Contains(t, "вместимость") || strings.Contains(t, "мест нет"):
        code = "capacity-exceeded"
    case strings.Contains(t, "уже записан"):
        code = "duplicate-reservation"
    case strings.Contains(t, "переход статуса"):
        code = "status-conflict"
    case strings.Contains(t, "нет вхождения") || strings.Contains(t, "занятие не проводится"):
        code = "no-occurrence"
    case strings.Contains(t, "ошибка бд") || strings.Contains(t, "ошибка сохранения"):
        code = "database-error"
    case strings.Contains(t, "недопустимый статус") || strings.Contains(t, "неверный статус"):
        code = "invalid-status"
    }
    if code == "" {
        // Общее соответствие по HTTP-статусу
        switch status {
        case fiber.StatusBadRequest:
            code = "validation-error"
        case fiber.StatusUnauthorized:
            code = "unauthorized"
        case fiber.StatusForbidden:
            code = "forbidden"
        case fiber.StatusNotFound:
            code = "not-found"
        case fiber.StatusConflict:
            code = "conflict"
        default:
            code = "internal-error"
        }
    }
    if problemBaseURL != "" && (strings.HasPrefix(problemBaseURL, "http://") || strings.HasPrefix(problemBaseURL, "https://")) {
        return problemBaseURL + "/" + code
    }
    return "urn:mma-gym-crm:problem:" + code
}
