package main

import (
	"log"
	"time"

	"github.com/MaydayTM/mma-gym-crm-sub001/internal/config"
	"github.com/MaydayTM/mma-gym-crm-sub001/internal/database"
	"github.com/MaydayTM/mma-gym-crm-sub001/internal/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
)

func main() {
	// Загрузка конфигурации
	cfg := config.LoadConfig()

	// Инициализация базы данных (включая миграцию схемы расписания)
	_ = database.GetDB()

	// База для поля type в problem-JSON (пустая — используется URN)
	handlers.SetProblemBaseURL(cfg.Server.ProblemBaseURL)

	// Инициализация шаблонов
	engine := html.New(cfg.Server.TemplatePath, ".html")

	// Создание приложения Fiber
	app := fiber.New(fiber.Config{
		Views:       engine,
		AppName:     "MMA Gym CRM",
		ViewsLayout: "layouts/base",
		BodyLimit:   1 * 1024 * 1024,
	})

	// -------------------------------
	// Middleware: безопасность и логика
	// -------------------------------

	app.Use(recover.New())  // Перехватывает паники, возвращает 500 вместо краша
	app.Use(helmet.New())   // Добавляет HTTP security-заголовки
	app.Use(compress.New()) // Сжимает ответы gzip/br
	app.Use(logger.New())   // Логи запросов
	app.Use(limiter.New(limiter.Config{
		Max:        120,         // 120 запросов
		Expiration: time.Minute, // за минуту
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Слишком много запросов. Попробуйте позже.")
		},
	}))
	app.Use(etag.New()) // Ускоряет GET-запросы через кэширование по ETag

	// -------------------------------
	// Статика и маршруты
	// -------------------------------
	app.Static("/static", cfg.Server.StaticPath)

	setupRoutes(app)

	log.Printf("🚀 Сервер запущен на http://localhost%s", cfg.Server.Port)
	log.Printf("📅 Расписание: http://localhost%s/schedule", cfg.Server.Port)
	log.Printf("🏷 Шаблоны занятий: http://localhost%s/class-templates", cfg.Server.Port)

	log.Fatal(app.Listen(cfg.Server.Port))
}

// setupRoutes — маршруты приложения
func setupRoutes(app *fiber.App) {
	// страницы
	app.Get("/", handlers.Dashboard)
	app.Get("/schedule", handlers.GetSchedulePage)
	app.Get("/class-templates", handlers.GetClassTemplatesPage)
	app.Get("/rooms", handlers.GetRoomsPage)

	// сетка расписания и перенос шаблонов
	app.Get("/api/schedule/grid", handlers.GetScheduleGrid)
	app.Put("/api/schedule/reassign", handlers.ReassignTemplate)

	// --- шаблоны занятий
	app.Post("/api/class-templates", handlers.CreateClassTemplate)
	app.Post("/api/class-templates/bulk-delete", handlers.BulkDeleteClassTemplates) // жёсткое удаление выбранных
	app.Get("/api/class-templates/:id", handlers.GetClassTemplateByID)              // JSON для формы редактирования
	app.Put("/api/class-templates/:id", handlers.UpdateClassTemplate)               // обновить
	app.Delete("/api/class-templates/:id", handlers.DeleteClassTemplate)            // мягкое удаление

	// --- записи на занятия
	app.Post("/api/reservations", handlers.CreateReservation)
	app.Post("/api/reservations/:id/cancel", handlers.CancelReservation)
	app.Post("/api/reservations/:id/check-in", handlers.CheckInReservation)
	app.Get("/api/reservations/count", handlers.GetReservationCount)
	app.Get("/api/reservations", handlers.GetOccurrenceReservations)

	// --- справочники
	app.Post("/rooms", handlers.CreateRoom)
	app.Put("/rooms/:id", handlers.UpdateRoom)
	app.Get("/api/rooms/:id", handlers.GetRoomByID)
	app.Post("/api/disciplines", handlers.CreateDiscipline)
	app.Put("/api/disciplines/:id", handlers.UpdateDiscipline)
	app.Post("/api/tracks", handlers.CreateTrack)
	app.Put("/api/tracks/:id", handlers.UpdateTrack)

	// API для селектов
	app.Get("/api/rooms-for-select", handlers.GetRoomsForSelect)
	app.Get("/api/disciplines-for-select", handlers.GetDisciplinesForSelect)
	app.Get("/api/tracks-for-select", handlers.GetTracksForSelect)
	app.Get("/api/members-for-select", handlers.GetMembersForSelect)
	app.Get("/api/coaches-for-select", handlers.GetCoachesForSelect)
}
