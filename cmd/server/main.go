package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/repofy/repofy-backend/internal/config"
	"github.com/repofy/repofy-backend/internal/domain/fiber/handler"
	"github.com/repofy/repofy-backend/internal/middleware"
	"github.com/repofy/repofy-backend/internal/model"
	"github.com/repofy/repofy-backend/internal/repository"
	"github.com/repofy/repofy-backend/internal/service"
	"github.com/repofy/repofy-backend/internal/usecase"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	appConfig := config.LoadAppConfig()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	db := ConnectDB()

	reportRepo := repository.NewReportRepository(db)
	adviceRepo := repository.NewAdviceRepository(db)
	githubSvc := service.NewGithubService()

	var aiSvc service.AIServiceInterface
	if config.LoadOpenAIConfig().Mock {
		slog.Warn("MOCK_AI enabled, serving canned evaluations")
		aiSvc = service.NewMockAIService()
	} else {
		aiSvc = service.NewOpenAIService()
	}

	uc := usecase.NewAnalysisUsecase(githubSvc, aiSvc, reportRepo, adviceRepo)
	h := handler.NewAnalyzeHandler(uc)

	// Evaluation calls burn model tokens, search only burns GitHub quota,
	// so each gets its own budget.
	aiLimiter := middleware.NewFixedWindowLimiter(5, time.Minute)
	githubLimiter := middleware.NewFixedWindowLimiter(30, time.Minute)
	h.RegisterRoutes(app, aiLimiter, githubLimiter)

	log.Println("Server running on ", appConfig.Port)
	if err := app.Listen(appConfig.Port); err != nil {
		log.Fatal(err)
	}
}

func ConnectDB() *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		log.Fatalf("Could not get database instance: %v", err)
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&model.ReportRow{}, &model.AdviceRow{}); err != nil {
		log.Fatal("migration failed: ", err)
	}

	// The upsert targets these pairs. Index creation is tolerated to fail
	// on databases where duplicates already exist; Save falls back to
	// insert and sweep there.
	for _, stmt := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_reports_owner_username ON reports (owner_id, analyzed_username)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_advice_owner_username ON advice (owner_id, analyzed_username)",
	} {
		if err := db.Exec(stmt).Error; err != nil {
			slog.Warn("could not create unique index", "error", err)
		}
	}
	return db
}
