package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/SDN-2025/exam-session-service/internal/config"
	"github.com/SDN-2025/exam-session-service/internal/events"
	"github.com/SDN-2025/exam-session-service/internal/handlers"
	"github.com/SDN-2025/exam-session-service/internal/models"
	"github.com/SDN-2025/exam-session-service/internal/proctoring"
	postgresrepo "github.com/SDN-2025/exam-session-service/internal/repositories/postgres"
	"github.com/SDN-2025/exam-session-service/internal/services"
	"github.com/SDN-2025/exam-session-service/internal/utils"
	"github.com/SDN-2025/exam-session-service/internal/vision"
	"github.com/SDN-2025/exam-session-service/pkg"
)

// warningStateTTL bounds how long an idle attempt's warning counter
// lives in Redis.
const warningStateTTL = 4 * time.Hour

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var appLogger utils.Logger
	if cfg.IsProduction() {
		appLogger = utils.NewDefaultLogger()
	} else {
		appLogger = utils.NewDevelopmentLogger()
	}
	logger := utils.ToSlogLogger(appLogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := autoMigrate(db); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	var publisher events.EventPublisher
	kafkaPublisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.EventTopic,
		Logger:       logger,
	})
	if err != nil {
		// Events are ancillary; the session engine runs without them.
		logger.Warn("kafka publisher unavailable, events disabled", "error", err)
	} else {
		publisher = kafkaPublisher
		defer kafkaPublisher.Close()
	}

	classifier := vision.NewFrameClassifier(
		vision.NewHTTPObjectDetector(cfg.DetectorURL),
		vision.NewHTTPLandmarkExtractor(cfg.LandmarkURL),
		logger,
	)
	ledger := proctoring.NewLedger(proctoring.NewRedisWarningStore(redisClient), warningStateTTL)

	var generator services.ContentGenerator
	if cfg.GeminiAPIKey != "" {
		gemini, gerr := services.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey)
		if gerr != nil {
			logger.Warn("gemini unavailable, follow-up generation disabled", "error", gerr)
		} else {
			generator = gemini
			defer gemini.Close()
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, follow-up generation disabled")
	}

	serviceManager := services.NewServiceManager(services.ManagerConfig{
		Repo:       postgresrepo.NewRepository(db),
		Publisher:  publisher,
		Classifier: classifier,
		Ledger:     ledger,
		Generator:  generator,
		Logger:     logger,
		Validator:  utils.NewValidator(),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.LoggerMiddleware(appLogger))
	router.Use(gin.Recovery())

	handlers.NewHandlerManager(serviceManager, appLogger).SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("exam session service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Chapter{},
		&models.Test{},
		&models.Question{},
		&models.Enrollment{},
		&models.TestAttempt{},
		&models.AnswerRecord{},
		&models.ProctoringEvent{},
		&models.Topic{},
		&models.FollowupQuestion{},
	)
}
