package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/edusphere-dev/groupwork-api/internal/config"
	"github.com/edusphere-dev/groupwork-api/internal/database"
	"github.com/edusphere-dev/groupwork-api/internal/handler"
	"github.com/edusphere-dev/groupwork-api/internal/middleware"
	"github.com/edusphere-dev/groupwork-api/internal/models"
	"github.com/edusphere-dev/groupwork-api/internal/observability"
	"github.com/edusphere-dev/groupwork-api/internal/repository"
	"github.com/edusphere-dev/groupwork-api/internal/router"
	"github.com/edusphere-dev/groupwork-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Task{},
		&models.TaskSubmission{},
		&models.RevisionSubmission{},
		&models.FrozenTaskSubmission{},
		&models.TaskFeedback{},
		&models.GroupMember{},
		&models.ProjectPhase{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	revisionRepo := repository.NewRevisionRepository(db)
	frozenRepo := repository.NewFrozenSubmissionRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	eventPublisher := service.NewEventPublisher(redisClient, cfg.EventChannelBase, natsConn, logger)
	taskViewService := service.NewTaskViewService(taskRepo, submissionRepo, revisionRepo, redisClient, cfg.TaskViewCacheTTL, logger)
	submissionService := service.NewSubmissionService(taskRepo, submissionRepo, revisionRepo, taskViewService, activityService, eventPublisher, validate, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, submissionRepo, revisionRepo, validate, logger)
	freezeService := service.NewFreezeService(groupRepo, taskRepo, submissionRepo, revisionRepo, frozenRepo, activityService, eventPublisher, cfg.FreezeMode, logger)

	taskHandler := handler.NewTaskHandler(taskViewService, submissionService, feedbackService, logger)
	freezeHandler := handler.NewFreezeHandler(freezeService, activityService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	app.Get("/metrics", observability.MetricsHandler())

	router.Register(app, cfg, router.Dependencies{
		TaskHandler:   taskHandler,
		FreezeHandler: freezeHandler,
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
		LeaderGuard:   middleware.RequireRole("leader", "professor"),
		RateLimiter:   middleware.RateLimit("coursework", 120, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
