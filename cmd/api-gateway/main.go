package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/brightsteps/clinic-scheduling-api/api/swagger"
	"github.com/brightsteps/clinic-scheduling-api/internal/handler"
	"github.com/brightsteps/clinic-scheduling-api/internal/middleware"
	"github.com/brightsteps/clinic-scheduling-api/internal/repository"
	"github.com/brightsteps/clinic-scheduling-api/internal/service"
	"github.com/brightsteps/clinic-scheduling-api/pkg/cache"
	"github.com/brightsteps/clinic-scheduling-api/pkg/config"
	"github.com/brightsteps/clinic-scheduling-api/pkg/database"
	"github.com/brightsteps/clinic-scheduling-api/pkg/events"
	"github.com/brightsteps/clinic-scheduling-api/pkg/jobs"
	"github.com/brightsteps/clinic-scheduling-api/pkg/logger"
	corsmiddleware "github.com/brightsteps/clinic-scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/brightsteps/clinic-scheduling-api/pkg/middleware/requestid"
	"github.com/brightsteps/clinic-scheduling-api/pkg/notify"
)

// @title Clinic Scheduling API
// @version 0.1.0
// @description Scheduling coordination service for clinic operations
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, pairing sessions fall back to memory", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	hub := events.NewHub(cfg.Events.Buffer, logr)
	slack := notify.NewSlack(cfg.Slack, logr)

	queue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		text, _ := job.Payload.(string)
		if text == "" {
			return nil
		}
		return slack.Send(ctx, text)
	}, jobs.QueueConfig{Logger: logr})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	queue.Start(ctx)
	defer queue.Stop()

	blockRepo := repository.NewBlockRepository(db)
	interruptRepo := repository.NewInterruptRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	var pairingStore service.PairingStore
	if redisClient != nil {
		pairingStore = repository.NewRedisPairingStore(redisClient, cfg.Pairing.SessionTTL)
	} else {
		pairingStore = repository.NewMemoryPairingStore()
	}

	locks := service.NewDateLocks()
	metricsSvc := service.NewMetricsService(hub)
	utilizationSvc := service.NewUtilizationService(blockRepo, directoryRepo, alertRepo, queue, cfg.Scheduling.UtilizationThresholds, logr)
	scheduleSvc := service.NewScheduleService(blockRepo, locks, hub, utilizationSvc, metricsSvc, cfg.Scheduling, nil, logr)
	interruptSvc := service.NewInterruptService(interruptRepo, blockRepo, db, locks, hub, utilizationSvc, directoryRepo, queue, cfg.Scheduling, nil, logr)
	exportSvc := service.NewExportService(blockRepo, nil, nil, logr)
	pairingSvc := service.NewPairingService(pairingStore, scheduleSvc, hub, logr)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, exportSvc)
	interruptHandler := handler.NewInterruptHandler(interruptSvc)
	directoryHandler := handler.NewDirectoryHandler(directoryRepo, utilizationSvc)
	pairingHandler := handler.NewPairingHandler(pairingSvc)
	eventsHandler := handler.NewEventsHandler(hub, cfg.Events.PingInterval)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, hub, db, redisClient, slack.Enabled())

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/schedule", scheduleHandler.ListByDate)
		api.GET("/schedule/export", scheduleHandler.Export)
		api.POST("/schedule/blocks", scheduleHandler.Create)
		api.PATCH("/schedule/blocks/:id", scheduleHandler.Update)
		api.DELETE("/schedule/blocks/:id", scheduleHandler.Cancel)

		api.GET("/interrupts", interruptHandler.List)
		api.POST("/interrupts", interruptHandler.Create)
		api.POST("/interrupts/:id/approve", interruptHandler.Approve)
		api.POST("/interrupts/:id/deny", interruptHandler.Deny)

		api.GET("/patients", directoryHandler.ListPatients)
		api.GET("/clinicians", directoryHandler.ListClinicians)

		api.POST("/pairing/session", pairingHandler.CreateSession)
		api.GET("/pairing/:id/state", pairingHandler.State)
		api.POST("/pairing/:id/arm", pairingHandler.Arm)
		api.POST("/pairing/:id/couple", pairingHandler.Couple)

		api.GET("/events", eventsHandler.Stream)
		api.GET("/metrics/summary", metricsHandler.Summary)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("forced shutdown", zap.Error(err))
	}
}
