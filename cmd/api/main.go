package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/devbuild/doctorate-api/api/swagger"
	"github.com/devbuild/doctorate-api/internal/client"
	"github.com/devbuild/doctorate-api/internal/handler"
	"github.com/devbuild/doctorate-api/internal/middleware"
	"github.com/devbuild/doctorate-api/internal/notify"
	"github.com/devbuild/doctorate-api/internal/repository"
	"github.com/devbuild/doctorate-api/internal/service"
	"github.com/devbuild/doctorate-api/pkg/cache"
	"github.com/devbuild/doctorate-api/pkg/config"
	"github.com/devbuild/doctorate-api/pkg/database"
	"github.com/devbuild/doctorate-api/pkg/logger"
	corsmiddleware "github.com/devbuild/doctorate-api/pkg/middleware/cors"
	reqidmiddleware "github.com/devbuild/doctorate-api/pkg/middleware/requestid"
	"github.com/devbuild/doctorate-api/pkg/storage"
)

// @title Doctorate Administration API
// @version 1.0.0
// @description Enrollment campaigns, enrollment requests and thesis-defense workflows
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, campaign cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	blobs, err := storage.NewBlobStore(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init blob store", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	var notifier notify.Notifier
	var kafkaNotifier *notify.KafkaNotifier
	switch cfg.Notifications.Transport {
	case config.NotifyTransportHTTP:
		notifier = notify.NewHTTPNotifier(cfg.Notifications)
	default:
		kafkaNotifier = notify.NewKafkaNotifier(cfg.Notifications)
		notifier = kafkaNotifier
	}
	dispatcher := notify.NewDispatcher(notifier, cfg.Notifications, logr, metrics)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()
	if kafkaNotifier != nil {
		defer kafkaNotifier.Close() //nolint:errcheck
	}

	directory := client.NewHTTPDirectory(cfg.Directory, logr)
	validate := validator.New()

	campaignRepo := repository.NewCampaignRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	defenseRepo := repository.NewDefenseRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	campaignSvc := service.NewCampaignService(campaignRepo, redisClient, cfg.Campaigns.CacheTTL, validate, logr, metrics)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, documentRepo, campaignSvc, directory, blobs, metrics, validate, logr)
	defenseSvc := service.NewDefenseService(defenseRepo, documentRepo, blobs, directory, dispatcher, cfg.Notifications.AdminEmail, metrics, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, blobs, enrollmentRepo, defenseRepo, cfg.Documents.MaxFileSizeBytes, logr)
	exportSvc := service.NewExportService(enrollmentSvc, enrollmentRepo, defenseSvc)

	campaignHandler := handler.NewCampaignHandler(campaignSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, exportSvc)
	defenseHandler := handler.NewDefenseHandler(defenseSvc, exportSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Administrative decisions sit behind the shared-secret bearer check
	// when auth is enabled; everything else stays open to the gateway.
	admin := api.Group("")
	if cfg.JWT.Enabled {
		admin.Use(middleware.JWT(cfg.JWT.Secret), middleware.RequireRole("ADMIN"))
	}

	api.GET("/campaigns", campaignHandler.List)
	api.GET("/campaigns/:id", campaignHandler.Get)
	admin.POST("/campaigns", campaignHandler.Create)
	admin.PUT("/campaigns/:id/open", campaignHandler.Open)
	admin.PUT("/campaigns/:id/close", campaignHandler.Close)

	api.GET("/enrollments", enrollmentHandler.List)
	api.POST("/enrollments", enrollmentHandler.Create)
	api.POST("/enrollments/renewals", enrollmentHandler.CreateRenewal)
	admin.GET("/enrollments/export", enrollmentHandler.ExportCSV)
	api.GET("/enrollments/:id", enrollmentHandler.Get)
	api.PATCH("/enrollments/:id", enrollmentHandler.Update)
	api.GET("/enrollments/:id/status", enrollmentHandler.Status)
	api.PUT("/enrollments/:id/supervisor-decision", enrollmentHandler.SupervisorDecision)
	admin.PUT("/enrollments/:id/admin-decision", enrollmentHandler.AdminDecision)
	admin.DELETE("/enrollments/:id", enrollmentHandler.Delete)
	api.GET("/enrollments/:id/documents", documentHandler.ListByEnrollment)
	api.POST("/enrollments/:id/documents", documentHandler.Upload)

	api.GET("/documents/:id", documentHandler.Download)
	admin.DELETE("/documents/:id", documentHandler.Delete)

	api.GET("/defenses", defenseHandler.List)
	api.POST("/defenses", defenseHandler.Initiate)
	api.GET("/defenses/:id", defenseHandler.Get)
	api.POST("/defenses/:id/documents", defenseHandler.AddDocument)
	admin.PUT("/defenses/:id/admin-decision", defenseHandler.AdminDecision)
	admin.PUT("/defenses/:id/jury", defenseHandler.ProposeJury)
	admin.PUT("/defenses/:id/schedule", defenseHandler.Schedule)
	admin.GET("/defenses/:id/convocation", defenseHandler.Convocation)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
