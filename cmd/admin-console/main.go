package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-adp-console/api/swagger"
	"github.com/noah-isme/sma-adp-console/internal/batch"
	"github.com/noah-isme/sma-adp-console/internal/client"
	"github.com/noah-isme/sma-adp-console/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-adp-console/internal/middleware"
	"github.com/noah-isme/sma-adp-console/internal/mutation"
	"github.com/noah-isme/sma-adp-console/internal/querycache"
	"github.com/noah-isme/sma-adp-console/internal/service"
	"github.com/noah-isme/sma-adp-console/internal/session"
	"github.com/noah-isme/sma-adp-console/pkg/config"
	"github.com/noah-isme/sma-adp-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-console/pkg/middleware/requestid"
	"github.com/noah-isme/sma-adp-console/pkg/storage"
)

// @title SMA ADP Admin Console API
// @version 1.0.0
// @description Cached, cascading-selection front for the school administration API.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()

	credentials := session.NewContextProvider(cfg.API.Token)
	caches := querycache.NewRegistry(session.Scope(credentials),
		querycache.WithStaleTime(cfg.Cache.StaleTime),
		querycache.WithLogger(logr),
		querycache.WithRecorder(metricsSvc),
	)

	api := client.New(cfg.API.BaseURL, credentials,
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(logr),
		client.WithObserver(metricsSvc),
	)

	directorySvc := service.NewDirectoryService(api, caches, batch.Config{
		BatchSize: cfg.Cache.BatchSize,
		Logger:    logr,
		Recorder:  metricsSvc,
	}, logr)
	mutations := mutation.New(api, caches,
		mutation.WithLogger(logr),
		mutation.WithRecorder(metricsSvc),
	)
	pageSvc := service.NewPageService(directorySvc, logr)

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	secret := cfg.Exports.SigningSecret
	if secret == "" {
		secret = uuid.NewString()
		logr.Warn("EXPORTS_SIGNING_SECRET not set, download links will not survive a restart")
	}
	exportSvc := service.NewExportService(directorySvc, files, storage.NewDownloadSigner(secret, cfg.Exports.LinkTTL), service.ExportConfig{
		APIPrefix:         cfg.APIPrefix,
		ResultTTL:         cfg.Exports.TTL,
		WorkerConcurrency: cfg.Exports.WorkerConcurrency,
		WorkerRetries:     cfg.Exports.WorkerRetries,
	}, metricsSvc, logr)

	maintenance, err := service.NewMaintenanceService(service.MaintenanceConfig{
		Schedule: cfg.Cache.SweepSchedule,
		CacheGC:  cfg.Cache.GCTime,
		PageIdle: cfg.Pages.IdleTimeout,
	}, caches, pageSvc, exportSvc, logr)
	if err != nil {
		logr.Fatal("invalid maintenance schedule", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exportSvc.Start(rootCtx)
	maintenance.Start()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
		"export_storage": files.Ping,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(
		r.Group(cfg.APIPrefix, internalmiddleware.ForwardSession()),
		r.Group(cfg.APIPrefix),
		handler.Handlers{
			Courses:       handler.NewCourseHandler(directorySvc, mutations),
			StudyClasses:  handler.NewStudyClassHandler(directorySvc, mutations),
			Professors:    handler.NewProfessorHandler(directorySvc, mutations),
			Students:      handler.NewStudentHandler(directorySvc, mutations),
			Subscriptions: handler.NewSubscriptionHandler(mutations),
			Pages:         handler.NewPageHandler(pageSvc),
			Exports:       handler.NewExportHandler(exportSvc),
			Cache:         handler.NewCacheHandler(caches),
			Metrics:       metricsHandler,
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown", zap.Error(err))
	}
	maintenance.Stop(shutdownCtx)
	exportSvc.Stop()
}
