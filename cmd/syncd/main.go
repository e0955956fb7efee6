package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leadsync/internal/config"
	cronrunner "leadsync/internal/cron"
	"leadsync/internal/db"
	"leadsync/internal/handler"
	"leadsync/internal/logger"
	gormrepository "leadsync/internal/repository/gorm"
	"leadsync/internal/scoring"
	"leadsync/internal/source"
	"leadsync/internal/sync"
	"leadsync/internal/transcribe"
)

func main() {
	cfgPath := os.Getenv("LS_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("LS_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	destDB, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("destination db open failed", zap.Error(err))
	}
	defer db.Close(destDB)

	if err := db.SetTimezone(destDB, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(destDB); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	sourceDB, err := db.OpenSource(cfg.Source)
	if err != nil {
		logger.Fatal("source db open failed", zap.Error(err))
	}
	defer db.Close(sourceDB)

	store := gormrepository.New(destDB.Gorm)
	sourceClient := source.NewClient(sourceDB.Gorm)

	syncService := &sync.Service{
		Store:  store,
		Source: sourceClient,
		Tenant: cfg.Tenant,
		Cfg:    cfg.Sync,
		Logger: logger,
	}

	transcriber := transcribe.NewClient(nil, cfg.Transcribe.BaseURL, cfg.Transcribe.Timeout)
	var scoringService *scoring.Service
	if cfg.Scoring.Enabled {
		scoringService = &scoring.Service{
			Store:       store,
			Analyzer:    scoring.NewClaudeAnalyzer(cfg.Scoring),
			Transcriber: transcriber,
			Tenant:      cfg.Tenant,
			Cfg:         cfg.Scoring,
			Logger:      logger,
		}
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{Destination: destDB.Gorm, Source: sourceDB.Gorm}
	healthHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Service: syncService, Store: store, Logger: logger}
	syncHandler.Register(engine)
	analysisHandler := &handler.AnalysisHandler{
		Service: scoringService,
		Store:   store,
		Tenant:  cfg.Tenant,
		Logger:  logger,
	}
	analysisHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.Sync, func(ctx context.Context) {
			result, err := syncService.Run(ctx)
			if errors.Is(err, sync.ErrRunInProgress) {
				logger.Warn("cron sync skipped, previous run still going")
				return
			}
			if err != nil {
				logger.Warn("cron sync failed", zap.Error(err))
				return
			}
			logger.Info("cron sync ok",
				zap.Int("synced", result.TotalSynced),
				zap.Int("skipped", result.TotalSkipped),
				zap.Bool("done", result.Done))
		})
		if err != nil {
			logger.Warn("cron register sync failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	if scoringService != nil {
		go func() {
			if err := scoringService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("scoring worker stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}
