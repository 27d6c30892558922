package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/bluetecnologia/status_admin/internal/catalog"
	"github.com/bluetecnologia/status_admin/internal/config"
	"github.com/bluetecnologia/status_admin/internal/database"
	"github.com/bluetecnologia/status_admin/internal/form"
	"github.com/bluetecnologia/status_admin/internal/gateway"
	"github.com/bluetecnologia/status_admin/internal/logging"
	"github.com/bluetecnologia/status_admin/internal/middleware"
	"github.com/bluetecnologia/status_admin/internal/models"
	"github.com/bluetecnologia/status_admin/internal/routes"
	"github.com/bluetecnologia/status_admin/internal/session"
	"github.com/bluetecnologia/status_admin/internal/ws"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("logger setup failed: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cat, err := loadCatalog(cfg)
	if err != nil {
		logger.Fatal("invalid status catalog", zap.Error(err))
	}
	cfg.WatchCatalog(func(entries []models.StatusEntry, err error) {
		if err == nil {
			err = cat.Replace(entries)
		}
		if err != nil {
			logger.Warn("status catalog reload rejected", zap.Error(err))
			return
		}
		logger.Info("status catalog reloaded", zap.Int("entries", len(entries)))
	})

	store, err := newGateway(cfg, cat, logger)
	if err != nil {
		logger.Fatal("gateway setup failed", zap.Error(err))
	}
	gw := gateway.Instrument(store, gateway.NewMetrics(reg))

	sessions := session.NewRegistry(form.Deps{
		Gateway:     gw,
		Schema:      form.NewSchema(cat),
		Logger:      logger.Named("form"),
		ListingPath: cfg.ListingPath,
		Submissions: form.NewSubmissionCounter(reg),
	})

	hub := ws.NewRefreshHub(logger.Named("ws"))
	go hub.Run(ctx)

	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("scheduler setup failed", zap.Error(err))
	}
	_, err = sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			if n := sessions.Sweep(cfg.SessionIdleTTL); n > 0 {
				logger.Debug("expired idle sessions", zap.Int("count", n))
			}
		}),
	)
	if err != nil {
		logger.Fatal("session sweep job failed", zap.Error(err))
	}
	sched.Start()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(middleware.Logger(logger.Named("http")), gin.Recovery())
	routes.Register(r, routes.Deps{
		Gateway:     gw,
		Catalog:     cat,
		Sessions:    sessions,
		Hub:         hub,
		Metrics:     reg,
		Logger:      logger,
		ListingPath: cfg.ListingPath,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("gateway", cfg.Gateway.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited with error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := sched.Shutdown(); err != nil {
		logger.Error("scheduler shutdown failed", zap.Error(err))
	}
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if len(cfg.StatusCatalog) == 0 {
		return catalog.MustDefault(), nil
	}
	return catalog.New(cfg.StatusCatalog)
}

func newGateway(cfg *config.Config, cat *catalog.Catalog, logger *zap.Logger) (gateway.Gateway, error) {
	if cfg.Gateway.Driver != config.DriverPostgres {
		return gateway.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.JWTSecret, &http.Client{}), nil
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if cfg.DB.Seed {
		if err := database.SeedServices(db, cat.Entries()[0].Description, logger); err != nil {
			return nil, err
		}
	}
	return gateway.NewDBGateway(db), nil
}
