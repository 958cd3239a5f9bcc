package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"medivault/m/internal/api"
	"medivault/m/internal/config"
	"medivault/m/internal/database"
	"medivault/m/internal/logger"
	"medivault/m/internal/metrics"
	"medivault/m/internal/migrations"
	"medivault/m/internal/seed"
	"medivault/m/internal/store"
	"medivault/m/internal/views"
)

func main() {
	cfg, warnings := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	log.Info("database connected", zap.String("path", cfg.DatabasePath))

	if err := migrations.Run(ctx, db, log); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}
	if n, err := seed.Categories(ctx, db); err != nil {
		log.Fatal("category seed failed", zap.Error(err))
	} else if n > 0 {
		log.Info("seeded default categories", zap.Int("count", n))
	}

	var m *metrics.Metrics
	opts := []store.Option{store.WithLocation(cfg.Location())}
	if cfg.MetricsEnabled {
		m = metrics.New()
		opts = append(opts, store.WithObserver(m))
	}
	st := store.New(db, opts...)

	if cfg.CatalogCSV != "" {
		if _, err := seed.LoadCatalog(ctx, st, cfg.CatalogCSV, log); err != nil {
			log.Warn("catalog import failed", zap.String("path", cfg.CatalogCSV), zap.Error(err))
		}
	}

	renderer, err := views.New()
	if err != nil {
		log.Fatal("templates failed to parse", zap.Error(err))
	}

	handler := api.New(st, renderer, log, api.Options{
		Secret:               cfg.Secret,
		OperatorPasswordHash: cfg.OperatorPasswordHash,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		Metrics:              m,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
			stop()
		}
	}()
	log.Info("Medivault server started",
		zap.String("addr", srv.Addr),
		zap.Bool("auth", cfg.AuthEnabled()),
		zap.Bool("metrics", cfg.MetricsEnabled))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
