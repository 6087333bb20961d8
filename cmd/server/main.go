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

	"heartclick/internal/config"
	"heartclick/internal/game"
	"heartclick/internal/logger"
	"heartclick/internal/session"
	"heartclick/internal/web"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	catalog := game.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = game.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			lg.Fatal("load catalog", zap.String("path", cfg.CatalogPath), zap.Error(err))
		}
	}
	lg.Info("catalog loaded",
		zap.Int("characters", len(catalog.Characters)),
		zap.Int("shopItems", len(catalog.Shop)))

	tmpl, err := web.DefaultTemplates()
	if err != nil {
		lg.Fatal("parse templates", zap.Error(err))
	}

	srv := &web.Server{
		Catalog:      catalog,
		Sessions:     session.NewMemoryStore[*game.Store](),
		Tmpl:         tmpl,
		Log:          lg,
		AssetDir:     cfg.AssetDir,
		CookieSecure: cfg.CookieSecure,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		srv.RunJanitor(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTimeout)
	}()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info("listening", zap.String("addr", cfg.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	<-janitorDone
	lg.Info("stopped")
}
