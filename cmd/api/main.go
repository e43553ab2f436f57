package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httpadp "lending-ledger/internal/adapter/http"
	idemp "lending-ledger/internal/adapter/middleware"
	"lending-ledger/internal/app"
	"lending-ledger/internal/config"
	dbinfra "lending-ledger/internal/infrastructure/db"
	"lending-ledger/internal/infrastructure/logging"
)

func main() {
	if err := run(); err != nil {
		zap.L().Error("api exited", zap.Error(err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := dbinfra.Migrate(a.DB); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	health := httpadp.NewHandler(
		httpadp.Check{Name: "db", Ping: a.PingDB},
		httpadp.Check{Name: "redis", Ping: a.PingRedis},
	)
	ttl := time.Duration(cfg.IdempTTLSecs) * time.Second
	httpadp.Register(e, health, httpadp.NewLedgerHandler(a.Manager, a.Ticks), idemp.IdempotencyMiddleware(a.Redis, ttl))

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("db_driver", cfg.DBDriver))
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
