package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lending-ledger/internal/adapter/oracle"
	"lending-ledger/internal/adapter/platform"
	"lending-ledger/internal/adapter/repository/mysql"
	"lending-ledger/internal/config"
	"lending-ledger/internal/domain/market"
	"lending-ledger/internal/domain/uow"
	"lending-ledger/internal/infrastructure/cache"
	"lending-ledger/internal/infrastructure/clock"
	dbinfra "lending-ledger/internal/infrastructure/db"
	"lending-ledger/internal/infrastructure/metrics"
	"lending-ledger/internal/usecase/lifecycle"
)

// App is the wired ledger shared by the API server and the operator CLI.
type App struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Oracle   *oracle.RedisOracle
	Platform market.Platform
	Ticks    clock.TickSource
	Manager  *lifecycle.Manager
}

func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return dbinfra.OpenSQLite(cfg.SQLitePath)
	case config.DriverMySQL:
		return dbinfra.OpenGorm(cfg.MySQLDSN())
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}

// New opens storage and Redis and builds the Manager. reg receives the
// lifecycle collectors; cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*App, error) {
	gdb, err := OpenDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		closeDB(gdb)
		return nil, err
	}

	a := &App{Cfg: cfg, DB: gdb, Redis: rdb, Oracle: oracle.NewRedisOracle(rdb)}
	if cfg.PlatformInitialized {
		a.Platform = platform.Static(true)
	} else {
		a.Platform = platform.NewRedisFlag(rdb)
	}
	a.Ticks, err = clock.NewWallTicks(time.Unix(cfg.GenesisUnix, 0).UTC(), time.Duration(cfg.TickSeconds)*time.Second)
	if err != nil {
		a.Close()
		return nil, err
	}

	mt, err := metrics.NewLedger(reg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	reads := uow.Repos{
		Loans:  mysql.NewLoanRepository(gdb),
		Index:  mysql.NewUserIndexRepository(gdb),
		Events: mysql.NewEventRepository(gdb),
	}
	a.Manager, err = lifecycle.NewManager(mysql.NewGormUoW(gdb), reads, a.Oracle, a.Platform, cfg.LifecycleParams(),
		lifecycle.WithLogger(log.Named("lifecycle")),
		lifecycle.WithMetrics(mt))
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// PingDB checks the sql pool; used as a health probe.
func (a *App) PingDB(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) PingRedis(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	closeDB(a.DB)
}

func closeDB(gdb *gorm.DB) {
	if gdb == nil {
		return
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
