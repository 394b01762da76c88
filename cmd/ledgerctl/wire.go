package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/bridge"
	appinventory "github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/inventory"
	appledger "github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/verification"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/config"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/event"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/lock"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/persistence"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// app holds everything a subcommand needs. close releases it in reverse
// order of construction.
type app struct {
	cfg          *config.Config
	log          *zap.Logger
	db           *persistence.Database
	ledger       *appledger.Service
	inventory    *appinventory.Service
	orders       *bridge.Service
	verification *verification.Service

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("tracer provider: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("meter provider: %w", err)
	}
	a.closers = append(a.closers, mp.Shutdown)

	metrics, err := telemetry.NewLedgerMetrics(mp.Meter(telemetry.TracerName))
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("ledger metrics: %w", err)
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log, cfg.Log.GormLevel),
		persistence.WithSlowQueryThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        cfg.Database.Driver,
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("db tracing: %w", err)
		}
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appinventory.NewNegativeStockAlertHandler(log))

	scope := persistence.NewGormTransactionScope(db.DB)

	a.ledger = appledger.NewService(scope, log)
	a.ledger.SetEventPublisher(bus)
	a.ledger.SetMetrics(metrics)

	a.inventory = appinventory.NewService(scope, locker, log)
	a.inventory.SetEventPublisher(bus)
	a.inventory.SetMetrics(metrics)

	a.orders = bridge.NewService(scope, a.inventory, locker, log)
	a.orders.SetEventPublisher(bus)
	a.orders.SetMetrics(metrics)

	a.verification = verification.NewService(scope, locker, log)
	a.verification.SetMetrics(metrics)

	return a, nil
}

func (a *app) newLocker(ctx context.Context) (uow.KeyLocker, error) {
	if a.cfg.Lock.Backend != "redis" {
		return lock.NewLocalLocker(), nil
	}
	rl, err := lock.NewRedisLocker(ctx, lock.RedisConfig{
		Addr:        a.cfg.Redis.Addr(),
		Password:    a.cfg.Redis.Password,
		DB:          a.cfg.Redis.DB,
		TTL:         a.cfg.Lock.TTL,
		WaitTimeout: a.cfg.Lock.WaitTimeout,
		KeyPrefix:   a.cfg.Lock.KeyPrefix,
	}, a.log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return rl.Close() })
	return rl, nil
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
