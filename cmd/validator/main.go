// Validator validates unprocessed intake records every VALIDATOR_INTERVAL and quarantines failures.
// Requires HOLDING_DATABASE_URL and DLQ_DATABASE_URL. Serves the validator API on VALIDATOR_HTTP_ADDR.
package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-pipeline/internal/app"
	"sales-pipeline/internal/config"
	"sales-pipeline/internal/db/migrate"
	"sales-pipeline/internal/deadletter"
	dlqrepo "sales-pipeline/internal/deadletter/repository"
	"sales-pipeline/internal/health"
	healthhandler "sales-pipeline/internal/health/handler"
	intakerepo "sales-pipeline/internal/intake/repository"
	"sales-pipeline/internal/metrics"
	"sales-pipeline/internal/scheduler"
	"sales-pipeline/internal/server"
	"sales-pipeline/internal/telemetry"
	"sales-pipeline/internal/validator"
	validatorhandler "sales-pipeline/internal/validator/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := app.SignalContext()
	defer stop()

	rt, err := app.Bootstrap(ctx, cfg, "validator")
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	logger := rt.Logger

	holdingDB, err := rt.OpenStore(ctx, migrate.StoreHolding, cfg.HoldingDatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("open intake log")
	}
	dlqDB, err := rt.OpenStore(ctx, migrate.StoreDLQ, cfg.DLQDatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("open dead-letter store")
	}

	reg := metrics.NewRegistry()
	dlq := deadletter.NewStore(dlqrepo.NewPostgresRepository(dlqDB))
	v := validator.New(
		intakerepo.NewPostgresRepository(holdingDB),
		dlq,
		metrics.NewValidator(reg),
		rt.Events,
		logger,
		validator.Options{
			BatchSize:             int32(cfg.ValidatorBatchSize),
			QuarantineUnparseable: cfg.ValidatorQuarantineUnparseable,
		},
	)
	checker := health.NewChecker("data-validator").Add("holding", holdingDB).Add("dlq", dlqDB)
	router := validatorhandler.Routes(validatorhandler.New(v, dlq, logger), checker, reg, metrics.NewHTTP(reg), logger)

	loop := &scheduler.Loop{
		Name:     "validator",
		Interval: cfg.ValidatorEvery(),
		Tick:     v.RunTick,
		Grace:    cfg.Grace(),
		Logger:   logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loop.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return server.ServeHTTP(gctx, cfg.ValidatorHTTPAddr, router, cfg.Grace(), logger)
	})
	if cfg.GRPCAddr != "" {
		g.Go(func() error {
			s := server.NewGRPCServer(server.Deps{Health: healthhandler.NewServer(checker)})
			return server.ServeGRPC(gctx, cfg.GRPCAddr, s, cfg.Grace(), logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("validator stopped with error")
	}

	time.Sleep(telemetry.ShutdownDrainDuration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown")
	}
	logger.Info("validator stopped")
}
