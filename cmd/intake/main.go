// Intake accepts sale records from producers over POST /ingest and from batch files dropped in INTAKE_DROP_DIR.
// Requires HOLDING_DATABASE_URL and API_KEY.
package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-pipeline/internal/app"
	"sales-pipeline/internal/config"
	"sales-pipeline/internal/db/migrate"
	"sales-pipeline/internal/health"
	healthhandler "sales-pipeline/internal/health/handler"
	"sales-pipeline/internal/intake/filedrop"
	intakehandler "sales-pipeline/internal/intake/handler"
	intakerepo "sales-pipeline/internal/intake/repository"
	"sales-pipeline/internal/metrics"
	"sales-pipeline/internal/server"
	"sales-pipeline/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.APIKey == "" {
		log.Fatal("intake: API_KEY is required")
	}

	ctx, stop := app.SignalContext()
	defer stop()

	rt, err := app.Bootstrap(ctx, cfg, "intake")
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	logger := rt.Logger

	holdingDB, err := rt.OpenStore(ctx, migrate.StoreHolding, cfg.HoldingDatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("open intake log")
	}
	repo := intakerepo.NewPostgresRepository(holdingDB)

	reg := metrics.NewRegistry()
	checker := health.NewChecker("intake").Add("holding", holdingDB)
	router := intakehandler.Routes(intakehandler.New(repo, cfg.APIKey, rt.Events, logger), checker, reg, metrics.NewHTTP(reg), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ServeHTTP(gctx, cfg.IntakeHTTPAddr, router, cfg.Grace(), logger)
	})
	if cfg.IntakeDropDir != "" {
		g.Go(func() error {
			return filedrop.New(cfg.IntakeDropDir, repo, rt.Events, logger).Run(gctx)
		})
	}
	if cfg.GRPCAddr != "" {
		g.Go(func() error {
			s := server.NewGRPCServer(server.Deps{Health: healthhandler.NewServer(checker)})
			return server.ServeGRPC(gctx, cfg.GRPCAddr, s, cfg.Grace(), logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("intake stopped with error")
	}

	time.Sleep(telemetry.ShutdownDrainDuration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown")
	}
	logger.Info("intake stopped")
}
