// Replicator copies intake log records into the main store every REPLICATOR_INTERVAL.
// Requires HOLDING_DATABASE_URL and MAIN_DATABASE_URL. Serves /health and /metrics on REPLICATOR_HTTP_ADDR.
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-pipeline/internal/app"
	"sales-pipeline/internal/config"
	"sales-pipeline/internal/db/migrate"
	"sales-pipeline/internal/health"
	healthhandler "sales-pipeline/internal/health/handler"
	intakerepo "sales-pipeline/internal/intake/repository"
	mainrepo "sales-pipeline/internal/mainstore/repository"
	"sales-pipeline/internal/metrics"
	"sales-pipeline/internal/replicator"
	"sales-pipeline/internal/scheduler"
	"sales-pipeline/internal/server"
	"sales-pipeline/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := app.SignalContext()
	defer stop()

	rt, err := app.Bootstrap(ctx, cfg, "replicator")
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	logger := rt.Logger

	holdingDB, err := rt.OpenStore(ctx, migrate.StoreHolding, cfg.HoldingDatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("open intake log")
	}
	mainDB, err := rt.OpenStore(ctx, migrate.StoreMain, cfg.MainDatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("open main store")
	}

	reg := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTP(reg)
	rep := replicator.New(
		intakerepo.NewPostgresRepository(holdingDB),
		mainrepo.NewPostgresRepository(mainDB),
		metrics.NewReplicator(reg),
		rt.Events,
		logger,
	)
	checker := health.NewChecker("replicator").Add("holding", holdingDB).Add("main", mainDB)

	mux := http.NewServeMux()
	mux.Handle("GET /health", server.Instrument("health", healthhandler.HTTP(checker), httpMetrics, logger))
	mux.Handle("GET /metrics", metrics.Handler(reg))

	loop := &scheduler.Loop{
		Name:     "replicator",
		Interval: cfg.ReplicatorEvery(),
		Tick:     rep.RunTick,
		Grace:    cfg.Grace(),
		Logger:   logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loop.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return server.ServeHTTP(gctx, cfg.ReplicatorHTTPAddr, mux, cfg.Grace(), logger)
	})
	if cfg.GRPCAddr != "" {
		g.Go(func() error {
			s := server.NewGRPCServer(server.Deps{Health: healthhandler.NewServer(checker)})
			return server.ServeGRPC(gctx, cfg.GRPCAddr, s, cfg.Grace(), logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("replicator stopped with error")
	}

	time.Sleep(telemetry.ShutdownDrainDuration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown")
	}
	logger.Info("replicator stopped")
}
