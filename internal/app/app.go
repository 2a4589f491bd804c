// Package app holds the startup and shutdown wiring shared by the pipeline binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"sales-pipeline/internal/config"
	"sales-pipeline/internal/db"
	"sales-pipeline/internal/db/migrate"
	"sales-pipeline/internal/logging"
	"sales-pipeline/internal/telemetry"
	telemetryotel "sales-pipeline/internal/telemetry/otel"
	"sales-pipeline/internal/telemetry/producer"
)

// Runtime is the ambient state of one binary: config, logger, OTel providers and the pipeline event emitter.
type Runtime struct {
	Config *config.Config
	Logger *logrus.Logger
	Events telemetry.EventEmitter

	providers *telemetryotel.Providers
	kafka     *producer.KafkaProducer
	closers   []func() error
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Bootstrap builds the logger, OTel providers and event emitter for the binary called name.
func Bootstrap(ctx context.Context, cfg *config.Config, name string) (*Runtime, error) {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = name
	}
	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: serviceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()

	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.EventsTopic)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
		logger.WithField("topic", cfg.EventsTopic).Info("publishing pipeline events to Kafka")
	}

	return &Runtime{
		Config:    cfg,
		Logger:    logger,
		Events:    telemetry.Multi(emitters...),
		providers: providers,
		kafka:     kafkaProducer,
	}, nil
}

// OpenStore connects to a store, retrying while it is unreachable, and brings its schema up to date.
func (rt *Runtime) OpenStore(ctx context.Context, store migrate.Store, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s store: database URL is not set", store)
	}
	logger := rt.Logger.WithField("store", string(store))
	conn, err := db.OpenWithRetry(ctx, dsn, rt.Config.ConnectTimeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("%s store: %w", store, err)
	}
	if err := migrate.EnsureSchema(dsn, store); err != nil {
		_ = conn.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, conn.Close)
	logger.Info("store connected")
	return conn, nil
}

// Close closes stores, the Kafka producer and the OTel providers. Callers wait
// telemetry.ShutdownDrainDuration first so in-flight async emits can finish.
func (rt *Runtime) Close(ctx context.Context) error {
	var result *multierror.Error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := rt.kafka.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("kafka: %w", err))
	}
	if err := rt.providers.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("otel: %w", err))
	}
	return result.ErrorOrNil()
}
