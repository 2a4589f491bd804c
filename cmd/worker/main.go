// Worker relays pipeline events from Kafka to Loki.
// Set KAFKA_BROKERS, PIPELINE_EVENTS_TOPIC, KAFKA_GROUP_ID, and LOKI_URL.
package main

import (
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"sales-pipeline/internal/app"
	"sales-pipeline/internal/config"
	"sales-pipeline/internal/logging"
	"sales-pipeline/internal/telemetry/loki"
	"sales-pipeline/internal/telemetry/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Component(logging.New(cfg.LogLevel, cfg.LogFormat), "worker")

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required")
	}
	lokiClient, err := loki.NewClient(cfg.LokiURL, nil)
	if err != nil {
		logger.WithError(err).Fatal("LOKI_URL is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    cfg.EventsTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	defer reader.Close()

	ctx, stop := app.SignalContext()
	defer stop()

	logger.WithField("topic", cfg.EventsTopic).WithField("group", cfg.KafkaGroupID).Info("relaying pipeline events")
	if err := relay.New(reader, lokiClient, logger).Run(ctx); err != nil {
		logger.WithError(err).Error("relay stopped")
	}
	logger.Info("worker stopped")
}
