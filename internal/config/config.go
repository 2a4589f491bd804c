// Package config loads and validates pipeline config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds pipeline configuration loaded from the environment.
// Each binary checks the fields it depends on; Load only rejects values that are invalid for every binary.
type Config struct {
	// HoldingDatabaseURL is the Postgres DSN of the intake log (holding_ingest, synced_records).
	HoldingDatabaseURL string `mapstructure:"HOLDING_DATABASE_URL"`
	// MainDatabaseURL is the Postgres DSN of the main store (main_ingest).
	MainDatabaseURL string `mapstructure:"MAIN_DATABASE_URL"`
	// DLQDatabaseURL is the Postgres DSN of the dead-letter store (failed_validations).
	DLQDatabaseURL string `mapstructure:"DLQ_DATABASE_URL"`

	// ReplicatorInterval is the replicator tick interval, a Go duration ("60s") or whole seconds ("60").
	ReplicatorInterval string `mapstructure:"REPLICATOR_INTERVAL"`
	// ValidatorInterval is the validator tick interval, same format as ReplicatorInterval.
	ValidatorInterval string `mapstructure:"VALIDATOR_INTERVAL"`
	// ValidatorBatchSize caps how many unprocessed records one validator tick reads (default 100).
	ValidatorBatchSize int `mapstructure:"VALIDATOR_BATCH_SIZE"`
	// ValidatorQuarantineUnparseable routes payloads that cannot be parsed to the dead-letter store.
	// Off by default: such records are only logged and retried every tick.
	ValidatorQuarantineUnparseable bool `mapstructure:"VALIDATOR_QUARANTINE_UNPARSEABLE"`
	// ShutdownGrace bounds how long an in-flight tick may run after shutdown is requested.
	ShutdownGrace string `mapstructure:"SHUTDOWN_GRACE"`
	// DBConnectTimeout bounds the startup retry loop while a store is unreachable.
	DBConnectTimeout string `mapstructure:"DB_CONNECT_TIMEOUT"`

	ReplicatorHTTPAddr string `mapstructure:"REPLICATOR_HTTP_ADDR"`
	ValidatorHTTPAddr  string `mapstructure:"VALIDATOR_HTTP_ADDR"`
	IntakeHTTPAddr     string `mapstructure:"INTAKE_HTTP_ADDR"`
	// GRPCAddr enables the grpc.health.v1 endpoint when non-empty.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`

	// APIKey is the shared secret producers send in the x-api-key header. Required by the intake binary.
	APIKey string `mapstructure:"API_KEY"`
	// IntakeDropDir is the directory watched for batch files. Empty disables the watcher.
	IntakeDropDir string `mapstructure:"INTAKE_DROP_DIR"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// OTLPEndpoint is the OTLP/gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName overrides the OTel service.name; binaries default it to their own name.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. When set, pipeline events are published.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsTopic is the Kafka topic for pipeline events.
	EventsTopic string `mapstructure:"PIPELINE_EVENTS_TOPIC"`
	// KafkaGroupID is the consumer group ID for the Loki worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// Worker-only: Loki URL to push pipeline events to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HOLDING_DATABASE_URL", "")
	v.SetDefault("MAIN_DATABASE_URL", "")
	v.SetDefault("DLQ_DATABASE_URL", "")
	v.SetDefault("REPLICATOR_INTERVAL", "60s")
	v.SetDefault("VALIDATOR_INTERVAL", "30s")
	v.SetDefault("VALIDATOR_BATCH_SIZE", 100)
	v.SetDefault("VALIDATOR_QUARANTINE_UNPARSEABLE", false)
	v.SetDefault("SHUTDOWN_GRACE", "10s")
	v.SetDefault("DB_CONNECT_TIMEOUT", "30s")
	v.SetDefault("REPLICATOR_HTTP_ADDR", ":9100")
	v.SetDefault("VALIDATOR_HTTP_ADDR", ":8080")
	v.SetDefault("INTAKE_HTTP_ADDR", ":8081")
	v.SetDefault("GRPC_ADDR", "")
	v.SetDefault("API_KEY", "")
	v.SetDefault("INTAKE_DROP_DIR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("PIPELINE_EVENTS_TOPIC", "sales-pipeline-events")
	v.SetDefault("KAFKA_GROUP_ID", "sales-pipeline-loki-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.ValidatorBatchSize == 0 {
		cfg.ValidatorBatchSize = 100
	}
	if cfg.ValidatorBatchSize < 1 || cfg.ValidatorBatchSize > 10000 {
		return nil, errors.New("config: VALIDATOR_BATCH_SIZE must be between 1 and 10000")
	}
	if _, err := parseInterval(cfg.ReplicatorInterval); err != nil {
		return nil, errors.New("config: REPLICATOR_INTERVAL must be a positive duration or number of seconds")
	}
	if _, err := parseInterval(cfg.ValidatorInterval); err != nil {
		return nil, errors.New("config: VALIDATOR_INTERVAL must be a positive duration or number of seconds")
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		return nil, errors.New("config: LOG_FORMAT must be json or text")
	}

	return &cfg, nil
}

// ReplicatorEvery returns the replicator tick interval. Returns 60s if unset or invalid.
func (c *Config) ReplicatorEvery() time.Duration {
	d, err := parseInterval(c.ReplicatorInterval)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// ValidatorEvery returns the validator tick interval. Returns 30s if unset or invalid.
func (c *Config) ValidatorEvery() time.Duration {
	d, err := parseInterval(c.ValidatorInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Grace returns the shutdown grace period. Returns 10s if unset or invalid.
func (c *Config) Grace() time.Duration {
	d, err := parseInterval(c.ShutdownGrace)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ConnectTimeout returns the startup connection retry budget. Returns 30s if unset or invalid.
func (c *Config) ConnectTimeout() time.Duration {
	d, err := parseInterval(c.DBConnectTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if event publishing is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseInterval accepts a Go duration string or a whole number of seconds.
func parseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, errors.New("interval must be positive")
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("interval must be positive")
	}
	return d, nil
}
