package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config is the process configuration shared by every binary. Each binary
// calls Require for the keys it cannot run without.
type Config struct {
	Port                   string
	PostgresURL            string
	JWTSecret              string
	RedisURL               string
	KafkaBrokers           []string
	OrderEventsTopic       string
	CheckoutLockCrops      bool
	OrderStrictTransitions bool
	RelayInterval          time.Duration
	RelayBatchSize         int
	SMTP                   SMTPConfig
	OTLPEndpoint           string
	MigrationsPath         string
}

// Load reads the optional dotenv files (".env" when none are given) into the
// environment and then resolves every key from the environment with defaults.
// Variables already set in the environment win over dotenv values.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("order_events_topic", "order.placed")
	v.SetDefault("checkout_lock_crops", false)
	v.SetDefault("order_strict_transitions", false)
	v.SetDefault("relay_interval", 2*time.Second)
	v.SetDefault("relay_batch_size", 100)
	v.SetDefault("smtp_port", 587)
	v.SetDefault("otel_exporter_otlp_endpoint", "localhost:4317")
	v.SetDefault("migrations_path", "file://migrations")

	cfg := &Config{
		Port:                   v.GetString("port"),
		PostgresURL:            v.GetString("postgres_url"),
		JWTSecret:              v.GetString("jwt_secret"),
		RedisURL:               v.GetString("redis_url"),
		KafkaBrokers:           splitList(v.GetString("kafka_brokers")),
		OrderEventsTopic:       v.GetString("order_events_topic"),
		CheckoutLockCrops:      v.GetBool("checkout_lock_crops"),
		OrderStrictTransitions: v.GetBool("order_strict_transitions"),
		RelayInterval:          v.GetDuration("relay_interval"),
		RelayBatchSize:         v.GetInt("relay_batch_size"),
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp_host"),
			Port:     v.GetInt("smtp_port"),
			Username: v.GetString("smtp_username"),
			Password: v.GetString("smtp_password"),
			From:     v.GetString("smtp_from"),
		},
		OTLPEndpoint:   v.GetString("otel_exporter_otlp_endpoint"),
		MigrationsPath: v.GetString("migrations_path"),
	}

	if cfg.RelayInterval <= 0 {
		return nil, fmt.Errorf("RELAY_INTERVAL must be positive, got %s", cfg.RelayInterval)
	}
	if cfg.RelayBatchSize <= 0 {
		return nil, fmt.Errorf("RELAY_BATCH_SIZE must be positive, got %d", cfg.RelayBatchSize)
	}

	return cfg, nil
}

// Require returns an error naming every listed environment variable that has no value.
func (c *Config) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if !c.has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) has(key string) bool {
	switch key {
	case "POSTGRES_URL":
		return c.PostgresURL != ""
	case "JWT_SECRET":
		return c.JWTSecret != ""
	case "REDIS_URL":
		return c.RedisURL != ""
	case "KAFKA_BROKERS":
		return len(c.KafkaBrokers) > 0
	case "SMTP_HOST":
		return c.SMTP.Host != ""
	case "SMTP_FROM":
		return c.SMTP.From != ""
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
