package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.OrderEventsTopic != "order.placed" {
		t.Errorf("expected topic order.placed, got %s", cfg.OrderEventsTopic)
	}
	if cfg.RelayInterval != 2*time.Second {
		t.Errorf("expected relay interval 2s, got %s", cfg.RelayInterval)
	}
	if cfg.RelayBatchSize != 100 {
		t.Errorf("expected batch size 100, got %d", cfg.RelayBatchSize)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("expected smtp port 587, got %d", cfg.SMTP.Port)
	}
	if cfg.CheckoutLockCrops || cfg.OrderStrictTransitions {
		t.Error("expected lock and strict transitions to default off")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CHECKOUT_LOCK_CROPS", "true")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "true")
	t.Setenv("RELAY_INTERVAL", "500ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if !cfg.CheckoutLockCrops || !cfg.OrderStrictTransitions {
		t.Error("expected lock and strict transitions enabled")
	}
	if cfg.RelayInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %s", cfg.RelayInterval)
	}
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PORT", "7070")
	t.Cleanup(func() { _ = os.Unsetenv("SMTP_FROM") })

	content := "PORT=1111\nSMTP_FROM=market@example.com\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "7070" {
		t.Errorf("expected environment port 7070, got %s", cfg.Port)
	}
	if cfg.SMTP.From != "market@example.com" {
		t.Errorf("expected SMTP_FROM from .env, got %q", cfg.SMTP.From)
	}
}

func TestLoad_RejectsNonPositiveBatch(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RELAY_BATCH_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero batch size")
	}
}

func TestConfig_Require(t *testing.T) {
	cfg := &Config{PostgresURL: "postgres://localhost/market"}

	if err := cfg.Require("POSTGRES_URL"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := cfg.Require("POSTGRES_URL", "JWT_SECRET", "KAFKA_BROKERS")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET, KAFKA_BROKERS") {
		t.Errorf("unexpected error: %v", err)
	}
}
