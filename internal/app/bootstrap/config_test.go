package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
service:
  id: reminders-test
  http_port: 18080
dependencies:
  postgres_url: postgres://file/db
  kafka_brokers: ["kafka-1:9092", " ", "kafka-2:9092"]
reminders:
  cutoff_hours: 0
  reconcile_delay_seconds: 30
  ticket_ttl_seconds: 120
`)
	t.Setenv("DB_URL", "postgres://env/db")
	t.Setenv("REMINDER_CLEARANCE_HOURS", "12")
	t.Setenv("FEATURE_RUN_ON_START", "true")
	t.Setenv("PUSH_SUBMIT_CONCURRENCY", "not-a-number")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceID != "reminders-test" || cfg.HTTPPort != 18080 || cfg.GRPCPort != 9090 {
		t.Fatalf("unexpected service section %+v", cfg)
	}
	if cfg.DatabaseURL != "postgres://env/db" {
		t.Fatalf("expected env to override file, got %s", cfg.DatabaseURL)
	}
	if strings.Join(cfg.KafkaBrokers, ",") != "kafka-1:9092,kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.CutoffHours != 0 || cfg.ClearanceHours != 12 {
		t.Fatalf("unexpected windows cutoff=%d clearance=%d", cfg.CutoffHours, cfg.ClearanceHours)
	}
	if cfg.ReconcileDelay != 30*time.Second || cfg.TicketTTL != 2*time.Minute {
		t.Fatalf("unexpected timings delay=%s ttl=%s", cfg.ReconcileDelay, cfg.TicketTTL)
	}
	if !cfg.RunOnStart || cfg.SubmitConcurrency != 4 {
		t.Fatalf("unexpected worker settings %+v", cfg)
	}
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Setenv("POSTGRES_URL", "postgres://env/db")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CutoffHours != 96 || cfg.ClearanceHours != 24 || cfg.ReconcileDelay != time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("POSTGRES_URL", "")
	if _, err := LoadConfig(writeConfig(t, "service:\n  id: x\n")); err == nil {
		t.Fatalf("expected missing database url to fail")
	}

	t.Setenv("DB_URL", "postgres://env/db")
	t.Setenv("RECONCILE_DELAY_SECONDS", "120")
	t.Setenv("TICKET_TTL_SECONDS", "60")
	if _, err := LoadConfig(writeConfig(t, "")); err == nil || !strings.Contains(err.Error(), "ticket ttl") {
		t.Fatalf("expected ttl shorter than delay to fail, got %v", err)
	}

	if _, err := LoadConfig(writeConfig(t, "service: [")); err == nil {
		t.Fatalf("expected malformed yaml to fail")
	}
}
