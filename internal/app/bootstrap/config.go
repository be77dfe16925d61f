package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the reminder service.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string
	MaxDBConns  int32

	KafkaBrokers          []string
	KafkaTopicBatchEvents string

	PushGatewayURL  string
	PushAccessToken string
	PushHTTPTimeout time.Duration

	CutoffHours       int
	ClearanceHours    int
	ReconcileDelay    time.Duration
	TicketTTL         time.Duration
	RunInterval       time.Duration
	SubmitConcurrency int
	RunOnStart        bool

	AdminJWTSecret string
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL           string   `yaml:"postgres_url"`
		RedisURL              string   `yaml:"redis_url"`
		KafkaBrokers          []string `yaml:"kafka_brokers"`
		KafkaTopicBatchEvents string   `yaml:"kafka_topic_batch_events"`
		PushGatewayURL        string   `yaml:"push_gateway_url"`
		PushAccessToken       string   `yaml:"push_access_token"`
	} `yaml:"dependencies"`
	Reminders struct {
		CutoffHours           *int `yaml:"cutoff_hours"`
		ClearanceHours        *int `yaml:"clearance_hours"`
		ReconcileDelaySeconds int  `yaml:"reconcile_delay_seconds"`
		TicketTTLSeconds      int  `yaml:"ticket_ttl_seconds"`
		RunIntervalSeconds    int  `yaml:"run_interval_seconds"`
		SubmitConcurrency     int  `yaml:"submit_concurrency"`
	} `yaml:"reminders"`
}

// LoadConfig resolves defaults, then the YAML file at path if it exists, then
// environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "birthday-reminder-service",
		HTTPPort:              8080,
		GRPCPort:              9090,
		MaxDBConns:            10,
		KafkaTopicBatchEvents: "birthday-reminder.batch-events",
		PushHTTPTimeout:       30 * time.Second,
		CutoffHours:           96,
		ClearanceHours:        24,
		ReconcileDelay:        60 * time.Second,
		TicketTTL:             15 * time.Minute,
		RunInterval:           time.Hour,
		SubmitConcurrency:     4,
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg.ServiceID = envOrDefault("SERVICE_ID", cfg.ServiceID)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicBatchEvents = envOrDefault("KAFKA_TOPIC_BATCH_EVENTS", cfg.KafkaTopicBatchEvents)
	cfg.PushGatewayURL = envOrDefault("PUSH_GATEWAY_URL", cfg.PushGatewayURL)
	cfg.PushAccessToken = envOrDefault("PUSH_ACCESS_TOKEN", cfg.PushAccessToken)
	cfg.AdminJWTSecret = envOrDefault("ADMIN_JWT_SECRET", cfg.AdminJWTSecret)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.CutoffHours = envInt("REMINDER_CUTOFF_HOURS", cfg.CutoffHours)
	cfg.ClearanceHours = envInt("REMINDER_CLEARANCE_HOURS", cfg.ClearanceHours)
	cfg.SubmitConcurrency = envInt("PUSH_SUBMIT_CONCURRENCY", cfg.SubmitConcurrency)
	cfg.RunOnStart = envBool("FEATURE_RUN_ON_START", cfg.RunOnStart)

	cfg.ReconcileDelay = envSeconds("RECONCILE_DELAY_SECONDS", cfg.ReconcileDelay)
	cfg.TicketTTL = envSeconds("TICKET_TTL_SECONDS", cfg.TicketTTL)
	cfg.RunInterval = envSeconds("REMINDER_RUN_INTERVAL_SECONDS", cfg.RunInterval)
	cfg.PushHTTPTimeout = envSeconds("PUSH_HTTP_TIMEOUT_SECONDS", cfg.PushHTTPTimeout)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if brokers := trimNonEmpty(f.Dependencies.KafkaBrokers); len(brokers) > 0 {
		cfg.KafkaBrokers = brokers
	}
	if f.Dependencies.KafkaTopicBatchEvents != "" {
		cfg.KafkaTopicBatchEvents = f.Dependencies.KafkaTopicBatchEvents
	}
	if f.Dependencies.PushGatewayURL != "" {
		cfg.PushGatewayURL = f.Dependencies.PushGatewayURL
	}
	if f.Dependencies.PushAccessToken != "" {
		cfg.PushAccessToken = f.Dependencies.PushAccessToken
	}
	// Zero is a meaningful window, so these two are pointers.
	if f.Reminders.CutoffHours != nil {
		cfg.CutoffHours = *f.Reminders.CutoffHours
	}
	if f.Reminders.ClearanceHours != nil {
		cfg.ClearanceHours = *f.Reminders.ClearanceHours
	}
	if f.Reminders.ReconcileDelaySeconds > 0 {
		cfg.ReconcileDelay = time.Duration(f.Reminders.ReconcileDelaySeconds) * time.Second
	}
	if f.Reminders.TicketTTLSeconds > 0 {
		cfg.TicketTTL = time.Duration(f.Reminders.TicketTTLSeconds) * time.Second
	}
	if f.Reminders.RunIntervalSeconds > 0 {
		cfg.RunInterval = time.Duration(f.Reminders.RunIntervalSeconds) * time.Second
	}
	if f.Reminders.SubmitConcurrency > 0 {
		cfg.SubmitConcurrency = f.Reminders.SubmitConcurrency
	}
	return nil
}

func (c Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("missing DB_URL/POSTGRES_URL")
	case c.CutoffHours < 0:
		return fmt.Errorf("reminder cutoff hours must not be negative")
	case c.ClearanceHours < 0:
		return fmt.Errorf("reminder clearance hours must not be negative")
	case c.ReconcileDelay <= 0:
		return fmt.Errorf("reconcile delay must be positive")
	case c.TicketTTL < c.ReconcileDelay:
		return fmt.Errorf("ticket ttl %s is shorter than reconcile delay %s", c.TicketTTL, c.ReconcileDelay)
	case c.SubmitConcurrency <= 0:
		return fmt.Errorf("push submit concurrency must be positive")
	case c.RunInterval <= 0:
		return fmt.Errorf("reminder run interval must be positive")
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt falls back on empty or unparsable values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

func envSeconds(name string, fallback time.Duration) time.Duration {
	return time.Duration(envInt(name, int(fallback.Seconds()))) * time.Second
}

func envBool(name string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := trimNonEmpty(strings.Split(raw, ","))
	if len(parts) == 0 {
		return fallback
	}
	return parts
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
