package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr              string
	IdleTimeout       time.Duration // keep-alive connections are closed after this long without a request
	ShutdownTimeout   time.Duration // upper bound for draining connections on shutdown
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration

	LogLevel    slog.Level
	LogFormat   string // json or text
	ServiceName string

	PprofEnabled bool
	AdminAddr    string

	OtlpGrpcEndpoint string
	OtlpServiceName  string
	TracingEnabled   bool

	// Summarization service
	SummarizerBaseURL string
	SummarizerTimeout time.Duration // 0 disables the client timeout

	// Browser sessions
	SessionIdleTTL       time.Duration
	SessionMax           int
	SessionSweepInterval time.Duration

	// RateLimit: "redis" or "local"
	RateLimitEnabled bool
	RateLimitBackend string
	SubmitRateLimit  int // submissions per client IP per minute

	Redis    RedisConfig
	Kafka    KafkaConfig
	EventBuf int // channel collector buffer when Kafka is off
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

func Default() Config {
	return Config{
		Addr:              ":9999",
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,

		LogLevel:    slog.LevelInfo,
		LogFormat:   "json",
		ServiceName: "allat",

		PprofEnabled: false,
		AdminAddr:    "127.0.0.1:6060",

		OtlpGrpcEndpoint: "127.0.0.1:4317",
		OtlpServiceName:  "allat",
		TracingEnabled:   false,

		SummarizerBaseURL: "https://aint-server.onrender.com",
		SummarizerTimeout: 90 * time.Second,

		SessionIdleTTL:       30 * time.Minute,
		SessionMax:           10000,
		SessionSweepInterval: time.Minute,

		RateLimitEnabled: true,
		RateLimitBackend: "local",
		SubmitRateLimit:  10,

		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "summary-submissions",
			GroupID: "summary-events-logger",
		},
		EventBuf: 10000,
	}
}

// fileConfig mirrors the YAML file layout. Every field is optional and only
// set fields override the defaults.
type fileConfig struct {
	Addr            string `yaml:"addr"`
	AdminAddr       string `yaml:"admin_addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	ServiceName     string `yaml:"service_name"`

	Tracing struct {
		Enabled  *bool  `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"tracing"`

	Summarizer struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"summarizer"`

	Sessions struct {
		IdleTTL string `yaml:"idle_ttl"`
		Max     *int   `yaml:"max"`
	} `yaml:"sessions"`

	RateLimit struct {
		Enabled   *bool  `yaml:"enabled"`
		Backend   string `yaml:"backend"`
		PerMinute *int   `yaml:"per_minute"`
	} `yaml:"ratelimit"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       *int   `yaml:"db"`
	} `yaml:"redis"`

	Kafka struct {
		Enabled *bool    `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
		GroupID string   `yaml:"group_id"`
	} `yaml:"kafka"`
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE, then environment variables (.env is read if present).
// Malformed values are ignored and the previous value kept.
func Load() Config {
	cfg := Default()

	_ = godotenv.Load(".env")

	if path, ok := os.LookupEnv("CONFIG_FILE"); ok && path != "" {
		if err := cfg.applyFile(path); err != nil {
			slog.Warn("config file ignored", "path", path, "err", err)
		}
	}
	cfg.applyEnv()
	return cfg
}

func (cfg *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	setString(&cfg.Addr, fc.Addr)
	setString(&cfg.AdminAddr, fc.AdminAddr)
	setDuration(&cfg.ShutdownTimeout, fc.ShutdownTimeout)
	if fc.LogLevel != "" {
		cfg.LogLevel = ParseLevel(fc.LogLevel)
	}
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.ServiceName, fc.ServiceName)

	if fc.Tracing.Enabled != nil {
		cfg.TracingEnabled = *fc.Tracing.Enabled
	}
	setString(&cfg.OtlpGrpcEndpoint, fc.Tracing.Endpoint)

	setString(&cfg.SummarizerBaseURL, fc.Summarizer.BaseURL)
	setDuration(&cfg.SummarizerTimeout, fc.Summarizer.Timeout)

	setDuration(&cfg.SessionIdleTTL, fc.Sessions.IdleTTL)
	if fc.Sessions.Max != nil && *fc.Sessions.Max >= 0 {
		cfg.SessionMax = *fc.Sessions.Max
	}

	if fc.RateLimit.Enabled != nil {
		cfg.RateLimitEnabled = *fc.RateLimit.Enabled
	}
	setString(&cfg.RateLimitBackend, fc.RateLimit.Backend)
	if fc.RateLimit.PerMinute != nil && *fc.RateLimit.PerMinute > 0 {
		cfg.SubmitRateLimit = *fc.RateLimit.PerMinute
	}

	setString(&cfg.Redis.Addr, fc.Redis.Addr)
	setString(&cfg.Redis.Password, fc.Redis.Password)
	if fc.Redis.DB != nil && *fc.Redis.DB >= 0 {
		cfg.Redis.DB = *fc.Redis.DB
	}

	if fc.Kafka.Enabled != nil {
		cfg.Kafka.Enabled = *fc.Kafka.Enabled
	}
	if len(fc.Kafka.Brokers) > 0 {
		cfg.Kafka.Brokers = fc.Kafka.Brokers
	}
	setString(&cfg.Kafka.Topic, fc.Kafka.Topic)
	setString(&cfg.Kafka.GroupID, fc.Kafka.GroupID)
	return nil
}

func (cfg *Config) applyEnv() {
	envString("ADDR", &cfg.Addr)
	envDuration("IDLE_TIMEOUT", &cfg.IdleTimeout)
	envDuration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	envDuration("READ_HEADER_TIMEOUT", &cfg.ReadHeaderTimeout)
	envDuration("READ_TIMEOUT", &cfg.ReadTimeout)
	envDuration("WRITE_TIMEOUT", &cfg.WriteTimeout)

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = ParseLevel(v)
	}
	envString("LOG_FORMAT", &cfg.LogFormat)
	envString("SERVICE_NAME", &cfg.ServiceName)

	envBool("PPROF_ENABLED", &cfg.PprofEnabled)
	envString("ADMIN_ADDR", &cfg.AdminAddr)

	envBool("TRACING_ENABLED", &cfg.TracingEnabled)
	envString("OTLP_GRPC_ENDPOINT", &cfg.OtlpGrpcEndpoint)
	envString("OTLP_SERVICE_NAME", &cfg.OtlpServiceName)

	envString("SUMMARIZER_BASE_URL", &cfg.SummarizerBaseURL)
	if v, ok := os.LookupEnv("SUMMARIZER_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.SummarizerTimeout = d
		}
	}

	envDuration("SESSION_IDLE_TTL", &cfg.SessionIdleTTL)
	envInt("SESSION_MAX", &cfg.SessionMax, 0)
	envDuration("SESSION_SWEEP_INTERVAL", &cfg.SessionSweepInterval)

	envBool("RATELIMIT_ENABLED", &cfg.RateLimitEnabled)
	envString("RATELIMIT_BACKEND", &cfg.RateLimitBackend)
	envInt("SUBMIT_RATE_LIMIT", &cfg.SubmitRateLimit, 1)

	envString("REDIS_ADDR", &cfg.Redis.Addr)
	envString("REDIS_PASSWORD", &cfg.Redis.Password)
	envInt("REDIS_DB", &cfg.Redis.DB, 0)

	envBool("KAFKA_ENABLED", &cfg.Kafka.Enabled)
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	envString("KAFKA_TOPIC", &cfg.Kafka.Topic)
	envString("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)
	envInt("EVENT_BUFFER", &cfg.EventBuf, 1)
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		setDuration(dst, v)
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}

func envInt(key string, dst *int, min int) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			*dst = n
		}
	}
}
