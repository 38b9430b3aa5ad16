// Package config loads service configuration from the environment, optionally
// seeded from a .env file for local development.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	dErrors "enroll/pkg/domain-errors"
	platstrings "enroll/pkg/platform/strings"
)

const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"

	StoreMemory   = "memory"
	StoreSheets   = "sheets"
	StorePostgres = "postgres"

	EventsNone     = "none"
	EventsKafka    = "kafka"
	EventsRabbitMQ = "rabbitmq"
)

// Config is the full service configuration.
type Config struct {
	Server    Server
	Plan      Plan
	Gateway   Gateway
	Sheets    Sheets
	Store     Store
	Redis     RedisConfig
	Events    Events
	Admin     Admin
	Reconcile Reconcile
	RateLimit RateLimit
	Log       Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	PublicBaseURL  string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Plan is the fixed event price and default due day.
type Plan struct {
	PriceCents    int64
	DefaultDueDay int
}

// Gateway configures the payment gateway client.
type Gateway struct {
	Token          string
	Environment    string
	PublicKey      string
	BaseURL        string
	Timeout        time.Duration
	VerifyWebhooks bool
}

// Sheets configures the spreadsheet-backed store.
type Sheets struct {
	CredentialsJSON  string
	SpreadsheetID    string
	RegistrantsSheet string
	LogsSheet        string
}

// Store selects the registrant backend.
type Store struct {
	Backend     string
	DatabaseURL string
}

// RedisConfig configures the optional Redis client. Empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DedupeTTL    time.Duration
	LockTTL      time.Duration
}

// Events selects where ledger events are published.
type Events struct {
	Backend      string
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	Exchange     string
}

// Admin configures admin bearer tokens. Empty key disables admin routes.
type Admin struct {
	JWTSigningKey string
	Issuer        string
}

// Reconcile configures the scheduled reconciliation sweep. Empty schedule disables it.
type Reconcile struct {
	Schedule string
}

// RateLimit caps requests per client IP on the public API. Zero requests disables it.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

type Log struct {
	Level  string
	Format string
}

// env mirrors the environment surface one-to-one.
type env struct {
	ServerAddr         string        `mapstructure:"SERVER_ADDR"`
	PublicBaseURL      string        `mapstructure:"PUBLIC_BASE_URL"`
	CORSOrigins        []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	PlanPrice          string        `mapstructure:"EVENT_PLAN_PRICE"`
	DefaultDueDay      int           `mapstructure:"DEFAULT_DUE_DAY"`
	PagBankToken       string        `mapstructure:"PAGBANK_TOKEN"`
	PagBankEnv         string        `mapstructure:"PAGBANK_ENV"`
	PagBankPublicKey   string        `mapstructure:"PAGBANK_PUBLIC_KEY"`
	PagBankBaseURL     string        `mapstructure:"PAGBANK_BASE_URL"`
	PagBankTimeout     time.Duration `mapstructure:"PAGBANK_TIMEOUT"`
	PagBankVerify      bool          `mapstructure:"PAGBANK_VERIFY_WEBHOOKS"`
	GoogleCredentials  string        `mapstructure:"GOOGLE_CREDENTIALS_JSON"`
	GoogleSheetID      string        `mapstructure:"GOOGLE_SHEET_ID"`
	RegistrantsSheet   string        `mapstructure:"SHEET_REGISTRANTS"`
	LogsSheet          string        `mapstructure:"SHEET_LOGS"`
	StoreBackend       string        `mapstructure:"STORE_BACKEND"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	RedisPoolSize      int           `mapstructure:"REDIS_POOL_SIZE"`
	RedisMinIdle       int           `mapstructure:"REDIS_MIN_IDLE_CONNS"`
	RedisDialTimeout   time.Duration `mapstructure:"REDIS_DIAL_TIMEOUT"`
	RedisReadTimeout   time.Duration `mapstructure:"REDIS_READ_TIMEOUT"`
	RedisWriteTimeout  time.Duration `mapstructure:"REDIS_WRITE_TIMEOUT"`
	WebhookDedupeTTL   time.Duration `mapstructure:"WEBHOOK_DEDUPE_TTL"`
	RegistrantLockTTL  time.Duration `mapstructure:"REGISTRANT_LOCK_TTL"`
	EventsBackend      string        `mapstructure:"EVENTS_BACKEND"`
	KafkaBrokers       []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic         string        `mapstructure:"KAFKA_TOPIC"`
	RabbitMQURL        string        `mapstructure:"RABBITMQ_URL"`
	RabbitMQExchange   string        `mapstructure:"RABBITMQ_EXCHANGE"`
	AdminJWTSigningKey string        `mapstructure:"ADMIN_JWT_SIGNING_KEY"`
	AdminJWTIssuer     string        `mapstructure:"ADMIN_JWT_ISSUER"`
	ReconcileCron      string        `mapstructure:"RECONCILE_CRON"`
	RateLimitRequests  int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow    time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"SERVER_ADDR":             ":8080",
	"REQUEST_TIMEOUT":         "30s",
	"EVENT_PLAN_PRICE":        "450.00",
	"DEFAULT_DUE_DAY":         10,
	"PAGBANK_ENV":             EnvSandbox,
	"PAGBANK_TIMEOUT":         "10s",
	"PAGBANK_VERIFY_WEBHOOKS": false,
	"SHEET_REGISTRANTS":       "Inscrições",
	"SHEET_LOGS":              "Logs",
	"STORE_BACKEND":           StoreSheets,
	"REDIS_POOL_SIZE":         10,
	"REDIS_MIN_IDLE_CONNS":    2,
	"REDIS_DIAL_TIMEOUT":      "5s",
	"REDIS_READ_TIMEOUT":      "3s",
	"REDIS_WRITE_TIMEOUT":     "3s",
	"WEBHOOK_DEDUPE_TTL":      "24h",
	"REGISTRANT_LOCK_TTL":     "15s",
	"EVENTS_BACKEND":          EventsNone,
	"KAFKA_TOPIC":             "enroll.ledger",
	"RABBITMQ_EXCHANGE":       "enroll.events",
	"ADMIN_JWT_ISSUER":        "enroll",
	"RATE_LIMIT_REQUESTS":     60,
	"RATE_LIMIT_WINDOW":       "1m",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "json",
}

// Load reads configuration from the environment. A .env file in dir, if present,
// seeds variables that are not already set.
func Load(dir string) (Config, error) {
	if dir != "" {
		if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to read .env file; using environment values", "error", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range envKeys() {
		_ = v.BindEnv(key)
	}

	var e env
	if err := v.Unmarshal(&e); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		e.ServerAddr = ":" + port
	}

	price, err := parsePriceCents(e.PlanPrice)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: Server{
			Addr:           e.ServerAddr,
			PublicBaseURL:  strings.TrimRight(strings.TrimSpace(e.PublicBaseURL), "/"),
			CORSOrigins:    platstrings.SplitList(e.CORSOrigins),
			RequestTimeout: e.RequestTimeout,
		},
		Plan: Plan{PriceCents: price, DefaultDueDay: e.DefaultDueDay},
		Gateway: Gateway{
			Token:          strings.TrimSpace(e.PagBankToken),
			Environment:    strings.ToLower(strings.TrimSpace(e.PagBankEnv)),
			PublicKey:      strings.TrimSpace(e.PagBankPublicKey),
			BaseURL:        strings.TrimSpace(e.PagBankBaseURL),
			Timeout:        e.PagBankTimeout,
			VerifyWebhooks: e.PagBankVerify,
		},
		Sheets: Sheets{
			CredentialsJSON:  e.GoogleCredentials,
			SpreadsheetID:    strings.TrimSpace(e.GoogleSheetID),
			RegistrantsSheet: e.RegistrantsSheet,
			LogsSheet:        e.LogsSheet,
		},
		Store: Store{
			Backend:     strings.ToLower(strings.TrimSpace(e.StoreBackend)),
			DatabaseURL: strings.TrimSpace(e.DatabaseURL),
		},
		Redis: RedisConfig{
			URL:          strings.TrimSpace(e.RedisURL),
			PoolSize:     e.RedisPoolSize,
			MinIdleConns: e.RedisMinIdle,
			DialTimeout:  e.RedisDialTimeout,
			ReadTimeout:  e.RedisReadTimeout,
			WriteTimeout: e.RedisWriteTimeout,
			DedupeTTL:    e.WebhookDedupeTTL,
			LockTTL:      e.RegistrantLockTTL,
		},
		Events: Events{
			Backend:      strings.ToLower(strings.TrimSpace(e.EventsBackend)),
			KafkaBrokers: platstrings.SplitList(e.KafkaBrokers),
			KafkaTopic:   e.KafkaTopic,
			AMQPURL:      strings.TrimSpace(e.RabbitMQURL),
			Exchange:     e.RabbitMQExchange,
		},
		Admin:     Admin{JWTSigningKey: e.AdminJWTSigningKey, Issuer: e.AdminJWTIssuer},
		Reconcile: Reconcile{Schedule: strings.TrimSpace(e.ReconcileCron)},
		RateLimit: RateLimit{Requests: e.RateLimitRequests, Window: e.RateLimitWindow},
		Log:       Log{Level: e.LogLevel, Format: e.LogFormat},
	}
	return cfg, nil
}

func envKeys() []string {
	return []string{
		"SERVER_ADDR", "PUBLIC_BASE_URL", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT",
		"EVENT_PLAN_PRICE", "DEFAULT_DUE_DAY",
		"PAGBANK_TOKEN", "PAGBANK_ENV", "PAGBANK_PUBLIC_KEY", "PAGBANK_BASE_URL",
		"PAGBANK_TIMEOUT", "PAGBANK_VERIFY_WEBHOOKS",
		"GOOGLE_CREDENTIALS_JSON", "GOOGLE_SHEET_ID", "SHEET_REGISTRANTS", "SHEET_LOGS",
		"STORE_BACKEND", "DATABASE_URL",
		"REDIS_URL", "REDIS_POOL_SIZE", "REDIS_MIN_IDLE_CONNS", "REDIS_DIAL_TIMEOUT",
		"REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT", "WEBHOOK_DEDUPE_TTL", "REGISTRANT_LOCK_TTL",
		"EVENTS_BACKEND", "KAFKA_BROKERS", "KAFKA_TOPIC", "RABBITMQ_URL", "RABBITMQ_EXCHANGE",
		"ADMIN_JWT_SIGNING_KEY", "ADMIN_JWT_ISSUER", "RECONCILE_CRON",
		"RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
		"LOG_LEVEL", "LOG_FORMAT",
	}
}

// parsePriceCents accepts "450", "450.00" or "450,00".
func parsePriceCents(raw string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid EVENT_PLAN_PRICE %q", raw)
	}
	return int64(math.Round(value * 100)), nil
}

// Validate checks the settings required to boot: the store backend and the
// event publisher. Gateway settings are checked per request.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StoreSheets:
		if err := c.Sheets.Validate(); err != nil {
			return err
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return missing("DATABASE_URL")
		}
	default:
		return dErrors.Newf(dErrors.CodeConfiguration, "configuration incomplete: unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Events.Backend {
	case EventsNone:
	case EventsKafka:
		if len(c.Events.KafkaBrokers) == 0 {
			return missing("KAFKA_BROKERS")
		}
	case EventsRabbitMQ:
		if c.Events.AMQPURL == "" {
			return missing("RABBITMQ_URL")
		}
	default:
		return dErrors.Newf(dErrors.CodeConfiguration, "configuration incomplete: unknown EVENTS_BACKEND %q", c.Events.Backend)
	}

	if c.Plan.DefaultDueDay < 1 || c.Plan.DefaultDueDay > 31 {
		return dErrors.New(dErrors.CodeConfiguration, "configuration incomplete: DEFAULT_DUE_DAY must be between 1 and 31")
	}
	return nil
}

// Validate reports the first missing gateway setting as a configuration error.
func (g Gateway) Validate() error {
	if g.Token == "" {
		return missing("PAGBANK_TOKEN")
	}
	if g.Environment != EnvSandbox && g.Environment != EnvProduction {
		return dErrors.Newf(dErrors.CodeConfiguration, "configuration incomplete: PAGBANK_ENV must be %q or %q", EnvSandbox, EnvProduction)
	}
	return nil
}

// Validate reports the first missing spreadsheet setting as a configuration error.
func (s Sheets) Validate() error {
	if strings.TrimSpace(s.CredentialsJSON) == "" {
		return missing("GOOGLE_CREDENTIALS_JSON")
	}
	if s.SpreadsheetID == "" {
		return missing("GOOGLE_SHEET_ID")
	}
	return nil
}

func missing(name string) error {
	return dErrors.Newf(dErrors.CodeConfiguration, "configuration incomplete: %s is not set", name)
}
