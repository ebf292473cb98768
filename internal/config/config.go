package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Ledger   LedgerConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr           string
	MetricsEnabled bool
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	UseMock         bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig controls the application log output.
type LoggingConfig struct {
	Level string
}

// LedgerConfig tunes the inventory engine.
type LedgerConfig struct {
	MaxRetries     int
	ReversalPolicy string
	NotifyTimeout  time.Duration
}

// RetryLimit maps MaxRetries onto inventory.Options.MaxRetries, where a
// negative value disables retries. LEDGER_MAX_RETRIES=0 means no retries.
func (c LedgerConfig) RetryLimit() int {
	if c.MaxRetries == 0 {
		return -1
	}
	return c.MaxRetries
}

// KafkaConfig points the invoice notifier at a broker. An empty broker list
// disables Kafka and events are only logged.
type KafkaConfig struct {
	Brokers      []string
	InvoiceTopic string
}

// RedisConfig enables the stock report cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Load reads an optional .env file, inspects the environment and builds a Config value.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		MetricsEnabled: parseBoolWithDefault(os.Getenv("METRICS_ENABLED"), true),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 5),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 20),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 15*time.Minute),
	}

	cfg.Logging = LoggingConfig{
		Level: firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
	}

	cfg.Ledger = LedgerConfig{
		MaxRetries:     parseIntWithDefault(os.Getenv("LEDGER_MAX_RETRIES"), 3),
		ReversalPolicy: strings.ToLower(strings.TrimSpace(firstNonEmpty(os.Getenv("LEDGER_REVERSAL_POLICY"), "snapshot"))),
		NotifyTimeout:  parseDurationWithDefault(os.Getenv("NOTIFY_TIMEOUT"), 2*time.Second),
	}

	cfg.Kafka = KafkaConfig{
		Brokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		InvoiceTopic: firstNonEmpty(os.Getenv("KAFKA_INVOICE_TOPIC"), "invoice-events"),
	}

	cfg.Redis = RedisConfig{
		Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       parseIntWithDefault(os.Getenv("REDIS_DB"), 0),
		TTL:      parseDurationWithDefault(os.Getenv("STOCK_REPORT_CACHE_TTL"), 5*time.Minute),
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}
	if cfg.Ledger.MaxRetries < 0 {
		return Config{}, fmt.Errorf("LEDGER_MAX_RETRIES must not be negative")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
