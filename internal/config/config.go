package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite3"
	DriverMongo  = "mongo"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	DBDriver        string
	DBDSN           string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	MQTT MQTTConfig

	// DisplayLocation is the zone used to bucket readings by local hour and
	// to resolve calendar days when a request does not name one.
	DisplayLocation *time.Location
	HistoryPageSize int
}

type MQTTConfig struct {
	Enabled         bool
	Broker          string
	Port            int
	ClientID        string
	Topic           string
	DeadLetterTopic string
	MaxRetries      int
}

// CollectorConfig drives cmd/collector.
type CollectorConfig struct {
	AppEnv   string
	LogLevel slog.Level

	City        string
	Interval    time.Duration
	ForecastURL string
	GeocodeURL  string
	HTTPTimeout time.Duration

	MQTT MQTTConfig
}

// LoadDotEnv loads a .env file from the working directory if present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}
}

func LoadFromEnv() (Config, error) {
	appEnv, level, err := loadBase()
	if err != nil {
		return Config{}, err
	}

	httpAddr := envDefault("HTTP_ADDR", ":8080")

	driver := envDefault("DB_DRIVER", DriverSQLite)
	switch driver {
	case DriverSQLite, DriverMongo:
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: %s, %s)", driver, DriverSQLite, DriverMongo)
	}

	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}
	logSQL, err := envBool("DB_LOG_SQL", false)
	if err != nil {
		return Config{}, err
	}

	mongoURI := envDefault("MONGO_URI", "mongodb://localhost:27017")

	mqttCfg, err := loadMQTT("gdash-server")
	if err != nil {
		return Config{}, err
	}

	tzName := envDefault("DISPLAY_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", tzName, err)
	}

	pageSize, err := envInt("HISTORY_PAGE_SIZE", 10)
	if err != nil {
		return Config{}, err
	}
	if pageSize < 1 || pageSize > 100 {
		return Config{}, fmt.Errorf("HISTORY_PAGE_SIZE must be between 1 and 100, got %d", pageSize)
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		HTTPAddr:        httpAddr,
		DBDriver:        driver,
		DBDSN:           strings.TrimSpace(os.Getenv("DB_DSN")),
		SQLitePath:      envDefault("SQLITE_PATH", "data/gdash.db"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
		MongoURI:        mongoURI,
		MongoDatabase:   envDefault("MONGO_DATABASE", "gdash"),
		MongoCollection: envDefault("MONGO_COLLECTION", "weathers"),
		MQTT:            mqttCfg,
		DisplayLocation: loc,
		HistoryPageSize: pageSize,
	}, nil
}

func LoadCollectorFromEnv() (CollectorConfig, error) {
	appEnv, level, err := loadBase()
	if err != nil {
		return CollectorConfig{}, err
	}

	city := strings.TrimSpace(os.Getenv("COLLECTOR_CITY"))
	if city == "" {
		return CollectorConfig{}, fmt.Errorf("COLLECTOR_CITY is required")
	}

	interval, err := envDuration("COLLECTOR_INTERVAL", 30*time.Second)
	if err != nil {
		return CollectorConfig{}, err
	}
	if interval <= 0 {
		return CollectorConfig{}, fmt.Errorf("COLLECTOR_INTERVAL must be positive, got %v", interval)
	}

	httpTimeout, err := envDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return CollectorConfig{}, err
	}

	mqttCfg, err := loadMQTT("gdash-collector")
	if err != nil {
		return CollectorConfig{}, err
	}

	return CollectorConfig{
		AppEnv:      appEnv,
		LogLevel:    level,
		City:        city,
		Interval:    interval,
		ForecastURL: envDefault("OPENMETEO_URL", "https://api.open-meteo.com/v1/forecast"),
		GeocodeURL:  envDefault("OPENMETEO_GEOCODE_URL", "https://geocoding-api.open-meteo.com/v1/search"),
		HTTPTimeout: httpTimeout,
		MQTT:        mqttCfg,
	}, nil
}

func loadBase() (string, slog.Level, error) {
	appEnv := envDefault("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return "", slog.LevelInfo, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envDefault("LOG_LEVEL", "info"))
	if err != nil {
		return "", slog.LevelInfo, err
	}
	return appEnv, level, nil
}

func loadMQTT(defaultClientID string) (MQTTConfig, error) {
	enabled, err := envBool("MQTT_ENABLED", true)
	if err != nil {
		return MQTTConfig{}, err
	}
	port, err := envInt("MQTT_PORT", 1883)
	if err != nil {
		return MQTTConfig{}, err
	}
	maxRetries, err := envInt("MQTT_MAX_RETRIES", 3)
	if err != nil {
		return MQTTConfig{}, err
	}
	if maxRetries < 0 {
		return MQTTConfig{}, fmt.Errorf("MQTT_MAX_RETRIES must be >= 0, got %d", maxRetries)
	}
	return MQTTConfig{
		Enabled:         enabled,
		Broker:          envDefault("MQTT_BROKER", "localhost"),
		Port:            port,
		ClientID:        envDefault("MQTT_CLIENT_ID", defaultClientID),
		Topic:           envDefault("MQTT_TOPIC", "weather/readings"),
		DeadLetterTopic: strings.TrimSpace(os.Getenv("MQTT_DEAD_LETTER_TOPIC")),
		MaxRetries:      maxRetries,
	}, nil
}

func envDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
