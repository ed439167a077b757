package config

import (
	"os"
	"strconv"
	"time"

	"afisha/internal/database"
	"afisha/internal/messaging"
	"afisha/internal/search"
	"afisha/internal/stats"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Внешние подсистемы можно выключить по отдельности; сервис при этом
	// деградирует (поиск уходит в БД, уведомления не шлются)
	SearchEnabled    bool
	MessagingEnabled bool
	CacheEnabled     bool

	Database      database.Config
	NATS          messaging.Config
	Elasticsearch search.Config
	Cache         stats.CacheConfig
	Stats         stats.Config
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		SearchEnabled:    getEnv("SEARCH_ENABLED", "true") == "true",
		MessagingEnabled: getEnv("MESSAGING_ENABLED", "true") == "true",
		CacheEnabled:     getEnv("CACHE_ENABLED", "true") == "true",

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "afisha"),
			Password:           getEnv("DB_PASSWORD", "afisha123"),
			DBName:             getEnv("DB_NAME", "afisha"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "afisha"),
			ClientID:  getEnv("NATS_CLIENT_ID", "afisha-api"),
		},

		Elasticsearch: search.Config{
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "events"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		Cache: stats.CacheConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			TTL:      time.Duration(getEnvInt("VIEWS_CACHE_TTL_SEC", 30)) * time.Second,
		},

		Stats: stats.Config{
			BaseURL: getEnv("STATS_SERVICE_URL", "http://localhost:9090"),
			AppName: getEnv("STATS_APP_NAME", "afisha-main-service"),
			Timeout: time.Duration(getEnvInt("STATS_TIMEOUT_SEC", 5)) * time.Second,
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
