// Package config loads environment-driven configuration for both services,
// generalized from src/config/config.go and
// internal/infrastructure/database/postgres/config.go getEnv helpers.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Bus         BusConfig
	PeerClient  PeerClientConfig
	JWT         JWTConfig
	Security    SecurityConfig
	CORS        CORSConfig
	Logging     LoggingConfig
	RateLimit   RateLimitConfig
	Breaker     BreakerConfig
	Retry       RetryConfig
	TimeLimiter TimeLimiterConfig
	Cache       CacheConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	RequestDeadline time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type BusConfig struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string
}

type PeerClientConfig struct {
	CustomerServiceBaseURL string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type SecurityConfig struct {
	Enabled bool
}

type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type BreakerConfig struct {
	FailureRateThreshold float64
	SlidingWindowSize    int
	MinimumCalls         int
	OpenStateWait        time.Duration
	HalfOpenProbes       int
}

type RetryConfig struct {
	MaxAttempts int
	Wait        time.Duration
}

type TimeLimiterConfig struct {
	Duration time.Duration
}

type CacheConfig struct {
	Enabled  bool
	RedisURL string
	TTL      time.Duration
}

// Load reads every environment variable enumerated by §6, for the
// given service name (used as the default database name, database user,
// bus client id and consumer group prefix so both services can share sane
// defaults).
func Load(serviceName string) *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			RequestDeadline: getEnvAsDuration("REQUEST_DEADLINE", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", serviceName),
			User:            getEnv("DB_USER", serviceName),
			Password:        getEnv("DB_PASSWORD", "change-me"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Bus: BusConfig{
			Brokers:       getEnvAsSlice("BUS_BROKERS", []string{"localhost:9092"}),
			ConsumerGroup: getEnv("BUS_CONSUMER_GROUP", serviceName+"-group"),
			ClientID:      getEnv("BUS_CLIENT_ID", serviceName),
		},
		PeerClient: PeerClientConfig{
			CustomerServiceBaseURL: getEnv("CUSTOMER_SERVICE_BASE_URL", "http://localhost:8081"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "dev-only-secret-change-me"),
			Expiry: getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Security: SecurityConfig{
			Enabled: getEnvAsBool("SECURITY_ENABLED", true),
		},
		CORS: CORSConfig{
			AllowOrigins:     getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowMethods:     getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowHeaders:     getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Request-Id", "X-Correlation-Id", "Idempotency-Key"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 50),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 100),
		},
		Breaker: BreakerConfig{
			FailureRateThreshold: getEnvAsFloat("BREAKER_FAILURE_RATE_THRESHOLD", 0.5),
			SlidingWindowSize:    getEnvAsInt("BREAKER_SLIDING_WINDOW", 20),
			MinimumCalls:         getEnvAsInt("BREAKER_MINIMUM_CALLS", 5),
			OpenStateWait:        getEnvAsDuration("BREAKER_OPEN_STATE_WAIT", 20*time.Second),
			HalfOpenProbes:       getEnvAsInt("BREAKER_HALF_OPEN_PROBES", 3),
		},
		Retry: RetryConfig{
			MaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 2),
			Wait:        getEnvAsDuration("RETRY_WAIT", 100*time.Millisecond),
		},
		TimeLimiter: TimeLimiterConfig{
			Duration: getEnvAsDuration("TIME_LIMITER_DURATION", 5*time.Second),
		},
		Cache: CacheConfig{
			Enabled:  getEnvAsBool("CACHE_ENABLED", false),
			RedisURL: getEnv("CACHE_REDIS_URL", "localhost:6379"),
			TTL:      getEnvAsDuration("CACHE_TTL", 30*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	if value, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(name, ""), 64); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(getEnv(name, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(name string, defaultVal []string) []string {
	valStr := getEnv(name, "")
	if valStr == "" {
		return defaultVal
	}
	return strings.Split(valStr, ",")
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(name, "")); err == nil {
		return d
	}
	return defaultVal
}
