package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	JWT      JWTConfig
	Fraud    FraudConfig
	Alerting AlertingConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// ScoreCacheTTL is how long cached score results live, in seconds.
	ScoreCacheTTL int
}

// NATSConfig holds NATS event bus configuration
type NATSConfig struct {
	URL     string
	Enabled bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in hours
}

// FraudConfig holds the scoring engine configuration
type FraudConfig struct {
	// ScoreThreshold is the minimum total score that may trigger an alert.
	ScoreThreshold float64
	// OCRWeightFactor scales signals derived from OCR-extracted text.
	OCRWeightFactor float64
}

// AlertingConfig holds alert throttling configuration
type AlertingConfig struct {
	RateLimit             int
	CooldownSeconds       int
	WindowSeconds         int
	StateRetentionSeconds int
	WebhookURL            string
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "fraudmonitor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnv("REDIS_PORT", "6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			ScoreCacheTTL: getEnvAsInt("SCORE_CACHE_TTL", 600),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Expiration: getEnvAsInt("JWT_EXPIRATION", 24),
		},
		Fraud: FraudConfig{
			ScoreThreshold:  getEnvAsFloat("FRAUD_SCORE_THRESHOLD", 0.6),
			OCRWeightFactor: getEnvAsFloat("OCR_WEIGHT_FACTOR", 0.5),
		},
		Alerting: AlertingConfig{
			RateLimit:             getEnvAsInt("ALERT_RATE_LIMIT", 5),
			CooldownSeconds:       getEnvAsInt("ALERT_COOLDOWN_SECONDS", 300),
			WindowSeconds:         getEnvAsInt("ALERT_WINDOW_SECONDS", 60),
			StateRetentionSeconds: getEnvAsInt("ALERT_STATE_RETENTION_SECONDS", 3600),
			WebhookURL:            getEnv("ALERT_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configuration that would make scoring or alerting
// misbehave. Out-of-range values fail loudly instead of being clamped.
func (c *Config) Validate() error {
	if c.Fraud.ScoreThreshold < 0 || c.Fraud.ScoreThreshold > 1 {
		return fmt.Errorf("FRAUD_SCORE_THRESHOLD must be within [0,1], got %v", c.Fraud.ScoreThreshold)
	}
	if c.Fraud.OCRWeightFactor < 0 || c.Fraud.OCRWeightFactor > 1 {
		return fmt.Errorf("OCR_WEIGHT_FACTOR must be within [0,1], got %v", c.Fraud.OCRWeightFactor)
	}
	if c.Alerting.RateLimit <= 0 {
		return fmt.Errorf("ALERT_RATE_LIMIT must be positive, got %d", c.Alerting.RateLimit)
	}
	if c.Alerting.CooldownSeconds < 0 {
		return fmt.Errorf("ALERT_COOLDOWN_SECONDS must not be negative, got %d", c.Alerting.CooldownSeconds)
	}
	if c.Alerting.WindowSeconds <= 0 {
		return fmt.Errorf("ALERT_WINDOW_SECONDS must be positive, got %d", c.Alerting.WindowSeconds)
	}
	if c.Alerting.StateRetentionSeconds <= 0 {
		return fmt.Errorf("ALERT_STATE_RETENTION_SECONDS must be positive, got %d", c.Alerting.StateRetentionSeconds)
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
