package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mailer   MailerConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	Username string
	DB       int
}

type MailerConfig struct {
	// SendTimeout bounds a single SMTP send triggered by a contact submission.
	SendTimeout time.Duration
	// ProbeTimeout bounds the ad-hoc connection test; shorter because an admin
	// is waiting on the response.
	ProbeTimeout time.Duration
	// StalePendingAfter is how long an email log may sit in pending before the
	// sweep task closes it as failed.
	StalePendingAfter time.Duration
	// LogRetentionDays is how long email logs are kept; 0 disables purging.
	LogRetentionDays int
	// ContactRatePerHour caps contact-form submissions per client IP.
	ContactRatePerHour int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// AllowLegacySeedPassword enables the deprecated seed-data fallback that
	// accepts the literal password "admin" for accounts whose stored hash is
	// not a bcrypt hash. Leave disabled outside local development.
	AllowLegacySeedPassword bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Name:     getEnv("POSTGRES_DB", "atrium"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Mailer: MailerConfig{
			SendTimeout:        getEnvAsDuration("MAILER_SEND_TIMEOUT", 30*time.Second),
			ProbeTimeout:       getEnvAsDuration("MAILER_PROBE_TIMEOUT", 20*time.Second),
			StalePendingAfter:  getEnvAsDuration("MAILER_STALE_PENDING_AFTER", 10*time.Minute),
			LogRetentionDays:   getEnvAsInt("MAILER_LOG_RETENTION_DAYS", 90),
			ContactRatePerHour: getEnvAsInt("CONTACT_RATE_PER_HOUR", 20),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("JWT_SECRET", "change-me"),
			TokenTTL:                getEnvAsDuration("JWT_TOKEN_TTL", 24*time.Hour),
			AllowLegacySeedPassword: getEnvAsBool("AUTH_ALLOW_LEGACY_SEED_PASSWORD", false),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
