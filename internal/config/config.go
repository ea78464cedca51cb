package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	devJWTSecret        = "dev_access_secret_change_me"
	devJWTRefreshSecret = "dev_refresh_secret_change_me"
)

type Config struct {
	Env       string
	Version   string
	Server    ServerConfig
	Database  DatabaseConfig
	Supabase  SupabaseConfig
	JWT       JWTConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	WebAppURL string
	CORS      []string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL         string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
	RLSContext  bool
}

// SupabaseConfig is kept for deployments that expose the hosted Postgres
// through Supabase credentials. Only the connection string is used.
type SupabaseConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configs/.env and .env (both optional) and builds the configuration
// from the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	_ = godotenv.Load(".env")

	env := getEnv("APP_ENV", getEnv("NODE_ENV", EnvDevelopment))

	cfg := &Config{
		Env:     env,
		Version: getEnv("APP_VERSION", "1.0.0"),
		Server: ServerConfig{
			Port:            getEnv("PORT", "3000"),
			ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "postgres"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
			RLSContext:  getEnvAsBool("DB_RLS_CONTEXT", false),
		},
		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", ""),
			AnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
			ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_SECRET", ""),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
			AccessTTL:     getEnvAsDuration("JWT_ACCESS_TTL", 24*time.Hour),
			RefreshTTL:    getEnvAsDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
			ResetTTL:      getEnvAsDuration("RESET_TOKEN_TTL", 30*time.Minute),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Super Admin"),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		WebAppURL: strings.TrimRight(getEnv("WEBAPP_URL", "https://euler-js.github.io/foodway"), "/"),
		CORS:      splitList(getEnv("CORS_ORIGIN", "*")),
	}

	if err := cfg.applySecrets(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applySecrets() error {
	if c.IsProduction() {
		if c.JWT.AccessSecret == "" {
			return errors.New("JWT_SECRET is required in production")
		}
		if c.JWT.RefreshSecret == "" {
			return errors.New("JWT_REFRESH_SECRET is required in production")
		}
		return nil
	}
	if c.JWT.AccessSecret == "" {
		c.JWT.AccessSecret = devJWTSecret
	}
	if c.JWT.RefreshSecret == "" {
		c.JWT.RefreshSecret = devJWTRefreshSecret
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DSN returns DATABASE_URL when set, otherwise a postgres URL assembled from DB_* values.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
