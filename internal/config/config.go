// Package config loads service configuration from the environment, after an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	MaxOpenConns int
	TLS          bool
}

// DSN returns the go-sql-driver/mysql data source name.
func (d DatabaseConfig) DSN() string {
	tls := ""
	if d.TLS {
		tls = "&tls=cms"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC%s",
		d.User, d.Password, d.Host, d.Port, d.Name, tls)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type LayoutsConfig struct {
	File  string
	Watch bool
}

type OTelConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

type Config struct {
	Port        string
	Env         string
	JWTSecret   string
	CORSOrigins []string
	Database    DatabaseConfig
	Redis       RedisConfig
	Layouts     LayoutsConfig
	OTel        OTelConfig
}

// Load reads .env from the working directory when present and builds the config.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() (*Config, error) {
	host := String("DB_HOST", "127.0.0.1")
	cfg := &Config{
		Port:        String("PORT", "3001"),
		Env:         String("APP_ENV", "development"),
		JWTSecret:   String("JWT_SECRET", ""),
		CORSOrigins: List("CORS_ORIGINS", []string{"http://localhost:5173"}),
		Database: DatabaseConfig{
			Host:         host,
			Port:         String("DB_PORT", "4000"),
			User:         String("DB_USER", "root"),
			Password:     String("DB_PASSWORD", ""),
			Name:         String("DB_NAME", "cms"),
			MaxOpenConns: Int("DB_MAX_OPEN_CONNS", 50),
			TLS:          Bool("DB_TLS", host != "127.0.0.1" && host != "localhost"),
		},
		Redis: RedisConfig{
			Addr:     String("REDIS_ADDR", ""),
			Password: String("REDIS_PASSWORD", ""),
			DB:       Int("REDIS_DB", 0),
			TTL:      Duration("LAYOUT_CACHE_TTL", 5*time.Minute),
		},
		Layouts: LayoutsConfig{
			File:  String("STATIC_LAYOUTS_FILE", ""),
			Watch: Bool("STATIC_LAYOUTS_WATCH", false),
		},
		OTel: OTelConfig{
			Enabled:     Bool("OTEL_ENABLED", false),
			ServiceName: String("OTEL_SERVICE_NAME", "cms-api"),
			Endpoint:    String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: 1,
		},
	}
	if cfg.JWTSecret == "" && cfg.IsProduction() {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
