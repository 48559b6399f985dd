package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Server captures process level configuration.
type Server struct {
	Addr        string `env:"COCKPIT_ADDR" envDefault:":8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"JWT_ISSUER"`
	AdminAPIToken string `env:"ADMIN_API_TOKEN"`

	StoreTxTimeout time.Duration `env:"STORE_TX_TIMEOUT" envDefault:"5s"`

	Database  DatabaseConfig
	Redis     RedisConfig
	Documents DocumentsConfig
}

// DatabaseConfig configures the postgres connection. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL          string        `env:"DATABASE_URL"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLife  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig configures the token revocation list. An empty URL selects the in-memory list.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// DocumentsConfig configures the givve document bucket.
type DocumentsConfig struct {
	Bucket   string        `env:"DOCUMENT_BUCKET"`
	Region   string        `env:"AWS_REGION" envDefault:"eu-central-1"`
	Endpoint string        `env:"S3_ENDPOINT"`
	URLTTL   time.Duration `env:"DOCUMENT_URL_TTL" envDefault:"15m"`
}

// IsDevelopment reports whether the process runs in development mode.
func (s Server) IsDevelopment() bool {
	return s.Environment == "development"
}

// FromEnv loads an optional .env file and parses the environment into a Server config.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse config: %w", err)
	}
	if !cfg.IsDevelopment() && (cfg.JWTSigningKey == "" || cfg.JWTSigningKey == devSigningKey) {
		return Server{}, fmt.Errorf("JWT_SIGNING_KEY must be set outside development")
	}
	return cfg, nil
}
