package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type AuthConfig struct {
	Username string
	// Password is the plaintext credential from the environment; it is
	// hashed once at startup and never stored. PasswordHash, when set, is
	// a pre-computed Argon2id PHC string and takes precedence, so the
	// plaintext never has to appear in the environment at all.
	Password           string
	PasswordHash       string
	SessionIdleSeconds int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type Config struct {
	Environment string
	// SecretKey signs the session cookie. The gate itself never sees it.
	SecretKey string
	Server    ServerConfig
	Auth      AuthConfig
	Logging   LoggingConfig
}

// LoadConfig reads configuration from the environment, with a .env file as
// an optional source for local development.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		SecretKey:   getEnv("SECRET_KEY", ""),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 5001),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			Username:           getEnv("GATE_USERNAME", ""),
			Password:           getEnv("GATE_PASSWORD", ""),
			PasswordHash:       getEnv("GATE_PASSWORD_HASH", ""),
			SessionIdleSeconds: getEnvAsInt("SESSION_IDLE_SECONDS", 300),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.Auth.Username == "" {
		return errors.New("GATE_USERNAME is required")
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return errors.New("one of GATE_PASSWORD or GATE_PASSWORD_HASH is required")
	}
	if c.Auth.SessionIdleSeconds <= 0 {
		return fmt.Errorf("SESSION_IDLE_SECONDS must be positive, got %d", c.Auth.SessionIdleSeconds)
	}
	return nil
}

// SessionIdleTimeout is the configured idle window as a duration.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.Auth.SessionIdleSeconds) * time.Second
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
