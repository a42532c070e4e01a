package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Env  string `validate:"required,oneof=dev prod"`
	HTTP struct {
		Addr string `validate:"required"`
	}
	DB struct {
		File     string `validate:"required"`
		PoolSize int    `validate:"gte=1"`
	}
	Auth struct {
		Secret   string `validate:"required"`
		Issuer   string `validate:"required"`
		TokenTTL time.Duration
		// SeedUsers lists "username:password" pairs inserted when the users
		// table is empty. Empty value disables seeding.
		SeedUsers string
	}
	Maintenance struct {
		// Cron spec for periodic store maintenance. Empty value disables the job.
		Cron string
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	c.Env = getenv("ENV", "prod")
	c.HTTP.Addr = getenv("HTTP_ADDR", ":3000")
	c.DB.File = getenv("DB_FILE", "data/gymlog.db")
	c.Auth.Secret = os.Getenv("AUTH_SECRET")
	c.Auth.Issuer = getenv("AUTH_ISSUER", "gymlog")
	c.Auth.SeedUsers = os.Getenv("SEED_USERS")
	c.Maintenance.Cron = getenv("MAINTENANCE_CRON", "0 4 * * *")
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = getenv("LOG_FILE", "data/logs/gymlog.log")

	size, err := strconv.Atoi(getenv("DB_POOL_SIZE", "5"))
	if err != nil {
		return Config{}, errors.New("DB_POOL_SIZE must be an integer")
	}
	c.DB.PoolSize = size

	ttl, err := time.ParseDuration(getenv("AUTH_TOKEN_TTL", "24h"))
	if err != nil {
		return Config{}, errors.New("AUTH_TOKEN_TTL must be a duration (e.g. 24h)")
	}
	c.Auth.TokenTTL = ttl

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// SeedCredentials parses the SEED_USERS value into username/password pairs.
// Malformed entries are skipped.
func (c Config) SeedCredentials() [][2]string {
	if c.Auth.SeedUsers == "" {
		return nil
	}
	var out [][2]string
	for _, entry := range strings.Split(c.Auth.SeedUsers, ",") {
		name, pass, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || name == "" || pass == "" {
			continue
		}
		out = append(out, [2]string{name, pass})
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
