package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPServer `yaml:"http_server"`
	Upstream   `yaml:"upstream"`
	Cache      `yaml:"cache"`
	Store      `yaml:"store"`
	Redis      `yaml:"redis"`
	Pushover   `yaml:"pushover"`
	Search     `yaml:"search"`
	Reminder   `yaml:"reminder"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type Upstream struct {
	BaseURL     string        `yaml:"base_url" env:"UPSTREAM_BASE_URL" env-default:"https://edp.ale.se/FutureWeb/SimpleWastePickup"`
	Timeout     time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"15s"`
	MinInterval time.Duration `yaml:"min_interval" env:"UPSTREAM_MIN_INTERVAL" env-default:"500ms"`
}

type Cache struct {
	Version string `yaml:"version" env:"CACHE_VERSION" env-default:"v1"`
}

// Store selects the key-value backend: "redis" or "memory".
type Store struct {
	Backend string `yaml:"backend" env:"STORE_BACKEND" env-default:"memory"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Pushover credentials; both empty means notifications go to the log.
type Pushover struct {
	Token string `yaml:"token" env:"PUSHOVER_TOKEN" env-default:""`
	User  string `yaml:"user" env:"PUSHOVER_USER" env-default:""`
}

type Search struct {
	Debounce time.Duration `yaml:"debounce" env:"SEARCH_DEBOUNCE" env-default:"300ms"`
}

type Reminder struct {
	CheckInterval time.Duration `yaml:"check_interval" env:"REMINDER_CHECK_INTERVAL" env-default:"1h"`
	ClientTTL     time.Duration `yaml:"client_ttl" env:"REMINDER_CLIENT_TTL" env-default:"5m"`
}

// MustLoad reads the optional .env file, then either the YAML config at
// CONFIG_PATH or plain environment variables. Exits on invalid config.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file, using environment variables")
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			slog.Error("reading config file", "path", path, "error", err)
			os.Exit(1)
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("reading config from environment", "error", err)
		os.Exit(1)
	}
	return &cfg
}
