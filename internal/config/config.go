package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPAddress     string        `yaml:"http_address" env:"HTTP_ADDRESS" env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	GinMode         string        `yaml:"gin_mode" env:"GIN_MODE" env-default:"debug"`

	DBDriver   string `yaml:"db_driver" env:"DB_DRIVER" env-default:"mysql"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     string `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBUser     string `yaml:"db_user" env:"DB_USER" env-default:"taskuser"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD" env-default:"taskpassword"`
	DBName     string `yaml:"db_name" env:"DB_NAME" env-default:"task_manager"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"database.db"`

	SessionStore  string `yaml:"session_store" env:"SESSION_STORE" env-default:"redis"`
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET" env-default:"default-secret-key-change-me"`
	RedisHost     string `yaml:"redis_host" env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     string `yaml:"redis_port" env:"REDIS_PORT" env-default:"6379"`

	OpenAIAPIKey string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
}

// Supported values for DBDriver and SessionStore.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionStoreRedis  = "redis"
	SessionStoreCookie = "cookie"
)

// defaultSessionSecret matches the env-default of SessionSecret. It is only
// acceptable outside release mode.
const defaultSessionSecret = "default-secret-key-change-me"

// Load reads the configuration from the YAML file at path, with environment
// variables taking precedence. An empty path or a missing file falls back to
// the environment alone.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
		return cfg, cfg.validate()
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
	}

	return cfg, cfg.validate()
}

// MustLoad is Load that exits the process on failure.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}

// IsProduction reports whether gin runs in release mode.
func (c Config) IsProduction() bool {
	return c.GinMode == "release"
}

func (c Config) validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.SessionStore {
	case SessionStoreRedis, SessionStoreCookie:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}

	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if c.IsProduction() && c.SessionSecret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be changed from the default in release mode")
	}
	return nil
}
