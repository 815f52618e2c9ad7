package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
)

// DefaultSessionSecret is the placeholder secret used when none is configured.
// Release mode refuses to start with it.
const DefaultSessionSecret = "default-secret-key-change-me"

// Config holds runtime settings. Values come from an optional TOML file and
// are overridden by environment variables.
type Config struct {
	HTTPAddr string `toml:"http_addr"`
	GinMode  string `toml:"gin_mode"`

	DBDriver   string `toml:"db_driver"`
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`
	DBPath     string `toml:"db_path"`

	RedisHost     string `toml:"redis_host"`
	RedisPort     string `toml:"redis_port"`
	SessionSecret string `toml:"session_secret"`

	OpenAIAPIKey string `toml:"openai_api_key"`

	LogLevel string `toml:"log_level"`
	LogDir   string `toml:"log_dir"`

	StoreTimeout         time.Duration `toml:"-"`
	StoreTimeoutRaw      string        `toml:"store_timeout"`
	EnforceNoFutureDates bool          `toml:"enforce_no_future_dates"`

	// ViewCache keeps monthly home views in process memory. It is only
	// honored without Redis, since Redis sessions imply several instances.
	ViewCache bool `toml:"view_cache"`
}

func defaults() *Config {
	return &Config{
		HTTPAddr:             ":8080",
		GinMode:              "debug",
		DBDriver:             "mysql",
		DBHost:               "localhost",
		DBPort:               "3306",
		DBUser:               "habituser",
		DBPassword:           "habitpassword",
		DBName:               "habit_tracker",
		DBPath:               "habits.db",
		RedisPort:            "6379",
		SessionSecret:        DefaultSessionSecret,
		LogLevel:             "info",
		StoreTimeout:         constants.DefaultStoreTimeout,
		EnforceNoFutureDates: true,
	}
}

// Load reads the TOML file at path (if any) and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnv("REDIS_PORT", cfg.RedisPort)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.StoreTimeoutRaw = getEnv("STORE_TIMEOUT", cfg.StoreTimeoutRaw)

	if cfg.StoreTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.StoreTimeoutRaw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid store timeout %q", cfg.StoreTimeoutRaw)
		}
		cfg.StoreTimeout = d
	}

	if raw := os.Getenv("ENFORCE_NO_FUTURE_DATES"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ENFORCE_NO_FUTURE_DATES %q", raw)
		}
		cfg.EnforceNoFutureDates = v
	}

	if raw := os.Getenv("VIEW_CACHE"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid VIEW_CACHE %q", raw)
		}
		cfg.ViewCache = v
	}

	switch cfg.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	if cfg.IsProduction() && cfg.SessionSecret == DefaultSessionSecret {
		return nil, fmt.Errorf("SESSION_SECRET must be set in release mode")
	}

	return cfg, nil
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// ViewCacheEnabled reports whether the in-process view cache may be used.
func (c *Config) ViewCacheEnabled() bool {
	return c.ViewCache && c.RedisHost == ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
