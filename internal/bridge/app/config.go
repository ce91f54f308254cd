package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"

	minStateSecretBytes = 32
)

type Config struct {
	Port      int    `yaml:"port"`       // HTTP server port (default: 3006)
	BaseURL   string `yaml:"base_url"`   // Public URL used in metadata and redirects (default: http://localhost:<port>)
	AuthToken string `yaml:"auth_token"` // Required: static bearer accepted on /mcp

	GitHubClientID     string `yaml:"github_client_id"`     // Optional: enables the OAuth endpoints together with the secret
	GitHubClientSecret string `yaml:"github_client_secret"` // Optional

	GHLClientID     string `yaml:"ghl_client_id"`     // Required
	GHLClientSecret string `yaml:"ghl_client_secret"` // Required
	GHLRedirectURI  string `yaml:"ghl_redirect_uri"`  // Optional (default: <base_url>/ghl/callback)
	GHLAPIBaseURL   string `yaml:"ghl_api_base_url"`  // Optional: override the CRM API host

	SessionTimeout       time.Duration `yaml:"session_timeout"`        // Idle session lifetime (default: 30m)
	SessionSweepInterval time.Duration `yaml:"session_sweep_interval"` // Idle session sweep (default: 1m)

	StoreDriver    string `yaml:"store_driver"`     // sqlite or redis (default: sqlite)
	DatabaseFile   string `yaml:"database_file"`    // SQLite file (default: oauth.db)
	RedisAddr      string `yaml:"redis_addr"`       // Required for the redis driver
	RedisPassword  string `yaml:"redis_password"`   // Optional
	RedisDB        int    `yaml:"redis_db"`         // Optional (default: 0)
	RedisKeyPrefix string `yaml:"redis_key_prefix"` // Optional (default: ghl-mcp)

	StateSecret string `yaml:"state_secret"` // Optional: HS256 key for CRM consent state, random per process when empty

	Env                  string        `yaml:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        `yaml:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `yaml:"log_format"`            // Log format (json, text) (default: json)
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval"` // Expired code/token cleanup (default: 1h)
}

func defaultConfig() Config {
	return Config{
		Port:                 3006,
		SessionTimeout:       30 * time.Minute,
		SessionSweepInterval: time.Minute,
		StoreDriver:          StoreDriverSQLite,
		DatabaseFile:         "oauth.db",
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: time.Hour,
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file
// named by CONFIG_FILE if any, then the environment.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = Config{
		Port:      getEnvIntOrDefault("PORT", cfg.Port),
		BaseURL:   getEnvOrDefault("BASE_URL", cfg.BaseURL),
		AuthToken: getEnvOrDefault("AUTH_TOKEN", cfg.AuthToken),

		GitHubClientID:     getEnvOrDefault("GITHUB_CLIENT_ID", cfg.GitHubClientID),
		GitHubClientSecret: getEnvOrDefault("GITHUB_CLIENT_SECRET", cfg.GitHubClientSecret),

		GHLClientID:     getEnvOrDefault("GHL_CLIENT_ID", cfg.GHLClientID),
		GHLClientSecret: getEnvOrDefault("GHL_CLIENT_SECRET", cfg.GHLClientSecret),
		GHLRedirectURI:  getEnvOrDefault("GHL_REDIRECT_URI", cfg.GHLRedirectURI),
		GHLAPIBaseURL:   getEnvOrDefault("GHL_API_BASE_URL", cfg.GHLAPIBaseURL),

		SessionTimeout:       getEnvDurationOrDefault("SESSION_TIMEOUT", cfg.SessionTimeout),
		SessionSweepInterval: getEnvDurationOrDefault("SESSION_SWEEP_INTERVAL", cfg.SessionSweepInterval),

		StoreDriver:    strings.ToLower(getEnvOrDefault("STORE_DRIVER", cfg.StoreDriver)),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", cfg.DatabaseFile),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", cfg.RedisAddr),
		RedisPassword:  getEnvOrDefault("REDIS_PASSWORD", cfg.RedisPassword),
		RedisDB:        getEnvIntOrDefault("REDIS_DB", cfg.RedisDB),
		RedisKeyPrefix: getEnvOrDefault("REDIS_KEY_PREFIX", cfg.RedisKeyPrefix),

		StateSecret: getEnvOrDefault("STATE_SECRET", cfg.StateSecret),

		Env:                  getEnvOrDefault("ENV", cfg.Env),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", cfg.LogLevel),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", cfg.LogFormat),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval),
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.GHLRedirectURI == "" {
		cfg.GHLRedirectURI = cfg.BaseURL + "/ghl/callback"
	}

	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.AuthToken == "" {
		errs = append(errs, errors.New("AUTH_TOKEN is required"))
	}
	if c.GHLClientID == "" {
		errs = append(errs, errors.New("GHL_CLIENT_ID is required"))
	}
	if c.GHLClientSecret == "" {
		errs = append(errs, errors.New("GHL_CLIENT_SECRET is required"))
	}
	if (c.GitHubClientID == "") != (c.GitHubClientSecret == "") {
		errs = append(errs, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together"))
	}

	switch c.StoreDriver {
	case StoreDriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite store"))
		}
	case StoreDriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.StateSecret != "" && len(c.StateSecret) < minStateSecretBytes {
		errs = append(errs, fmt.Errorf("STATE_SECRET must be at least %d bytes", minStateSecretBytes))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}

	return errors.Join(errs...)
}

// OAuthEnabled reports whether the caller-facing OAuth endpoints are served.
func (c Config) OAuthEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
