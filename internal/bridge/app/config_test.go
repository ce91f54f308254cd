package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "BASE_URL", "AUTH_TOKEN",
		"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET",
		"GHL_CLIENT_ID", "GHL_CLIENT_SECRET", "GHL_REDIRECT_URI", "GHL_API_BASE_URL",
		"SESSION_TIMEOUT", "SESSION_SWEEP_INTERVAL",
		"STORE_DRIVER", "DATABASE_FILE", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_KEY_PREFIX",
		"STATE_SECRET", "ENV", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_GRACE_PERIOD", "HOUSEKEEPING_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func validConfig() Config {
	cfg := defaultConfig()
	cfg.BaseURL = "http://localhost:3006"
	cfg.AuthToken = "static"
	cfg.GHLClientID = "ghl-id"
	cfg.GHLClientSecret = "ghl-secret"
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 3006, cfg.Port)
	require.Equal(t, "http://localhost:3006", cfg.BaseURL)
	require.Equal(t, "http://localhost:3006/ghl/callback", cfg.GHLRedirectURI)
	require.Equal(t, 30*time.Minute, cfg.SessionTimeout)
	require.Equal(t, time.Minute, cfg.SessionSweepInterval)
	require.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	require.Equal(t, "oauth.db", cfg.DatabaseFile)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.False(t, cfg.OAuthEnabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("BASE_URL", "https://bridge.example.com/")
	t.Setenv("AUTH_TOKEN", "static")
	t.Setenv("GITHUB_CLIENT_ID", "gh-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "gh-secret")
	t.Setenv("SESSION_TIMEOUT", "45")
	t.Setenv("HOUSEKEEPING_INTERVAL", "15m")
	t.Setenv("STORE_DRIVER", "REDIS")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "https://bridge.example.com", cfg.BaseURL)
	require.Equal(t, "https://bridge.example.com/ghl/callback", cfg.GHLRedirectURI)
	require.Equal(t, 45*time.Minute, cfg.SessionTimeout)
	require.Equal(t, 15*time.Minute, cfg.HousekeepingInterval)
	require.Equal(t, StoreDriverRedis, cfg.StoreDriver)
	require.Equal(t, 0, cfg.RedisDB)
	require.True(t, cfg.OAuthEnabled())
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"port: 9000",
		"auth_token: from-file",
		"ghl_client_id: file-id",
		"session_timeout: 5m",
		"store_driver: redis",
		"redis_addr: redis:6379",
	}, "\n")), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("AUTH_TOKEN", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "http://localhost:9000", cfg.BaseURL)
	require.Equal(t, "from-env", cfg.AuthToken)
	require.Equal(t, "file-id", cfg.GHLClientID)
	require.Equal(t, 5*time.Minute, cfg.SessionTimeout)
	require.Equal(t, "redis:6379", cfg.RedisAddr)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("port: [unterminated"), 0o600))
		t.Setenv("CONFIG_FILE", bad)
		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	cases := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"missing auth token": {func(c *Config) { c.AuthToken = "" }, "AUTH_TOKEN"},
		"missing ghl id":     {func(c *Config) { c.GHLClientID = "" }, "GHL_CLIENT_ID"},
		"missing ghl secret": {func(c *Config) { c.GHLClientSecret = "" }, "GHL_CLIENT_SECRET"},
		"half github config": {func(c *Config) { c.GitHubClientID = "only-id" }, "GITHUB_CLIENT_ID"},
		"redis without addr": {func(c *Config) { c.StoreDriver = StoreDriverRedis }, "REDIS_ADDR"},
		"unknown driver":     {func(c *Config) { c.StoreDriver = "postgres" }, "STORE_DRIVER"},
		"short state secret": {func(c *Config) { c.StateSecret = "short" }, "STATE_SECRET"},
		"port out of range":  {func(c *Config) { c.Port = 70000 }, "PORT"},
		"empty sqlite file":  {func(c *Config) { c.DatabaseFile = "" }, "DATABASE_FILE"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		t.Parallel()
		err := Config{StoreDriver: StoreDriverSQLite, DatabaseFile: "x.db", Port: 1}.Validate()
		require.Error(t, err)
		for _, want := range []string{"AUTH_TOKEN", "GHL_CLIENT_ID", "GHL_CLIENT_SECRET"} {
			require.Contains(t, err.Error(), want)
		}
	})
}
