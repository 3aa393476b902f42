package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccess  = "access-secret-0123456789abcdef"
	testRefresh = "refresh-secret-0123456789abcdef"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// chdirTemp keeps a stray .env in the package directory out of the test.
func chdirTemp(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestDefaults(t *testing.T) {
	c := Defaults()

	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, BackendMemory, c.Store.Records)
	assert.Equal(t, BackendMemory, c.Store.Ledger)
	assert.Equal(t, 15*time.Minute, c.Auth.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, c.Auth.RefreshTTL)
	assert.Empty(t, c.Auth.AccessSecret)
	assert.Empty(t, c.Auth.RefreshSecret)
	assert.Equal(t, time.Minute, c.Metrics.OTelInterval)
}

func TestLoad_MissingSecretsFail(t *testing.T) {
	chdirTemp(t)

	_, err := Load(Sources{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessSecret is required")
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	chdirTemp(t)
	path := writeFile(t, "taskauth.yaml", `
http:
  addr: ":9000"
auth:
  access_secret: "`+testAccess+`"
  refresh_secret: "`+testRefresh+`"
  access_ttl: 10m
store:
  ledger: redis
redis:
  addr: "127.0.0.1:6379"
`)
	t.Setenv("TASKAUTH_AUTH_ACCESS_TTL", "5m")
	t.Setenv("TASKAUTH_LOG_LEVEL", "debug")
	t.Setenv("TASKAUTH_METRICS_OTEL_INTERVAL", "15s")

	c, err := Load(Sources{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.HTTP.Addr)
	assert.Equal(t, 5*time.Minute, c.Auth.AccessTTL)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, BackendRedis, c.Store.Ledger)
	assert.Equal(t, 15*time.Second, c.Metrics.OTelInterval)
	assert.Equal(t, 30*24*time.Hour, c.Auth.RefreshTTL, "unset values keep their default")
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	chdirTemp(t)
	envFile := writeFile(t, "test.env", "TASKAUTH_AUTH_ACCESS_SECRET="+testAccess+"\n"+
		"TASKAUTH_AUTH_REFRESH_SECRET="+testRefresh+"\n"+
		"TASKAUTH_HTTP_ADDR=:7000\n")
	t.Setenv("TASKAUTH_HTTP_ADDR", ":7100")
	t.Cleanup(func() {
		os.Unsetenv("TASKAUTH_AUTH_ACCESS_SECRET")
		os.Unsetenv("TASKAUTH_AUTH_REFRESH_SECRET")
	})

	c, err := Load(Sources{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, ":7100", c.HTTP.Addr)
	assert.Equal(t, testAccess, c.Auth.AccessSecret)
}

func TestLoad_ExplicitEnvFileMustExist(t *testing.T) {
	chdirTemp(t)
	_, err := Load(Sources{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	require.Error(t, err)
}

func TestLoad_UnknownYAMLFieldFails(t *testing.T) {
	chdirTemp(t)
	path := writeFile(t, "bad.yaml", "auth:\n  acess_secret: typo\n")
	_, err := Load(Sources{ConfigFile: path})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Defaults()
		c.Auth.AccessSecret = testAccess
		c.Auth.RefreshSecret = testRefresh
		return c
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"same secrets", func(c *Config) { c.Auth.RefreshSecret = testAccess }, "must differ"},
		{"zero access ttl", func(c *Config) { c.Auth.AccessTTL = 0 }, "AccessTTL"},
		{"unknown ledger", func(c *Config) { c.Store.Ledger = "etcd" }, "unknown backend"},
		{"postgres without dsn", func(c *Config) { c.Store.Records = BackendPostgres }, "dsn is required"},
		{"redis without addr", func(c *Config) { c.Store.Ledger = BackendRedis }, "redis addr"},
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }, "http addr"},
		{"negative lockout", func(c *Config) { c.RateLimit.LockoutThreshold = -1 }, "lockout"},
		{"otel without interval", func(c *Config) { c.Metrics.OTel = true; c.Metrics.OTelInterval = 0 }, "otel interval"},
		{"interval unused without otel", func(c *Config) { c.Metrics.OTelInterval = 0 }, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestEngineConversion(t *testing.T) {
	c := Defaults()
	c.Auth.AccessSecret = testAccess
	c.Auth.RefreshSecret = testRefresh
	c.Auth.Issuer = "taskauth"
	c.Metrics.Latency = true

	e := c.Engine()
	assert.Equal(t, []byte(testAccess), e.JWT.AccessSecret)
	assert.Equal(t, "taskauth", e.JWT.Issuer)
	assert.True(t, e.Metrics.EnableLatencyHistograms)
	assert.NoError(t, e.Validate())
}

func TestRateLimitActiveNeedsRedis(t *testing.T) {
	c := Defaults()
	assert.False(t, c.RateLimitActive())
	c.Redis.Addr = "127.0.0.1:6379"
	assert.True(t, c.RateLimitActive())

	lo := c.RateLimit.Lockout()
	assert.Equal(t, 10, lo.Threshold)
	assert.Equal(t, 15*time.Minute, lo.Duration)
}
