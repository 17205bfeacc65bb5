package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	envKeys := []string{
		"ORDERDESK_APP_NAME",
		"ORDERDESK_APP_ENV",
		"ORDERDESK_REMOTE_BASE_URL",
		"ORDERDESK_REMOTE_TIMEOUT",
		"ORDERDESK_DATABASE_DRIVER",
		"ORDERDESK_DATABASE_PATH",
		"ORDERDESK_EXPORT_BACKEND",
		"ORDERDESK_AUTH_ENABLED",
		"ORDERDESK_JWT_SECRET",
		"ORDERDESK_TELEMETRY_DB_SLOW_QUERY_THRESHOLD",
		"ORDERDESK_PROFILER_ENABLED",
		"ORDERDESK_IDEMPOTENCY_BACKEND",
	}
	clearEnv := func(t *testing.T) {
		for _, k := range envKeys {
			t.Setenv(k, "")
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "orderdesk", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "http://localhost:5000", cfg.Remote.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, []string{"Ahsan", "Wahab"}, cfg.Owners.Names)
		assert.Equal(t, "memory", cfg.Idempotency.Backend)
		assert.Equal(t, 10*time.Minute, cfg.Idempotency.TTL)
		assert.True(t, cfg.Idempotency.FallbackToMemory)
		assert.Equal(t, map[string]string{"wahab": "Wahab"}, cfg.Owners.Views)
		assert.Equal(t, "filesystem", cfg.Export.Backend)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
		assert.False(t, cfg.Auth.Enabled)
		assert.True(t, cfg.Database.MigrateOnStart)
		assert.Equal(t, 200*time.Millisecond, cfg.Telemetry.DBSlowQueryThresh)
		assert.Equal(t, 60*time.Second, cfg.Telemetry.MetricsExportInterval)
		assert.Equal(t, "info", cfg.Telemetry.LogsLevel)
		assert.Equal(t, "orderdesk", cfg.Profiler.ApplicationName)
		assert.True(t, cfg.Profiler.HTTPLabels)
	})

	t.Run("loads values from environment variables with ORDERDESK prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORDERDESK_APP_NAME", "desk-test")
		t.Setenv("ORDERDESK_REMOTE_BASE_URL", "https://orders.example.com")
		t.Setenv("ORDERDESK_REMOTE_TIMEOUT", "5s")
		t.Setenv("ORDERDESK_DATABASE_PATH", ":memory:")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "desk-test", cfg.App.Name)
		assert.Equal(t, "https://orders.example.com", cfg.Remote.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
		assert.Equal(t, ":memory:", cfg.Database.Path)
	})

	t.Run("reads telemetry toggles", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORDERDESK_TELEMETRY_DB_SLOW_QUERY_THRESHOLD", "1s")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, time.Second, cfg.Telemetry.DBSlowQueryThresh)
	})

	t.Run("profiler needs a server address", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORDERDESK_PROFILER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profiler.server_address")
	})

	t.Run("rejects relative remote url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORDERDESK_REMOTE_BASE_URL", "orders.local")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "remote.base_url")
	})

	t.Run("auth requires a jwt secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ORDERDESK_AUTH_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, valid().validate())
	})

	t.Run("unknown database driver", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = "mongo"
		assert.ErrorContains(t, cfg.validate(), "database.driver")
	})

	t.Run("s3 exports need a bucket", func(t *testing.T) {
		cfg := valid()
		cfg.Export.PersistArtifacts = true
		cfg.Export.Backend = "s3"
		assert.ErrorContains(t, cfg.validate(), "storage.bucket")

		cfg.Storage.Bucket = "exports"
		assert.NoError(t, cfg.validate())
	})

	t.Run("auth users are validated", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.Enabled = true
		cfg.JWT.Secret = "secret"
		cfg.Auth.Users = []UserConfig{{Username: "ahsan", PasswordHash: "$2a$10$x"}}
		assert.ErrorContains(t, cfg.validate(), "auth.users[0]")

		cfg.Auth.Users[0].Owners = []string{"Ahsan"}
		assert.NoError(t, cfg.validate())
	})

	t.Run("revocation backend", func(t *testing.T) {
		cfg := valid()
		assert.Equal(t, "memory", cfg.Auth.Revocation.Backend)
		assert.Equal(t, "localhost:6379", cfg.Auth.Revocation.Redis.Addr())

		cfg.Auth.Enabled = true
		cfg.JWT.Secret = "secret"
		cfg.Auth.Users = []UserConfig{{Username: "a", PasswordHash: "h", Owners: []string{"*"}}}
		cfg.Auth.Revocation.Backend = "memcached"
		assert.ErrorContains(t, cfg.validate(), "auth.revocation.backend")

		cfg.Auth.Revocation.Backend = "redis"
		assert.NoError(t, cfg.validate())
	})

	t.Run("production requires auth and a long secret", func(t *testing.T) {
		cfg := valid()
		cfg.App.Env = "production"
		assert.ErrorContains(t, cfg.validate(), "auth.enabled")

		cfg.Auth.Enabled = true
		cfg.JWT.Secret = "short"
		cfg.Auth.Users = []UserConfig{{Username: "a", PasswordHash: "h", Owners: []string{"*"}}}
		assert.ErrorContains(t, cfg.validate(), "32 characters")
	})

	t.Run("production forbids full sql in spans", func(t *testing.T) {
		cfg := valid()
		cfg.App.Env = "production"
		cfg.Auth.Enabled = true
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Auth.Users = []UserConfig{{Username: "a", PasswordHash: "h", Owners: []string{"*"}}}
		require.NoError(t, cfg.validate())

		cfg.Telemetry.DBLogFullSQL = true
		assert.ErrorContains(t, cfg.validate(), "db_log_full_sql")
	})

	t.Run("idempotency backend", func(t *testing.T) {
		cfg := valid()
		assert.Equal(t, "localhost:6379", cfg.Idempotency.Redis.Addr())

		cfg.Idempotency.Backend = "etcd"
		assert.ErrorContains(t, cfg.validate(), "idempotency.backend")

		cfg.Idempotency.Backend = "redis"
		assert.NoError(t, cfg.validate())
	})

	t.Run("sampling ratio range", func(t *testing.T) {
		cfg := valid()
		cfg.Telemetry.SamplingRatio = 1.5
		assert.ErrorContains(t, cfg.validate(), "sampling_ratio")
	})
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "desk", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/desk?sslmode=disable", d.DSN())
}
