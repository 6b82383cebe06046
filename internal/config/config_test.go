package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "STORE_DRIVER", "SQLITE_PATH", "POSTGRES_DSN",
	"REDIS_ADDR", "REDIS_USERNAME", "REDIS_PASSWORD", "REDIS_DB", "REDIS_TLS",
	"JWT_SECRET", "COOKIE_NAME", "CLIENT_ORIGIN",
	"WORDS_ANSWERS_FILE", "WORDS_ALLOWED_FILE",
	"LOCK_WAIT", "LOCK_TTL", "START_POLICY",
}

func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5175", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "./data/wordle.db", cfg.Store.SQLitePath)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "wordle_token", cfg.Auth.CookieName)
	assert.Equal(t, 5*time.Second, cfg.Engine.LockWait)
	assert.Equal(t, 10*time.Second, cfg.Engine.LockTTL)
	assert.Equal(t, PolicyResume, cfg.Engine.StartPolicy)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("POSTGRES_DSN", "host=db user=wordle")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("LOCK_WAIT", "250ms")
	t.Setenv("START_POLICY", "reject")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.Redis.TLS)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.LockWait)
	assert.Equal(t, PolicyReject, cfg.Engine.StartPolicy)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"driver":        {"STORE_DRIVER", "mongo"},
		"policy":        {"START_POLICY", "restart"},
		"redis db":      {"REDIS_DB", "one"},
		"redis tls":     {"REDIS_TLS", "maybe"},
		"lock wait":     {"LOCK_WAIT", "soon"},
		"negative wait": {"LOCK_WAIT", "-1s"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("postgres without dsn", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_DRIVER", "postgres")
		_, err := Load()
		assert.ErrorContains(t, err, "POSTGRES_DSN")
	})
}
