package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "SERVER_ADDRESS", "JWT_SECRET", "STORE_BACKEND", "DATABASE_URL",
		"MIGRATIONS_PATH", "REDIS_ADDRESS", "REDIS_USERNAME", "REDIS_PASSWORD", "SQLITE_PATH",
		"MQTT_BROKER_URL", "DEVICE_ID", "DEVICE_NAME", "DEVICE_LOCATION", "TIMEZONE",
		"POLL_INTERVAL", "HEARTBEAT_INTERVAL", "DEVICE_STALE_AFTER", "LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 2*time.Minute, cfg.DeviceStaleAfter)
	assert.Equal(t, "New Screen", cfg.DeviceName)
	assert.False(t, cfg.Development())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/signage")
	t.Setenv("TIMEZONE", "Asia/Bangkok")
	t.Setenv("POLL_INTERVAL", "1s")
	t.Setenv("DEVICE_STALE_AFTER", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Development())
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "Asia/Bangkok", cfg.Timezone.String())
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Zero(t, cfg.DeviceStaleAfter)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres"}},
		{"redis without address", map[string]string{"STORE_BACKEND": "redis"}},
		{"unknown backend", map[string]string{"STORE_BACKEND": "firestore"}},
		{"poll slower than two seconds", map[string]string{"POLL_INTERVAL": "5s"}},
		{"bad duration", map[string]string{"HEARTBEAT_INTERVAL": "soon"}},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRequire(t *testing.T) {
	cfg := &Config{StoreBackend: BackendMemory}
	assert.Error(t, cfg.RequireServer())
	assert.Error(t, cfg.RequirePlayer())

	cfg.JWTSecret = "s3cret"
	cfg.DeviceID = "tv-1"
	assert.NoError(t, cfg.RequireServer())
	assert.Error(t, cfg.RequirePlayer())

	cfg.StoreBackend = BackendSQLite
	assert.NoError(t, cfg.RequirePlayer())
}
