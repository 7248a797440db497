package config

import (
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	validEnv := map[string]string{
		"STORAGE": "mysql",
		"DB_USER": "shareit",
		"DB_HOST": "localhost",
		"DB_NAME": "shareit",
	}

	t.Run("defaults", func(t *testing.T) {
		for k, v := range validEnv {
			t.Setenv(k, v)
		}
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "3306", cfg.DB.Port)
		assert.Equal(t, time.Hour, cfg.Auth.AccessTTL)
		assert.False(t, cfg.Events.Enabled)
		assert.Equal(t, "booking.events", cfg.Events.Queue)
		assert.True(t, cfg.Cache.Methods["GET"])
	})

	t.Run("memory storage needs no database", func(t *testing.T) {
		t.Setenv("STORAGE", "Memory")
		t.Setenv("DB_USER", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, StorageMemory, cfg.Storage)
	})

	t.Run("unknown storage", func(t *testing.T) {
		t.Setenv("STORAGE", "postgres")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORAGE")
	})

	for _, key := range []string{"DB_USER", "DB_HOST", "DB_NAME"} {
		t.Run("missing "+key, func(t *testing.T) {
			for k, v := range validEnv {
				t.Setenv(k, v)
			}
			t.Setenv(key, "")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key+" is required")
		})
	}
}

func TestLoadAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadAuth("")
	require.EqualError(t, err, "JWT_SECRET is required")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	a, err := LoadAuth("")
	require.NoError(t, err, "token settings do not depend on the database")
	assert.Equal(t, "s3cret", a.Secret)
	assert.Equal(t, 15*time.Minute, a.AccessTTL)

	t.Setenv("ACCESS_TOKEN_TTL_MIN", "0")
	_, err = LoadAuth("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_TTL_MIN")
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
	assert.Equal(t, 10*time.Second, c.TTL)
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		in   string
		def  bool
		want bool
	}{
		{"", true, true},
		{"on", false, true},
		{"YES", false, true},
		{"0", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Setenv("SHAREIT_TEST_BOOL", tt.in)
			assert.Equal(t, tt.want, envBool("SHAREIT_TEST_BOOL", tt.def))
		})
	}
}

func TestLoadWithFile_RealEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := dir + "/.env"
	content := "STORAGE=memory\nAPP_PORT=9090\nEVENTS_ENABLED=true\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	// godotenv does not overwrite variables that are already set
	for _, key := range []string{"STORAGE", "APP_PORT", "EVENTS_ENABLED"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	cfg, err := LoadWithFile(envFile)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Events.Enabled)
}

func TestLoadWithFileMissingFileIsIgnored(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	_, err := LoadWithFile(t.TempDir() + "/does-not-exist.env")
	require.NoError(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()
	assert.Nil(t, NewRedisClient(RedisConfig{Addr: mr.Addr()}))
}

func TestLoadRedisConfigHostPort(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)
}
