package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "JWT_SECRET", "JWT_EXPIRES_IN", "USERS_FILE", "STORE_DRIVER", "MYSQL_DSN",
	"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD", "BCRYPT_COST", "LOG_LEVEL", "LOG_FORMAT", "SWAGGER_HOST",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "3003", cfg.ServerPort)
	assert.Equal(t, ":3003", cfg.Addr())
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "data/users.json", cfg.UsersFile)
	assert.Equal(t, StoreFile, cfg.StoreDriver)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFrom_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", `"quoted"`)
	t.Setenv("JWT_EXPIRES_IN", "90m")
	t.Setenv("USERS_FILE", "/var/lib/users.json")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("BCRYPT_COST", "12")

	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, `"quoted"`, cfg.JWTSecret, "normalization belongs to auth.LoadSecret")
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "/var/lib/users.json", cfg.UsersFile)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestLoadFrom_DotenvFile(t *testing.T) {
	clearEnv(t)
	t.Cleanup(func() {
		for _, key := range configKeys {
			os.Unsetenv(key)
		}
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=\"from-file\"\nPORT=4000\n"), 0o600))
	require.NoError(t, os.Setenv("PORT", "5000"))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "5000", cfg.ServerPort, "process environment wins over .env")
}

func TestLoadFrom_MissingDotenvIsIgnored(t *testing.T) {
	clearEnv(t)

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad duration", env: map[string]string{"JWT_EXPIRES_IN": "forever"}},
		{name: "negative duration", env: map[string]string{"JWT_EXPIRES_IN": "-1h"}},
		{name: "bad int", env: map[string]string{"BCRYPT_COST": "ten"}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "postgres"}},
		{name: "mysql without dsn", env: map[string]string{"STORE_DRIVER": "mysql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFrom("")
			assert.Error(t, err)
		})
	}
}
