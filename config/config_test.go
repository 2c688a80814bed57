package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	mu.Lock()
	defer mu.Unlock()
	cfg = AppConfig{}
	loaded = false
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	reset()
	t.Cleanup(reset)
	chdir(t, t.TempDir())

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("SUPERUSER_USERNAMES", " root , admin ,")
	t.Setenv("LOG_COMPRESS", "true")

	c := Load()
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "5432", c.DatabasePort())
	assert.Equal(t, 30, c.RateLimitPerMinute)
	assert.Equal(t, []string{"root", "admin"}, c.SuperuserUsernames)
	assert.True(t, c.LogCompress)
	assert.Equal(t, 3, c.ArticlePageSize)
	assert.Equal(t, "8080", c.AppPort)
	assert.NoError(t, c.Validate())
	assert.True(t, c.IsSuperuserName("ROOT"))
	assert.False(t, c.IsSuperuserName("guest"))
}

func TestLoadGroupedJSON(t *testing.T) {
	reset()
	t.Cleanup(reset)
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	body := `{
		"app": {"AppPort": "9000", "JWTSecret": "from-json", "AllowedOrigins": ["https://blog.example"]},
		"database": {"DBDriver": "mysql", "DBName": "blogdb"},
		"redis": {"RedisHost": "cache", "RedisPort": 6380},
		"log": {"LogLevel": "debug", "LogCompress": true}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.json"), []byte(body), 0o644))
	t.Setenv("APP_PORT", "9100")

	c := Load()
	assert.Equal(t, "9100", c.AppPort)
	assert.Equal(t, "from-json", c.JWTSecret)
	assert.Equal(t, []string{"https://blog.example"}, c.AllowedOrigins)
	assert.Equal(t, "blogdb", c.DBName)
	assert.Equal(t, "3306", c.DatabasePort())
	assert.Equal(t, "cache", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
}

func TestValidate(t *testing.T) {
	c := AppConfig{DBDriver: "mysql"}
	assert.Error(t, c.Validate())

	c.JWTSecret = "x"
	assert.NoError(t, c.Validate())

	c.DBDriver = "oracle"
	assert.Error(t, c.Validate())
}

func TestSetAppliesDefaults(t *testing.T) {
	reset()
	t.Cleanup(reset)

	Set(AppConfig{JWTSecret: "k"})
	c := Get()
	assert.Equal(t, "k", c.JWTSecret)
	assert.Equal(t, 24, c.JWTTTLHours)
	assert.Equal(t, "mysql", c.DBDriver)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the original one when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
