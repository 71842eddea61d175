package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CONFIG", "SERVER_ADDRESS", "DATABASE_DSN", "GEMINI_API_KEY", "GEMINI_MODEL", "JWT_SECRET", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	o, err := Load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, o.Port)
	assert.Equal(t, DefaultModel, o.GeminiModel)
	assert.Equal(t, DefaultLogLevel, o.LogLevel)
	assert.Equal(t, DefaultIdentifyTimeout, time.Duration(o.IdentifyTimeout))
	assert.Equal(t, DefaultCleanerInterval, time.Duration(o.CleanerInterval))
	assert.Empty(t, o.GeminiAPIKey)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_address": "file:1",
		"database_dsn": "postgres://file",
		"identify_timeout": "15s",
		"cleaner_retention": 3600
	}`), 0o600))

	t.Setenv("SERVER_ADDRESS", "env:2")

	o, err := Load([]string{"-a", "flag:0", "-d", "postgres://flag", "-config", path})
	require.NoError(t, err)

	assert.Equal(t, "env:2", o.Port, "env overrides file and flag")
	assert.Equal(t, "postgres://file", o.DatabaseDSN, "file overrides flag")
	assert.Equal(t, 15*time.Second, time.Duration(o.IdentifyTimeout))
	assert.Equal(t, time.Hour, time.Duration(o.CleanerRetention))
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "florafacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"gemini_model: gemini-2.0-flash\njwt_secret: s3cret\ncleaner_interval: 10m\n"), 0o600))

	t.Setenv("CONFIG", path)
	o, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", o.GeminiModel)
	assert.Equal(t, "s3cret", o.JWTSecret)
	assert.Equal(t, 10*time.Minute, time.Duration(o.CleanerInterval))
}

func TestLoad_EnvSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key-from-env")
	t.Setenv("LOG_LEVEL", "debug")

	o, err := Load([]string{"-c", ""})
	require.NoError(t, err)
	assert.Equal(t, "key-from-env", o.GeminiAPIKey)
	assert.Equal(t, "debug", o.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"identify_timeout": "soon"}`), 0o600))

	_, err := Load([]string{"-c", bad})
	assert.ErrorContains(t, err, "error while parsing config file")

	_, err = Load([]string{"-unknown"})
	assert.Error(t, err)
}
