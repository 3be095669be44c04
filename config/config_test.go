package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := vars[key]
		return value, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.ServesStdio())
	assert.False(t, cfg.ServesHTTP())
}

func TestFromLookup(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"CALCUFY_TRANSPORT":         "ALL",
		"CALCUFY_HOST":              "127.0.0.1",
		"PORT":                      "8080",
		"BASE_URL":                  "https://widgets.example.com/",
		"CALCUFY_ASSET_SOURCE":      "local",
		"CALCUFY_ASSETS_DIR":        "/srv/assets",
		"CALCUFY_AUTH_TOKEN":        "secret",
		"CALCUFY_CORS":              "false",
		"CALCUFY_MAX_REQUEST_BYTES": "2048",
		"LOG_LEVEL":                 "debug",
		"LOG_FORMAT":                "json",
		"SHUTDOWN_TIMEOUT":          "3s",
	}))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Transport:       TransportAll,
		Host:            "127.0.0.1",
		Port:            8080,
		BaseURL:         "https://widgets.example.com",
		AssetSource:     AssetsLocal,
		AssetsDir:       "/srv/assets",
		AuthToken:       "secret",
		CORS:            false,
		MaxRequestBytes: 2048,
		LogLevel:        slog.LevelDebug,
		LogFormat:       FormatJSON,
		ShutdownTimeout: 3 * time.Second,
	}, cfg)
	assert.True(t, cfg.ServesStdio())
	assert.True(t, cfg.ServesHTTP())
}

func TestFromLookupBlankValuesUseDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"PORT":      "  ",
		"LOG_LEVEL": "",
	}))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromLookupReportsEveryError(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{
		"CALCUFY_TRANSPORT":    "grpc",
		"PORT":                 "eighty",
		"CALCUFY_CORS":         "maybe",
		"SHUTDOWN_TIMEOUT":     "soon",
		"LOG_LEVEL":            "loud",
		"LOG_FORMAT":           "xml",
		"CALCUFY_ASSET_SOURCE": "ftp",
	}))
	require.Error(t, err)

	for _, key := range []string{
		"CALCUFY_TRANSPORT", "PORT", "CALCUFY_CORS", "SHUTDOWN_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT", "CALCUFY_ASSET_SOURCE",
	} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidateRanges(t *testing.T) {
	cfg := Default()
	cfg.Port = 70000
	cfg.MaxRequestBytes = 0
	cfg.ShutdownTimeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "CALCUFY_MAX_REQUEST_BYTES")
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("CALCUFY_ASSETS_DIR=from-dotenv\nPORT=4000\n"), 0o600))

	t.Setenv("PORT", "5000")
	t.Cleanup(func() { os.Unsetenv("CALCUFY_ASSETS_DIR") })

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.AssetsDir)
	assert.Equal(t, 5000, cfg.Port, "process environment wins over .env")
}

func TestLoadMissingDotEnv(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = FormatJSON
	cfg.LogLevel = slog.LevelWarn

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("dropped")
	logger.Warn("kept", "port", 3000)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, float64(3000), record["port"])
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	format, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)

	_, err = ParseFormat("pretty")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for input, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
