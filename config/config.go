// Package config reads the server configuration from the environment.
//
// An optional .env file is loaded first; variables already present in the
// process environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Transport selects which transports the process serves
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
	TransportAll   Transport = "all"
)

// AssetSource selects where widget markup comes from
type AssetSource string

const (
	// AssetsRemote builds widget shells pointing at bundles on BaseURL
	AssetsRemote AssetSource = "remote"
	// AssetsLocal reads pre-built widget documents from AssetsDir
	AssetsLocal AssetSource = "local"
)

// Config holds every setting of the server process
type Config struct {
	Transport       Transport
	Host            string
	Port            int
	BaseURL         string
	AssetSource     AssetSource
	AssetsDir       string
	AuthToken       string
	CORS            bool
	MaxRequestBytes int64
	LogLevel        slog.Level
	LogFormat       LogFormat
	ShutdownTimeout time.Duration
}

// Default returns the configuration used when no variable is set
func Default() Config {
	return Config{
		Transport:       TransportStdio,
		Host:            "0.0.0.0",
		Port:            3000,
		BaseURL:         "https://calcufy-calculator.vercel.app",
		AssetSource:     AssetsRemote,
		AssetsDir:       "assets",
		CORS:            true,
		MaxRequestBytes: 1 << 20,
		LogLevel:        slog.LevelInfo,
		LogFormat:       FormatText,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads the given .env files (".env" when none is named), ignoring
// missing ones, and then builds the configuration from the environment
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", file, err)
		}
	}

	return FromLookup(os.LookupEnv)
}

// FromLookup builds the configuration from lookup. Every invalid variable is
// reported, not only the first.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	env := envReader{lookup: lookup}

	cfg.Transport = Transport(strings.ToLower(env.string("CALCUFY_TRANSPORT", string(cfg.Transport))))
	cfg.Host = env.string("CALCUFY_HOST", cfg.Host)
	cfg.Port = env.int("PORT", cfg.Port)
	cfg.BaseURL = strings.TrimRight(env.string("BASE_URL", cfg.BaseURL), "/")
	cfg.AssetSource = AssetSource(strings.ToLower(env.string("CALCUFY_ASSET_SOURCE", string(cfg.AssetSource))))
	cfg.AssetsDir = env.string("CALCUFY_ASSETS_DIR", cfg.AssetsDir)
	cfg.AuthToken = env.string("CALCUFY_AUTH_TOKEN", cfg.AuthToken)
	cfg.CORS = env.bool("CALCUFY_CORS", cfg.CORS)
	cfg.MaxRequestBytes = int64(env.int("CALCUFY_MAX_REQUEST_BYTES", int(cfg.MaxRequestBytes)))
	cfg.ShutdownTimeout = env.duration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	if value, ok := env.lookupValue("LOG_LEVEL"); ok {
		level, err := ParseLevel(value)
		if err != nil {
			env.errs = append(env.errs, err)
		}
		cfg.LogLevel = level
	}
	if value, ok := env.lookupValue("LOG_FORMAT"); ok {
		format, err := ParseFormat(value)
		if err != nil {
			env.errs = append(env.errs, err)
		}
		cfg.LogFormat = format
	}

	if err := errors.Join(append(env.errs, cfg.Validate())...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that parsed but are out of range
func (c Config) Validate() error {
	var errs []error

	switch c.Transport {
	case TransportStdio, TransportHTTP, TransportAll:
	default:
		errs = append(errs, fmt.Errorf("CALCUFY_TRANSPORT: unknown transport %q", c.Transport))
	}

	switch c.AssetSource {
	case AssetsRemote:
		if c.BaseURL == "" {
			errs = append(errs, errors.New("BASE_URL: required for remote widget assets"))
		}
	case AssetsLocal:
		if c.AssetsDir == "" {
			errs = append(errs, errors.New("CALCUFY_ASSETS_DIR: required for local widget assets"))
		}
	default:
		errs = append(errs, fmt.Errorf("CALCUFY_ASSET_SOURCE: unknown source %q", c.AssetSource))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %d out of range", c.Port))
	}
	if c.MaxRequestBytes <= 0 {
		errs = append(errs, fmt.Errorf("CALCUFY_MAX_REQUEST_BYTES: must be positive, got %d", c.MaxRequestBytes))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: must be positive, got %s", c.ShutdownTimeout))
	}

	return errors.Join(errs...)
}

// ServesStdio reports whether the stdio transport should run
func (c Config) ServesStdio() bool {
	return c.Transport == TransportStdio || c.Transport == TransportAll
}

// ServesHTTP reports whether the HTTP transport should run
func (c Config) ServesHTTP() bool {
	return c.Transport == TransportHTTP || c.Transport == TransportAll
}

// envReader collects parse errors while reading typed variables
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) lookupValue(key string) (string, bool) {
	value, ok := e.lookup(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func (e *envReader) string(key, defaultValue string) string {
	if value, ok := e.lookupValue(key); ok {
		return value
	}
	return defaultValue
}

func (e *envReader) int(key string, defaultValue int) int {
	value, ok := e.lookupValue(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return defaultValue
	}
	return n
}

func (e *envReader) bool(key string, defaultValue bool) bool {
	value, ok := e.lookupValue(key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, value))
		return defaultValue
	}
	return b
}

func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value, ok := e.lookupValue(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, value))
		return defaultValue
	}
	return d
}
