//go:build linux || freebsd

// Package config manages the udplited echo daemon configuration using koanf/v2.
//
// Supports YAML files, environment variables, and CLI flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tormol/udplite"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete udplited configuration.
type Config struct {
	Listen   string         `koanf:"listen"`
	Coverage CoverageConfig `koanf:"coverage"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
}

// CoverageConfig holds the checksum coverage applied to the echo socket.
// Each value is either "full" or a number of payload bytes.
type CoverageConfig struct {
	// Send is the checksum coverage for echoed datagrams.
	Send string `koanf:"send"`
	// RecvFilter is the minimum coverage accepted on incoming datagrams.
	RecvFilter string `koanf:"recv_filter"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// SendCoverage parses the configured send coverage.
func (cc CoverageConfig) SendCoverage() (udplite.Coverage, error) {
	return ParseCoverage(cc.Send)
}

// RecvFilterCoverage parses the configured receive filter coverage.
func (cc CoverageConfig) RecvFilterCoverage() (udplite.Coverage, error) {
	return ParseCoverage(cc.RecvFilter)
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
//
// Full coverage in both directions matches the kernel defaults for a fresh
// UDP-Lite socket, so an empty configuration behaves like plain UDP.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":5060",
		Coverage: CoverageConfig{
			Send:       "full",
			RecvFilter: "full",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for udplited configuration.
// Variables are named UDPLITE_<section>_<key>, e.g., UDPLITE_METRICS_ADDR.
const envPrefix = "UDPLITE_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (UDPLITE_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	UDPLITE_LISTEN               -> listen
//	UDPLITE_COVERAGE_SEND        -> coverage.send
//	UDPLITE_COVERAGE_RECV_FILTER -> coverage.recv_filter
//	UDPLITE_METRICS_ADDR         -> metrics.addr
//	UDPLITE_METRICS_PATH         -> metrics.path
//	UDPLITE_LOG_LEVEL            -> log.level
//	UDPLITE_LOG_FORMAT           -> log.format
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load defaults first.
	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	// Load YAML file on top of defaults.
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	// Load environment variable overrides on top of YAML.
	// UDPLITE_METRICS_ADDR -> metrics.addr (strip prefix, lowercase, _ -> .).
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms UDPLITE_METRICS_ADDR -> metrics.addr.
// Strips the UDPLITE_ prefix, lowercases, and replaces _ with .
// The coverage.recv_filter key keeps its underscore by special-casing it.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	if s == "coverage_recv_filter" {
		return "coverage.recv_filter"
	}
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"listen":               defaults.Listen,
		"coverage.send":        defaults.Coverage.Send,
		"coverage.recv_filter": defaults.Coverage.RecvFilter,
		"metrics.addr":         defaults.Metrics.Addr,
		"metrics.path":         defaults.Metrics.Path,
		"log.level":            defaults.Log.Level,
		"log.format":           defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyListenAddr indicates the echo listen address is empty.
	ErrEmptyListenAddr = errors.New("listen must not be empty")

	// ErrInvalidCoverage indicates a coverage value is neither "full" nor a
	// payload byte count in range.
	ErrInvalidCoverage = errors.New(`coverage must be "full" or a payload byte count`)

	// ErrInvalidLogFormat indicates the log format is unrecognized.
	ErrInvalidLogFormat = errors.New(`log.format must be "json" or "text"`)
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Listen == "" {
		return ErrEmptyListenAddr
	}

	if _, err := ParseCoverage(cfg.Coverage.Send); err != nil {
		return fmt.Errorf("coverage.send: %w", err)
	}

	if _, err := ParseCoverage(cfg.Coverage.RecvFilter); err != nil {
		return fmt.Errorf("coverage.recv_filter: %w", err)
	}

	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("log format %q: %w", cfg.Log.Format, ErrInvalidLogFormat)
	}

	return nil
}

// ParseCoverage maps a configuration coverage string to a udplite.Coverage.
// "full" (case-insensitive) selects full coverage; any other value must be
// a decimal payload byte count between 0 and udplite.MaxPayloadCoverage.
func ParseCoverage(value string) (udplite.Coverage, error) {
	if strings.EqualFold(value, "full") {
		return udplite.FullCoverage(), nil
	}

	n, err := strconv.ParseUint(value, 10, 16)
	if err != nil || n > udplite.MaxPayloadCoverage {
		return udplite.Coverage{}, fmt.Errorf("%q: %w", value, ErrInvalidCoverage)
	}
	return udplite.PayloadCoverage(uint16(n)), nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
