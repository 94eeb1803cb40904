// Package config handles loading and validating simulator configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level configuration for the simulator.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Latency  LatencyConfig  `koanf:"latency"`
	Response ResponseConfig `koanf:"response"`
	Errors   ErrorsConfig   `koanf:"errors"`
	Models   ModelsConfig   `koanf:"models"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LatencyConfig selects a named latency profile, or overrides one field at a
// time on top of it. A zero field means "use the preset's value" (see
// internal/latency.Get / ResolveByModel).
type LatencyConfig struct {
	Profile      string  `koanf:"profile"`
	TTFTMeanMs   float64 `koanf:"ttft_mean_ms"`
	TTFTStddevMs float64 `koanf:"ttft_stddev_ms"`
	TBTMeanMs    float64 `koanf:"tbt_mean_ms"`
	TBTStddevMs  float64 `koanf:"tbt_stddev_ms"`
}

// ResponseConfig selects the default completion generator.
type ResponseConfig struct {
	Generator    string `koanf:"generator"`
	FixedText    string `koanf:"fixed_text"`
	TargetTokens int    `koanf:"target_tokens"`
}

// ErrorsConfig is the error-injection rate table (spec.md §4.4).
type ErrorsConfig struct {
	RateLimitRate   float64 `koanf:"rate_limit_rate"`
	ServerErrorRate float64 `koanf:"server_error_rate"`
	TimeoutRate     float64 `koanf:"timeout_rate"`
	TimeoutAfterMs  int     `koanf:"timeout_after_ms"`
}

// ModelsConfig restricts which model IDs /v1/models advertises. An empty
// Available list means "advertise the full built-in registry".
type ModelsConfig struct {
	Available []string `koanf:"available"`
}

// defaultYAML mirrors the zero-config behavior documented in spec.md §6:
// the simulator must run with no file and no env vars at all. Loading it as
// a koanf source (rather than pre-populating a Go struct) keeps one
// precedence chain: defaults < file < env.
const defaultYAML = `
server:
  host: 0.0.0.0
  port: 8080
response:
  generator: lorem
  target_tokens: 50
`

// Load reads configuration from an optional YAML file, layers environment
// variable overrides on top, and returns a fully populated Config. path may
// be empty, in which case only defaults and environment overrides apply.
func Load(path string) (*Config, error) {
	// Equivalent of require('dotenv').config() in Node: a .env file next to
	// the process, if present, feeds the real environment before we read it.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// LLMSIM_SERVER_PORT -> server.port, LLMSIM_ERRORS_TIMEOUT_AFTER_MS ->
	// errors.timeout_after_ms.
	if err := k.Load(env.Provider("LLMSIM_", ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, "LLMSIM_")),
			"_", ".", 1,
		)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configuration values the rest of the simulator could not
// act on sensibly.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	for name, rate := range map[string]float64{
		"errors.rate_limit_rate":   c.Errors.RateLimitRate,
		"errors.server_error_rate": c.Errors.ServerErrorRate,
		"errors.timeout_rate":      c.Errors.TimeoutRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%s %v out of range [0,1]", name, rate)
		}
	}
	if c.Errors.RateLimitRate+c.Errors.ServerErrorRate+c.Errors.TimeoutRate > 1 {
		return fmt.Errorf("errors: rate_limit_rate + server_error_rate + timeout_rate exceeds 1.0")
	}
	return nil
}
