// Package config holds validator configuration, loadable from environment
// variables or a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Validator configures the validation engine's network behavior.
type Validator struct {
	// FetchTimeout bounds every individual profile or schema fetch. There is
	// no overall validation deadline.
	FetchTimeout time.Duration

	// CacheTTL is how long a fetched schema stays fresh.
	CacheTTL time.Duration

	// FetchRate and FetchBurst bound outbound schema fetches per engine.
	FetchRate  float64
	FetchBurst int

	// RedisAddr, when set, selects the Redis-backed schema cache.
	RedisAddr string

	// UserAgent is sent on every outbound request.
	UserAgent string
}

// Default returns the built-in validator defaults.
func Default() Validator {
	return Validator{
		FetchTimeout: 10 * time.Second,
		CacheTTL:     15 * time.Minute,
		FetchRate:    5,
		FetchBurst:   10,
		UserAgent:    "ucpcheck/1.0",
	}
}

// Limits returns the outbound fetch rate and burst, substituting defaults
// for unset values. A hand-built Validator that never filled them in must
// not zero out a limiter and starve every fetch.
func (v Validator) Limits() (ratePerSec float64, burst int) {
	d := Default()
	ratePerSec, burst = v.FetchRate, v.FetchBurst
	if ratePerSec <= 0 {
		ratePerSec = d.FetchRate
	}
	if burst <= 0 {
		burst = d.FetchBurst
	}
	return ratePerSec, burst
}

// Load reads configuration from environment variables, falling back to
// defaults for anything unset.
func Load() Validator {
	cfg := Default()

	if ms := envInt("UCPCHECK_FETCH_TIMEOUT_MS"); ms > 0 {
		cfg.FetchTimeout = time.Duration(ms) * time.Millisecond
	}
	if ms := envInt("UCPCHECK_CACHE_TTL_MS"); ms > 0 {
		cfg.CacheTTL = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("UCPCHECK_FETCH_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.FetchRate = f
		}
	}
	if n := envInt("UCPCHECK_FETCH_BURST"); n > 0 {
		cfg.FetchBurst = int(n)
	}
	if v := os.Getenv("UCPCHECK_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("UCPCHECK_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	return cfg
}

func envInt(key string) int64 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// fileConfig is the YAML shape. Durations are milliseconds to keep files
// free of Go duration syntax.
type fileConfig struct {
	FetchTimeoutMs int64   `yaml:"fetch_timeout_ms"`
	CacheTTLMs     int64   `yaml:"cache_ttl_ms"`
	FetchRate      float64 `yaml:"fetch_rate"`
	FetchBurst     int     `yaml:"fetch_burst"`
	RedisAddr      string  `yaml:"redis_addr"`
	UserAgent      string  `yaml:"user_agent"`
}

// LoadFile reads a YAML config file, layering it over the defaults. Fields
// absent from the file keep their default values.
func LoadFile(path string) (Validator, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if fc.FetchTimeoutMs > 0 {
		cfg.FetchTimeout = time.Duration(fc.FetchTimeoutMs) * time.Millisecond
	}
	if fc.CacheTTLMs > 0 {
		cfg.CacheTTL = time.Duration(fc.CacheTTLMs) * time.Millisecond
	}
	if fc.FetchRate > 0 {
		cfg.FetchRate = fc.FetchRate
	}
	if fc.FetchBurst > 0 {
		cfg.FetchBurst = fc.FetchBurst
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	return cfg, nil
}
