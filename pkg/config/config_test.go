package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5.0, cfg.FetchRate)
	assert.Equal(t, 10, cfg.FetchBurst)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "ucpcheck/1.0", cfg.UserAgent)
}

func TestLimits_ZeroValuesFallBackToDefaults(t *testing.T) {
	// A hand-built Validator with only timeouts set must not produce a
	// zero-rate limiter.
	cfg := Validator{FetchTimeout: time.Second, CacheTTL: time.Minute}

	ratePerSec, burst := cfg.Limits()
	assert.Equal(t, Default().FetchRate, ratePerSec)
	assert.Equal(t, Default().FetchBurst, burst)
}

func TestLimits_ConfiguredValuesKept(t *testing.T) {
	cfg := Validator{FetchRate: 2.5, FetchBurst: 4}

	ratePerSec, burst := cfg.Limits()
	assert.Equal(t, 2.5, ratePerSec)
	assert.Equal(t, 4, burst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("UCPCHECK_FETCH_TIMEOUT_MS", "2500")
	t.Setenv("UCPCHECK_CACHE_TTL_MS", "60000")
	t.Setenv("UCPCHECK_FETCH_RATE", "2.5")
	t.Setenv("UCPCHECK_FETCH_BURST", "3")
	t.Setenv("UCPCHECK_REDIS_ADDR", "localhost:6379")
	t.Setenv("UCPCHECK_USER_AGENT", "custom-agent/2.0")

	cfg := Load()
	assert.Equal(t, 2500*time.Millisecond, cfg.FetchTimeout)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 2.5, cfg.FetchRate)
	assert.Equal(t, 3, cfg.FetchBurst)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "custom-agent/2.0", cfg.UserAgent)
}

func TestLoad_GarbageEnvKeepsDefaults(t *testing.T) {
	t.Setenv("UCPCHECK_FETCH_TIMEOUT_MS", "not-a-number")
	t.Setenv("UCPCHECK_FETCH_RATE", "-4")
	t.Setenv("UCPCHECK_FETCH_BURST", "0")

	cfg := Load()
	assert.Equal(t, Default().FetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, Default().FetchRate, cfg.FetchRate)
	assert.Equal(t, Default().FetchBurst, cfg.FetchBurst)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ucpcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fetch_timeout_ms: 3000
cache_ttl_ms: 120000
redis_addr: redis.internal:6379
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "redis.internal:6379", cfg.RedisAddr)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, Default().FetchRate, cfg.FetchRate)
	assert.Equal(t, Default().UserAgent, cfg.UserAgent)
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, Default(), cfg, "a failed load still returns usable defaults")
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch_timeout_ms: [not, scalar"), 0o600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
