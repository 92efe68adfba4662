package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/sandbox/internal/core/observability/log"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sandbox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second/60, cfg.TickInterval())
	assert.Equal(t, log.LevelInfo, cfg.LogLevel())
	assert.Equal(t, 1, cfg.Scheduler.Workers)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
tick_rate: 20
log:
  level: debug
console:
  listen_addr: 127.0.0.1:9000
  token: secret
  reply_timeout: 2s
world:
  enemy_grid: 3
  seed: 42
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.TickRate)
	assert.Equal(t, log.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "127.0.0.1:9000", cfg.Console.ListenAddr)
	assert.Equal(t, 2*time.Second, cfg.Console.ReplyTimeout)
	assert.Equal(t, 3, cfg.World.EnemyGrid)
	assert.Equal(t, uint64(42), cfg.World.Seed)
	// untouched sections keep defaults
	assert.Equal(t, Default().Console.MaxClients, cfg.Console.MaxClients)

	server := cfg.ConsoleServer()
	assert.Equal(t, "secret", server.Token)
	assert.Equal(t, 2*time.Second, server.ReplyTimeout)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "tick_rate: 20\nworld:\n  enemy_grid: 3\n")
	t.Setenv("SANDBOX_TICK_RATE", "30")
	t.Setenv("SANDBOX_CONSOLE_TOKEN", "from-env")
	t.Setenv("SANDBOX_SCHEDULER_WORKERS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TickRate)
	assert.Equal(t, 3, cfg.World.EnemyGrid)
	assert.Equal(t, "from-env", cfg.Console.Token)
	assert.Equal(t, 4, cfg.Scheduler.Workers)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "tick_rat: 20\n"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "tick_rate: 0\n"))
	require.ErrorIs(t, err, ErrInvalid)

	t.Setenv("SANDBOX_TICK_RATE", "fast")
	_, err = Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "loud" }},
		{name: "console address", mutate: func(c *Config) { c.Console.ListenAddr = "" }},
		{name: "audit interval", mutate: func(c *Config) { c.Debug.AuditEvery = 0 }},
		{name: "negative workers", mutate: func(c *Config) { c.Scheduler.Workers = -1 }},
		{name: "unbounded workers", mutate: func(c *Config) { c.Scheduler.Workers = 0 }},
		{name: "enemy grid", mutate: func(c *Config) { c.World.EnemyGrid = 101 }},
		{name: "profile", mutate: func(c *Config) { c.Profile = "gpu" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := Default()
	cfg.Console.Enabled = false
	cfg.Console.ListenAddr = ""
	assert.NoError(t, cfg.Validate())
}
