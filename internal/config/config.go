// Package config loads the sandbox configuration: defaults, then an optional
// YAML file, then SANDBOX_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/sandbox/internal/core/assert"
	"github.com/zeusync/sandbox/internal/core/observability/log"
	"github.com/zeusync/sandbox/internal/server"
)

const EnvPrefix = "SANDBOX_"

var ErrInvalid = errors.New("invalid configuration")

var profileModes = []string{"", "cpu", "mem", "block", "mutex", "goroutine", "trace"}

type Config struct {
	TickRate  int             `yaml:"tick_rate" env:"TICK_RATE"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Console   ConsoleConfig   `yaml:"console" envPrefix:"CONSOLE_"`
	Debug     DebugConfig     `yaml:"debug" envPrefix:"DEBUG_"`
	Scheduler SchedulerConfig `yaml:"scheduler" envPrefix:"SCHEDULER_"`
	World     WorldConfig     `yaml:"world" envPrefix:"WORLD_"`
	Profile   string          `yaml:"profile" env:"PROFILE"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
}

type ConsoleConfig struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	ListenAddr   string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	Token        string        `yaml:"token" env:"TOKEN"`
	MaxClients   int           `yaml:"max_clients" env:"MAX_CLIENTS"`
	ReplyTimeout time.Duration `yaml:"reply_timeout" env:"REPLY_TIMEOUT"`
}

type DebugConfig struct {
	// Audit runs the item invariant auditor every AuditEvery ticks.
	Audit      bool   `yaml:"audit" env:"AUDIT"`
	AuditEvery uint64 `yaml:"audit_every" env:"AUDIT_EVERY"`
}

type SchedulerConfig struct {
	// Workers bounds how many parallel systems run at once. Values above one
	// are only safe when no two parallel systems call World.Entry, since
	// donburi caches entries on the world without locking.
	Workers int `yaml:"workers" env:"WORKERS"`
}

type WorldConfig struct {
	// EnemyGrid spawns EnemyGrid x EnemyGrid enemies at startup.
	EnemyGrid int    `yaml:"enemy_grid" env:"ENEMY_GRID"`
	Seed      uint64 `yaml:"seed" env:"SEED"`
}

// Default returns default sandbox configuration
func Default() Config {
	consoleDefaults := server.DefaultConfig()
	return Config{
		TickRate: 60,
		Log: LogConfig{
			Level: log.LevelInfo.String(),
		},
		Console: ConsoleConfig{
			Enabled:      true,
			ListenAddr:   consoleDefaults.ListenAddr,
			MaxClients:   consoleDefaults.MaxClients,
			ReplyTimeout: consoleDefaults.ReplyTimeout,
		},
		Debug: DebugConfig{
			Audit:      assert.Enabled,
			AuditEvery: 60,
		},
		Scheduler: SchedulerConfig{
			Workers: 1,
		},
		World: WorldConfig{
			Seed: 1,
		},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(bytes.NewReader(raw), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides cfg with the SANDBOX_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var problems []string
	if c.TickRate < 1 || c.TickRate > 1000 {
		problems = append(problems, fmt.Sprintf("tick_rate %d is outside 1..1000", c.TickRate))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Console.Enabled {
		if err := c.ConsoleServer().Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.Debug.AuditEvery == 0 {
		problems = append(problems, "debug.audit_every must be at least 1")
	}
	if c.Scheduler.Workers < 1 {
		problems = append(problems, "scheduler.workers must be at least 1")
	}
	if c.World.EnemyGrid < 0 || c.World.EnemyGrid > 100 {
		problems = append(problems, fmt.Sprintf("world.enemy_grid %d is outside 0..100", c.World.EnemyGrid))
	}
	if !slices.Contains(profileModes, c.Profile) {
		problems = append(problems, fmt.Sprintf("unknown profile mode %q", c.Profile))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalid, problems)
	}
	return nil
}

// TickInterval is the duration of one tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// LogLevel returns the parsed log level, Info when it cannot be parsed.
func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

// ConsoleServer converts the console section into server configuration.
func (c Config) ConsoleServer() server.Config {
	out := server.DefaultConfig()
	out.ListenAddr = c.Console.ListenAddr
	out.Token = c.Console.Token
	out.MaxClients = c.Console.MaxClients
	out.ReplyTimeout = c.Console.ReplyTimeout
	return out
}
