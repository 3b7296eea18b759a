// Package config loads the service configuration through viper: defaults,
// an optional YAML file and RAGDOLL_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"

	"github.com/gekko3d/ragdoll"
)

const EnvPrefix = "RAGDOLL"

type Config struct {
	Log    ragdoll.LogConfig `mapstructure:"log"`
	Sim    SimConfig         `mapstructure:"sim"`
	Server ServerConfig      `mapstructure:"server"`
	Store  StoreConfig       `mapstructure:"store"`
	// TuningFile is an optional YAML overlay for the controller tuning.
	TuningFile string `mapstructure:"tuning_file"`
}

type SimConfig struct {
	Hz          float64 `mapstructure:"hz"`
	Username    string  `mapstructure:"username"`
	SpawnX      float64 `mapstructure:"spawn_x"`
	SpawnY      float64 `mapstructure:"spawn_y"`
	Gravity     float64 `mapstructure:"gravity"`
	Floor       float64 `mapstructure:"floor"`
	Ceiling     float64 `mapstructure:"ceiling"`
	Left        float64 `mapstructure:"left"`
	Right       float64 `mapstructure:"right"`
	Friction    float64 `mapstructure:"friction"`
	MaxDt       float64 `mapstructure:"max_dt"`
	MaxDistance float64 `mapstructure:"max_distance"`
	MinHeight   float64 `mapstructure:"min_height"`
}

// Simulation converts the section into the simulation's own config.
func (c SimConfig) Simulation() ragdoll.SimConfig {
	return ragdoll.SimConfig{
		Username:      c.Username,
		Spawn:         mgl64.Vec3{c.SpawnX, c.SpawnY, 0},
		Gravity:       c.Gravity,
		Floor:         c.Floor,
		Ceiling:       c.Ceiling,
		Left:          c.Left,
		Right:         c.Right,
		FloorFriction: c.Friction,
		MaxDt:         c.MaxDt,
		MaxDistance:   c.MaxDistance,
		MinHeight:     c.MinHeight,
	}
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	StreamInterval  time.Duration `mapstructure:"stream_interval"`
	InputRate       float64       `mapstructure:"input_rate"`
	InputBurst      int           `mapstructure:"input_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreConfig struct {
	// Kind is "file", "sqlite" or "none".
	Kind string `mapstructure:"kind"`
	Path string `mapstructure:"path"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.prefix", "ragdoll")
	v.SetDefault("log.debug", false)
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)

	sim := ragdoll.DefaultSimConfig()
	v.SetDefault("sim.hz", 60)
	v.SetDefault("sim.username", sim.Username)
	v.SetDefault("sim.spawn_x", sim.Spawn.X())
	v.SetDefault("sim.spawn_y", sim.Spawn.Y())
	v.SetDefault("sim.gravity", sim.Gravity)
	v.SetDefault("sim.floor", sim.Floor)
	v.SetDefault("sim.ceiling", sim.Ceiling)
	v.SetDefault("sim.left", sim.Left)
	v.SetDefault("sim.right", sim.Right)
	v.SetDefault("sim.friction", sim.FloorFriction)
	v.SetDefault("sim.max_dt", sim.MaxDt)
	v.SetDefault("sim.max_distance", sim.MaxDistance)
	v.SetDefault("sim.min_height", sim.MinHeight)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.stream_interval", "33ms")
	v.SetDefault("server.input_rate", 120)
	v.SetDefault("server.input_burst", 60)
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("store.kind", "file")
	v.SetDefault("store.path", "sessions")

	v.SetDefault("tuning_file", "")
}

// Load reads file (if non-empty) and the environment into a validated Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return NewConfigFromViper(v)
}

func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Sim.Hz <= 0 {
		return fmt.Errorf("sim.hz must be positive")
	}
	if c.Sim.Floor >= c.Sim.Ceiling {
		return fmt.Errorf("sim.floor must be below sim.ceiling")
	}
	if c.Sim.Left >= c.Sim.Right {
		return fmt.Errorf("sim.left must be less than sim.right")
	}
	if c.Sim.MaxDt <= 0 {
		return fmt.Errorf("sim.max_dt must be positive")
	}
	switch c.Store.Kind {
	case "none":
	case "file", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for store.kind %q", c.Store.Kind)
		}
	default:
		return fmt.Errorf("unknown store.kind %q", c.Store.Kind)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
