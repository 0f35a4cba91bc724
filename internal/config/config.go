// Package config holds the simulator settings. Values come from Default,
// are overlaid by an optional YAML file and finally by command-line flags.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// SceneTypes lists the generated scenes the simulator knows about.
var SceneTypes = []string{"default", "pyramid", "rain", "container", "mixed", "terrain"}

type Config struct {
	World   WorldConfig   `yaml:"world"`
	Engine  EngineConfig  `yaml:"engine"`
	Scene   SceneConfig   `yaml:"scene"`
	Log     LogConfig     `yaml:"log"`
	Debug   DebugConfig   `yaml:"debug"`
	Profile ProfileConfig `yaml:"profile"`
}

type WorldConfig struct {
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	OriginX   float64 `yaml:"originX"`
	OriginY   float64 `yaml:"originY"`
	TilesWide int     `yaml:"tilesWide"`
	TilesHigh int     `yaml:"tilesHigh"`

	GravityX   float64 `yaml:"gravityX"`
	GravityY   float64 `yaml:"gravityY"`
	Iterations int     `yaml:"iterations"`
	Sleeping   bool    `yaml:"sleeping"`
}

type EngineConfig struct {
	FPS int `yaml:"fps"`
	// TimeStep of zero means 1/FPS.
	TimeStep      float64       `yaml:"timestep"`
	MaxSubSteps   int           `yaml:"maxSubSteps"`
	Duration      time.Duration `yaml:"duration"`
	StatsInterval time.Duration `yaml:"statsInterval"`
	HistorySize   int           `yaml:"historySize"`
}

type SceneConfig struct {
	File   string `yaml:"file"`
	Type   string `yaml:"type"`
	Bodies int    `yaml:"bodies"`
	Seed   int64  `yaml:"seed"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Verbose     bool   `yaml:"verbose"`
	Quiet       bool   `yaml:"quiet"`
}

// DebugConfig enables the snapshot stream when Addr is set.
type DebugConfig struct {
	Addr     string        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

type ProfileConfig struct {
	CPU string `yaml:"cpu"`
	Mem string `yaml:"mem"`
}

func Default() Config {
	return Config{
		World: WorldConfig{
			Width:      400,
			Height:     400,
			OriginX:    -200,
			OriginY:    -100,
			TilesWide:  40,
			TilesHigh:  40,
			GravityY:   -9.81,
			Iterations: 8,
			Sleeping:   true,
		},
		Engine: EngineConfig{
			FPS:           60,
			MaxSubSteps:   5,
			StatsInterval: 2 * time.Second,
			HistorySize:   100,
		},
		Scene: SceneConfig{
			Type:   "default",
			Bodies: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
		Debug: DebugConfig{
			Interval: 50 * time.Millisecond,
		},
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default. Unknown keys are rejected and an
// empty document yields the defaults.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// BindFlags registers the command-line overrides. Each flag defaults to the
// value already in c, so flags win over the file only when given.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	// Simulation parameters
	fs.Float64Var(&c.World.GravityX, "gravity-x", c.World.GravityX, "gravity X component")
	fs.Float64Var(&c.World.GravityY, "gravity-y", c.World.GravityY, "gravity Y component")
	fs.Float64Var(&c.Engine.TimeStep, "timestep", c.Engine.TimeStep, "physics time step (0 = 1/fps)")
	fs.DurationVar(&c.Engine.Duration, "duration", c.Engine.Duration, "simulation duration (0 = infinite)")
	fs.IntVar(&c.Engine.FPS, "fps", c.Engine.FPS, "target steps per second")

	// World settings
	fs.Float64Var(&c.World.Width, "width", c.World.Width, "world width in units")
	fs.Float64Var(&c.World.Height, "height", c.World.Height, "world height in units")
	fs.IntVar(&c.World.TilesWide, "tiles-wide", c.World.TilesWide, "broad-phase cells across")
	fs.IntVar(&c.World.TilesHigh, "tiles-high", c.World.TilesHigh, "broad-phase cells down")
	fs.IntVar(&c.World.Iterations, "iterations", c.World.Iterations, "contact solver iterations")
	fs.BoolVar(&c.World.Sleeping, "sleep", c.World.Sleeping, "enable body sleeping")

	// Output settings
	fs.BoolVar(&c.Log.Verbose, "verbose", c.Log.Verbose, "verbose output")
	fs.BoolVar(&c.Log.Quiet, "quiet", c.Log.Quiet, "minimal output")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level (debug, info, warn, error, silent)")
	fs.BoolVar(&c.Log.Development, "log-dev", c.Log.Development, "human readable logs")
	fs.DurationVar(&c.Engine.StatsInterval, "stats-interval", c.Engine.StatsInterval, "statistics reporting interval")
	fs.StringVar(&c.Profile.CPU, "profile-cpu", c.Profile.CPU, "CPU profile output file")
	fs.StringVar(&c.Profile.Mem, "profile-mem", c.Profile.Mem, "memory profile output file")
	fs.StringVar(&c.Debug.Addr, "debug-addr", c.Debug.Addr, "serve the snapshot stream on this address")

	// Scene settings
	fs.StringVar(&c.Scene.File, "scene", c.Scene.File, "JSON or YAML scene file to load")
	fs.IntVar(&c.Scene.Bodies, "bodies", c.Scene.Bodies, "number of bodies for generated scenes")
	fs.StringVar(&c.Scene.Type, "scene-type", c.Scene.Type, "scene type (default, pyramid, rain, container, mixed, terrain)")
	fs.Int64Var(&c.Scene.Seed, "seed", c.Scene.Seed, "random seed for generated scenes (0 = time based)")
}

func (c Config) Validate() error {
	if c.Engine.FPS < 1 || c.Engine.FPS > 1000 {
		return fmt.Errorf("fps must be between 1 and 1000")
	}
	if c.Engine.TimeStep < 0 {
		return fmt.Errorf("timestep cannot be negative")
	}
	if c.Engine.MaxSubSteps < 1 {
		return fmt.Errorf("max sub-steps must be at least 1")
	}
	if c.Engine.Duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	if c.Engine.StatsInterval <= 0 {
		return fmt.Errorf("stats interval must be positive")
	}
	if c.Scene.Bodies < 1 {
		return fmt.Errorf("bodies count must be at least 1")
	}
	if c.World.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1")
	}
	if c.Scene.File == "" && !slices.Contains(SceneTypes, c.Scene.Type) {
		return fmt.Errorf("invalid scene type: %s", c.Scene.Type)
	}
	if c.Log.Verbose && c.Log.Quiet {
		return fmt.Errorf("verbose and quiet are mutually exclusive")
	}
	if c.Debug.Addr != "" && c.Debug.Interval <= 0 {
		return fmt.Errorf("debug interval must be positive")
	}
	return nil
}

// StepSize is the fixed simulation step in seconds.
func (c Config) StepSize() float64 {
	if c.Engine.TimeStep > 0 {
		return c.Engine.TimeStep
	}
	return 1.0 / float64(c.Engine.FPS)
}
