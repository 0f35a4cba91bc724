package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"

	"github.com/0x5844/physics-2d/internal/config"
	"github.com/0x5844/physics-2d/internal/debugserver"
	"github.com/0x5844/physics-2d/internal/engine"
	"github.com/0x5844/physics-2d/internal/log"
	"github.com/0x5844/physics-2d/internal/scene"
	"github.com/0x5844/physics-2d/pkg/physics"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

var providerSet = wire.NewSet(
	provideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	provideWorld,
	provideEngineOptions,
	engine.New,
	provideDebugServer,
	provideScene,
	newApp,
)

type App struct {
	cfg    config.Config
	engine *engine.Engine
	debug  *debugserver.Server
	scene  *scene.Scene
	logger log.Log
}

func newApp(cfg config.Config, eng *engine.Engine, debug *debugserver.Server, s *scene.Scene, logger log.Log) *App {
	return &App{cfg: cfg, engine: eng, debug: debug, scene: s, logger: logger}
}

func provideLogger(cfg config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case cfg.Log.Quiet:
		level = max(level, log.LevelWarn)
	case cfg.Log.Verbose:
		level = log.LevelDebug
	}

	var logger *log.Logger
	if cfg.Log.Development {
		logger = log.NewDevelopment(level)
	} else {
		logger = log.New(level)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideWorld(cfg config.Config, logger *log.Logger) *physics.World {
	wc := cfg.World
	w := physics.NewWorld(wc.Width, wc.Height, wc.TilesWide, wc.TilesHigh,
		physics.WithOrigin(vmath.NewVector2(wc.OriginX, wc.OriginY)),
		physics.WithGravity(vmath.NewVector2(wc.GravityX, wc.GravityY)),
		physics.WithIterations(wc.Iterations),
		physics.WithSleeping(wc.Sleeping),
		physics.WithLogger(logger.Zap().Named("physics")),
	)
	w.Initialize()
	return w
}

func provideEngineOptions(cfg config.Config) engine.Options {
	return engine.Options{
		FPS:           cfg.Engine.FPS,
		TimeStep:      cfg.StepSize(),
		MaxSubSteps:   cfg.Engine.MaxSubSteps,
		StatsInterval: statsInterval(cfg),
		HistorySize:   cfg.Engine.HistorySize,
		Verbose:       cfg.Log.Verbose,
		Snapshots:     cfg.Debug.Addr != "",
	}
}

func statsInterval(cfg config.Config) time.Duration {
	if cfg.Log.Quiet {
		return 0
	}
	return cfg.Engine.StatsInterval
}

// provideDebugServer returns nil when no address is configured.
func provideDebugServer(cfg config.Config, eng *engine.Engine, logger log.Log) *debugserver.Server {
	if cfg.Debug.Addr == "" {
		return nil
	}
	return debugserver.New(cfg.Debug.Addr, cfg.Debug.Interval, eng, logger)
}

func provideScene(cfg config.Config, logger log.Log) (*scene.Scene, error) {
	if cfg.Scene.File != "" {
		s, err := scene.LoadSceneFromFile(cfg.Scene.File)
		if err != nil {
			return nil, fmt.Errorf("load scene: %w", err)
		}
		logger.Info("loaded scene",
			log.String("file", cfg.Scene.File),
			log.Uint64("fingerprint", s.Fingerprint()))
		return s, nil
	}

	seed := cfg.Scene.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s, err := scene.Generate(cfg.Scene.Type, cfg.Scene.Bodies, seed)
	if err != nil {
		return nil, err
	}
	logger.Info("generated scene",
		log.String("type", cfg.Scene.Type),
		log.Int("bodies", cfg.Scene.Bodies),
		log.Int64("seed", seed),
		log.Uint64("fingerprint", s.Fingerprint()))
	return s, nil
}

// Run builds the scene and simulates until ctx is done or the configured
// duration elapses.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.scene.Apply(a.engine.World()); err != nil {
		return fmt.Errorf("setup scene: %w", err)
	}

	duration := a.cfg.Engine.Duration
	if a.scene.Duration > 0 {
		duration = time.Duration(a.scene.Duration * float64(time.Second))
	}
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
		a.logger.Info("simulation duration", log.Duration("duration", duration))
	}

	if a.debug != nil {
		a.engine.AddService(a.debug)
	}
	return a.engine.Run(ctx)
}

func (a *App) Summary() engine.Stats {
	st := a.engine.Stats()
	fields := []log.Field{
		log.Float64("fps", st.FPS),
		log.Int64("bodies", st.World.Bodies),
		log.Int64("steps", st.World.Steps),
		log.Int64("frames", st.Frames),
	}
	if st.SimTime > 0 {
		fields = append(fields, log.Float64("steps_per_second", float64(st.World.Steps)/st.SimTime))
	}
	a.logger.Info("simulation completed", fields...)
	return st
}
