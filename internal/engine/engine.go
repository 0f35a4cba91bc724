// Package engine drives a physics world in real time: a fixed-step
// accumulator loop, frame statistics, periodic stats reports and the
// snapshots debug viewers read.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/0x5844/physics-2d/internal/log"
	"github.com/0x5844/physics-2d/pkg/physics"
)

var ErrAlreadyRunning = errors.New("engine: already running")

// Service runs beside the simulation loop until ctx is done.
type Service interface {
	Run(ctx context.Context) error
}

type Options struct {
	FPS int
	// TimeStep of zero means 1/FPS.
	TimeStep float64
	// MaxSubSteps bounds the steps taken for one frame; time beyond it is
	// dropped.
	MaxSubSteps   int
	StatsInterval time.Duration
	HistorySize   int
	Verbose       bool
	// Snapshots publishes a snapshot after every frame.
	Snapshots bool
}

func DefaultOptions() Options {
	return Options{
		FPS:           60,
		MaxSubSteps:   5,
		StatsInterval: 2 * time.Second,
		HistorySize:   100,
	}
}

func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.FPS < 1 {
		o.FPS = def.FPS
	}
	if !(o.TimeStep > 0) || math.IsInf(o.TimeStep, 0) {
		o.TimeStep = 1.0 / float64(o.FPS)
	}
	if o.MaxSubSteps < 1 {
		o.MaxSubSteps = def.MaxSubSteps
	}
	if o.HistorySize < 1 {
		o.HistorySize = def.HistorySize
	}
	return o
}

// ==================== PHYSICS ENGINE ====================

type frameStats struct {
	fps           float64
	lastFrameTime time.Time
	frameCount    int64
	avgFrameTime  float64
	minFrameTime  float64
	maxFrameTime  float64
	frameTimeSum  float64
	simTime       float64
}

type Engine struct {
	world  *physics.World
	logger log.Log
	opts   Options
	runID  uuid.UUID
	now    func() time.Time

	services []Service
	running  atomic.Bool

	// owned by the loop goroutine
	accumulator float64
	simTime     float64

	mu           sync.RWMutex
	stats        frameStats
	frameHistory []float64
	latest       Snapshot
}

func New(world *physics.World, opts Options, logger log.Log) *Engine {
	if logger == nil {
		logger = log.NewNop()
	}
	opts = opts.normalize()
	runID := uuid.New()

	e := &Engine{
		world:        world,
		opts:         opts,
		runID:        runID,
		now:          time.Now,
		logger:       logger.With(log.String("component", "engine"), log.String("run_id", runID.String())),
		frameHistory: make([]float64, 0, opts.HistorySize),
	}
	return e
}

func (e *Engine) World() *physics.World { return e.world }
func (e *Engine) RunID() uuid.UUID      { return e.runID }
func (e *Engine) Options() Options      { return e.opts }

// DeltaTime is the fixed step handed to the world.
func (e *Engine) DeltaTime() float64 { return e.opts.TimeStep }

// SimulationTime is the simulated time so far, in seconds.
func (e *Engine) SimulationTime() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats.simTime
}

// AddService registers s to run beside the loop. It must be called before
// Run.
func (e *Engine) AddService(s Service) {
	e.services = append(e.services, s)
}

// Run steps the world until ctx is done, with the stats reporter and every
// registered service alongside. The first failure stops all of them.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	e.world.Initialize()
	e.logger.Info("engine started",
		log.Int("fps", e.opts.FPS),
		log.Float64("timestep", e.opts.TimeStep),
		log.Int("bodies", e.world.BodyCount()),
		log.Int("services", len(e.services)))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.loop(ctx) })
	if e.opts.StatsInterval > 0 {
		g.Go(func() error { return e.reportStats(ctx) })
	}
	for _, s := range e.services {
		g.Go(func() error { return s.Run(ctx) })
	}

	err := g.Wait()
	st := e.Stats()
	e.logger.Info("engine stopped",
		log.Int64("frames", st.Frames),
		log.Int64("steps", st.World.Steps),
		log.Float64("sim_time", st.SimTime),
		log.Uint64("digest", e.world.Digest()))
	return err
}

func (e *Engine) loop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(e.opts.FPS))
	defer ticker.Stop()

	last := e.now()
	e.mu.Lock()
	e.stats.lastFrameTime = last
	e.mu.Unlock()

	for {
		select {
		case <-ticker.C:
			start := e.now()
			elapsed := start.Sub(last).Seconds()
			last = start

			if _, err := e.Advance(elapsed); err != nil {
				return fmt.Errorf("engine: step: %w", err)
			}
			e.updateStats(start)
			if e.opts.Snapshots {
				e.publish(e.capture())
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// Advance feeds elapsed wall time into the accumulator and takes as many
// fixed steps as it covers, at most MaxSubSteps. It returns the number of
// steps taken. Only one goroutine may call it.
func (e *Engine) Advance(elapsed float64) (int, error) {
	if !(elapsed > 0) || math.IsInf(elapsed, 0) {
		elapsed = 0
	}
	e.accumulator += elapsed

	budget := float64(e.opts.MaxSubSteps) * e.opts.TimeStep
	if e.accumulator > budget {
		e.logger.Debug("frame budget exceeded",
			log.Float64("dropped", e.accumulator-budget))
		e.accumulator = budget
	}

	steps := 0
	for e.accumulator >= e.opts.TimeStep {
		if err := e.world.Update(e); err != nil {
			return steps, err
		}
		e.accumulator -= e.opts.TimeStep
		steps++
	}
	if steps > 0 {
		e.simTime += float64(steps) * e.opts.TimeStep
		e.mu.Lock()
		e.stats.simTime = e.simTime
		e.mu.Unlock()
	}
	return steps, nil
}

func (e *Engine) updateStats(frameStart time.Time) {
	now := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	frameTime := now.Sub(e.stats.lastFrameTime).Seconds()
	currentFrameTime := now.Sub(frameStart).Seconds()

	if frameTime > 0 {
		e.stats.fps = 1.0 / frameTime
	}
	e.stats.lastFrameTime = now
	e.stats.frameCount++

	e.stats.frameTimeSum += currentFrameTime
	e.stats.avgFrameTime = e.stats.frameTimeSum / float64(e.stats.frameCount)

	if e.stats.frameCount == 1 || currentFrameTime < e.stats.minFrameTime {
		e.stats.minFrameTime = currentFrameTime
	}
	if currentFrameTime > e.stats.maxFrameTime {
		e.stats.maxFrameTime = currentFrameTime
	}

	e.frameHistory = append(e.frameHistory, currentFrameTime)
	if len(e.frameHistory) > e.opts.HistorySize {
		e.frameHistory = e.frameHistory[1:]
	}
}

// Stats is a point-in-time view of the engine. Frame times are in
// milliseconds.
type Stats struct {
	RunID        string
	FPS          float64
	AvgFrameTime float64
	MinFrameTime float64
	MaxFrameTime float64
	Frames       int64
	SimTime      float64
	World        physics.Stats
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Stats{
		RunID:        e.runID.String(),
		FPS:          e.stats.fps,
		AvgFrameTime: e.stats.avgFrameTime * 1000,
		MinFrameTime: e.stats.minFrameTime * 1000,
		MaxFrameTime: e.stats.maxFrameTime * 1000,
		Frames:       e.stats.frameCount,
		SimTime:      e.stats.simTime,
		World:        e.world.Stats(),
	}
}

// FrameHistory returns the most recent frame times in seconds, oldest
// first.
func (e *Engine) FrameHistory() []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.frameHistory)
}
