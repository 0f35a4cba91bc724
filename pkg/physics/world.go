package physics

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/0x5844/physics-2d/pkg/shape"
	"github.com/0x5844/physics-2d/pkg/spatial"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

var (
	ErrWorldLocked     = errors.New("physics: world is locked during step")
	ErrNotInitialized  = errors.New("physics: world not initialized")
	ErrInvalidTimeStep = errors.New("physics: invalid time step")
	ErrForeignBody     = errors.New("physics: body belongs to another world")
	ErrNilShape        = errors.New("physics: fixture has no shape")
)

// Core is the caller's time source, queried once per Update.
type Core interface {
	DeltaTime() float64
}

type Option func(*World)

func WithGravity(gravity vmath.Vector2) Option {
	return func(w *World) {
		w.gravity = gravity
	}
}

func WithIterations(iterations int) Option {
	return func(w *World) {
		w.iterations = iterations
	}
}

// WithSettings replaces the solver and sleep tuning. It also rebuilds the
// default resolver unless WithContactResolver is given.
func WithSettings(settings Settings) Option {
	return func(w *World) {
		w.settings = settings
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithContactResolver(resolver ContactResolver) Option {
	return func(w *World) {
		w.resolver = resolver
	}
}

func WithSleeping(enabled bool) Option {
	return func(w *World) {
		w.sleepEnabled = enabled
	}
}

// WithOrigin moves the lower-left corner of the broad-phase grid.
func WithOrigin(origin vmath.Vector2) Option {
	return func(w *World) {
		w.origin = origin
	}
}

// ==================== PHYSICS WORLD ====================

type World struct {
	logger   *zap.Logger
	settings Settings
	resolver ContactResolver

	gravity      vmath.Vector2
	iterations   int
	sleepEnabled bool

	origin    vmath.Vector2
	width     float64
	height    float64
	tilesWide int
	tilesHigh int
	grid      *spatial.HashGrid[BodyID]

	bodies []*RigidBody
	byID   map[BodyID]*RigidBody
	nextID BodyID

	callbacks []CollisionCallback
	manifolds []*ContactManifold
	resolved  []*ContactManifold
	pairs     [][2]*RigidBody
	pool      *manifoldPool
	queue     commandQueue
	islands   islands

	initialized bool
	locked      bool

	stepCounter     atomic.Int64
	pairCounter     atomic.Int64
	manifoldCounter atomic.Int64
	resolvedCounter atomic.Int64
	bodyCounter     atomic.Int64
	awakeCounter    atomic.Int64
	sleepingCounter atomic.Int64
}

// NewWorld builds a world covering boundaryWidth x boundaryHeight units,
// partitioned into tilesWide x tilesHigh broad-phase cells. Non-positive
// bounds fall back to DefaultBoundary and fewer than MinGridCells cells per
// axis are raised to MinGridCells. The world must be initialized before it
// can step.
func NewWorld(boundaryWidth, boundaryHeight float64, tilesWide, tilesHigh int, opts ...Option) *World {
	w := &World{
		logger:       zap.NewNop(),
		settings:     DefaultSettings(),
		gravity:      vmath.NewVector2(0, -9.81),
		iterations:   DefaultIterations,
		sleepEnabled: true,
		byID:         make(map[BodyID]*RigidBody),
		pool:         newManifoldPool(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.resolver == nil {
		w.resolver = NewSequentialImpulseSolver(w.settings)
	}
	if w.iterations < 1 {
		w.logger.Warn("solver iterations clamped",
			zap.Int("requested", w.iterations),
			zap.Int("iterations", 1))
		w.iterations = 1
	}

	w.width, w.height, w.tilesWide, w.tilesHigh = w.clampBounds(boundaryWidth, boundaryHeight, tilesWide, tilesHigh)
	w.grid = spatial.NewHashGrid[BodyID](w.width, w.height, w.tilesWide, w.tilesHigh, spatial.WithOrigin(w.origin))
	w.grid.AddResizeListener(w)

	w.logger.Debug("physics world created",
		zap.Float64("width", w.width),
		zap.Float64("height", w.height),
		zap.Int("tilesWide", w.tilesWide),
		zap.Int("tilesHigh", w.tilesHigh))

	return w
}

// CreateNewPhysicsWorld is NewWorld with default options.
func CreateNewPhysicsWorld(boundaryWidth, boundaryHeight float64, tilesWide, tilesHigh int) *World {
	return NewWorld(boundaryWidth, boundaryHeight, tilesWide, tilesHigh)
}

func (w *World) clampBounds(width, height float64, tilesWide, tilesHigh int) (float64, float64, int, int) {
	clampSize := func(name string, v float64) float64 {
		if v > 0 && !math.IsInf(v, 0) {
			return v
		}
		w.logger.Warn("world boundary clamped",
			zap.String("axis", name),
			zap.Float64("requested", v),
			zap.Float64("boundary", DefaultBoundary))
		return DefaultBoundary
	}
	clampTiles := func(name string, n int) int {
		if n >= MinGridCells {
			return n
		}
		w.logger.Warn("grid cells clamped",
			zap.String("axis", name),
			zap.Int("requested", n),
			zap.Int("cells", MinGridCells))
		return MinGridCells
	}
	return clampSize("width", width), clampSize("height", height),
		clampTiles("x", tilesWide), clampTiles("y", tilesHigh)
}

// ==================== LIFECYCLE ====================

// Initialize enables stepping. Calling it again is a no-op; after Unload it
// brings the world back empty.
func (w *World) Initialize() {
	if w.initialized {
		return
	}
	w.initialized = true
	w.logger.Info("physics world initialized",
		zap.Int("cells", w.grid.CellCount()),
		zap.Int("iterations", w.iterations))
}

// Unload removes every body and forgets callbacks and queued commands. The
// world has to be initialized again before the next step.
func (w *World) Unload() error {
	if w.locked {
		return ErrWorldLocked
	}

	removed := len(w.bodies)
	for _, b := range w.bodies {
		b.detach()
	}
	w.bodies = nil
	clear(w.byID)
	w.grid.Clear()
	w.releaseManifolds()
	w.callbacks = nil
	w.queue.clear()
	w.pairs = w.pairs[:0]
	w.initialized = false
	w.updateCounters()

	w.logger.Info("physics world unloaded", zap.Int("bodies", removed))
	return nil
}

func (w *World) Initialized() bool { return w.initialized }
func (w *World) Locked() bool      { return w.locked }

func (w *World) Gravity() vmath.Vector2 { return w.gravity }

func (w *World) SetGravity(gx, gy float64) {
	w.gravity = vmath.NewVector2(gx, gy)
}

func (w *World) Iterations() int { return w.iterations }

func (w *World) SetIterations(iterations int) error {
	if w.locked {
		return ErrWorldLocked
	}
	if iterations < 1 {
		w.logger.Warn("solver iterations clamped", zap.Int("requested", iterations), zap.Int("iterations", 1))
		iterations = 1
	}
	w.iterations = iterations
	return nil
}

func (w *World) Settings() Settings { return w.settings }

func (w *World) ContactResolver() ContactResolver { return w.resolver }

// SetContactResolver swaps the solver. A nil resolver restores the
// sequential impulse solver.
func (w *World) SetContactResolver(resolver ContactResolver) error {
	if w.locked {
		return ErrWorldLocked
	}
	if resolver == nil {
		resolver = NewSequentialImpulseSolver(w.settings)
	}
	w.resolver = resolver
	return nil
}

func (w *World) SleepingEnabled() bool { return w.sleepEnabled }

// SetSleepingEnabled toggles sleeping. Disabling it wakes every body.
func (w *World) SetSleepingEnabled(enabled bool) {
	w.sleepEnabled = enabled
	if enabled {
		return
	}
	for _, b := range w.bodies {
		b.WakeUp()
	}
}

// Resize rebuilds the broad phase for new bounds. Inputs are clamped the
// same way NewWorld clamps them.
func (w *World) Resize(width, height float64, tilesWide, tilesHigh int) error {
	if w.locked {
		return ErrWorldLocked
	}

	width, height, tilesWide, tilesHigh = w.clampBounds(width, height, tilesWide, tilesHigh)
	if err := w.grid.Resize(width, height, tilesWide, tilesHigh); err != nil {
		return fmt.Errorf("physics: resize: %w", err)
	}
	w.width, w.height, w.tilesWide, w.tilesHigh = width, height, tilesWide, tilesHigh

	w.logger.Info("physics world resized",
		zap.Float64("width", width),
		zap.Float64("height", height),
		zap.Int("tilesWide", tilesWide),
		zap.Int("tilesHigh", tilesHigh))
	return nil
}

// OnRemoveAll takes every body out of the grid ahead of a resize.
func (w *World) OnRemoveAll(g *spatial.HashGrid[BodyID]) {
	for _, b := range w.bodies {
		g.Remove(b.id)
	}
}

// OnRecreate puts every body back once the grid has been repartitioned.
func (w *World) OnRecreate(g *spatial.HashGrid[BodyID]) {
	for _, b := range w.bodies {
		g.Insert(b.id, b.aabb)
	}
}

// ==================== BODIES ====================

// CreateBody adds a body described by def and fixture. While the world is
// stepping the body is returned at once but only joins the simulation after
// the step.
func (w *World) CreateBody(def BodyDef, fixture FixtureDef) (*RigidBody, error) {
	if fixture.Shape == nil {
		return nil, ErrNilShape
	}

	w.nextID++
	b := newRigidBody(w.nextID, def, fixture)
	b.world = w

	if w.locked {
		w.queue.push(commandCreate, b)
		return b, nil
	}
	w.addBody(b)
	return b, nil
}

// DestroyBody removes b. While the world is stepping the removal is
// deferred until the step ends.
func (w *World) DestroyBody(b *RigidBody) error {
	if b == nil {
		return nil
	}
	if b.world != w {
		return ErrForeignBody
	}

	if w.locked {
		w.queue.push(commandDestroy, b)
		return nil
	}
	w.removeBody(b)
	return nil
}

// CreateStaticOutline decomposes a simple, possibly concave outline given in
// world coordinates into convex static bodies sharing fixture's material.
func (w *World) CreateStaticOutline(outline []vmath.Vector2, fixture FixtureDef) ([]*RigidBody, error) {
	parts, err := shape.NewConvexPolygons(outline, shape.MaxPolygonVertices)
	if err != nil {
		return nil, fmt.Errorf("physics: static outline: %w", err)
	}

	def := DefaultBodyDef()
	def.Type = Static

	bodies := make([]*RigidBody, 0, len(parts))
	for _, part := range parts {
		fixture.Shape = part
		b, err := w.CreateBody(def, fixture)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, b)
	}

	w.logger.Debug("static outline created",
		zap.Int("vertices", len(outline)),
		zap.Int("parts", len(bodies)))
	return bodies, nil
}

func (w *World) addBody(b *RigidBody) {
	if b.inWorld || b.world != w {
		return
	}
	b.inWorld = true
	b.index = len(w.bodies)
	w.bodies = append(w.bodies, b)
	w.byID[b.id] = b
	w.grid.Insert(b.id, b.aabb)
	w.bodyCounter.Store(int64(len(w.bodies)))
}

func (w *World) removeBody(b *RigidBody) {
	if !b.inWorld {
		b.world = nil
		return
	}

	w.check(w.grid.Remove(b.id), "body %d missing from grid", b.id)
	delete(w.byID, b.id)
	w.bodies = slices.Delete(w.bodies, b.index, b.index+1)
	for i := b.index; i < len(w.bodies); i++ {
		w.bodies[i].index = i
	}
	b.detach()
	w.bodyCounter.Store(int64(len(w.bodies)))
}

func (rb *RigidBody) detach() {
	rb.world = nil
	rb.inWorld = false
	rb.index = -1
}

// ==================== STEP ====================

// Update steps the world by the caller's frame time.
func (w *World) Update(core Core) error {
	return w.Step(core.DeltaTime())
}

// Step advances the simulation by dt seconds. The phases run in a fixed
// order and the world stays locked until all of them are done; body
// creation and destruction requested meanwhile is applied at the end.
func (w *World) Step(dt float64) error {
	if !w.initialized {
		return ErrNotInitialized
	}
	if w.locked {
		return ErrWorldLocked
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTimeStep, dt)
	}

	w.locked = true
	w.releaseManifolds()

	w.integrateForces(dt)
	w.broadPhase()
	w.narrowPhase()
	w.solve(dt)
	w.integratePositions(dt)
	w.updateSleep(dt)

	w.locked = false
	w.flushCommands()

	w.stepCounter.Add(1)
	w.updateCounters()

	if ce := w.logger.Check(zap.DebugLevel, "physics step"); ce != nil {
		ce.Write(
			zap.Int64("step", w.stepCounter.Load()),
			zap.Int("pairs", len(w.pairs)),
			zap.Int("manifolds", len(w.manifolds)),
			zap.Int("resolved", len(w.resolved)))
	}
	return nil
}

func (w *World) integrateForces(dt float64) {
	for _, b := range w.bodies {
		if b.bodyType != Dynamic || b.sleeping {
			continue
		}

		accel := w.gravity.Scale(b.gravityScale).Add(b.force.Scale(b.invMass))
		b.linearVelocity = b.linearVelocity.Add(accel.Scale(dt))
		b.angularVelocity += b.torque * b.invInertia * dt

		b.linearVelocity = b.linearVelocity.Scale(1 / (1 + dt*b.linearDamping))
		b.angularVelocity *= 1 / (1 + dt*b.angularDamping)
	}
}

func (w *World) broadPhase() {
	w.pairs = w.pairs[:0]
	w.grid.Pairs(func(idA, idB BodyID) {
		a, b := w.byID[idA], w.byID[idB]
		if a == nil || b == nil {
			return
		}
		if b.id < a.id {
			a, b = b, a
		}
		w.pairs = append(w.pairs, [2]*RigidBody{a, b})
	})
	w.pairCounter.Store(int64(len(w.pairs)))
}

func (w *World) narrowPhase() {
	for _, pair := range w.pairs {
		m := w.pool.get()
		generateManifold(m, pair[0], pair[1])

		if m.ContactCount == 0 {
			w.advance(m, StateDiscarded)
			w.pool.put(m)
			continue
		}

		w.advance(m, StatePreContact)
		w.preContact(m)
		w.advance(m, StatePostContact)
		w.postContact(m)

		if m.EnableResolveContact {
			for _, b := range [2]*RigidBody{m.BodyA, m.BodyB} {
				if b.sleeping && m.Other(b).wakesOthers() {
					b.WakeUp()
				}
			}
		}
		w.manifolds = append(w.manifolds, m)
	}
}

func (w *World) solve(dt float64) {
	w.resolved = w.resolved[:0]

	for _, m := range w.manifolds {
		if !m.EnableResolveContact {
			continue
		}
		w.advance(m, StatePreSolve)
		w.preSolve(m)
		if m.EnableResolveContact {
			w.resolved = append(w.resolved, m)
		}
	}

	w.resolver.Solve(w.resolved, w.iterations, dt)

	for _, m := range w.manifolds {
		if m.state != StatePreSolve {
			w.advance(m, StateDiscarded)
			continue
		}
		w.advance(m, StatePostSolve)
		w.postSolve(m)
	}
}

func (w *World) integratePositions(dt float64) {
	for _, b := range w.bodies {
		if !b.IsAwake() {
			continue
		}
		b.prevXf = b.xf
		b.center = b.center.Add(b.linearVelocity.Scale(dt))
		b.synchronizeTransform(b.xf.Rotation.Angle() + b.angularVelocity*dt)
	}

	w.resolver.CorrectPositions(w.resolved)

	for _, b := range w.bodies {
		if !b.IsAwake() {
			continue
		}
		w.check(w.grid.Contains(b.id), "body %d missing from grid", b.id)
		b.refreshAABB(b.bullet)
		b.force = vmath.Vector2{}
		b.torque = 0
	}
}

func (w *World) flushCommands() {
	if w.queue.len() == 0 {
		return
	}
	w.queue.drain(func(c command) {
		switch c.kind {
		case commandCreate:
			w.addBody(c.body)
		case commandDestroy:
			w.removeBody(c.body)
		}
	})
}

// releaseManifolds returns last step's manifolds to the pool.
func (w *World) releaseManifolds() {
	for _, m := range w.manifolds {
		w.pool.put(m)
	}
	clear(w.manifolds)
	w.manifolds = w.manifolds[:0]
	w.resolved = w.resolved[:0]
}

func (w *World) advance(m *ContactManifold, to ManifoldState) {
	w.check(canTransition(m.state, to), "illegal manifold transition %s -> %s", m.state, to)
	m.state = to
}

// check panics in debug builds and logs otherwise.
func (w *World) check(ok bool, format string, args ...any) {
	if ok {
		return
	}
	invariant(false, format, args...)
	w.logger.Error("physics invariant violated", zap.String("detail", fmt.Sprintf(format, args...)))
}

func (w *World) updateCounters() {
	var awake, sleeping int64
	for _, b := range w.bodies {
		switch {
		case b.IsAwake():
			awake++
		case b.sleeping:
			sleeping++
		}
	}
	w.awakeCounter.Store(awake)
	w.sleepingCounter.Store(sleeping)
	w.manifoldCounter.Store(int64(len(w.manifolds)))
	w.resolvedCounter.Store(int64(len(w.resolved)))
	w.bodyCounter.Store(int64(len(w.bodies)))
}
