package physics

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/0x5844/physics-2d/pkg/spatial"
	"github.com/0x5844/physics-2d/pkg/vmath"
)

// Stats is a snapshot of the world counters. It is safe to read from
// another goroutine while the world steps.
type Stats struct {
	Steps     int64
	Bodies    int64
	Awake     int64
	Sleeping  int64
	Pairs     int64
	Manifolds int64
	Resolved  int64
}

func (w *World) Stats() Stats {
	return Stats{
		Steps:     w.stepCounter.Load(),
		Bodies:    w.bodyCounter.Load(),
		Awake:     w.awakeCounter.Load(),
		Sleeping:  w.sleepingCounter.Load(),
		Pairs:     w.pairCounter.Load(),
		Manifolds: w.manifoldCounter.Load(),
		Resolved:  w.resolvedCounter.Load(),
	}
}

// Bodies returns the bodies in creation order.
func (w *World) Bodies() []*RigidBody { return slices.Clone(w.bodies) }

func (w *World) BodyCount() int { return len(w.bodies) }

func (w *World) Body(id BodyID) (*RigidBody, bool) {
	b, ok := w.byID[id]
	return b, ok
}

// Grid exposes the broad phase for debug drawing. Callers must not modify
// it.
func (w *World) Grid() *spatial.HashGrid[BodyID] { return w.grid }

func (w *World) GetCellKeyFromWorldPosition(x, y float64) spatial.CellKey {
	return w.grid.KeyFromWorldPosition(x, y)
}

func (w *World) GetCell(key spatial.CellKey) []BodyID {
	return w.grid.QueryCell(key)
}

// Manifolds returns the contacts of the last step, including sensor and
// disabled ones. They are reused by the next step.
func (w *World) Manifolds() []*ContactManifold { return slices.Clone(w.manifolds) }

// QueryAABB calls fn for every body whose box overlaps box until fn returns
// false.
func (w *World) QueryAABB(box vmath.AABB, fn func(b *RigidBody) bool) {
	w.grid.QueryAABB(box, func(id BodyID) bool {
		b, ok := w.byID[id]
		if !ok {
			return true
		}
		return fn(b)
	})
}

// QueryPoint returns the bodies whose shape contains p, ordered by ID.
func (w *World) QueryPoint(p vmath.Vector2) []*RigidBody {
	var hits []*RigidBody
	w.QueryAABB(vmath.NewAABB(p, p), func(b *RigidBody) bool {
		if b.shape.TestPoint(b.xf, p) {
			hits = append(hits, b)
		}
		return true
	})
	slices.SortFunc(hits, func(a, b *RigidBody) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return hits
}

// Digest hashes the identity and state of every body in creation order.
// Two worlds fed the same inputs produce the same digest.
func (w *World) Digest() uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 8*7)
	for _, b := range w.bodies {
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(b.id))
		for _, f := range []float64{
			b.xf.Position.X, b.xf.Position.Y, b.xf.Rotation.Angle(),
			b.linearVelocity.X, b.linearVelocity.Y, b.angularVelocity,
		} {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
		}
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}
