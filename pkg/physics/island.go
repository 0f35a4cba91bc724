package physics

import "math"

// islands groups touching bodies with a disjoint set over body indices.
type islands struct {
	parent []int
	rank   []uint8
}

func (is *islands) reset(n int) {
	if cap(is.parent) < n {
		is.parent = make([]int, n)
		is.rank = make([]uint8, n)
	}
	is.parent = is.parent[:n]
	is.rank = is.rank[:n]
	for i := range is.parent {
		is.parent[i] = i
		is.rank[i] = 0
	}
}

func (is *islands) find(i int) int {
	for is.parent[i] != i {
		is.parent[i] = is.parent[is.parent[i]]
		i = is.parent[i]
	}
	return i
}

func (is *islands) union(i, j int) {
	ri, rj := is.find(i), is.find(j)
	if ri == rj {
		return
	}
	switch {
	case is.rank[ri] < is.rank[rj]:
		is.parent[ri] = rj
	case is.rank[ri] > is.rank[rj]:
		is.parent[rj] = ri
	default:
		is.parent[rj] = ri
		is.rank[ri]++
	}
}

// updateSleep advances sleep timers and puts whole islands to sleep once
// every member has been resting for TimeToSleep. Static bodies never join
// an island, so a pile resting on the ground can sleep on its own.
func (w *World) updateSleep(dt float64) {
	if !w.sleepEnabled {
		return
	}

	linTol := w.settings.LinearSleepTolerance * w.settings.LinearSleepTolerance
	angTol := w.settings.AngularSleepTolerance * w.settings.AngularSleepTolerance

	for _, b := range w.bodies {
		if !b.IsAwake() {
			continue
		}
		if !b.allowSleep ||
			b.linearVelocity.MagnitudeSquared() > linTol ||
			b.angularVelocity*b.angularVelocity > angTol {
			b.sleepTime = 0
			continue
		}
		b.sleepTime += dt
	}

	w.islands.reset(len(w.bodies))
	for _, m := range w.manifolds {
		if !m.EnableResolveContact || m.BodyA.IsStatic() || m.BodyB.IsStatic() {
			continue
		}
		if !m.BodyA.inWorld || !m.BodyB.inWorld {
			continue
		}
		w.islands.union(m.BodyA.index, m.BodyB.index)
	}

	minTime := make(map[int]float64)
	for _, b := range w.bodies {
		if !b.IsAwake() {
			continue
		}
		root := w.islands.find(b.index)
		t, ok := minTime[root]
		if !ok {
			t = math.Inf(1)
		}
		minTime[root] = math.Min(t, b.sleepTime)
	}

	for _, b := range w.bodies {
		if !b.IsAwake() || b.bodyType != Dynamic {
			continue
		}
		if minTime[w.islands.find(b.index)] >= w.settings.TimeToSleep {
			b.SetAwake(false)
		}
	}
}
