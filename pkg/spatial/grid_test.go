package spatial

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x5844/physics-2d/pkg/vmath"
)

func box(x0, y0, x1, y1 float64) vmath.AABB {
	return vmath.NewAABB(vmath.NewVector2(x0, y0), vmath.NewVector2(x1, y1))
}

type pair struct{ a, b int }

func collectPairs(g *HashGrid[int]) []pair {
	var pairs []pair
	g.Pairs(func(a, b int) {
		if a > b {
			a, b = b, a
		}
		pairs = append(pairs, pair{a, b})
	})
	return pairs
}

// checkConsistent verifies that every bucket slot recorded in the entries
// points back at the entry's item.
func checkConsistent(t *testing.T, g *HashGrid[int]) {
	t.Helper()
	total := 0
	for item, e := range g.entries {
		i := 0
		for row := e.rect.minRow; row <= e.rect.maxRow; row++ {
			for col := e.rect.minCol; col <= e.rect.maxCol; col++ {
				bucket := g.cells[g.key(col, row)]
				require.Less(t, e.slots[i], len(bucket))
				require.Equal(t, item, bucket[e.slots[i]])
				i++
			}
		}
		total += len(e.slots)
	}
	occupied := 0
	for _, bucket := range g.cells {
		occupied += len(bucket)
	}
	require.Equal(t, total, occupied)
}

func TestKeyFromWorldPosition(t *testing.T) {
	g := NewHashGrid[int](100, 50, 10, 5)

	assert.Equal(t, CellKey(0), g.KeyFromWorldPosition(0, 0))
	assert.Equal(t, CellKey(1), g.KeyFromWorldPosition(10, 0))
	assert.Equal(t, CellKey(10), g.KeyFromWorldPosition(0, 10))
	assert.Equal(t, CellKey(23), g.KeyFromWorldPosition(35, 25))

	// identical inputs give identical keys
	assert.Equal(t, g.KeyFromWorldPosition(42.5, 17.25), g.KeyFromWorldPosition(42.5, 17.25))
	assert.NotEqual(t, g.KeyFromWorldPosition(1, 1), g.KeyFromWorldPosition(11, 1))

	// outside the bounds clamps to the border
	assert.Equal(t, CellKey(0), g.KeyFromWorldPosition(-500, -500))
	assert.Equal(t, CellKey(49), g.KeyFromWorldPosition(1e6, 1e6))
}

func TestKeyFromExtremePositions(t *testing.T) {
	g := NewHashGrid[int](100, 50, 10, 5)

	assert.Equal(t, CellKey(49), g.KeyFromWorldPosition(1e300, 1e300))
	assert.Equal(t, CellKey(0), g.KeyFromWorldPosition(-1e300, -1e300))
	assert.Equal(t, CellKey(9), g.KeyFromWorldPosition(math.Inf(1), 0))
	assert.Equal(t, CellKey(40), g.KeyFromWorldPosition(0, math.Inf(1)))

	g.Insert(1, box(-1e300, -1e300, 1e300, 1e300))
	for k := CellKey(0); k < 50; k++ {
		assert.Equal(t, []int{1}, g.QueryCell(k), "cell %d", k)
	}
	checkConsistent(t, g)
}

func TestKeyWithOrigin(t *testing.T) {
	g := NewHashGrid[int](100, 100, 10, 10, WithOrigin(vmath.NewVector2(-50, -50)))

	assert.Equal(t, CellKey(0), g.KeyFromWorldPosition(-50, -50))
	assert.Equal(t, CellKey(55), g.KeyFromWorldPosition(0, 0))
	assert.Equal(t, box(0, 0, 10, 10), g.CellBounds(55))
}

func TestNewHashGridClampsInput(t *testing.T) {
	g := NewHashGrid[int](-1, 0, 0, -3)

	assert.Equal(t, 1, g.CellsWide())
	assert.Equal(t, 1, g.CellsHigh())
	assert.Equal(t, 1, g.CellCount())
	assert.Equal(t, vmath.NewVector2(1, 1), g.CellSize())
}

func TestInsertSpansCells(t *testing.T) {
	g := NewHashGrid[int](100, 100, 10, 10)
	g.Insert(1, box(5, 5, 15, 15))

	for _, k := range []CellKey{0, 1, 10, 11} {
		assert.Equal(t, []int{1}, g.QueryCell(k), "cell %d", k)
	}
	assert.Empty(t, g.QueryCell(2))
	assert.Empty(t, g.QueryCell(-1))
	assert.Empty(t, g.QueryCell(1000))
	assert.Equal(t, 4, g.OccupiedCells())
	assert.True(t, g.Contains(1))
	checkConsistent(t, g)
}

func TestRemoveAndUpdate(t *testing.T) {
	g := NewHashGrid[int](100, 100, 10, 10)
	g.Insert(1, box(1, 1, 2, 2))
	g.Insert(2, box(3, 3, 4, 4))
	g.Insert(3, box(5, 5, 25, 6))

	assert.True(t, g.Remove(1))
	assert.False(t, g.Remove(1))
	assert.ElementsMatch(t, []int{2, 3}, g.QueryCell(0))
	checkConsistent(t, g)

	g.Update(2, box(55, 55, 56, 56))
	assert.Equal(t, []int{3}, g.QueryCell(0))
	assert.Equal(t, []int{2}, g.QueryCell(55))

	b, ok := g.AABB(2)
	require.True(t, ok)
	assert.Equal(t, box(55, 55, 56, 56), b)
	checkConsistent(t, g)

	// moving inside the same cells keeps the bucket untouched
	g.Update(2, box(55.5, 55.5, 56.5, 56.5))
	assert.Equal(t, []int{2}, g.QueryCell(55))

	g.Clear()
	assert.Zero(t, g.Len())
	assert.Zero(t, g.OccupiedCells())
}

func TestSwapRemoveStaysConsistent(t *testing.T) {
	g := NewHashGrid[int](100, 100, 10, 10)
	rng := rand.New(rand.NewSource(7))

	randomBox := func() vmath.AABB {
		x, y := rng.Float64()*90, rng.Float64()*90
		return box(x, y, x+rng.Float64()*25, y+rng.Float64()*25)
	}

	for i := 0; i < 200; i++ {
		g.Insert(i, randomBox())
	}
	for i := 0; i < 200; i += 3 {
		require.True(t, g.Remove(i))
	}
	for i := 1; i < 200; i += 3 {
		g.Update(i, randomBox())
	}

	checkConsistent(t, g)
	assert.Equal(t, 133, g.Len())
}

func TestPairsDeduplicated(t *testing.T) {
	g := NewHashGrid[int](100, 100, 10, 10)

	// both span the same 3x3 block of cells
	g.Insert(1, box(5, 5, 25, 25))
	g.Insert(2, box(6, 6, 24, 24))
	// shares cells with 1 but the boxes do not overlap
	g.Insert(3, box(26, 26, 29, 29))
	// far away
	g.Insert(4, box(80, 80, 85, 85))

	pairs := collectPairs(g)
	assert.Equal(t, []pair{{1, 2}}, pairs)
}

func TestPairsMatchBruteForce(t *testing.T) {
	g := NewHashGrid[int](200, 200, 20, 20)
	rng := rand.New(rand.NewSource(11))

	boxes := make(map[int]vmath.AABB)
	for i := 0; i < 150; i++ {
		x, y := rng.Float64()*190, rng.Float64()*190
		b := box(x, y, x+rng.Float64()*30, y+rng.Float64()*30)
		boxes[i] = b
		g.Insert(i, b)
	}

	want := make(map[pair]bool)
	for i := 0; i < 150; i++ {
		for j := i + 1; j < 150; j++ {
			if boxes[i].Overlaps(boxes[j]) {
				want[pair{i, j}] = true
			}
		}
	}

	got := make(map[pair]int)
	for _, p := range collectPairs(g) {
		got[p]++
	}

	assert.Len(t, got, len(want))
	for p, n := range got {
		assert.Equal(t, 1, n, "pair %v reported %d times", p, n)
		assert.True(t, want[p], "unexpected pair %v", p)
	}
}

func TestPairsDeterministic(t *testing.T) {
	build := func() []pair {
		g := NewHashGrid[int](100, 100, 10, 10)
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 60; i++ {
			x, y := rng.Float64()*90, rng.Float64()*90
			g.Insert(i, box(x, y, x+15, y+15))
		}
		return collectPairs(g)
	}
	assert.Equal(t, build(), build())
}

func TestQueryAABB(t *testing.T) {
	g := NewHashGrid[int](100, 100, 10, 10)
	g.Insert(1, box(5, 5, 35, 35))
	g.Insert(2, box(40, 40, 45, 45))
	g.Insert(3, box(90, 90, 95, 95))

	var hits []int
	g.QueryAABB(box(0, 0, 50, 50), func(item int) bool {
		hits = append(hits, item)
		return true
	})
	assert.ElementsMatch(t, []int{1, 2}, hits)

	count := 0
	g.QueryAABB(box(0, 0, 100, 100), func(int) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

type recordingListener struct {
	name   string
	events *[]string
	items  map[int]vmath.AABB
}

func (l *recordingListener) OnRemoveAll(g *HashGrid[int]) {
	*l.events = append(*l.events, l.name+":remove")
	for item := range l.items {
		g.Remove(item)
	}
}

func (l *recordingListener) OnRecreate(g *HashGrid[int]) {
	*l.events = append(*l.events, fmt.Sprintf("%s:recreate:%dx%d", l.name, g.CellsWide(), g.CellsHigh()))
	for item, b := range l.items {
		g.Insert(item, b)
	}
}

func TestResizeNotifiesAndRebuilds(t *testing.T) {
	g := NewHashGrid[int](100, 100, 10, 10)
	var events []string

	first := &recordingListener{name: "a", events: &events, items: map[int]vmath.AABB{1: box(5, 5, 6, 6)}}
	second := &recordingListener{name: "b", events: &events, items: map[int]vmath.AABB{2: box(55, 55, 56, 56)}}
	g.AddResizeListener(first)
	g.AddResizeListener(second)
	for item, b := range first.items {
		g.Insert(item, b)
	}
	for item, b := range second.items {
		g.Insert(item, b)
	}

	require.NoError(t, g.Resize(200, 200, 20, 20))
	assert.Equal(t, []string{"a:remove", "b:remove", "a:recreate:20x20", "b:recreate:20x20"}, events)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []int{2}, g.QueryCell(g.KeyFromWorldPosition(55, 55)))
	checkConsistent(t, g)

	g.RemoveResizeListener(second)
	events = events[:0]
	err := g.Resize(100, 100, 10, 10)
	assert.ErrorIs(t, err, ErrOccupied)
	assert.Equal(t, 20, g.CellsWide(), "partition kept while occupied")
	assert.Equal(t, []string{"a:remove", "a:recreate:20x20"}, events)
}
