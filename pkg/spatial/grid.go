// Package spatial is the broad phase: a bounded uniform grid that buckets
// handles by the cells their bounding boxes overlap.
package spatial

import (
	"errors"
	"math"
	"slices"

	"github.com/0x5844/physics-2d/pkg/vmath"
)

// ErrOccupied is returned by Resize when resize listeners left items in
// the grid.
var ErrOccupied = errors.New("spatial: grid still occupied during resize")

// CellKey identifies a cell: row*cellsWide + col.
type CellKey int

// ResizeListener is told when the grid is about to be re-partitioned.
// OnRemoveAll must remove every item it inserted; OnRecreate re-inserts
// them into the new partition.
type ResizeListener[T comparable] interface {
	OnRemoveAll(g *HashGrid[T])
	OnRecreate(g *HashGrid[T])
}

type options struct {
	origin vmath.Vector2
}

type Option func(*options)

// WithOrigin sets the world position of the grid's lower-left corner.
func WithOrigin(origin vmath.Vector2) Option {
	return func(o *options) {
		o.origin = origin
	}
}

type cellRect struct {
	minCol, minRow, maxCol, maxRow int
}

func (r cellRect) cols() int { return r.maxCol - r.minCol + 1 }

func (r cellRect) contains(col, row int) bool {
	return col >= r.minCol && col <= r.maxCol && row >= r.minRow && row <= r.maxRow
}

type entry struct {
	box  vmath.AABB
	rect cellRect
	// slots[i] is the index of the item inside the bucket of the i-th cell
	// of rect, row-major.
	slots []int
}

// HashGrid indexes handles by position. It never owns what it stores; the
// caller inserts, updates and removes handles as their bounds change.
type HashGrid[T comparable] struct {
	origin     vmath.Vector2
	width      float64
	height     float64
	cellsWide  int
	cellsHigh  int
	cellWidth  float64
	cellHeight float64

	cells     [][]T
	entries   map[T]*entry
	listeners []ResizeListener[T]
}

// NewHashGrid partitions a width×height area into cellsWide×cellsHigh
// cells. Non-positive sizes and cell counts are raised to 1.
func NewHashGrid[T comparable](width, height float64, cellsWide, cellsHigh int, opts ...Option) *HashGrid[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	g := &HashGrid[T]{
		origin:  o.origin,
		entries: make(map[T]*entry),
	}
	g.partition(width, height, cellsWide, cellsHigh)
	return g
}

func (g *HashGrid[T]) partition(width, height float64, cellsWide, cellsHigh int) {
	if !(width > 0) {
		width = 1
	}
	if !(height > 0) {
		height = 1
	}
	g.width, g.height = width, height
	g.cellsWide, g.cellsHigh = max(cellsWide, 1), max(cellsHigh, 1)
	g.cellWidth = width / float64(g.cellsWide)
	g.cellHeight = height / float64(g.cellsHigh)
	g.cells = make([][]T, g.cellsWide*g.cellsHigh)
}

func (g *HashGrid[T]) Origin() vmath.Vector2 { return g.origin }
func (g *HashGrid[T]) CellsWide() int        { return g.cellsWide }
func (g *HashGrid[T]) CellsHigh() int        { return g.cellsHigh }
func (g *HashGrid[T]) CellCount() int        { return len(g.cells) }
func (g *HashGrid[T]) Len() int              { return len(g.entries) }

// CellSize returns the width and height of one cell.
func (g *HashGrid[T]) CellSize() vmath.Vector2 {
	return vmath.NewVector2(g.cellWidth, g.cellHeight)
}

func (g *HashGrid[T]) Bounds() vmath.AABB {
	return vmath.NewAABB(g.origin, g.origin.Add(vmath.NewVector2(g.width, g.height)))
}

func (g *HashGrid[T]) column(x float64) int {
	return cellIndex((x-g.origin.X)/g.cellWidth, g.cellsWide)
}

func (g *HashGrid[T]) row(y float64) int {
	return cellIndex((y-g.origin.Y)/g.cellHeight, g.cellsHigh)
}

// cellIndex clamps in float64 before converting, so huge or infinite
// coordinates land on the border cell instead of overflowing int.
func cellIndex(f float64, n int) int {
	f = math.Floor(f)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > float64(n-1):
		return n - 1
	}
	return int(f)
}

func (g *HashGrid[T]) key(col, row int) CellKey {
	return CellKey(row*g.cellsWide + col)
}

// KeyFromWorldPosition returns the key of the cell containing (x, y).
// Positions outside the grid map to the nearest border cell.
func (g *HashGrid[T]) KeyFromWorldPosition(x, y float64) CellKey {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0
	}
	return g.key(g.column(x), g.row(y))
}

// CellBounds returns the world rectangle covered by key.
func (g *HashGrid[T]) CellBounds(key CellKey) vmath.AABB {
	col := int(key) % g.cellsWide
	row := int(key) / g.cellsWide
	lower := g.origin.Add(vmath.NewVector2(float64(col)*g.cellWidth, float64(row)*g.cellHeight))
	return vmath.NewAABB(lower, lower.Add(g.CellSize()))
}

// QueryCell returns a copy of the items in the cell. Unknown keys give an
// empty result.
func (g *HashGrid[T]) QueryCell(key CellKey) []T {
	if key < 0 || int(key) >= len(g.cells) {
		return nil
	}
	return slices.Clone(g.cells[key])
}

// OccupiedCells counts the cells holding at least one item.
func (g *HashGrid[T]) OccupiedCells() int {
	n := 0
	for _, bucket := range g.cells {
		if len(bucket) > 0 {
			n++
		}
	}
	return n
}

func (g *HashGrid[T]) Contains(item T) bool {
	_, ok := g.entries[item]
	return ok
}

// AABB returns the box item was last inserted or updated with.
func (g *HashGrid[T]) AABB(item T) (vmath.AABB, bool) {
	e, ok := g.entries[item]
	if !ok {
		return vmath.AABB{}, false
	}
	return e.box, true
}

func (g *HashGrid[T]) rectOf(box vmath.AABB) cellRect {
	return cellRect{
		minCol: g.column(box.Min.X),
		minRow: g.row(box.Min.Y),
		maxCol: g.column(box.Max.X),
		maxRow: g.row(box.Max.Y),
	}
}

// Insert adds item covering box. Inserting an item that is already present
// updates it instead.
func (g *HashGrid[T]) Insert(item T, box vmath.AABB) {
	if _, ok := g.entries[item]; ok {
		g.Update(item, box)
		return
	}
	e := &entry{box: box, rect: g.rectOf(box)}
	g.link(item, e)
	g.entries[item] = e
}

// Remove deletes item and reports whether it was present.
func (g *HashGrid[T]) Remove(item T) bool {
	e, ok := g.entries[item]
	if !ok {
		return false
	}
	g.unlink(e)
	delete(g.entries, item)
	return true
}

// Update moves item to box. Buckets are only touched when the covered
// cells change.
func (g *HashGrid[T]) Update(item T, box vmath.AABB) {
	e, ok := g.entries[item]
	if !ok {
		g.Insert(item, box)
		return
	}
	e.box = box
	rect := g.rectOf(box)
	if rect == e.rect {
		return
	}
	g.unlink(e)
	e.rect = rect
	g.link(item, e)
}

// Clear removes every item but keeps the partition and listeners.
func (g *HashGrid[T]) Clear() {
	for i := range g.cells {
		g.cells[i] = nil
	}
	clear(g.entries)
}

func (g *HashGrid[T]) link(item T, e *entry) {
	r := e.rect
	e.slots = e.slots[:0]
	for row := r.minRow; row <= r.maxRow; row++ {
		for col := r.minCol; col <= r.maxCol; col++ {
			k := g.key(col, row)
			e.slots = append(e.slots, len(g.cells[k]))
			g.cells[k] = append(g.cells[k], item)
		}
	}
}

// unlink swap-removes the entry from each of its cells and patches the
// slot of whichever item took its place.
func (g *HashGrid[T]) unlink(e *entry) {
	r := e.rect
	i := 0
	for row := r.minRow; row <= r.maxRow; row++ {
		for col := r.minCol; col <= r.maxCol; col++ {
			k := g.key(col, row)
			bucket := g.cells[k]
			slot := e.slots[i]
			last := len(bucket) - 1

			if slot != last {
				moved := bucket[last]
				bucket[slot] = moved
				me := g.entries[moved]
				me.slots[(row-me.rect.minRow)*me.rect.cols()+(col-me.rect.minCol)] = slot
			}
			var zero T
			bucket[last] = zero
			g.cells[k] = bucket[:last]
			i++
		}
	}
}

// Pairs calls fn once for every pair of items whose boxes overlap and that
// share at least one cell. Cells are walked in key order.
func (g *HashGrid[T]) Pairs(fn func(a, b T)) {
	for k, bucket := range g.cells {
		col := k % g.cellsWide
		row := k / g.cellsWide
		for i := 0; i < len(bucket); i++ {
			ei := g.entries[bucket[i]]
			for j := i + 1; j < len(bucket); j++ {
				ej := g.entries[bucket[j]]
				// report only from the first cell both boxes cover
				if col != max(ei.rect.minCol, ej.rect.minCol) || row != max(ei.rect.minRow, ej.rect.minRow) {
					continue
				}
				if !ei.box.Overlaps(ej.box) {
					continue
				}
				fn(bucket[i], bucket[j])
			}
		}
	}
}

// QueryAABB calls fn once for every item whose box overlaps box, stopping
// early when fn returns false.
func (g *HashGrid[T]) QueryAABB(box vmath.AABB, fn func(item T) bool) {
	q := g.rectOf(box)
	for row := q.minRow; row <= q.maxRow; row++ {
		for col := q.minCol; col <= q.maxCol; col++ {
			for _, item := range g.cells[g.key(col, row)] {
				e := g.entries[item]
				if col != max(e.rect.minCol, q.minCol) || row != max(e.rect.minRow, q.minRow) {
					continue
				}
				if !e.box.Overlaps(box) {
					continue
				}
				if !fn(item) {
					return
				}
			}
		}
	}
}

func (g *HashGrid[T]) AddResizeListener(l ResizeListener[T]) {
	g.listeners = append(g.listeners, l)
}

func (g *HashGrid[T]) RemoveResizeListener(l ResizeListener[T]) {
	g.listeners = slices.DeleteFunc(g.listeners, func(x ResizeListener[T]) bool { return x == l })
}

// Resize re-partitions the grid. Listeners are first asked to remove
// everything, then the cells are rebuilt, then listeners re-insert. If
// anything is left after the removal pass the partition is kept,
// listeners still get OnRecreate and ErrOccupied is returned.
func (g *HashGrid[T]) Resize(width, height float64, cellsWide, cellsHigh int) error {
	listeners := slices.Clone(g.listeners)
	for _, l := range listeners {
		l.OnRemoveAll(g)
	}

	var err error
	if len(g.entries) > 0 {
		err = ErrOccupied
	} else {
		g.partition(width, height, cellsWide, cellsHigh)
	}

	for _, l := range listeners {
		l.OnRecreate(g)
	}
	return err
}
