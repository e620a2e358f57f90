package spatial

import (
	"github.com/tidwall/geojson/geometry"
	"github.com/tidwall/hashmap"
	"go.uber.org/atomic"

	"github.com/tidwall/spatial/internal/log"
)

// Index is a region quadtree over identified points. The tree covers a
// fixed rectangular area and subdivides it as ids accumulate, keeping at
// most a capacity of residents per leaf until the maximum level is reached.
//
// Node coordinates come from the Layout on every call, so the tree only
// learns about movement through Update, Recalculate, or a fresh Insert.
type Index struct {
	layout    Layout
	root      atomic.Pointer[Cell]
	capacity  atomic.Int32
	maxLevels atomic.Int32
	pop       atomic.Int64
	splits    atomic.Int64
	rebuilds  atomic.Int64
	queries   atomic.Int64
	nearests  atomic.Int64
}

var _ Spatial = (*Index)(nil)

// New returns an empty index covering area whose node positions are
// resolved through layout.
func New(layout Layout, area geometry.Rect) *Index {
	ix := &Index{layout: layout}
	ix.capacity.Store(DefaultCapacity)
	ix.maxLevels.Store(DefaultMaxLevels)
	ix.root.Store(newCell(0, area))
	return ix
}

// SetCapacity sets the number of residents a leaf holds before splitting.
// It takes effect on subsequent splits and returns the index for chaining.
func (ix *Index) SetCapacity(n int) *Index {
	if n < 1 {
		n = 1
	}
	ix.capacity.Store(int32(n))
	return ix
}

// Capacity returns the per-leaf resident capacity.
func (ix *Index) Capacity() int {
	return int(ix.capacity.Load())
}

// SetMaxLevels sets the deepest level a cell can occupy. It takes effect
// on subsequent splits and returns the index for chaining.
func (ix *Index) SetMaxLevels(n int) *Index {
	if n < 0 {
		n = 0
	}
	ix.maxLevels.Store(int32(n))
	return ix
}

// MaxLevels returns the deepest level a cell can occupy.
func (ix *Index) MaxLevels() int {
	return int(ix.maxLevels.Load())
}

// Root returns the root cell of the tree.
func (ix *Index) Root() *Cell {
	return ix.root.Load()
}

// Bounds returns the area covered by the root cell.
func (ix *Index) Bounds() geometry.Rect {
	return ix.root.Load().area
}

// Count returns the number of ids in the index.
func (ix *Index) Count() int {
	return int(ix.pop.Load())
}

// Insert adds id to the leaf containing its current position. The position
// is not validated against the index bounds; ids that moved outside should
// go through Update, which grows the bounds to cover them.
func (ix *Index) Insert(id string) {
	ix.root.Load().insert(ix, id)
}

// Remove deletes id from the index. It reports whether id was indexed.
func (ix *Index) Remove(id string) bool {
	leaf := ix.root.Load().findLeafOf(id)
	if leaf == nil {
		return false
	}
	if leaf.nodes.delete(id) {
		ix.pop.Dec()
		return true
	}
	return false
}

// Update refreshes the placement of id after its position changed. A
// position outside the index bounds grows the bounds to cover it and
// rebuilds the whole tree. A position that crossed into a different leaf
// moves the id there directly. Unknown ids are simply inserted.
func (ix *Index) Update(id string) {
	p := ix.layout.Position(id)
	if !ix.Bounds().ContainsPoint(p) {
		area := unionPoint(ix.Bounds(), p)
		log.Debugf("grow bounds to %v %v for %s", area.Min, area.Max, id)
		ix.rebuild(area, ix.layout.Nodes())
	} else if cur := ix.LeafOf(id); cur != nil && cur != ix.LeafAt(p.X, p.Y) {
		if cur.nodes.delete(id) {
			ix.pop.Dec()
		}
	}
	ix.Insert(id)
}

// Recalculate rebuilds the index from scratch, reinserting every id in ids
// at its current position. The slice is typically a snapshot of the
// layout's population taken by the caller. Readers keep the old tree until
// the rebuilt one is published.
func (ix *Index) Recalculate(ids []string) {
	ix.rebuild(ix.Bounds(), ids)
}

// SetBounds resets the index to a single empty leaf covering area. Callers
// that want to keep the indexed ids should follow with Recalculate.
func (ix *Index) SetBounds(area geometry.Rect) {
	ix.rebuild(area, nil)
}

func (ix *Index) rebuild(area geometry.Rect, ids []string) {
	root := newCell(0, area)
	ix.pop.Store(0)
	for _, id := range ids {
		root.insert(ix, id)
	}
	ix.root.Store(root)
	ix.rebuilds.Inc()
	log.Debugf("rebuilt %d nodes over %v %v", len(ids), area.Min, area.Max)
}

// Query returns the ids resident in every leaf whose area overlaps rect.
// The result is a candidate set: residents of an overlapping leaf are
// returned without testing their exact positions, and while the root is
// still an unsplit leaf every id is returned regardless of overlap.
func (ix *Index) Query(rect geometry.Rect) []string {
	return ix.QueryRegion(rectRegion(rect))
}

// QueryRegion is Query for an arbitrary region shape.
func (ix *Index) QueryRegion(region Region) []string {
	ix.queries.Inc()
	var out hashmap.Set[string]
	ix.root.Load().retrieve(&out, region)
	return out.Keys()
}

// LeafAt returns the leaf cell whose area contains the point (x, y), or
// nil when the point falls outside the index bounds. Points on shared cell
// edges resolve south and east, matching insertion.
func (ix *Index) LeafAt(x, y float64) *Cell {
	root := ix.root.Load()
	p := geometry.Point{X: x, Y: y}
	if !root.area.ContainsPoint(p) {
		return nil
	}
	return root.findLeafAt(p)
}

// LeafOf returns the leaf cell holding id, or nil when id is not indexed.
// The search is by membership, not position, so an id that moved since its
// last update is still found in its old leaf.
func (ix *Index) LeafOf(id string) *Cell {
	return ix.root.Load().findLeafOf(id)
}

// Walk visits every cell in depth-first order starting at the root.
// Return false from visit to stop early.
func (ix *Index) Walk(visit func(c *Cell) bool) {
	ix.root.Load().walk(visit)
}

// Grid returns the area of every leaf cell. The rectangles tile the index
// bounds exactly.
func (ix *Index) Grid() []geometry.Rect {
	var grid []geometry.Rect
	ix.Walk(func(c *Cell) bool {
		if c.IsLeaf() {
			grid = append(grid, c.area)
		}
		return true
	})
	return grid
}

// unionPoint returns the smallest rectangle covering both rect and p.
func unionPoint(rect geometry.Rect, p geometry.Point) geometry.Rect {
	if p.X < rect.Min.X {
		rect.Min.X = p.X
	}
	if p.Y < rect.Min.Y {
		rect.Min.Y = p.Y
	}
	if p.X > rect.Max.X {
		rect.Max.X = p.X
	}
	if p.Y > rect.Max.Y {
		rect.Max.Y = p.Y
	}
	return rect
}
