package spatial

import (
	"sync"

	"github.com/tidwall/geojson/geometry"
	"github.com/tidwall/hashmap"
	"go.uber.org/atomic"

	"github.com/tidwall/spatial/internal/log"
)

// nodeSet is a set of node ids that readers may scan while the writer
// mutates it.
type nodeSet struct {
	mu  sync.RWMutex
	set hashmap.Set[string]
}

// add inserts id and reports whether it was newly added.
func (s *nodeSet) add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set.Contains(id) {
		return false
	}
	s.set.Insert(id)
	return true
}

// delete removes id and reports whether it was present.
func (s *nodeSet) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set.Contains(id) {
		return false
	}
	s.set.Delete(id)
	return true
}

func (s *nodeSet) contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Contains(id)
}

func (s *nodeSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Len()
}

func (s *nodeSet) keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Keys()
}

func (s *nodeSet) scan(iter func(id string) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.set.Scan(iter)
}

func (s *nodeSet) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = hashmap.Set[string]{}
}

// Cell is one node of the quadtree. A cell is either a leaf holding
// resident ids or an interior cell with exactly four children that tile its
// area. The children are published with a single atomic store, so a reader
// sees a leaf or four fully formed children, never anything in between.
type Cell struct {
	level int
	area  geometry.Rect
	kids  atomic.Pointer[[4]*Cell]
	nodes nodeSet
}

func newCell(level int, area geometry.Rect) *Cell {
	return &Cell{level: level, area: area}
}

// Level returns the depth of the cell. The root is level 0.
func (c *Cell) Level() int {
	return c.level
}

// Area returns the rectangle covered by the cell.
func (c *Cell) Area() geometry.Rect {
	return c.area
}

// IsLeaf reports whether the cell has no children.
func (c *Cell) IsLeaf() bool {
	return c.kids.Load() == nil
}

// Child returns the child in quadrant q, or nil when the cell is a leaf.
func (c *Cell) Child(q Quadrant) *Cell {
	kids := c.kids.Load()
	if kids == nil {
		return nil
	}
	return kids[q]
}

// Nodes returns the ids resident in the cell. Only leaves hold residents.
func (c *Cell) Nodes() []string {
	return c.nodes.keys()
}

// quadrant returns the quadrant of p relative to the center of the cell.
// Points on the center lines go south and east.
func (c *Cell) quadrant(p geometry.Point) Quadrant {
	center := c.area.Center()
	north := p.Y < center.Y
	west := p.X < center.X
	switch {
	case north && west:
		return NW
	case north:
		return NE
	case west:
		return SW
	}
	return SE
}

// insert routes id down to a leaf, splitting the leaf when it fills past
// the index capacity. Cells at the maximum level never split and may hold
// any number of residents. The position is not checked against the cell
// area, so an id outside every cell still lands in a boundary leaf.
func (c *Cell) insert(ix *Index, id string) {
	if kids := c.kids.Load(); kids != nil {
		kid := kids[c.quadrant(ix.layout.Position(id))]
		if kid == nil {
			panic("no cell for quadrant")
		}
		kid.insert(ix, id)
		return
	}
	if c.nodes.add(id) {
		ix.pop.Inc()
	}
	if c.nodes.len() > ix.Capacity() && c.level < ix.MaxLevels() {
		c.split(ix)
	}
}

// split divides a leaf into four children and moves its residents down.
// The residents are routed before the children are published so that a
// query during the split sees every id through one side or the other.
func (c *Cell) split(ix *Index) {
	if c.kids.Load() != nil {
		return
	}
	min, max := c.area.Min, c.area.Max
	center := c.area.Center()
	level := c.level + 1
	kids := &[4]*Cell{
		NE: newCell(level, geometry.Rect{
			Min: geometry.Point{X: center.X, Y: min.Y},
			Max: geometry.Point{X: max.X, Y: center.Y},
		}),
		NW: newCell(level, geometry.Rect{
			Min: min,
			Max: center,
		}),
		SW: newCell(level, geometry.Rect{
			Min: geometry.Point{X: min.X, Y: center.Y},
			Max: geometry.Point{X: center.X, Y: max.Y},
		}),
		SE: newCell(level, geometry.Rect{
			Min: center,
			Max: max,
		}),
	}
	ids := c.nodes.keys()
	for _, id := range ids {
		kids[c.quadrant(ix.layout.Position(id))].insert(ix, id)
	}
	c.kids.Store(kids)
	c.nodes.clear()
	// The routed residents were counted a second time in the children.
	ix.pop.Sub(int64(len(ids)))
	ix.splits.Inc()
	log.Debugf("split level %d cell %v %v", c.level, min, max)
}

// retrieve adds the contents of every leaf whose area overlaps region to
// out. Leaf contents are taken whole, without testing each resident's
// position against the region.
func (c *Cell) retrieve(out *hashmap.Set[string], region Region) {
	kids := c.kids.Load()
	if kids == nil {
		c.nodes.scan(func(id string) bool {
			out.Insert(id)
			return true
		})
		return
	}
	for _, kid := range kids {
		if region.IntersectsRect(kid.area) {
			kid.retrieve(out, region)
		}
	}
}

// findLeafOf returns the cell whose resident set contains id, searching by
// membership rather than position.
func (c *Cell) findLeafOf(id string) *Cell {
	if c.nodes.contains(id) {
		return c
	}
	kids := c.kids.Load()
	if kids == nil {
		return nil
	}
	for _, kid := range kids {
		if leaf := kid.findLeafOf(id); leaf != nil {
			return leaf
		}
	}
	return nil
}

// findLeafAt descends to the leaf containing p by repeated quadrant
// routing, using the same tie rules as insertion.
func (c *Cell) findLeafAt(p geometry.Point) *Cell {
	kids := c.kids.Load()
	if kids == nil {
		return c
	}
	return kids[c.quadrant(p)].findLeafAt(p)
}

// walk visits c and every descendant in NE, NW, SW, SE order. It reports
// whether the walk ran to completion.
func (c *Cell) walk(visit func(*Cell) bool) bool {
	if !visit(c) {
		return false
	}
	kids := c.kids.Load()
	if kids == nil {
		return true
	}
	for _, kid := range kids {
		if !kid.walk(visit) {
			return false
		}
	}
	return true
}
