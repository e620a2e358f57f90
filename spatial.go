// Package spatial provides in-memory spatial indexes for identified points
// whose coordinates live outside the index. Positions are resolved through a
// Layout, so a node can move without the index being told until the caller
// decides to refresh it.
//
// The main type is Index, a region quadtree that subdivides a fixed
// rectangular area into cells. The rindex subpackage provides a flat R-tree
// index with the same operations.
//
// An Index is safe for one writer and any number of concurrent readers.
// Mutating calls must not overlap each other.
package spatial

import (
	"github.com/tidwall/geojson/geometry"
)

const (
	// DefaultCapacity is the number of residents a leaf cell holds before
	// it splits.
	DefaultCapacity = 1

	// DefaultMaxLevels is the deepest level a cell can occupy. Cells at
	// this level never split and hold any number of residents.
	DefaultMaxLevels = 12
)

// Layout resolves node identifiers to coordinates. The index calls it every
// time it needs a position, so implementations must be safe for concurrent
// use alongside index operations.
type Layout interface {
	// Position returns the current coordinates of id.
	Position(id string) geometry.Point
	// Nodes returns every known id. Used to snapshot the population
	// before a full rebuild.
	Nodes() []string
}

// Region is a query shape.
type Region interface {
	// Bounds returns the minimum bounding rectangle of the region.
	Bounds() geometry.Rect
	// IntersectsRect reports whether the region overlaps rect. Shared
	// edges count as overlapping.
	IntersectsRect(rect geometry.Rect) bool
}

// rectRegion adapts a plain rectangle to the Region interface.
type rectRegion geometry.Rect

func (r rectRegion) Bounds() geometry.Rect {
	return geometry.Rect(r)
}

func (r rectRegion) IntersectsRect(rect geometry.Rect) bool {
	return geometry.Rect(r).IntersectsRect(rect)
}

// Circle is a Region drawn around a center point.
type Circle struct {
	Center geometry.Point
	Radius float64
}

// Bounds returns the bounding square of the circle.
func (c Circle) Bounds() geometry.Rect {
	return geometry.Rect{
		Min: geometry.Point{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius},
		Max: geometry.Point{X: c.Center.X + c.Radius, Y: c.Center.Y + c.Radius},
	}
}

// IntersectsRect reports whether any part of rect falls within the circle.
// Touching the boundary counts.
func (c Circle) IntersectsRect(rect geometry.Rect) bool {
	dx := axisDist(c.Center.X, rect.Min.X, rect.Max.X)
	dy := axisDist(c.Center.Y, rect.Min.Y, rect.Max.Y)
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// ContainsPoint reports whether p falls within the circle, boundary
// included.
func (c Circle) ContainsPoint(p geometry.Point) bool {
	dx, dy := p.X-c.Center.X, p.Y-c.Center.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// containsRect reports whether the circle covers all of rect. The farthest
// corner decides.
func (c Circle) containsRect(rect geometry.Rect) bool {
	dx := maxf(c.Center.X-rect.Min.X, rect.Max.X-c.Center.X)
	dy := maxf(c.Center.Y-rect.Min.Y, rect.Max.Y-c.Center.Y)
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// axisDist returns the distance from k to the interval [min, max] along one
// axis, or zero when k falls inside it.
func axisDist(k, min, max float64) float64 {
	if k < min {
		return min - k
	}
	if k <= max {
		return 0
	}
	return k - max
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Quadrant identifies one of the four children of a split cell. North is
// toward smaller y, matching screen coordinates.
type Quadrant byte

// The four quadrants, in child order.
const (
	NE Quadrant = iota
	NW
	SW
	SE
)

func (q Quadrant) String() string {
	switch q {
	case NE:
		return "NE"
	case NW:
		return "NW"
	case SW:
		return "SW"
	case SE:
		return "SE"
	}
	return "unknown"
}

// Spatial is the operation set shared by the quadtree Index and the flat
// index in the rindex subpackage.
type Spatial interface {
	// Insert adds id at its current layout position.
	Insert(id string)
	// Remove deletes id, reporting whether it was indexed.
	Remove(id string) bool
	// Update refreshes the placement of id after its position changed.
	Update(id string)
	// Recalculate rebuilds the index from the given population snapshot.
	Recalculate(ids []string)
	// Query returns ids for the leaves overlapping rect.
	Query(rect geometry.Rect) []string
	// QueryRegion is Query for an arbitrary shape.
	QueryRegion(region Region) []string
	// Nearest returns the id closest to the point (x, y).
	Nearest(x, y float64) (string, bool)
	// Bounds returns the area covered by the index.
	Bounds() geometry.Rect
	// Count returns the number of indexed ids.
	Count() int
}
