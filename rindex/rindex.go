// Package rindex provides a flat R-tree index with the same operations as
// the quadtree in the parent package. Queries answer exact containment
// rather than leaf candidates, and the covered area follows the indexed
// points instead of being fixed up front.
package rindex

import (
	"sync"

	"github.com/tidwall/geojson/geometry"
	"github.com/tidwall/hashmap"
	"github.com/tidwall/rtree"

	"github.com/tidwall/spatial"
)

// Index is a spatial index backed by an R-tree. Positions are resolved
// through the Layout when an id is inserted or updated, and the position
// each id was last indexed at is remembered so that moves and removals
// find the old entry.
//
// An Index is safe for one writer and any number of concurrent readers.
type Index struct {
	layout spatial.Layout
	mu     sync.RWMutex
	tr     rtree.RTreeGN[float64, string]
	pts    hashmap.Map[string, geometry.Point]
}

var _ spatial.Spatial = (*Index)(nil)

// New returns an empty index whose node positions are resolved through
// layout.
func New(layout spatial.Layout) *Index {
	return &Index{layout: layout}
}

// Insert adds id at its current layout position. Inserting an id that is
// already indexed moves it.
func (ix *Index) Insert(id string) {
	p := ix.layout.Position(id)
	ix.mu.Lock()
	if old, ok := ix.pts.Get(id); ok {
		ix.tr.Delete(pointMin(old), pointMax(old), id)
	}
	ix.tr.Insert(pointMin(p), pointMax(p), id)
	ix.pts.Set(id, p)
	ix.mu.Unlock()
}

// Remove deletes id from the index. It reports whether id was indexed.
func (ix *Index) Remove(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	old, ok := ix.pts.Get(id)
	if !ok {
		return false
	}
	ix.tr.Delete(pointMin(old), pointMax(old), id)
	ix.pts.Delete(id)
	return true
}

// Update refreshes the placement of id. For a flat index this is the same
// as Insert.
func (ix *Index) Update(id string) {
	ix.Insert(id)
}

// Recalculate rebuilds the index from scratch, reinserting every id in ids
// at its current position.
func (ix *Index) Recalculate(ids []string) {
	ix.mu.Lock()
	ix.tr = rtree.RTreeGN[float64, string]{}
	ix.pts = hashmap.Map[string, geometry.Point]{}
	for _, id := range ids {
		p := ix.layout.Position(id)
		ix.tr.Insert(pointMin(p), pointMax(p), id)
		ix.pts.Set(id, p)
	}
	ix.mu.Unlock()
}

// Query returns the ids whose positions fall within rect, edges included.
func (ix *Index) Query(rect geometry.Rect) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []string
	ix.tr.Search(
		[2]float64{rect.Min.X, rect.Min.Y},
		[2]float64{rect.Max.X, rect.Max.Y},
		func(_, _ [2]float64, id string) bool {
			out = append(out, id)
			return true
		},
	)
	return out
}

// QueryRegion returns the ids whose positions intersect region.
func (ix *Index) QueryRegion(region spatial.Region) []string {
	bounds := region.Bounds()
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []string
	ix.tr.Search(
		[2]float64{bounds.Min.X, bounds.Min.Y},
		[2]float64{bounds.Max.X, bounds.Max.Y},
		func(min, max [2]float64, id string) bool {
			hit := geometry.Rect{
				Min: geometry.Point{X: min[0], Y: min[1]},
				Max: geometry.Point{X: max[0], Y: max[1]},
			}
			if region.IntersectsRect(hit) {
				out = append(out, id)
			}
			return true
		},
	)
	return out
}

// Nearest returns the id closest to the point (x, y) by euclidean
// distance. It reports false when the index is empty.
func (ix *Index) Nearest(x, y float64) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var best string
	var found bool
	ix.tr.Nearby(
		func(min, max [2]float64, _ string, _ bool) float64 {
			dx := axisDist(x, min[0], max[0])
			dy := axisDist(y, min[1], max[1])
			return dx*dx + dy*dy
		},
		func(_, _ [2]float64, id string, _ float64) bool {
			best, found = id, true
			return false
		},
	)
	return best, found
}

// Bounds returns the minimum bounding rectangle of every indexed id, or
// the zero rectangle when the index is empty.
func (ix *Index) Bounds() geometry.Rect {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.pts.Len() == 0 {
		return geometry.Rect{}
	}
	lmin, _, _ := ix.tr.LeftMost()
	bmin, _, _ := ix.tr.BottomMost()
	_, rmax, _ := ix.tr.RightMost()
	_, tmax, _ := ix.tr.TopMost()
	return geometry.Rect{
		Min: geometry.Point{X: lmin[0], Y: bmin[1]},
		Max: geometry.Point{X: rmax[0], Y: tmax[1]},
	}
}

// Count returns the number of indexed ids.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.pts.Len()
}

func pointMin(p geometry.Point) [2]float64 {
	return [2]float64{p.X, p.Y}
}

func pointMax(p geometry.Point) [2]float64 {
	return [2]float64{p.X, p.Y}
}

// axisDist returns the distance from k to the interval [min, max] along
// one axis, or zero when k falls inside it.
func axisDist(k, min, max float64) float64 {
	if k < min {
		return min - k
	}
	if k <= max {
		return 0
	}
	return k - max
}
