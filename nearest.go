package spatial

import (
	"math"

	"github.com/tidwall/geojson/geometry"
	"github.com/tidwall/hashmap"
)

// Nearest returns the id closest to the point (x, y) by euclidean
// distance. The search draws a circle the width of the leaf containing the
// point and doubles its radius until a hit turns up. Once the candidates
// cover the whole population the radius stops pruning and the closest
// candidate wins outright, so a non-empty index always produces a result.
//
// It reports false when the index is empty or the point falls outside the
// index bounds. Ties between equidistant ids go to whichever candidate is
// encountered first, which is not deterministic.
func (ix *Index) Nearest(x, y float64) (string, bool) {
	ix.nearests.Inc()
	leaf := ix.LeafAt(x, y)
	if leaf == nil {
		return "", false
	}
	radius := leaf.area.Max.X - leaf.area.Min.X
	if radius <= 0 {
		radius = 1
	}
	root := ix.root.Load()
	for {
		circle := Circle{Center: geometry.Point{X: x, Y: y}, Radius: radius}
		var set hashmap.Set[string]
		root.retrieve(&set, circle)
		if set.Len() >= ix.Count() || circle.containsRect(root.area) {
			return ix.closest(set.Keys(), x, y, -1)
		}
		if id, ok := ix.closest(set.Keys(), x, y, radius); ok {
			return id, ok
		}
		radius *= 2
	}
}

// closest returns the candidate nearest to (x, y), skipping candidates
// farther than radius. A negative radius disables the cutoff.
func (ix *Index) closest(ids []string, x, y, radius float64) (string, bool) {
	var best string
	var found bool
	bestDist := math.Inf(1)
	for _, id := range ids {
		p := ix.layout.Position(id)
		dx, dy := p.X-x, p.Y-y
		dist := dx*dx + dy*dy
		if radius >= 0 && dist > radius*radius {
			continue
		}
		if dist < bestDist {
			best, bestDist, found = id, dist, true
		}
	}
	return best, found
}
