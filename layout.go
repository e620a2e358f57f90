package spatial

import (
	"sync"

	"github.com/tidwall/btree"
	"github.com/tidwall/geojson/geometry"
)

// MemLayout is an in-memory Layout backed by an ordered map. The zero
// value is empty and ready to use. It is safe for concurrent use, so a
// mover thread can reposition nodes while the index reads them.
type MemLayout struct {
	mu  sync.RWMutex
	pts btree.Map[string, geometry.Point]
}

// Set places id at p, adding the id when it is new.
func (l *MemLayout) Set(id string, p geometry.Point) {
	l.mu.Lock()
	l.pts.Set(id, p)
	l.mu.Unlock()
}

// Move offsets the position of id by (dx, dy). Unknown ids are ignored.
func (l *MemLayout) Move(id string, dx, dy float64) {
	l.mu.Lock()
	if p, ok := l.pts.Get(id); ok {
		l.pts.Set(id, geometry.Point{X: p.X + dx, Y: p.Y + dy})
	}
	l.mu.Unlock()
}

// Delete removes id from the layout.
func (l *MemLayout) Delete(id string) {
	l.mu.Lock()
	l.pts.Delete(id)
	l.mu.Unlock()
}

// Position returns the coordinates of id. Ids the layout has never seen
// sit at the origin.
func (l *MemLayout) Position(id string) geometry.Point {
	l.mu.RLock()
	p, _ := l.pts.Get(id)
	l.mu.RUnlock()
	return p
}

// Nodes returns every id in sorted order.
func (l *MemLayout) Nodes() []string {
	l.mu.RLock()
	ids := l.pts.Keys()
	l.mu.RUnlock()
	return ids
}

// Len returns the number of ids in the layout.
func (l *MemLayout) Len() int {
	l.mu.RLock()
	n := l.pts.Len()
	l.mu.RUnlock()
	return n
}
