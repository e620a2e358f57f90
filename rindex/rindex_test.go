package rindex

import (
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/geojson/geometry"

	"github.com/tidwall/spatial"
)

func rect(minX, minY, maxX, maxY float64) geometry.Rect {
	return geometry.Rect{
		Min: geometry.Point{X: minX, Y: minY},
		Max: geometry.Point{X: maxX, Y: maxY},
	}
}

func point(x, y float64) geometry.Point {
	return geometry.Point{X: x, Y: y}
}

func fill(layout *spatial.MemLayout, rng *rand.Rand, n int, size float64) []string {
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = "n" + strconv.Itoa(i)
		layout.Set(ids[i], point(rng.Float64()*size, rng.Float64()*size))
	}
	return ids
}

func TestEmpty(t *testing.T) {
	ix := New(&spatial.MemLayout{})
	require.Equal(t, 0, ix.Count())
	require.Equal(t, geometry.Rect{}, ix.Bounds())
	require.Empty(t, ix.Query(rect(0, 0, 100, 100)))
	_, ok := ix.Nearest(50, 50)
	require.False(t, ok)
	require.False(t, ix.Remove("missing"))
}

func TestBasic(t *testing.T) {
	layout := &spatial.MemLayout{}
	layout.Set("a", point(10, 10))
	layout.Set("b", point(90, 90))
	ix := New(layout)
	ix.Insert("a")
	ix.Insert("b")

	require.Equal(t, 2, ix.Count())
	require.Equal(t, rect(10, 10, 90, 90), ix.Bounds())
	require.ElementsMatch(t, []string{"a"}, ix.Query(rect(0, 0, 50, 50)))
	require.ElementsMatch(t, []string{"a", "b"}, ix.Query(rect(0, 0, 100, 100)))
	// exact containment, not leaf candidates
	require.Empty(t, ix.Query(rect(40, 40, 60, 60)))
	// edges are inclusive
	require.ElementsMatch(t, []string{"a"}, ix.Query(rect(10, 10, 10, 10)))

	id, ok := ix.Nearest(20, 20)
	require.True(t, ok)
	require.Equal(t, "a", id)
}

func TestQueryRegion(t *testing.T) {
	layout := &spatial.MemLayout{}
	layout.Set("a", point(10, 10))
	layout.Set("b", point(90, 90))
	ix := New(layout)
	ix.Insert("a")
	ix.Insert("b")

	got := ix.QueryRegion(spatial.Circle{Center: point(10, 10), Radius: 5})
	require.ElementsMatch(t, []string{"a"}, got)
	got = ix.QueryRegion(spatial.Circle{Center: point(50, 50), Radius: 10})
	require.Empty(t, got)
	got = ix.QueryRegion(spatial.Circle{Center: point(50, 50), Radius: 60})
	require.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestInsertMoves(t *testing.T) {
	layout := &spatial.MemLayout{}
	layout.Set("a", point(10, 10))
	ix := New(layout)
	ix.Insert("a")

	// reindexing after a move drops the old entry
	layout.Set("a", point(90, 90))
	ix.Update("a")
	require.Equal(t, 1, ix.Count())
	require.Empty(t, ix.Query(rect(0, 0, 50, 50)))
	require.ElementsMatch(t, []string{"a"}, ix.Query(rect(80, 80, 100, 100)))
}

func TestRemove(t *testing.T) {
	layout := &spatial.MemLayout{}
	layout.Set("a", point(10, 10))
	layout.Set("b", point(90, 90))
	ix := New(layout)
	ix.Insert("a")
	ix.Insert("b")

	require.True(t, ix.Remove("a"))
	require.Equal(t, 1, ix.Count())
	require.Empty(t, ix.Query(rect(0, 0, 50, 50)))
	require.False(t, ix.Remove("a"))

	// removal uses the last indexed position, not the live one
	layout.Set("b", point(10, 10))
	require.True(t, ix.Remove("b"))
	require.Equal(t, 0, ix.Count())
}

func TestRecalculate(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	layout := &spatial.MemLayout{}
	ids := fill(layout, rng, 100, 1000)
	ix := New(layout)
	for _, id := range ids {
		ix.Insert(id)
	}

	for _, id := range ids {
		layout.Set(id, point(rng.Float64()*1000, rng.Float64()*1000))
	}
	ix.Recalculate(layout.Nodes())
	require.Equal(t, 100, ix.Count())
	for _, id := range ids {
		p := layout.Position(id)
		require.Contains(t, ix.Query(rect(p.X, p.Y, p.X, p.Y)), id)
	}

	ix.Recalculate(ids[:25])
	require.Equal(t, 25, ix.Count())
}

func TestQueryOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	layout := &spatial.MemLayout{}
	ids := fill(layout, rng, 500, 1000)
	ix := New(layout)
	for _, id := range ids {
		ix.Insert(id)
	}

	for i := 0; i < 100; i++ {
		x := rng.Float64() * 900
		y := rng.Float64() * 900
		r := rect(x, y, x+rng.Float64()*100, y+rng.Float64()*100)

		var exact []string
		for _, id := range ids {
			if r.ContainsPoint(layout.Position(id)) {
				exact = append(exact, id)
			}
		}
		got := ix.Query(r)
		sort.Strings(exact)
		sort.Strings(got)
		require.Equal(t, exact, got)
	}
}

func TestNearestUnbounded(t *testing.T) {
	// there is no fixed area, so probes far outside the population
	// still resolve
	layout := &spatial.MemLayout{}
	layout.Set("a", point(10, 10))
	ix := New(layout)
	ix.Insert("a")
	id, ok := ix.Nearest(-1000, -1000)
	require.True(t, ok)
	require.Equal(t, "a", id)
}

func TestParityWithQuadtree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	world := rect(0, 0, 1000, 1000)
	layout := &spatial.MemLayout{}
	ids := fill(layout, rng, 300, 1000)

	quad := spatial.New(layout, world).SetCapacity(2)
	flat := New(layout)
	for _, id := range ids {
		quad.Insert(id)
		flat.Insert(id)
	}

	distSq := func(id string, x, y float64) float64 {
		p := layout.Position(id)
		dx, dy := p.X-x, p.Y-y
		return dx*dx + dy*dy
	}

	for i := 0; i < 50; i++ {
		x := rng.Float64() * 900
		y := rng.Float64() * 900
		r := rect(x, y, x+rng.Float64()*100, y+rng.Float64()*100)

		exact := flat.Query(r)
		candidates := quad.Query(r)

		// the quadtree answers with leaf candidates, a superset of the
		// exact result
		set := make(map[string]bool, len(candidates))
		for _, id := range candidates {
			set[id] = true
		}
		for _, id := range exact {
			require.True(t, set[id], "quadtree missed %q", id)
		}

		// filtering candidates by position converges on the same set
		var filtered []string
		for _, id := range candidates {
			if r.ContainsPoint(layout.Position(id)) {
				filtered = append(filtered, id)
			}
		}
		sort.Strings(filtered)
		sort.Strings(exact)
		require.Equal(t, exact, filtered)

		// both report a nearest id at the same distance
		px := rng.Float64() * 1000
		py := rng.Float64() * 1000
		qid, qok := quad.Nearest(px, py)
		fid, fok := flat.Nearest(px, py)
		require.True(t, qok)
		require.True(t, fok)
		require.Equal(t, distSq(fid, px, py), distSq(qid, px, py))
	}
}

func BenchmarkInsert(b *testing.B) {
	rng := rand.New(rand.NewSource(0))
	layout := &spatial.MemLayout{}
	ids := make([]string, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = strconv.Itoa(i)
		layout.Set(ids[i], point(rng.Float64()*1000, rng.Float64()*1000))
	}
	ix := New(layout)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Insert(ids[i])
	}
}

func BenchmarkQuery(b *testing.B) {
	rng := rand.New(rand.NewSource(0))
	layout := &spatial.MemLayout{}
	ids := fill(layout, rng, 10000, 1000)
	ix := New(layout)
	for _, id := range ids {
		ix.Insert(id)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x := float64(i % 900)
		ix.Query(rect(x, x, x+50, x+50))
	}
}

func BenchmarkNearest(b *testing.B) {
	rng := rand.New(rand.NewSource(0))
	layout := &spatial.MemLayout{}
	ids := fill(layout, rng, 10000, 1000)
	ix := New(layout)
	for _, id := range ids {
		ix.Insert(id)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Nearest(float64(i%1000), float64((i*13)%1000))
	}
}
