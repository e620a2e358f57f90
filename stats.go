package spatial

import (
	"strconv"

	"github.com/tidwall/pretty"
)

// Stats is a point-in-time snapshot of the shape and activity of an Index.
type Stats struct {
	Population int // indexed ids
	Cells      int // cells in the tree, root included
	Leaves     int // cells without children
	MaxDepth   int // deepest cell level
	Splits     int // leaf splits since creation
	Rebuilds   int // full rebuilds since creation
	Queries    int // region queries served
	Nearests   int // nearest searches served
}

// Stats walks the tree and returns current statistics.
func (ix *Index) Stats() Stats {
	var s Stats
	s.Population = ix.Count()
	ix.Walk(func(c *Cell) bool {
		s.Cells++
		if c.IsLeaf() {
			s.Leaves++
		}
		if c.Level() > s.MaxDepth {
			s.MaxDepth = c.Level()
		}
		return true
	})
	s.Splits = int(ix.splits.Load())
	s.Rebuilds = int(ix.rebuilds.Load())
	s.Queries = int(ix.queries.Load())
	s.Nearests = int(ix.nearests.Load())
	return s
}

// JSON returns the stats as a compact JSON document.
func (s Stats) JSON() string {
	dst := []byte{'{'}
	dst = appendStat(dst, "population", s.Population)
	dst = appendStat(dst, "cells", s.Cells)
	dst = appendStat(dst, "leaves", s.Leaves)
	dst = appendStat(dst, "max_depth", s.MaxDepth)
	dst = appendStat(dst, "splits", s.Splits)
	dst = appendStat(dst, "rebuilds", s.Rebuilds)
	dst = appendStat(dst, "queries", s.Queries)
	dst = appendStat(dst, "nearests", s.Nearests)
	dst = append(dst, '}')
	return string(dst)
}

// String returns the stats as indented JSON.
func (s Stats) String() string {
	return string(pretty.Pretty([]byte(s.JSON())))
}

func appendStat(dst []byte, key string, value int) []byte {
	if dst[len(dst)-1] != '{' {
		dst = append(dst, ',')
	}
	dst = append(dst, '"')
	dst = append(dst, key...)
	dst = append(dst, '"', ':')
	dst = strconv.AppendInt(dst, int64(value), 10)
	return dst
}
