package spatial

import (
	"github.com/prometheus/client_golang/prometheus"
)

var metricDescriptions = map[string]*prometheus.Desc{
	"population": prometheus.NewDesc("spatial_population", "Number of indexed ids", nil, nil),
	"cells":      prometheus.NewDesc("spatial_cells", "Number of cells in the tree", nil, nil),
	"leaves":     prometheus.NewDesc("spatial_leaves", "Number of leaf cells", nil, nil),
	"max_depth":  prometheus.NewDesc("spatial_max_depth", "Deepest cell level", nil, nil),
	"splits":     prometheus.NewDesc("spatial_splits_total", "Leaf splits since creation", nil, nil),
	"rebuilds":   prometheus.NewDesc("spatial_rebuilds_total", "Full rebuilds since creation", nil, nil),
	"queries":    prometheus.NewDesc("spatial_queries_total", "Region queries served", nil, nil),
	"nearests":   prometheus.NewDesc("spatial_nearests_total", "Nearest searches served", nil, nil),
}

// counterMetrics are the descriptions exported with a counter type. The
// rest are gauges.
var counterMetrics = map[string]bool{
	"splits":   true,
	"rebuilds": true,
	"queries":  true,
	"nearests": true,
}

// Collector exports index statistics in the prometheus format. Stats are
// gathered at scrape time.
type Collector struct {
	ix *Index
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a prometheus collector reading from ix.
func NewCollector(ix *Index) *Collector {
	return &Collector{ix: ix}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range metricDescriptions {
		ch <- desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.ix.Stats()
	m := map[string]int{
		"population": s.Population,
		"cells":      s.Cells,
		"leaves":     s.Leaves,
		"max_depth":  s.MaxDepth,
		"splits":     s.Splits,
		"rebuilds":   s.Rebuilds,
		"queries":    s.Queries,
		"nearests":   s.Nearests,
	}
	for metric, descr := range metricDescriptions {
		vtype := prometheus.GaugeValue
		if counterMetrics[metric] {
			vtype = prometheus.CounterValue
		}
		ch <- prometheus.MustNewConstMetric(descr, vtype, float64(m[metric]))
	}
}
