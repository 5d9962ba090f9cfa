package observability

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MetricsRegistry holds all registered metrics.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	histos   map[string]*Histogram
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name   string
	help   string
	labels map[string]string
	value  float64
	mu     sync.Mutex
}

// Gauge is a metric that can go up or down.
type Gauge struct {
	name   string
	help   string
	labels map[string]string
	value  float64
	mu     sync.Mutex
}

// Histogram tracks distribution of values.
type Histogram struct {
	name    string
	help    string
	labels  map[string]string
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
	mu      sync.Mutex
}

// NewMetricsRegistry creates a new metrics registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		histos:   make(map[string]*Histogram),
	}
}

// NewCounter creates and registers a counter.
func (r *MetricsRegistry) NewCounter(name, help string, labels map[string]string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Counter{name: name, help: help, labels: labels}
	r.counters[name] = c
	return c
}

// NewGauge creates and registers a gauge.
func (r *MetricsRegistry) NewGauge(name, help string, labels map[string]string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &Gauge{name: name, help: help, labels: labels}
	r.gauges[name] = g
	return g
}

// NewHistogram creates and registers a histogram.
func (r *MetricsRegistry) NewHistogram(name, help string, labels map[string]string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	if buckets == nil {
		buckets = DefaultBuckets()
	}

	h := &Histogram{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
	r.histos[name] = h
	return h
}

// DefaultBuckets returns default histogram buckets for latency.
func DefaultBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
}

// Inc increments a counter by 1.
func (c *Counter) Inc() {
	c.Add(1)
}

// Add adds a value to the counter.
func (c *Counter) Add(v float64) {
	c.mu.Lock()
	c.value += v
	c.mu.Unlock()
}

// Value returns the counter value.
func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set sets the gauge value.
func (g *Gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() {
	g.Add(1)
}

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() {
	g.Add(-1)
}

// Add adds a value to the gauge.
func (g *Gauge) Add(v float64) {
	g.mu.Lock()
	g.value += v
	g.mu.Unlock()
}

// Value returns the gauge value.
func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += v
	h.count++

	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i]++
		}
	}
}

// ObserveDuration records a duration in the histogram.
func (h *Histogram) ObserveDuration(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Handler returns an HTTP handler for Prometheus metrics.
func (r *MetricsRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WritePrometheus(w)
	})
}

// WritePrometheus writes metrics in Prometheus text format.
func (r *MetricsRegistry) WritePrometheus(w http.ResponseWriter) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		c.mu.Lock()
		writeMetric(w, c.name, "counter", c.help, c.labels, c.value)
		c.mu.Unlock()
	}

	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		g.mu.Lock()
		writeMetric(w, g.name, "gauge", g.help, g.labels, g.value)
		g.mu.Unlock()
	}

	for _, name := range sortedKeys(r.histos) {
		h := r.histos[name]
		h.mu.Lock()
		writeHistogram(w, h)
		h.mu.Unlock()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMetric(w http.ResponseWriter, name, metricType, help string, labels map[string]string, value float64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, metricType)
	fmt.Fprintf(w, "%s%s %s\n", name, formatLabels(labels), formatFloat(value))
}

func writeHistogram(w http.ResponseWriter, h *Histogram) {
	fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help)
	fmt.Fprintf(w, "# TYPE %s histogram\n", h.name)

	var cumulative uint64
	for i, bound := range h.buckets {
		cumulative += h.counts[i]
		labels := copyLabels(h.labels)
		labels["le"] = formatFloat(bound)
		fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, formatLabels(labels), cumulative)
	}

	labels := copyLabels(h.labels)
	labels["le"] = "+Inf"
	fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, formatLabels(labels), h.count)

	fmt.Fprintf(w, "%s_sum%s %s\n", h.name, formatLabels(h.labels), formatFloat(h.sum))
	fmt.Fprintf(w, "%s_count%s %d\n", h.name, formatLabels(h.labels), h.count)
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	result := "{"
	for i, k := range sortedKeys(labels) {
		if i > 0 {
			result += ","
		}
		result += k + "=\"" + labels[k] + "\""
	}
	return result + "}"
}

func copyLabels(labels map[string]string) map[string]string {
	result := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		result[k] = v
	}
	return result
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Depscope-specific metrics

// DepscopeMetrics contains all depscope-specific metrics.
type DepscopeMetrics struct {
	Registry *MetricsRegistry

	// Analysis run metrics
	RunsTotal       *Counter
	RunErrorsTotal  *Counter
	RunDuration     *Histogram
	GraphNodesGauge *Gauge
	GraphEdgesGauge *Gauge

	// Finding metrics
	CyclesFound     *Counter
	SCCsFound       *Counter
	DuplicatesFound *Counter
	ConflictsFound  *Counter

	// Persistence metrics
	GraphStoresTotal      *Counter
	GraphStoreErrorsTotal *Counter
	GraphStoreDuration    *Histogram

	// Active workflow gauge
	ActiveAnalyses *Gauge
}

// NewDepscopeMetrics creates depscope-specific metrics.
func NewDepscopeMetrics() *DepscopeMetrics {
	r := NewMetricsRegistry()

	return &DepscopeMetrics{
		Registry: r,

		RunsTotal:       r.NewCounter("depscope_runs_total", "Total analysis runs", nil),
		RunErrorsTotal:  r.NewCounter("depscope_run_errors_total", "Total failed analysis runs", nil),
		RunDuration:     r.NewHistogram("depscope_run_duration_seconds", "Analysis run duration", nil, nil),
		GraphNodesGauge: r.NewGauge("depscope_graph_nodes", "Node count of the last analyzed graph", nil),
		GraphEdgesGauge: r.NewGauge("depscope_graph_edges", "Edge count of the last analyzed graph", nil),

		CyclesFound:     r.NewCounter("depscope_cycles_found_total", "Total cycles reported", nil),
		SCCsFound:       r.NewCounter("depscope_sccs_found_total", "Total strongly connected components reported", nil),
		DuplicatesFound: r.NewCounter("depscope_duplicates_found_total", "Total duplicate package groups reported", nil),
		ConflictsFound:  r.NewCounter("depscope_conflicts_found_total", "Total version conflicts reported", nil),

		GraphStoresTotal:      r.NewCounter("depscope_graph_stores_total", "Total graph persistence operations", nil),
		GraphStoreErrorsTotal: r.NewCounter("depscope_graph_store_errors_total", "Failed graph persistence operations", nil),
		GraphStoreDuration:    r.NewHistogram("depscope_graph_store_duration_seconds", "Graph persistence duration", nil, nil),

		ActiveAnalyses: r.NewGauge("depscope_active_analyses", "Number of analyses in flight", nil),
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *DepscopeMetrics) Handler() http.Handler {
	return m.Registry.Handler()
}

// RecordRun records a completed analysis run.
func (m *DepscopeMetrics) RecordRun(duration time.Duration, nodes, edges int, err error) {
	m.RunsTotal.Inc()
	m.RunDuration.Observe(duration.Seconds())
	if err != nil {
		m.RunErrorsTotal.Inc()
		return
	}
	m.GraphNodesGauge.Set(float64(nodes))
	m.GraphEdgesGauge.Set(float64(edges))
}

// RecordFindings records per-analyzer finding counts.
func (m *DepscopeMetrics) RecordFindings(cycles, sccs, duplicates, conflicts int) {
	m.CyclesFound.Add(float64(cycles))
	m.SCCsFound.Add(float64(sccs))
	m.DuplicatesFound.Add(float64(duplicates))
	m.ConflictsFound.Add(float64(conflicts))
}

// RecordGraphStore records a graph persistence operation.
func (m *DepscopeMetrics) RecordGraphStore(duration time.Duration, err error) {
	m.GraphStoresTotal.Inc()
	m.GraphStoreDuration.Observe(duration.Seconds())
	if err != nil {
		m.GraphStoreErrorsTotal.Inc()
	}
}

// Global metrics instance
var globalMetrics *DepscopeMetrics
var metricsOnce sync.Once

// Metrics returns the global metrics instance.
func Metrics() *DepscopeMetrics {
	metricsOnce.Do(func() {
		globalMetrics = NewDepscopeMetrics()
	})
	return globalMetrics
}
