package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/pqtree/pkg/buildinfo"
)

const namespace = "pqtree"

// Metrics implements every hook interface on top of Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	buildInfo *prometheus.GaugeVec

	scenarioRuns     *prometheus.CounterVec
	scenarioSeconds  prometheus.Histogram
	stepsTotal       *prometheus.CounterVec
	removedNodes     prometheus.Counter
	renderTotal      *prometheus.CounterVec
	renderBytes      *prometheus.CounterVec
	renderSeconds    *prometheus.HistogramVec
	cacheTotal       *prometheus.CounterVec
	cacheBytes       *prometheus.CounterVec
	requestsInFlight prometheus.Gauge
	requestsTotal    *prometheus.CounterVec
	requestSeconds   *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a fresh registry that also carries the
// Go runtime and process collectors.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	f := promauto.With(reg)
	m := &Metrics{
		registry: reg,
		buildInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Which version is running. 1 for the 'version' label with the current version.",
		}, []string{"version", "commit"}),
		scenarioRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "runs_total",
			Help:      "Total number of scenario runs by outcome.",
		}, []string{"outcome"}),
		scenarioSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "duration_seconds",
			Help:      "Duration of complete scenario runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		stepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "steps_total",
			Help:      "Total number of applied operations by op and outcome.",
		}, []string{"op", "outcome"}),
		removedNodes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "removed_nodes_total",
			Help:      "Total number of nodes removed by trim and clean operations.",
		}),
		renderTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "total",
			Help:      "Total number of renders by format and outcome.",
		}, []string{"format", "outcome"}),
		renderBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "bytes_total",
			Help:      "Total size of rendered output by format.",
		}, []string{"format"}),
		renderSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Render duration by format.",
		}, []string{"format"}),
		cacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache lookups and writes by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		requestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Served requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		requestSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency by method and route.",
		}, []string{"method", "route"}),
	}
	m.buildInfo.WithLabelValues(buildinfo.Version, buildinfo.Commit).Set(1)
	return m, nil
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnScenarioStart(context.Context, string, int) {}

func (m *Metrics) OnStep(_ context.Context, op string, removed int, _ time.Duration, err error) {
	m.stepsTotal.WithLabelValues(op, outcome(err)).Inc()
	m.removedNodes.Add(float64(removed))
}

func (m *Metrics) OnScenarioComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	m.scenarioRuns.WithLabelValues(outcome(err)).Inc()
	m.scenarioSeconds.Observe(d.Seconds())
}

func (m *Metrics) OnRenderStart(context.Context, string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	m.renderTotal.WithLabelValues(format, outcome(err)).Inc()
	if err == nil {
		m.renderBytes.WithLabelValues(format).Add(float64(size))
	}
	m.renderSeconds.WithLabelValues(format).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheTotal.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.requestsInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, statusCode int, d time.Duration) {
	m.requestsInFlight.Dec()
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ ScenarioHooks = (*Metrics)(nil)
	_ RenderHooks   = (*Metrics)(nil)
	_ CacheHooks    = (*Metrics)(nil)
	_ HTTPHooks     = (*Metrics)(nil)
)
