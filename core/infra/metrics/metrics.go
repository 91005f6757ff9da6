package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts catalog mutations and observes policy store request latency.
type Metrics interface {
	IncLoads(status string)
	IncSaves(status string)
	IncDeletes(status string)
	ObserveStoreRequest(op, status string, durationSeconds float64)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncLoads(string)                             {}
func (Noop) IncSaves(string)                             {}
func (Noop) IncDeletes(string)                           {}
func (Noop) ObserveStoreRequest(string, string, float64) {}

// Prom implements Metrics backed by Prometheus collectors.
type Prom struct {
	loads         *prometheus.CounterVec
	saves         *prometheus.CounterVec
	deletes       *prometheus.CounterVec
	storeRequests *prometheus.HistogramVec
	once          sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_loads_total",
			Help:      "Catalog load operations by status",
		}, []string{"status"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_saves_total",
			Help:      "Catalog save operations by status",
		}, []string{"status"}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_deletes_total",
			Help:      "Catalog delete operations by status",
		}, []string{"status"}),
		storeRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_request_duration_seconds",
			Help:      "Policy store request latency by operation and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.loads, p.saves, p.deletes, p.storeRequests)
	})
}

func (p *Prom) IncLoads(status string) {
	p.loads.WithLabelValues(status).Inc()
}

func (p *Prom) IncSaves(status string) {
	p.saves.WithLabelValues(status).Inc()
}

func (p *Prom) IncDeletes(status string) {
	p.deletes.WithLabelValues(status).Inc()
}

func (p *Prom) ObserveStoreRequest(op, status string, durationSeconds float64) {
	p.storeRequests.WithLabelValues(op, status).Observe(durationSeconds)
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
