package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func withTestRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	origReg := prometheus.DefaultRegisterer
	origGather := prometheus.DefaultGatherer
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGather
	})
	return reg
}

func TestNoopMetrics(t *testing.T) {
	var m Noop
	m.IncLoads("ok")
	m.IncSaves("error")
	m.IncDeletes("ok")
	m.ObserveStoreRequest("list", "ok", 0.01)
}

func TestPromMetrics(t *testing.T) {
	reg := withTestRegistry(t)
	m := NewProm("sentineliam")
	m.IncLoads("ok")
	m.IncSaves("error")
	m.IncDeletes("ok")
	m.ObserveStoreRequest("patch", "ok", 0.02)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if !hasMetric(families, "sentineliam_catalog_loads_total", map[string]string{"status": "ok"}) {
		t.Fatalf("expected catalog_loads metric")
	}
	if !hasMetric(families, "sentineliam_catalog_saves_total", map[string]string{"status": "error"}) {
		t.Fatalf("expected catalog_saves metric")
	}
	if !hasMetric(families, "sentineliam_catalog_deletes_total", map[string]string{"status": "ok"}) {
		t.Fatalf("expected catalog_deletes metric")
	}
	if !hasMetric(families, "sentineliam_store_request_duration_seconds", map[string]string{"op": "patch", "status": "ok"}) {
		t.Fatalf("expected store_request_duration metric")
	}
}

func TestHandler(t *testing.T) {
	withTestRegistry(t)
	m := NewProm("sentineliam")
	m.IncLoads("ok")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected metrics output")
	}
}

func hasMetric(families []*dto.MetricFamily, name string, labels map[string]string) bool {
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if matchLabels(metric.GetLabel(), labels) {
				return true
			}
		}
	}
	return false
}

func matchLabels(pairs []*dto.LabelPair, labels map[string]string) bool {
	if len(labels) == 0 {
		return true
	}
	found := 0
	for _, pair := range pairs {
		if val, ok := labels[pair.GetName()]; ok && pair.GetValue() == val {
			found++
		}
	}
	return found == len(labels)
}
