package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCollector_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("labinsight", reg)

	c.AnalysesTotal.WithLabelValues("ok").Inc()
	c.ResultsTotal.WithLabelValues("Crit High").Add(2)

	if got := testutil.ToFloat64(c.AnalysesTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("analyses_total{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ResultsTotal.WithLabelValues("Crit High")); got != 2 {
		t.Errorf("results_total{Crit High} = %v, want 2", got)
	}

	// A second collector on its own registry must not collide.
	_ = NewCollector("labinsight", prometheus.NewRegistry())
}

func TestCollector_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("labinsight", reg)
	c.ReferenceLoadFailures.Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "labinsight_reference_load_failures_total 1") {
		t.Errorf("metrics output missing reference failure counter:\n%s", body)
	}
}
