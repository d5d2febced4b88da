package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.GatewayRequest("list", 200, 15*time.Millisecond)
	m.GatewayFailure("get", "service")
	m.CacheLookup("list", "hit")
	m.CacheLookup("list", "hit")
	m.CacheInvalidated("counterparty")
	m.BackgroundRefresh("failed")
	m.SnapshotsPruned(3)
	m.SnapshotsPruned(0)
	m.FormSubmitted("create", "succeeded")

	if got := testutil.ToFloat64(m.CacheReads.WithLabelValues("list", "hit")); got != 2 {
		t.Fatalf("expected 2 cache hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.GatewayRequests.WithLabelValues("list", "200")); got != 1 {
		t.Fatalf("expected 1 gateway request, got %v", got)
	}
	if got := testutil.ToFloat64(m.SnapshotsRemoved); got != 3 {
		t.Fatalf("expected 3 pruned snapshots, got %v", got)
	}
	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("create", "succeeded")); got != 1 {
		t.Fatalf("expected 1 submission, got %v", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewWithoutRegistryDoesNotCollide(t *testing.T) {
	a := New(nil)
	b := New(nil)

	if a.Registry() == b.Registry() {
		t.Fatalf("expected private registries")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New(nil)
	m.CacheLookup("detail", "miss")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `txnctl_cache_reads_total{query="detail",result="miss"} 1`) {
		t.Fatalf("expected cache read sample, got:\n%s", body)
	}
}
