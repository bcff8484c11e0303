package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestSetupMetricsRoute_ReturnsHandler はメトリクスルートのハンドラーが正常に返ることを検証する。
func TestSetupMetricsRoute_ReturnsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewCollector(reg)

	handler := SetupMetricsRoute(reg)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}
}

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordMagicLinkIssued()
	c.RecordHTTPStatus(http.StatusOK)
	c.RecordRequestLatency(http.MethodGet, "/api/programs", 25*time.Millisecond)
	c.RecordAIRequest("plan")
	c.RecordRateLimited("ai")

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	for _, want := range []string{
		"abroadly_magic_link_issued_total",
		"abroadly_http_status_total",
		"abroadly_request_latency_seconds",
		"abroadly_ai_requests_total",
		"abroadly_rate_limited_total",
	} {
		if !strings.Contains(bodyStr, want) {
			t.Errorf("response should contain %s metric", want)
		}
	}
}
