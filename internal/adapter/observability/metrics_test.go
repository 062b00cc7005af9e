package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsMiddleware_Basic(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	mw := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(204) }))
	mw.ServeHTTP(rec, r)
	if rec.Result().StatusCode != 204 {
		t.Fatalf("want 204")
	}
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/x", "GET", "No Content")); got < 1 {
		t.Fatalf("expected request counted, got %v", got)
	}
}

func TestInitMetrics_Idempotent(t *testing.T) {
	InitMetrics()
	InitMetrics()
}

func TestPipelineMetricHelpers(t *testing.T) {
	ObserveCompletion("fast", "m", "ok", 10*time.Millisecond)
	ObserveRetryWait("fast", "rate_limited", 2*time.Second)
	ModelFallback("deep", "gone-model")
	ObservePromptTokens("questions", 512)
	RecordExtraction("pdf", "ocr")
	RecordOfflineContent("score")

	before := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("questions", "hit"))
	RecordCacheLookup("questions", true)
	RecordCacheLookup("questions", false)
	if got := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("questions", "hit")); got != before+1 {
		t.Fatalf("hit counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(AIRequestsTotal.WithLabelValues("fast", "m", "ok")); got < 1 {
		t.Fatalf("completion not counted")
	}
	if got := testutil.ToFloat64(AIModelFallbacksTotal.WithLabelValues("deep", "gone-model")); got < 1 {
		t.Fatalf("fallback not counted")
	}

	ObserveAnswerScore("easy", 85)
	ObserveAnswerScore("easy", 101)
	ObserveSummaryScore(-1)
	ObserveSummaryScore(77)
}
