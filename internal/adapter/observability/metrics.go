package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of completion attempts by tier, model and outcome",
		},
		[]string{"tier", "model", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Completion attempt duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tier", "model"},
	)
	AIRetryWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_retry_wait_seconds",
			Help:    "Delay scheduled before the next completion attempt",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"tier", "reason"},
	)
	AIModelFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_model_fallbacks_total",
			Help: "Times a tier advanced past a model that was not found",
		},
		[]string{"tier", "from_model"},
	)
	AIPromptTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_prompt_tokens",
			Help:    "Estimated prompt size in tokens",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
		[]string{"stage"},
	)

	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_extractions_total",
			Help: "Document extractions by format and path taken (text, ocr, degraded)",
		},
		[]string{"format", "path"},
	)
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by pipeline stage and result",
		},
		[]string{"stage", "result"},
	)
	OfflineContentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offline_content_total",
			Help: "Content produced without the completion service, by stage",
		},
		[]string{"stage"},
	)

	AnswerScoreHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interview_answer_score",
			Help:    "Distribution of per-answer scores ([0,100])",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"difficulty"},
	)
	SummaryScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_summary_score",
			Help:    "Distribution of overall interview scores ([0,100])",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

var registerOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AIRequestsTotal,
			AIRequestDuration,
			AIRetryWaitSeconds,
			AIModelFallbacksTotal,
			AIPromptTokens,
			ExtractionsTotal,
			CacheLookupsTotal,
			OfflineContentTotal,
			AnswerScoreHistogram,
			SummaryScoreHistogram,
		)
	})
}

// HTTPMetricsMiddleware records request counts and durations per chi route pattern.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveCompletion records one completion attempt.
func ObserveCompletion(tier, model, outcome string, d time.Duration) {
	AIRequestsTotal.WithLabelValues(tier, model, outcome).Inc()
	AIRequestDuration.WithLabelValues(tier, model).Observe(d.Seconds())
}

func ObserveRetryWait(tier, reason string, d time.Duration) {
	AIRetryWaitSeconds.WithLabelValues(tier, reason).Observe(d.Seconds())
}

func ModelFallback(tier, fromModel string) {
	AIModelFallbacksTotal.WithLabelValues(tier, fromModel).Inc()
}

func ObservePromptTokens(stage string, n int) {
	AIPromptTokens.WithLabelValues(stage).Observe(float64(n))
}

func RecordExtraction(format, path string) {
	ExtractionsTotal.WithLabelValues(format, path).Inc()
}

// RecordCacheLookup counts a hit or miss for stage.
func RecordCacheLookup(stage string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(stage, result).Inc()
}

func RecordOfflineContent(stage string) {
	OfflineContentTotal.WithLabelValues(stage).Inc()
}

// ObserveAnswerScore ignores values outside [0,100].
func ObserveAnswerScore(difficulty string, score int) {
	if score >= 0 && score <= 100 {
		AnswerScoreHistogram.WithLabelValues(difficulty).Observe(float64(score))
	}
}

// ObserveSummaryScore ignores values outside [0,100].
func ObserveSummaryScore(score int) {
	if score >= 0 && score <= 100 {
		SummaryScoreHistogram.Observe(float64(score))
	}
}
