// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	UnmatchReasonUnmatch = "unmatch"
	UnmatchReasonBlock   = "block"

	RelayOutcomeDelivered = "delivered"
	RelayOutcomeDropped   = "dropped"
	RelayOutcomeFailed    = "failed"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dating_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dating_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dating_swipes_total",
			Help: "Recorded swipes by result",
		},
		[]string{"result"},
	)

	matchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dating_matches_created_total",
			Help: "Matches created on reciprocal likes",
		},
	)

	unmatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dating_unmatches_total",
			Help: "Matches dissolved by reason",
		},
		[]string{"reason"},
	)

	messagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dating_messages_sent_total",
			Help: "Messages admitted by the conversation gate",
		},
	)

	relayEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dating_relay_events_total",
			Help: "Realtime relay events by outcome",
		},
		[]string{"outcome"},
	)

	expiredSkipsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dating_expired_skips_swept_total",
			Help: "Expired skip records removed by the sweeper",
		},
	)
)

func IncrementSwipe(result string) {
	swipesTotal.WithLabelValues(result).Inc()
}

func IncrementMatchesCreated() {
	matchesCreatedTotal.Inc()
}

func IncrementUnmatches(reason string, n int) {
	if n <= 0 {
		return
	}
	unmatchesTotal.WithLabelValues(reason).Add(float64(n))
}

func IncrementMessagesSent() {
	messagesSentTotal.Inc()
}

func IncrementRelayEvent(outcome string) {
	relayEventsTotal.WithLabelValues(outcome).Inc()
}

func AddExpiredSkipsSwept(n int64) {
	if n <= 0 {
		return
	}
	expiredSkipsSweptTotal.Add(float64(n))
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request totals and durations keyed by the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
