package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/profiles/{userId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/profiles/{userId}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profiles/abc", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/profiles/{userId}", "418"))
	if after-before != 1 {
		t.Fatalf("expected one request recorded, got delta %v", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(swipesTotal.WithLabelValues("matched"))
	IncrementSwipe("matched")
	if got := testutil.ToFloat64(swipesTotal.WithLabelValues("matched")); got-before != 1 {
		t.Fatalf("unexpected swipe counter delta %v", got-before)
	}

	beforeUnmatch := testutil.ToFloat64(unmatchesTotal.WithLabelValues(UnmatchReasonBlock))
	IncrementUnmatches(UnmatchReasonBlock, 0)
	IncrementUnmatches(UnmatchReasonBlock, 2)
	if got := testutil.ToFloat64(unmatchesTotal.WithLabelValues(UnmatchReasonBlock)); got-beforeUnmatch != 2 {
		t.Fatalf("unexpected unmatch counter delta %v", got-beforeUnmatch)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	IncrementMessagesSent()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dating_messages_sent_total") {
		t.Fatalf("metrics output misses messages counter")
	}
}
