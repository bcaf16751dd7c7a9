package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
	discoverysvc "github.com/filsammy/dating-app-whitecloak/internal/services/discovery"
	swipesvc "github.com/filsammy/dating-app-whitecloak/internal/services/swipes"
)

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: uuid.New(),
		SID:    "sid-1",
	}))
}

func TestSwipeRequestValidation(t *testing.T) {
	h := NewMatchesHandler(nil, swipesvc.NewService(swipesvc.Dependencies{}, swipesvc.Config{}), nil, zap.NewNop())
	target := uuid.NewString()

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "liked missing", body: `{"toUserId":"` + target + `"}`, code: "INVALID_LIKED_STATUS"},
		{name: "liked not boolean", body: `{"toUserId":"` + target + `","liked":"yes"}`, code: "INVALID_LIKED_STATUS"},
		{name: "target missing", body: `{"liked":true}`, code: "MISSING_USER_ID"},
		{name: "target malformed", body: `{"toUserId":"abc","liked":true}`, code: "INVALID_ID"},
		{name: "unknown field", body: `{"toUserId":"` + target + `","liked":true,"extra":1}`, code: "INVALID_REQUEST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Swipe(rec, authedRequest(http.MethodPost, "/matches/swipe", []byte(tc.body)))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusBadRequest)
			}
			if body := decodeError(t, rec); body.Code != tc.code {
				t.Fatalf("unexpected code: got %q want %q", body.Code, tc.code)
			}
		})
	}
}

func TestSwipeRequiresIdentity(t *testing.T) {
	h := NewMatchesHandler(nil, swipesvc.NewService(swipesvc.Dependencies{}, swipesvc.Config{}), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Swipe(rec, httptest.NewRequest(http.MethodPost, "/matches/swipe", bytes.NewReader([]byte(`{}`))))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestDiscoverRejectsNonNumericQuery(t *testing.T) {
	h := NewMatchesHandler(discoverysvc.NewService(discoverysvc.Dependencies{}, discoverysvc.Config{}), nil, nil, zap.NewNop())

	for _, query := range []string{"maxDistance=far", "minAge=x", "maxAge=1.5", "limit=ten"} {
		rec := httptest.NewRecorder()
		h.Discover(rec, authedRequest(http.MethodGet, "/matches/discover?"+query, nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: unexpected status %d", query, rec.Code)
		}
		if body := decodeError(t, rec); body.Code != "INVALID_QUERY" {
			t.Fatalf("%s: unexpected code %q", query, body.Code)
		}
	}
}

func TestParseDiscoverQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/matches/discover?maxDistance=0.5&minAge=21&maxAge=30&limit=5", nil)
	q, err := parseDiscoverQuery(req)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.MaxDistanceKM == nil || *q.MaxDistanceKM != 0.5 {
		t.Fatalf("unexpected distance %v", q.MaxDistanceKM)
	}
	if q.MinAge == nil || *q.MinAge != 21 || q.MaxAge == nil || *q.MaxAge != 30 || q.Limit != 5 {
		t.Fatalf("unexpected query %+v", q)
	}

	empty, err := parseDiscoverQuery(httptest.NewRequest(http.MethodGet, "/matches/discover", nil))
	if err != nil || empty.MaxDistanceKM != nil || empty.MinAge != nil || empty.Limit != 0 {
		t.Fatalf("unexpected empty query %+v err=%v", empty, err)
	}
}
