package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	redrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/redis"
	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
)

func newAuthService(t *testing.T) *authsvc.Service {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return authsvc.NewService(authsvc.NewJWTManager("test-secret", time.Hour), redrepo.NewSessionRepo(client))
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	mw := AuthMiddleware(newAuthService(t), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/matches", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without a token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	mw := AuthMiddleware(newAuthService(t), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/matches", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called on invalid token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareInjectsIdentity(t *testing.T) {
	svc := newAuthService(t)
	userID := uuid.New()
	issued, err := svc.Issue(context.Background(), userID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/matches", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	rr := httptest.NewRecorder()

	var got authsvc.Identity
	AuthMiddleware(svc, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("identity missing from context")
		}
		got = identity
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
	if got.UserID != userID || got.SID == "" {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		in    string
		token string
		ok    bool
	}{
		{in: "Bearer abc", token: "abc", ok: true},
		{in: "bearer abc", token: "abc", ok: true},
		{in: "Basic abc", ok: false},
		{in: "Bearer ", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range tests {
		token, ok := extractBearerToken(tc.in)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("extractBearerToken(%q) = %q, %v", tc.in, token, ok)
		}
	}
}
