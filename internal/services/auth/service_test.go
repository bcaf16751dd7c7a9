package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/redis"
	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
)

func TestIssueAndVerify(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	userID := uuid.New()
	res, err := svc.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := svc.Verify(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != userID {
		t.Fatalf("unexpected account id: got %s want %s", got, userID)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	res, err := svc.Issue(ctx, uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.ValidateAccessToken(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("validate access token before logout: %v", err)
	}

	if err := svc.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, res.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("access token should be unauthorized after logout, got err=%v", err)
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	userID := uuid.New()
	first, err := svc.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := svc.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	if err := svc.LogoutAll(ctx, userID); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	for _, token := range []string{first.AccessToken, second.AccessToken} {
		if _, err := svc.Verify(ctx, token); !errors.Is(err, authsvc.ErrUnauthorized) {
			t.Fatalf("expected unauthorized after logout all, got %v", err)
		}
	}
	if err := svc.LogoutAll(ctx, uuid.Nil); !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("expected invalid input for nil user, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	other := authsvc.NewJWTManager("other-secret", time.Hour)
	token, _, err := other.GenerateAccessToken(uuid.New(), "sid-x")
	if err != nil {
		t.Fatalf("generate foreign token: %v", err)
	}

	if _, err := svc.Verify(context.Background(), token); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := authsvc.HashPassword("secret12!", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := authsvc.CheckPassword(hash, "secret12!"); err != nil {
		t.Fatalf("check valid password: %v", err)
	}
	if err := authsvc.CheckPassword(hash, "secret13!"); !errors.Is(err, authsvc.ErrInvalidPassword) {
		t.Fatalf("expected invalid password, got %v", err)
	}
}

func newAuthServiceForTest(t *testing.T) (*authsvc.Service, func()) {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	repo := redrepo.NewSessionRepo(client)
	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	svc := authsvc.NewService(jwtManager, repo)

	return svc, func() {
		_ = client.Close()
		mini.Close()
	}
}
