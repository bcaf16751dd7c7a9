package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
	blocksvc "github.com/filsammy/dating-app-whitecloak/internal/services/blocks"
)

type txStub struct{}

func (txStub) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return fn(ctx, nil)
}

type blockWorld struct {
	accounts map[uuid.UUID]bool
	blocks   map[[2]uuid.UUID]bool
}

func (w *blockWorld) Exists(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	return w.accounts[id], nil
}

func (w *blockWorld) Insert(_ context.Context, _ pgx.Tx, actorID, targetID uuid.UUID) (bool, error) {
	key := [2]uuid.UUID{actorID, targetID}
	if w.blocks[key] {
		return false, nil
	}
	w.blocks[key] = true
	return true, nil
}

func (w *blockWorld) Delete(_ context.Context, _ pgx.Tx, actorID, targetID uuid.UUID) (bool, error) {
	key := [2]uuid.UUID{actorID, targetID}
	if !w.blocks[key] {
		return false, nil
	}
	delete(w.blocks, key)
	return true, nil
}

func (w *blockWorld) ExistsEither(_ context.Context, _ pgx.Tx, a, b uuid.UUID) (bool, error) {
	return w.blocks[[2]uuid.UUID{a, b}] || w.blocks[[2]uuid.UUID{b, a}], nil
}

func (w *blockWorld) ListByActor(_ context.Context, _ pgx.Tx, actorID uuid.UUID) ([]model.BlockedAccount, error) {
	out := make([]model.BlockedAccount, 0)
	for key := range w.blocks {
		if key[0] == actorID {
			out = append(out, model.BlockedAccount{ID: key[1]})
		}
	}
	return out, nil
}

func (w *blockWorld) LockPair(context.Context, pgx.Tx, uuid.UUID, uuid.UUID) error { return nil }

func (w *blockWorld) DeleteBetween(context.Context, pgx.Tx, uuid.UUID, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (w *blockWorld) DeleteByMatchIDs(context.Context, pgx.Tx, []uuid.UUID) (int64, error) {
	return 0, nil
}

func newBlocksRouter(actor uuid.UUID, w *blockWorld) http.Handler {
	svc := blocksvc.NewService(blocksvc.Dependencies{
		Tx:       txStub{},
		Accounts: w,
		Blocks:   w,
		Swipes:   w,
		Messages: w,
	})
	h := NewBlocksHandler(svc, zap.NewNop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			ctx := authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: actor, SID: "sid"})
			next.ServeHTTP(rw, req.WithContext(ctx))
		})
	})
	r.Post("/users/block", h.Block)
	r.Post("/users/unblock", h.Unblock)
	r.Get("/users/blocked", h.List)
	return r
}

func TestBlockUnblockFlow(t *testing.T) {
	actor, target := uuid.New(), uuid.New()
	w := &blockWorld{
		accounts: map[uuid.UUID]bool{actor: true, target: true},
		blocks:   map[[2]uuid.UUID]bool{},
	}
	router := newBlocksRouter(actor, w)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}
	body := `{"targetUserId":"` + target.String() + `"}`

	rec := do(http.MethodPost, "/users/block", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("block: unexpected status %d body=%s", rec.Code, rec.Body.String())
	}
	var blocked struct {
		BlockedUserID uuid.UUID `json:"blockedUserId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &blocked); err != nil || blocked.BlockedUserID != target {
		t.Fatalf("unexpected block body %s", rec.Body.String())
	}

	if rec := do(http.MethodPost, "/users/block", body); decodeError(t, rec).Code != "ALREADY_BLOCKED" {
		t.Fatalf("expected ALREADY_BLOCKED on repeat")
	}

	rec = do(http.MethodGet, "/users/blocked", "")
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || list.Count != 1 {
		t.Fatalf("unexpected list body %s", rec.Body.String())
	}

	if rec := do(http.MethodPost, "/users/unblock", body); rec.Code != http.StatusOK {
		t.Fatalf("unblock: unexpected status %d", rec.Code)
	}
	if rec := do(http.MethodPost, "/users/unblock", body); decodeError(t, rec).Code != "NOT_BLOCKED" {
		t.Fatalf("expected NOT_BLOCKED on repeat")
	}
}

func TestBlockValidation(t *testing.T) {
	actor := uuid.New()
	w := &blockWorld{accounts: map[uuid.UUID]bool{actor: true}, blocks: map[[2]uuid.UUID]bool{}}
	router := newBlocksRouter(actor, w)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "missing target", body: `{}`, status: http.StatusBadRequest, code: "MISSING_FIELDS"},
		{name: "self", body: `{"targetUserId":"` + actor.String() + `"}`, status: http.StatusBadRequest, code: "INVALID_ACTION"},
		{name: "unknown user", body: `{"targetUserId":"` + uuid.NewString() + `"}`, status: http.StatusNotFound, code: "USER_NOT_FOUND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/block", strings.NewReader(tc.body)))
			if rec.Code != tc.status {
				t.Fatalf("unexpected status: got %d want %d", rec.Code, tc.status)
			}
			if body := decodeError(t, rec); body.Code != tc.code {
				t.Fatalf("unexpected code: got %q want %q", body.Code, tc.code)
			}
		})
	}
}
