package auth

import (
	"context"

	"github.com/google/uuid"
)

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

// Identity is what the HTTP layer learns from a verified bearer token.
// Handlers read it once and pass the account id explicitly to services.
type Identity struct {
	UserID uuid.UUID
	SID    string
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
