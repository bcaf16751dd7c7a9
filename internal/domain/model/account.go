package model

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BlockedAccount is one entry of an account's directed block list.
type BlockedAccount struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	BlockedAt time.Time `json:"blockedAt"`
}
