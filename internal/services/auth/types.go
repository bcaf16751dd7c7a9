package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidPassword = errors.New("invalid password")
)

type SessionRecord struct {
	SID       string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    uuid.UUID
	SID       string
	ExpiresAt time.Time
}

type AuthResult struct {
	AccessToken   string
	AccessExpires time.Time
	UserID        uuid.UUID
}
