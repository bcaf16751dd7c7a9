package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	jwt      *JWTManager
	sessions SessionStore
	now      func() time.Time
}

func NewService(jwtManager *JWTManager, sessions SessionStore) *Service {
	return &Service{
		jwt:      jwtManager,
		sessions: sessions,
		now:      time.Now,
	}
}

// Issue opens a session for userID and signs an access token bound to it.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID) (AuthResult, error) {
	if userID == uuid.Nil {
		return AuthResult{}, ErrInvalidInput
	}
	if s.jwt == nil || s.sessions == nil {
		return AuthResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	sid := uuid.NewString()
	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(userID, sid)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	if err := s.sessions.Create(ctx, SessionRecord{
		SID:       sid,
		UserID:    userID,
		ExpiresAt: accessExpires,
	}); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		AccessExpires: accessExpires,
		UserID:        userID,
	}, nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	if s.jwt == nil || s.sessions == nil {
		return AccessClaims{}, fmt.Errorf("auth dependencies are not configured")
	}

	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrUnauthorized) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != claims.UserID {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

// Verify resolves a bearer token to the account it was issued for.
func (s *Service) Verify(ctx context.Context, accessToken string) (uuid.UUID, error) {
	claims, err := s.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}
