package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
)

const minPasswordLength = 8

var (
	ErrInvalidEmail       = errs.New(errs.KindValidation, "INVALID_EMAIL", "invalid email address")
	ErrMissingPassword    = errs.New(errs.KindValidation, "MISSING_PASSWORD", "password is required")
	ErrInvalidPassword    = errs.New(errs.KindValidation, "INVALID_PASSWORD", `password must be at least 8 characters, include letters, numbers, and one special character ("!" or "$")`)
	ErrEmailExists        = errs.New(errs.KindConflict, "EMAIL_EXISTS", "email already in use")
	ErrEmailNotFound      = errs.New(errs.KindNotFound, "EMAIL_NOT_FOUND", "email not found")
	ErrInvalidCredentials = errs.New(errs.KindUnauthorized, "INVALID_CREDENTIALS", "email and password do not match")
	ErrUserNotFound       = errs.New(errs.KindNotFound, "USER_NOT_FOUND", "user not found")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type AccountStore interface {
	Create(ctx context.Context, tx pgx.Tx, email, passwordHash string, now time.Time) (model.Account, error)
	GetByEmail(ctx context.Context, tx pgx.Tx, email string) (model.Account, error)
	GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (model.Account, error)
}

type TokenIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID) (authsvc.AuthResult, error)
}

type Config struct {
	BcryptCost int
}

type Dependencies struct {
	Tx       TxRunner
	Accounts AccountStore
	Tokens   TokenIssuer
}

type Service struct {
	tx       TxRunner
	accounts AccountStore
	tokens   TokenIssuer
	cfg      Config
	now      func() time.Time
}

type Registration struct {
	Account     model.Account
	AccessToken string
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 10
	}

	return &Service{
		tx:       deps.Tx,
		accounts: deps.Accounts,
		tokens:   deps.Tokens,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (Registration, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return Registration{}, ErrInvalidEmail
	}
	if password == "" {
		return Registration{}, ErrMissingPassword
	}
	if !ValidPassword(password) {
		return Registration{}, ErrInvalidPassword
	}
	if err := s.ready(); err != nil {
		return Registration{}, err
	}

	hash, err := authsvc.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return Registration{}, err
	}

	var account model.Account
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		created, err := s.accounts.Create(txCtx, tx, email, hash, s.now().UTC())
		if err != nil {
			if errors.Is(err, pgrepo.ErrEmailTaken) {
				return ErrEmailExists
			}
			return err
		}
		account = created
		return nil
	}); err != nil {
		return Registration{}, err
	}

	issued, err := s.tokens.Issue(ctx, account.ID)
	if err != nil {
		return Registration{}, fmt.Errorf("issue access token: %w", err)
	}

	return Registration{Account: account, AccessToken: issued.AccessToken}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return "", ErrInvalidEmail
	}
	if err := s.ready(); err != nil {
		return "", err
	}

	var account model.Account
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		found, err := s.accounts.GetByEmail(txCtx, tx, email)
		if err != nil {
			if errors.Is(err, pgrepo.ErrAccountNotFound) {
				return ErrEmailNotFound
			}
			return err
		}
		account = found
		return nil
	}); err != nil {
		return "", err
	}

	if err := authsvc.CheckPassword(account.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	issued, err := s.tokens.Issue(ctx, account.ID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return issued.AccessToken, nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (model.Account, error) {
	if userID == uuid.Nil {
		return model.Account{}, errs.ErrUnauthorized
	}
	if err := s.ready(); err != nil {
		return model.Account{}, err
	}

	var account model.Account
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		found, err := s.accounts.GetByID(txCtx, tx, userID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrAccountNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		account = found
		return nil
	}); err != nil {
		return model.Account{}, err
	}

	account.PasswordHash = ""
	return account, nil
}

func (s *Service) ready() error {
	if s.tx == nil || s.accounts == nil || s.tokens == nil {
		return fmt.Errorf("account dependencies are not configured")
	}
	return nil
}

// ValidPassword accepts 8+ characters drawn from letters, digits, '!' and '$'
// containing at least one of each class.
func ValidPassword(password string) bool {
	if len(password) < minPasswordLength {
		return false
	}

	var hasLetter, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '!' || r == '$':
			hasSpecial = true
		default:
			return false
		}
	}
	return hasLetter && hasDigit && hasSpecial
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}
