package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, tx pgx.Tx, email, passwordHash string, now time.Time) (model.Account, error) {
	if tx == nil {
		return model.Account{}, fmt.Errorf("transaction is required")
	}
	if strings.TrimSpace(email) == "" || passwordHash == "" {
		return model.Account{}, fmt.Errorf("invalid account payload")
	}

	var acc model.Account
	err := tx.QueryRow(ctx, `
INSERT INTO accounts (id, email, password_hash, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id, email, password_hash, created_at
`, uuid.New(), strings.ToLower(strings.TrimSpace(email)), passwordHash, now.UTC()).Scan(
		&acc.ID,
		&acc.Email,
		&acc.PasswordHash,
		&acc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, ErrEmailTaken
		}
		return model.Account{}, fmt.Errorf("create account: %w", err)
	}

	return acc, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, tx pgx.Tx, email string) (model.Account, error) {
	if tx == nil {
		return model.Account{}, fmt.Errorf("transaction is required")
	}

	var acc model.Account
	err := tx.QueryRow(ctx, `
SELECT id, email, password_hash, created_at
FROM accounts
WHERE LOWER(email) = LOWER($1)
`, strings.TrimSpace(email)).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("get account by email: %w", err)
	}

	return acc, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (model.Account, error) {
	if tx == nil {
		return model.Account{}, fmt.Errorf("transaction is required")
	}

	var acc model.Account
	err := tx.QueryRow(ctx, `
SELECT id, email, password_hash, created_at
FROM accounts
WHERE id = $1
`, id).Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("get account by id: %w", err)
	}

	return acc, nil
}

func (r *AccountRepo) Exists(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)
`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return exists, nil
}
