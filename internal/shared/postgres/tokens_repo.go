package postgres

import (
	"context"
	"time"

	"dinesync/internal/ports"
)

// TokensRepo implements persistence for issued table auth tokens.
type TokensRepo struct{}

// NewTokensRepo constructs a new TokensRepo.
func NewTokensRepo() ports.TokenRepository {
	return &TokensRepo{}
}

// DeleteExpired removes the table's tokens whose expiry has passed. Called
// on each issue; there is no background sweep.
func (r *TokensRepo) DeleteExpired(ctx context.Context, tableNumber int, now time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM table_auth
		WHERE table_number = $1 AND expires_at < $2
	`, tableNumber, now)
	return err
}

// StoreToken records a freshly issued token.
func (r *TokensRepo) StoreToken(ctx context.Context, tableNumber int, token string, issuedAt, expiresAt time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO table_auth (table_number, auth_token, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, tableNumber, token, issuedAt, expiresAt)
	return err
}
