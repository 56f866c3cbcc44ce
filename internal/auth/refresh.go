package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRefreshTokenInvalid = errors.New("refresh token invalid or expired")

// RefreshTokenStore keeps opaque refresh tokens in Postgres so they can be
// revoked server-side, unlike the stateless access tokens.
type RefreshTokenStore struct {
	pool *pgxpool.Pool
}

func NewRefreshTokenStore(pool *pgxpool.Pool) *RefreshTokenStore {
	return &RefreshTokenStore{pool: pool}
}

// Issue mints a new token for the user and persists it.
func (s *RefreshTokenStore) Issue(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, time.Now().Add(ttl))
	if err != nil {
		return "", err
	}
	return token, nil
}

// Consume deletes the token and returns its owner. Single-use: rotation
// issues a fresh token on every refresh.
func (s *RefreshTokenStore) Consume(ctx context.Context, token string) (int64, error) {
	if _, err := uuid.Parse(token); err != nil {
		return 0, ErrRefreshTokenInvalid
	}

	var userID int64
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `
		DELETE FROM refresh_tokens WHERE token = $1
		RETURNING user_id, expires_at
	`, token).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRefreshTokenInvalid
		}
		return 0, err
	}
	if time.Now().After(expiresAt) {
		return 0, ErrRefreshTokenInvalid
	}
	return userID, nil
}

// RevokeAll drops every refresh token for a user, e.g. after password reset.
func (s *RefreshTokenStore) RevokeAll(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}
