package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no user row matches the lookup.
var ErrNotFound = errors.New("user not found")

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, u *User) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, email_verified, is_active, created_at, updated_at
	`, u.Username, u.Email, u.Password).Scan(
		&u.ID, &u.EmailVerified, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, `WHERE email = $1`, email)
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.get(ctx, `WHERE username = $1`, username)
}

func (s *Store) get(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, email, password, email_verified, is_active, created_at, updated_at
		FROM users `+where,
		arg,
	).Scan(
		&u.ID, &u.Username, &u.Email, &u.Password,
		&u.EmailVerified, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hashed string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2
	`, hashed, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
