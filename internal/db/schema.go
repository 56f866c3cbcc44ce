package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables the service needs if they are missing.
// Statements are idempotent so startup is safe against an already-migrated
// database.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			token UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id)`,
		`CREATE TABLE IF NOT EXISTS cleanings (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			cleaning_type TEXT NOT NULL DEFAULT 'spot_clean'
				CHECK (cleaning_type IN ('spot_clean', 'full_clean', 'dust_up')),
			price NUMERIC(10,2) NOT NULL CHECK (price > 0),
			owner BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cleanings_owner ON cleanings(owner)`,
		`CREATE TABLE IF NOT EXISTS offers (
			cleaning_id BIGINT NOT NULL REFERENCES cleanings(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'accepted', 'rejected', 'completed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (cleaning_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_user ON offers(user_id)`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			cleaning_id BIGINT NOT NULL REFERENCES cleanings(id) ON DELETE CASCADE,
			cleaner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			professionalism INT NOT NULL CHECK (professionalism BETWEEN 0 AND 5),
			completeness INT NOT NULL CHECK (completeness BETWEEN 0 AND 5),
			efficiency INT NOT NULL CHECK (efficiency BETWEEN 0 AND 5),
			overall_rating INT NOT NULL CHECK (overall_rating BETWEEN 0 AND 5),
			headline TEXT,
			comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (cleaning_id, cleaner_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_cleaner ON evaluations(cleaner_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
