package marketplace

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// ===== Cleanings =====

func (s *PGStore) CreateCleaning(ctx context.Context, c *Cleaning) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO cleanings (name, description, cleaning_type, price, owner)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, c.Name, c.Description, c.CleaningType, c.Price, c.Owner).Scan(
		&c.ID, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (s *PGStore) GetCleaning(ctx context.Context, id int64) (*Cleaning, error) {
	var c Cleaning
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), cleaning_type, price, owner, created_at, updated_at
		FROM cleanings WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Name, &c.Description, &c.CleaningType, &c.Price, &c.Owner,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCleaningNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) ListCleaningsByOwner(ctx context.Context, ownerID int64) ([]*Cleaning, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), cleaning_type, price, owner, created_at, updated_at
		FROM cleanings WHERE owner = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cleanings []*Cleaning
	for rows.Next() {
		var c Cleaning
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.CleaningType, &c.Price, &c.Owner,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		cleanings = append(cleanings, &c)
	}
	return cleanings, rows.Err()
}

func (s *PGStore) UpdateCleaning(ctx context.Context, c *Cleaning) error {
	// Owner is deliberately absent from the SET list.
	return s.pool.QueryRow(ctx, `
		UPDATE cleanings
		SET name = $1, description = $2, cleaning_type = $3, price = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`, c.Name, c.Description, c.CleaningType, c.Price, c.ID).Scan(&c.UpdatedAt)
}

func (s *PGStore) DeleteCleaning(ctx context.Context, id int64) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM cleanings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrCleaningNotFound
	}
	return nil
}

// ===== Offers =====

func (s *PGStore) UpsertOffer(ctx context.Context, cleaningID, userID int64) (*Offer, error) {
	o := Offer{CleaningID: cleaningID, UserID: userID, Status: OfferPending}
	// The WHERE clause keeps the conflict branch from touching a closed
	// offer; in that case no row comes back.
	err := s.pool.QueryRow(ctx, `
		INSERT INTO offers (cleaning_id, user_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (cleaning_id, user_id) DO UPDATE
			SET status = 'pending', updated_at = NOW()
			WHERE offers.status IN ('pending', 'rejected')
		RETURNING status, created_at, updated_at
	`, cleaningID, userID).Scan(&o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfferClosed
		}
		return nil, err
	}
	return &o, nil
}

func (s *PGStore) GetOffer(ctx context.Context, cleaningID, userID int64) (*Offer, error) {
	var o Offer
	err := s.pool.QueryRow(ctx, `
		SELECT cleaning_id, user_id, status, created_at, updated_at
		FROM offers WHERE cleaning_id = $1 AND user_id = $2
	`, cleaningID, userID).Scan(
		&o.CleaningID, &o.UserID, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *PGStore) ListOffersForCleaning(ctx context.Context, cleaningID int64) ([]Offer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cleaning_id, user_id, status, created_at, updated_at
		FROM offers WHERE cleaning_id = $1 ORDER BY created_at ASC
	`, cleaningID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := []Offer{}
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.CleaningID, &o.UserID, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (s *PGStore) CountOffers(ctx context.Context, cleaningID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM offers WHERE cleaning_id = $1
	`, cleaningID).Scan(&count)
	return count, err
}

func (s *PGStore) AcceptOffer(ctx context.Context, cleaningID, userID int64) (*Offer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock every offer row of the cleaning. Concurrent accepts on the same
	// job queue up here; the loser re-reads post-commit state and fails the
	// invariant check below.
	rows, err := tx.Query(ctx, `
		SELECT user_id, status FROM offers WHERE cleaning_id = $1 FOR UPDATE
	`, cleaningID)
	if err != nil {
		return nil, err
	}

	var targetStatus OfferStatus
	targetFound := false
	closed := false
	for rows.Next() {
		var uid int64
		var status OfferStatus
		if err := rows.Scan(&uid, &status); err != nil {
			rows.Close()
			return nil, err
		}
		if status == OfferAccepted || status == OfferCompleted {
			closed = true
		}
		if uid == userID {
			targetFound = true
			targetStatus = status
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !targetFound {
		return nil, ErrOfferNotFound
	}
	if closed {
		return nil, ErrAlreadyAccepted
	}
	if targetStatus != OfferPending {
		return nil, ErrOfferNotPending
	}

	accepted := Offer{CleaningID: cleaningID, UserID: userID, Status: OfferAccepted}
	if err := tx.QueryRow(ctx, `
		UPDATE offers SET status = 'accepted', updated_at = NOW()
		WHERE cleaning_id = $1 AND user_id = $2
		RETURNING created_at, updated_at
	`, cleaningID, userID).Scan(&accepted.CreatedAt, &accepted.UpdatedAt); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE offers SET status = 'rejected', updated_at = NOW()
		WHERE cleaning_id = $1 AND user_id <> $2 AND status = 'pending'
	`, cleaningID, userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &accepted, nil
}

// ===== Evaluations =====

func (s *PGStore) CreateEvaluation(ctx context.Context, e *Evaluation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status OfferStatus
	err = tx.QueryRow(ctx, `
		SELECT status FROM offers
		WHERE cleaning_id = $1 AND user_id = $2 FOR UPDATE
	`, e.CleaningID, e.CleanerID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOfferNotFound
		}
		return err
	}
	if status != OfferAccepted {
		return ErrOfferNotAccepted
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO evaluations
			(cleaning_id, cleaner_id, professionalism, completeness, efficiency,
			 overall_rating, headline, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, e.CleaningID, e.CleanerID, e.Professionalism, e.Completeness, e.Efficiency,
		e.OverallRating, e.Headline, e.Comment,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEvaluationExists
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE offers SET status = 'completed', updated_at = NOW()
		WHERE cleaning_id = $1 AND user_id = $2
	`, e.CleaningID, e.CleanerID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PGStore) GetEvaluation(ctx context.Context, cleaningID, cleanerID int64) (*Evaluation, error) {
	var e Evaluation
	err := s.pool.QueryRow(ctx, `
		SELECT cleaning_id, cleaner_id, professionalism, completeness, efficiency,
		       overall_rating, COALESCE(headline, ''), COALESCE(comment, ''),
		       created_at, updated_at
		FROM evaluations WHERE cleaning_id = $1 AND cleaner_id = $2
	`, cleaningID, cleanerID).Scan(
		&e.CleaningID, &e.CleanerID, &e.Professionalism, &e.Completeness,
		&e.Efficiency, &e.OverallRating, &e.Headline, &e.Comment,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *PGStore) ListEvaluationsForCleaner(ctx context.Context, cleanerID int64, limit, offset int) ([]Evaluation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cleaning_id, cleaner_id, professionalism, completeness, efficiency,
		       overall_rating, COALESCE(headline, ''), COALESCE(comment, ''),
		       created_at, updated_at
		FROM evaluations WHERE cleaner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, cleanerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evaluations := []Evaluation{}
	for rows.Next() {
		var e Evaluation
		if err := rows.Scan(
			&e.CleaningID, &e.CleanerID, &e.Professionalism, &e.Completeness,
			&e.Efficiency, &e.OverallRating, &e.Headline, &e.Comment,
			&e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}

func (s *PGStore) CountEvaluationsForCleaner(ctx context.Context, cleanerID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM evaluations WHERE cleaner_id = $1
	`, cleanerID).Scan(&count)
	return count, err
}

func (s *PGStore) EvaluationStatsForCleaner(ctx context.Context, cleanerID int64) (*EvaluationStats, error) {
	stats := EvaluationStats{CleanerID: cleanerID}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(professionalism), 0),
		       COALESCE(AVG(completeness), 0),
		       COALESCE(AVG(efficiency), 0),
		       COALESCE(AVG(overall_rating), 0),
		       COALESCE(MIN(overall_rating), 0),
		       COALESCE(MAX(overall_rating), 0)
		FROM evaluations WHERE cleaner_id = $1
	`, cleanerID).Scan(
		&stats.TotalEvaluations,
		&stats.AvgProfessionalism, &stats.AvgCompleteness,
		&stats.AvgEfficiency, &stats.AvgOverallRating,
		&stats.MinOverallRating, &stats.MaxOverallRating,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
