package marketplace

import (
	"context"
	"errors"
)

// Sentinel errors the store reports; services translate them into the
// client-facing taxonomy.
var (
	ErrCleaningNotFound   = errors.New("cleaning not found")
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferNotPending    = errors.New("offer is not pending")
	ErrOfferNotAccepted   = errors.New("offer is not accepted")
	ErrOfferClosed        = errors.New("offer already accepted or completed")
	ErrAlreadyAccepted    = errors.New("cleaning already has an accepted offer")
	ErrEvaluationNotFound = errors.New("evaluation not found")
	ErrEvaluationExists   = errors.New("evaluation already exists")
)

// Store is the persistence gateway for the marketplace. The production
// implementation is PGStore; tests run the services against an in-memory
// fake implementing the same contract.
type Store interface {
	CreateCleaning(ctx context.Context, c *Cleaning) error
	GetCleaning(ctx context.Context, id int64) (*Cleaning, error)
	ListCleaningsByOwner(ctx context.Context, ownerID int64) ([]*Cleaning, error)
	UpdateCleaning(ctx context.Context, c *Cleaning) error
	DeleteCleaning(ctx context.Context, id int64) error

	// UpsertOffer creates the (cleaningID, userID) offer or, when the row
	// exists in a resubmittable state (pending or rejected), resets it to
	// pending in place. A closed offer returns ErrOfferClosed.
	UpsertOffer(ctx context.Context, cleaningID, userID int64) (*Offer, error)
	GetOffer(ctx context.Context, cleaningID, userID int64) (*Offer, error)
	ListOffersForCleaning(ctx context.Context, cleaningID int64) ([]Offer, error)
	CountOffers(ctx context.Context, cleaningID int64) (int, error)

	// AcceptOffer atomically marks the target offer accepted and every other
	// pending offer on the same cleaning rejected. It locks the cleaning's
	// offer rows, so concurrent accepts serialize and the loser observes
	// ErrAlreadyAccepted.
	AcceptOffer(ctx context.Context, cleaningID, userID int64) (*Offer, error)

	// CreateEvaluation inserts the evaluation and flips the accepted offer to
	// completed in one transaction.
	CreateEvaluation(ctx context.Context, e *Evaluation) error
	GetEvaluation(ctx context.Context, cleaningID, cleanerID int64) (*Evaluation, error)
	ListEvaluationsForCleaner(ctx context.Context, cleanerID int64, limit, offset int) ([]Evaluation, error)
	CountEvaluationsForCleaner(ctx context.Context, cleanerID int64) (int, error)
	EvaluationStatsForCleaner(ctx context.Context, cleanerID int64) (*EvaluationStats, error)
}
