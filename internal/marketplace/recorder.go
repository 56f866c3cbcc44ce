package marketplace

import (
	"context"
	"errors"

	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/authz"
	"github.com/sweeply-app/sweeply/internal/users"
)

const (
	defaultEvaluationPageSize = 10
	maxEvaluationPageSize     = 50
)

// Recorder owns post-completion evaluations: one per (cleaning, cleaner)
// pair, creatable only by the owner once an offer is accepted. Creation
// flips the offer to completed.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Create(ctx context.Context, actor *users.User, cleaningID, cleanerID int64, req *CreateEvaluationRequest) (*Evaluation, error) {
	if cleaningID <= 0 || cleanerID <= 0 {
		return nil, apperrors.ValidationFailed("ids must be positive integers")
	}

	c, err := r.store.GetCleaning(ctx, cleaningID)
	if err != nil {
		if errors.Is(err, ErrCleaningNotFound) {
			return nil, apperrors.NotFound("cleaning not found")
		}
		return nil, apperrors.Internal(err)
	}

	offer, err := r.store.GetOffer(ctx, cleaningID, cleanerID)
	if err != nil {
		if errors.Is(err, ErrOfferNotFound) {
			return nil, apperrors.NotFound("no offer from this cleaner on this cleaning")
		}
		return nil, apperrors.Internal(err)
	}
	if offer.Status != OfferAccepted {
		// A completed offer means the evaluation already happened; report the
		// duplicate rather than the state it left behind.
		if _, evalErr := r.store.GetEvaluation(ctx, cleaningID, cleanerID); evalErr == nil {
			return nil, apperrors.AlreadyExists("cleaner has already been evaluated for this cleaning")
		}
		return nil, apperrors.InvalidAction("only an accepted offer can be evaluated")
	}

	if err := authz.Authorize(actor, authz.ActionCreateEvaluation, c); err != nil {
		return nil, err
	}

	e := &Evaluation{
		CleaningID:      cleaningID,
		CleanerID:       cleanerID,
		Professionalism: *req.Professionalism,
		Completeness:    *req.Completeness,
		Efficiency:      *req.Efficiency,
		OverallRating:   *req.OverallRating,
		Headline:        req.Headline,
		Comment:         req.Comment,
	}
	if err := r.store.CreateEvaluation(ctx, e); err != nil {
		switch {
		case errors.Is(err, ErrEvaluationExists):
			return nil, apperrors.AlreadyExists("cleaner has already been evaluated for this cleaning")
		case errors.Is(err, ErrOfferNotFound):
			return nil, apperrors.NotFound("no offer from this cleaner on this cleaning")
		case errors.Is(err, ErrOfferNotAccepted):
			// Lost a race with a concurrent state change after the pre-check.
			if _, evalErr := r.store.GetEvaluation(ctx, cleaningID, cleanerID); evalErr == nil {
				return nil, apperrors.AlreadyExists("cleaner has already been evaluated for this cleaning")
			}
			return nil, apperrors.InvalidAction("only an accepted offer can be evaluated")
		}
		return nil, apperrors.Internal(err)
	}
	return e, nil
}

// Get is a pure read; ratings are public once created.
func (r *Recorder) Get(ctx context.Context, cleaningID, cleanerID int64) (*Evaluation, error) {
	if cleaningID <= 0 || cleanerID <= 0 {
		return nil, apperrors.ValidationFailed("ids must be positive integers")
	}

	e, err := r.store.GetEvaluation(ctx, cleaningID, cleanerID)
	if err != nil {
		if errors.Is(err, ErrEvaluationNotFound) {
			return nil, apperrors.NotFound("evaluation not found")
		}
		return nil, apperrors.Internal(err)
	}
	return e, nil
}

// ListForCleaner pages through a cleaner's evaluations, newest first.
func (r *Recorder) ListForCleaner(ctx context.Context, cleanerID int64, page, limit int) (*EvaluationPage, error) {
	if cleanerID <= 0 {
		return nil, apperrors.ValidationFailed("cleaner id must be a positive integer")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxEvaluationPageSize {
		limit = defaultEvaluationPageSize
	}

	evaluations, err := r.store.ListEvaluationsForCleaner(ctx, cleanerID, limit, (page-1)*limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	total, err := r.store.CountEvaluationsForCleaner(ctx, cleanerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &EvaluationPage{Evaluations: evaluations, Page: page, Limit: limit, Total: total}, nil
}

// StatsForCleaner aggregates a cleaner's ratings across all evaluations.
func (r *Recorder) StatsForCleaner(ctx context.Context, cleanerID int64) (*EvaluationStats, error) {
	if cleanerID <= 0 {
		return nil, apperrors.ValidationFailed("cleaner id must be a positive integer")
	}

	stats, err := r.store.EvaluationStatsForCleaner(ctx, cleanerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return stats, nil
}
