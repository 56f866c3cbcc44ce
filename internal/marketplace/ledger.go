package marketplace

import (
	"context"
	"errors"

	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/authz"
	"github.com/sweeply-app/sweeply/internal/users"
)

// Ledger owns the offers on a cleaning job: submission, the exclusive accept
// transition, listings and counts.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// CreateOffer submits the actor's offer on a job. Resubmission while the
// existing offer is pending or rejected overwrites it in place and resets it
// to pending; a closed offer cannot be resubmitted.
func (l *Ledger) CreateOffer(ctx context.Context, actor *users.User, cleaningID int64) (*Offer, error) {
	if cleaningID <= 0 {
		return nil, apperrors.ValidationFailed("cleaning id must be a positive integer")
	}

	c, err := l.store.GetCleaning(ctx, cleaningID)
	if err != nil {
		if errors.Is(err, ErrCleaningNotFound) {
			return nil, apperrors.NotFound("cleaning not found")
		}
		return nil, apperrors.Internal(err)
	}

	if err := authz.Authorize(actor, authz.ActionCreateOffer, c); err != nil {
		return nil, err
	}

	offer, err := l.store.UpsertOffer(ctx, cleaningID, actor.ID)
	if err != nil {
		if errors.Is(err, ErrOfferClosed) {
			return nil, apperrors.InvalidAction("offer has already been accepted or completed")
		}
		return nil, apperrors.Internal(err)
	}
	return offer, nil
}

// ListOffers returns the full offer rows for a job. Owner only; everyone
// else sees just the aggregate count through the enriched cleaning view.
func (l *Ledger) ListOffers(ctx context.Context, actor *users.User, cleaningID int64) ([]Offer, error) {
	if cleaningID <= 0 {
		return nil, apperrors.ValidationFailed("cleaning id must be a positive integer")
	}

	c, err := l.store.GetCleaning(ctx, cleaningID)
	if err != nil {
		if errors.Is(err, ErrCleaningNotFound) {
			return nil, apperrors.NotFound("cleaning not found")
		}
		return nil, apperrors.Internal(err)
	}

	if err := authz.Authorize(actor, authz.ActionListOffers, c); err != nil {
		return nil, err
	}

	offers, err := l.store.ListOffersForCleaning(ctx, cleaningID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return offers, nil
}

// AcceptOffer marks one offer accepted and, in the same transaction, every
// other pending sibling rejected. A job accepts exactly once, ever.
func (l *Ledger) AcceptOffer(ctx context.Context, actor *users.User, cleaningID, offerUserID int64) (*Offer, error) {
	if cleaningID <= 0 || offerUserID <= 0 {
		return nil, apperrors.ValidationFailed("ids must be positive integers")
	}

	c, err := l.store.GetCleaning(ctx, cleaningID)
	if err != nil {
		if errors.Is(err, ErrCleaningNotFound) {
			return nil, apperrors.NotFound("cleaning not found")
		}
		return nil, apperrors.Internal(err)
	}

	if err := authz.Authorize(actor, authz.ActionAcceptOffer, c); err != nil {
		return nil, err
	}

	offer, err := l.store.AcceptOffer(ctx, cleaningID, offerUserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrOfferNotFound):
			return nil, apperrors.NotFound("offer not found")
		case errors.Is(err, ErrAlreadyAccepted):
			return nil, apperrors.InvalidAction("cleaning already has an accepted offer")
		case errors.Is(err, ErrOfferNotPending):
			return nil, apperrors.InvalidAction("only a pending offer can be accepted")
		}
		return nil, apperrors.Internal(err)
	}
	return offer, nil
}

// CountOffers is the public aggregate used to enrich job views.
func (l *Ledger) CountOffers(ctx context.Context, cleaningID int64) (int, error) {
	count, err := l.store.CountOffers(ctx, cleaningID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return count, nil
}
