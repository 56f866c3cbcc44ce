package marketplace

import (
	"context"
	"errors"

	"github.com/sweeply-app/sweeply/internal/apperrors"
	"github.com/sweeply-app/sweeply/internal/authz"
	"github.com/sweeply-app/sweeply/internal/users"
)

// Registry owns cleaning job records: creation, enriched reads, allow-list
// updates and deletion. Offers and evaluations ride along at the store level
// via cascading deletes.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

func (r *Registry) Create(ctx context.Context, actor *users.User, req *CreateCleaningRequest) (*Cleaning, error) {
	if err := authz.Authorize(actor, authz.ActionCreateCleaning, nil); err != nil {
		return nil, err
	}

	// Same value checks as Update, so the rules hold for callers that skip
	// the transport-layer validator.
	if req.Name == "" {
		return nil, apperrors.ValidationFailed("name cannot be empty")
	}
	if req.Price <= 0 {
		return nil, apperrors.ValidationFailed("price must be greater than zero")
	}
	cleaningType := CleaningType(req.CleaningType)
	if !cleaningType.Valid() {
		return nil, apperrors.ValidationFailed("cleaning_type must be one of spot_clean, full_clean, dust_up")
	}

	c := &Cleaning{
		Name:         req.Name,
		Description:  req.Description,
		CleaningType: cleaningType,
		Price:        req.Price,
		Owner:        actor.ID,
	}
	if err := r.store.CreateCleaning(ctx, c); err != nil {
		return nil, apperrors.Internal(err)
	}
	return c, nil
}

// Get returns the job enriched with its offer count for any viewer; the
// offer rows themselves only for the owner.
func (r *Registry) Get(ctx context.Context, actor *users.User, id int64) (*CleaningView, error) {
	if id <= 0 {
		return nil, apperrors.ValidationFailed("cleaning id must be a positive integer")
	}

	c, err := r.store.GetCleaning(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCleaningNotFound) {
			return nil, apperrors.NotFound("cleaning not found")
		}
		return nil, apperrors.Internal(err)
	}

	return r.enrich(ctx, actor, c)
}

func (r *Registry) List(ctx context.Context, actor *users.User) ([]*CleaningView, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("authentication required")
	}

	cleanings, err := r.store.ListCleaningsByOwner(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	views := make([]*CleaningView, 0, len(cleanings))
	for _, c := range cleanings {
		view, err := r.enrich(ctx, actor, c)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (r *Registry) Update(ctx context.Context, actor *users.User, id int64, patch *UpdateCleaningRequest) (*Cleaning, error) {
	if id <= 0 {
		return nil, apperrors.ValidationFailed("cleaning id must be a positive integer")
	}

	c, err := r.store.GetCleaning(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCleaningNotFound) {
			return nil, apperrors.NotFound("cleaning not found")
		}
		return nil, apperrors.Internal(err)
	}

	if err := authz.Authorize(actor, authz.ActionUpdateCleaning, c); err != nil {
		return nil, err
	}

	// Explicit setters for the mutable attributes, applied one by one.
	// There is no owner setter; an "owner" key never survives decoding.
	if patch.CleaningTypeIsNull() {
		return nil, apperrors.BadRequest("cleaning_type cannot be null")
	}
	if t := patch.CleaningType(); t != nil {
		if !t.Valid() {
			return nil, apperrors.ValidationFailed("cleaning_type must be one of spot_clean, full_clean, dust_up")
		}
		c.CleaningType = *t
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, apperrors.ValidationFailed("name cannot be empty")
		}
		c.Name = *patch.Name
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return nil, apperrors.ValidationFailed("price must be greater than zero")
		}
		c.Price = *patch.Price
	}

	if err := r.store.UpdateCleaning(ctx, c); err != nil {
		return nil, apperrors.Internal(err)
	}
	return c, nil
}

func (r *Registry) Delete(ctx context.Context, actor *users.User, id int64) error {
	if id <= 0 {
		return apperrors.ValidationFailed("cleaning id must be a positive integer")
	}

	c, err := r.store.GetCleaning(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCleaningNotFound) {
			return apperrors.NotFound("cleaning not found")
		}
		return apperrors.Internal(err)
	}

	if err := authz.Authorize(actor, authz.ActionDeleteCleaning, c); err != nil {
		return err
	}

	if err := r.store.DeleteCleaning(ctx, id); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (r *Registry) enrich(ctx context.Context, actor *users.User, c *Cleaning) (*CleaningView, error) {
	total, err := r.store.CountOffers(ctx, c.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	view := &CleaningView{Cleaning: *c, TotalOffers: total, Offers: []Offer{}}
	if actor != nil && actor.ID == c.Owner {
		offers, err := r.store.ListOffersForCleaning(ctx, c.ID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		view.Offers = offers
	}
	return view, nil
}
