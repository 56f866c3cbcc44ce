package marketplace

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore implements Store in memory with the same contract as PGStore,
// including the accept and evaluation invariants, so service tests run
// without a database.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	cleanings   map[int64]*Cleaning
	offers      map[int64]map[int64]*Offer     // cleaningID -> userID
	evaluations map[int64]map[int64]*Evaluation // cleaningID -> cleanerID
}

func newMemStore() *memStore {
	return &memStore{
		cleanings:   make(map[int64]*Cleaning),
		offers:      make(map[int64]map[int64]*Offer),
		evaluations: make(map[int64]map[int64]*Evaluation),
	}
}

func (s *memStore) CreateCleaning(_ context.Context, c *Cleaning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	clone := *c
	s.cleanings[c.ID] = &clone
	return nil
}

func (s *memStore) GetCleaning(_ context.Context, id int64) (*Cleaning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cleanings[id]
	if !ok {
		return nil, ErrCleaningNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *memStore) ListCleaningsByOwner(_ context.Context, ownerID int64) ([]*Cleaning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Cleaning
	for _, c := range s.cleanings {
		if c.Owner == ownerID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpdateCleaning(_ context.Context, c *Cleaning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.cleanings[c.ID]
	if !ok {
		return ErrCleaningNotFound
	}
	stored.Name = c.Name
	stored.Description = c.Description
	stored.CleaningType = c.CleaningType
	stored.Price = c.Price
	stored.UpdatedAt = time.Now()
	c.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *memStore) DeleteCleaning(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cleanings[id]; !ok {
		return ErrCleaningNotFound
	}
	delete(s.cleanings, id)
	delete(s.offers, id)
	delete(s.evaluations, id)
	return nil
}

func (s *memStore) UpsertOffer(_ context.Context, cleaningID, userID int64) (*Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser := s.offers[cleaningID]
	if byUser == nil {
		byUser = make(map[int64]*Offer)
		s.offers[cleaningID] = byUser
	}

	if existing, ok := byUser[userID]; ok {
		if existing.Status == OfferAccepted || existing.Status == OfferCompleted {
			return nil, ErrOfferClosed
		}
		existing.Status = OfferPending
		existing.UpdatedAt = time.Now()
		clone := *existing
		return &clone, nil
	}

	o := &Offer{
		CleaningID: cleaningID,
		UserID:     userID,
		Status:     OfferPending,
		CreatedAt:  time.Now(),
	}
	o.UpdatedAt = o.CreatedAt
	byUser[userID] = o
	clone := *o
	return &clone, nil
}

func (s *memStore) GetOffer(_ context.Context, cleaningID, userID int64) (*Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offers[cleaningID][userID]
	if !ok {
		return nil, ErrOfferNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *memStore) ListOffersForCleaning(_ context.Context, cleaningID int64) ([]Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Offer{}
	for _, o := range s.offers[cleaningID] {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *memStore) CountOffers(_ context.Context, cleaningID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.offers[cleaningID]), nil
}

func (s *memStore) AcceptOffer(_ context.Context, cleaningID, userID int64) (*Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser := s.offers[cleaningID]
	target, ok := byUser[userID]
	if !ok {
		return nil, ErrOfferNotFound
	}
	for _, o := range byUser {
		if o.Status == OfferAccepted || o.Status == OfferCompleted {
			return nil, ErrAlreadyAccepted
		}
	}
	if target.Status != OfferPending {
		return nil, ErrOfferNotPending
	}

	now := time.Now()
	target.Status = OfferAccepted
	target.UpdatedAt = now
	for _, o := range byUser {
		if o.UserID != userID && o.Status == OfferPending {
			o.Status = OfferRejected
			o.UpdatedAt = now
		}
	}
	clone := *target
	return &clone, nil
}

func (s *memStore) CreateEvaluation(_ context.Context, e *Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[e.CleaningID][e.CleanerID]
	if !ok {
		return ErrOfferNotFound
	}
	if offer.Status != OfferAccepted {
		return ErrOfferNotAccepted
	}
	if _, exists := s.evaluations[e.CleaningID][e.CleanerID]; exists {
		return ErrEvaluationExists
	}

	byCleaner := s.evaluations[e.CleaningID]
	if byCleaner == nil {
		byCleaner = make(map[int64]*Evaluation)
		s.evaluations[e.CleaningID] = byCleaner
	}

	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	clone := *e
	byCleaner[e.CleanerID] = &clone

	offer.Status = OfferCompleted
	offer.UpdatedAt = e.CreatedAt
	return nil
}

func (s *memStore) GetEvaluation(_ context.Context, cleaningID, cleanerID int64) (*Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.evaluations[cleaningID][cleanerID]
	if !ok {
		return nil, ErrEvaluationNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *memStore) ListEvaluationsForCleaner(_ context.Context, cleanerID int64, limit, offset int) ([]Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := []Evaluation{}
	for _, byCleaner := range s.evaluations {
		if e, ok := byCleaner[cleanerID]; ok {
			all = append(all, *e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []Evaluation{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *memStore) CountEvaluationsForCleaner(_ context.Context, cleanerID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, byCleaner := range s.evaluations {
		if _, ok := byCleaner[cleanerID]; ok {
			count++
		}
	}
	return count, nil
}

func (s *memStore) EvaluationStatsForCleaner(ctx context.Context, cleanerID int64) (*EvaluationStats, error) {
	evaluations, err := s.ListEvaluationsForCleaner(ctx, cleanerID, 1<<30, 0)
	if err != nil {
		return nil, err
	}

	stats := &EvaluationStats{CleanerID: cleanerID, TotalEvaluations: len(evaluations)}
	if len(evaluations) == 0 {
		return stats, nil
	}

	stats.MinOverallRating = evaluations[0].OverallRating
	stats.MaxOverallRating = evaluations[0].OverallRating
	var prof, comp, eff, overall int
	for _, e := range evaluations {
		prof += e.Professionalism
		comp += e.Completeness
		eff += e.Efficiency
		overall += e.OverallRating
		if e.OverallRating < stats.MinOverallRating {
			stats.MinOverallRating = e.OverallRating
		}
		if e.OverallRating > stats.MaxOverallRating {
			stats.MaxOverallRating = e.OverallRating
		}
	}
	n := float64(len(evaluations))
	stats.AvgProfessionalism = float64(prof) / n
	stats.AvgCompleteness = float64(comp) / n
	stats.AvgEfficiency = float64(eff) / n
	stats.AvgOverallRating = float64(overall) / n
	return stats, nil
}
