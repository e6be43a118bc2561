package venuerepo

import (
	"context"
	"sync"

	"github.com/openbites/bitefinder/internal/domain/venue"
)

// MemoryRepository backs the venue, dish and dismissal contracts with process
// memory for tests and dev. The geohash range scan matches the ordered range
// semantics of the durable store.
type MemoryRepository struct {
	mu         sync.RWMutex
	venues     map[string]venue.Venue
	dishes     map[string][]venue.Dish
	dismissals map[string]map[string]struct{}
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		venues:     make(map[string]venue.Venue),
		dishes:     make(map[string][]venue.Dish),
		dismissals: make(map[string]map[string]struct{}),
	}
}

// GetByID implements venue.Repository.
func (r *MemoryRepository) GetByID(_ context.Context, id string) (venue.Venue, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.venues[id]
	return v, ok, nil
}

// ListByStatus implements venue.Repository.
func (r *MemoryRepository) ListByStatus(_ context.Context, status venue.Status) ([]venue.Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []venue.Venue{}
	for _, v := range r.venues {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out, nil
}

// GeohashRange implements venue.Repository.
func (r *MemoryRepository) GeohashRange(_ context.Context, status venue.Status, start, end string) ([]venue.Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []venue.Venue{}
	for _, v := range r.venues {
		if v.Status == status && v.Geohash >= start && v.Geohash < end {
			out = append(out, v)
		}
	}
	return out, nil
}

// Upsert implements venue.Repository.
func (r *MemoryRepository) Upsert(_ context.Context, v venue.Venue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venues[v.ID] = v
	return nil
}

// UpdateExternalPlaceID implements venue.Repository.
func (r *MemoryRepository) UpdateExternalPlaceID(_ context.Context, id, externalPlaceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.venues[id]
	if !ok {
		return nil
	}
	v.ExternalPlaceID = externalPlaceID
	r.venues[id] = v
	return nil
}

// SetStatus implements venue.Repository. Rejection is the soft-delete path.
func (r *MemoryRepository) SetStatus(_ context.Context, id string, status venue.Status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.venues[id]
	if !ok {
		return nil
	}
	v.Status = status
	v.RejectionReason = reason
	r.venues[id] = v
	return nil
}

// AcceptedByVenue implements venue.DishRepository.
func (r *MemoryRepository) AcceptedByVenue(_ context.Context, venueID string) ([]venue.Dish, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []venue.Dish{}
	for _, d := range r.dishes[venueID] {
		if d.Status == venue.StatusAccepted {
			out = append(out, d)
		}
	}
	return out, nil
}

// UpsertDish implements venue.DishRepository's write side.
func (r *MemoryRepository) UpsertDish(_ context.Context, d venue.Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.dishes[d.VenueID]
	for i := range existing {
		if existing[i].ID == d.ID {
			existing[i] = d
			return nil
		}
	}
	r.dishes[d.VenueID] = append(existing, d)
	return nil
}

// Dismiss implements venue.DismissalRepository. Merge-only; re-dismissing is
// a no-op.
func (r *MemoryRepository) Dismiss(_ context.Context, userID, venueID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dismissals[userID] == nil {
		r.dismissals[userID] = make(map[string]struct{})
	}
	r.dismissals[userID][venueID] = struct{}{}
	return nil
}

// DismissedVenueIDs implements venue.DismissalRepository.
func (r *MemoryRepository) DismissedVenueIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{}, len(r.dismissals[userID]))
	for id := range r.dismissals[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}

var (
	_ venue.Repository          = (*MemoryRepository)(nil)
	_ venue.DishRepository      = (*MemoryRepository)(nil)
	_ venue.DismissalRepository = (*MemoryRepository)(nil)
)
