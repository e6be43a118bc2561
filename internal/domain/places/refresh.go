package places

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openbites/bitefinder/internal/domain/venue"
)

// Resolver recovers from retired external identifiers: it re-resolves the
// place through a secondary text search, persists the replacement id, and
// retries the failed operation exactly once.
type Resolver struct {
	venues   venue.Repository
	registry Registry
	cache    *Cache
	logger   *slog.Logger
}

// NewResolver wires the staleness-recovery collaborators.
func NewResolver(venues venue.Repository, registry Registry, cache *Cache, logger *slog.Logger) *Resolver {
	return &Resolver{
		venues:   venues,
		registry: registry,
		cache:    cache,
		logger:   logger.With("component", "places.resolver"),
	}
}

// WithRefresh runs op against the referenced external id. A retired-identifier
// failure triggers one re-resolution and one retry; every other error passes
// through unchanged. A second failure propagates without another refresh.
func WithRefresh[T any](ctx context.Context, r *Resolver, ref PlaceRef, op func(ctx context.Context, externalID string) (T, error)) (T, error) {
	out, opErr := op(ctx, ref.ExternalID)
	if opErr == nil || !errors.Is(opErr, ErrIdentifierRetired) {
		return out, opErr
	}

	var zero T

	v, found, err := r.venues.GetByID(ctx, ref.VenueID)
	if err != nil || !found {
		// The durable record is gone or unreadable; nothing to re-resolve
		// against, so the original failure stands.
		return zero, opErr
	}

	candidates, err := r.registry.TextSearch(ctx, v.Name, &v.Coordinates)
	if err != nil || len(candidates) == 0 || candidates[0].ExternalID == ref.ExternalID {
		return zero, &StaleIdentifierError{ExternalID: ref.ExternalID, Err: opErr}
	}

	newID := candidates[0].ExternalID
	if err := r.venues.UpdateExternalPlaceID(ctx, ref.VenueID, newID); err != nil {
		return zero, &StaleIdentifierError{ExternalID: ref.ExternalID, Err: err}
	}
	r.cache.InvalidateLocalAll(ref.ExternalID)
	r.logger.Info("external place id refreshed", "venueId", ref.VenueID, "oldId", ref.ExternalID, "newId", newID)

	return op(ctx, newID)
}
