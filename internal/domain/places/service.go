package places

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/openbites/bitefinder/internal/domain/hours"
)

// detailFields is the field mask requested from the registry.
var detailFields = []string{"name", "formatted_address", "geometry", "opening_hours", "photos"}

// Config carries the per-kind TTL pairs.
type Config struct {
	Hours   TTLs
	Details TTLs
	Photo   TTLs
}

// Service fetches place data through the two-tier cache under stale-identifier
// protection. A refreshed identifier repopulates the cache under its new key
// on the retried call.
type Service struct {
	cfg      Config
	cache    *Cache
	registry Registry
	resolver *Resolver
	logger   *slog.Logger
}

// NewService wires the place-data fetch path.
func NewService(cfg Config, cache *Cache, registry Registry, resolver *Resolver, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		cache:    cache,
		registry: registry,
		resolver: resolver,
		logger:   logger.With("component", "places.service"),
	}
}

// OpeningHours returns the weekly opening periods for the referenced place.
func (s *Service) OpeningHours(ctx context.Context, ref PlaceRef) ([]hours.Period, error) {
	return WithRefresh(ctx, s.resolver, ref, func(ctx context.Context, externalID string) ([]hours.Period, error) {
		return Lookup(ctx, s.cache, Key{Kind: KindHours, ExternalID: externalID}, s.cfg.Hours, func(ctx context.Context) ([]hours.Period, error) {
			d, err := s.registry.FetchDetails(ctx, externalID, detailFields)
			if err != nil {
				return nil, err
			}
			return d.Periods, nil
		})
	})
}

// Details returns the registry's current view of the referenced place.
func (s *Service) Details(ctx context.Context, ref PlaceRef) (Details, error) {
	return WithRefresh(ctx, s.resolver, ref, func(ctx context.Context, externalID string) (Details, error) {
		return Lookup(ctx, s.cache, Key{Kind: KindDetails, ExternalID: externalID}, s.cfg.Details, func(ctx context.Context) (Details, error) {
			return s.registry.FetchDetails(ctx, externalID, detailFields)
		})
	})
}

// PhotoURL resolves a display URL for the place's photo at the requested
// width. Returns the empty string when the place has no photo.
func (s *Service) PhotoURL(ctx context.Context, ref PlaceRef, widthPx int) (string, error) {
	return WithRefresh(ctx, s.resolver, ref, func(ctx context.Context, externalID string) (string, error) {
		details, err := Lookup(ctx, s.cache, Key{Kind: KindDetails, ExternalID: externalID}, s.cfg.Details, func(ctx context.Context) (Details, error) {
			return s.registry.FetchDetails(ctx, externalID, detailFields)
		})
		if err != nil {
			return "", err
		}
		if details.PhotoRef == "" {
			return "", nil
		}
		suffix := strconv.Itoa(widthPx)
		return Lookup(ctx, s.cache, Key{Kind: KindPhoto, ExternalID: externalID, Suffix: suffix}, s.cfg.Photo, func(ctx context.Context) (string, error) {
			return s.registry.ResolvePhotoURL(ctx, details.PhotoRef, widthPx)
		})
	})
}
