package venue

import "context"

// Repository is the document-store contract the core reads venues through.
type Repository interface {
	GetByID(ctx context.Context, id string) (Venue, bool, error)
	ListByStatus(ctx context.Context, status Status) ([]Venue, error)
	// GeohashRange returns venues in the given status whose geohash falls in
	// [start, end), ordered by geohash.
	GeohashRange(ctx context.Context, status Status, start, end string) ([]Venue, error)
	Upsert(ctx context.Context, v Venue) error
	UpdateExternalPlaceID(ctx context.Context, id, externalPlaceID string) error
	SetStatus(ctx context.Context, id string, status Status, reason string) error
}

// DishRepository reads and writes dishes per venue.
type DishRepository interface {
	AcceptedByVenue(ctx context.Context, venueID string) ([]Dish, error)
	UpsertDish(ctx context.Context, d Dish) error
}

// DismissalRepository records permanent per-user venue dismissals. The flag is
// merge-only; no un-dismiss path exists.
type DismissalRepository interface {
	Dismiss(ctx context.Context, userID, venueID string) error
	DismissedVenueIDs(ctx context.Context, userID string) (map[string]struct{}, error)
}
