package venuerepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbites/bitefinder/internal/domain/venue"
)

// PostgresRepository implements the venue, dish and dismissal contracts over
// pgx. The geohash column is indexed and serves the ordered range queries.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const venueColumns = `id, external_place_id, name, address, lat, lng, geohash, status, COALESCE(rejection_reason, '')`

// GetByID implements venue.Repository.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (venue.Venue, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+venueColumns+`
		FROM venues
		WHERE id = $1
	`, id)
	v, err := scanVenue(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return venue.Venue{}, false, nil
	}
	if err != nil {
		return venue.Venue{}, false, err
	}
	return v, true, nil
}

// ListByStatus implements venue.Repository.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status venue.Status) ([]venue.Venue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+venueColumns+`
		FROM venues
		WHERE status = $1
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVenues(rows)
}

// GeohashRange implements venue.Repository.
func (r *PostgresRepository) GeohashRange(ctx context.Context, status venue.Status, start, end string) ([]venue.Venue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+venueColumns+`
		FROM venues
		WHERE status = $1 AND geohash >= $2 AND geohash < $3
		ORDER BY geohash
	`, string(status), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVenues(rows)
}

// Upsert implements venue.Repository.
func (r *PostgresRepository) Upsert(ctx context.Context, v venue.Venue) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO venues (id, external_place_id, name, address, lat, lng, geohash, status, rejection_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		ON CONFLICT (id) DO UPDATE SET
			external_place_id = EXCLUDED.external_place_id,
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			geohash = EXCLUDED.geohash,
			status = EXCLUDED.status,
			rejection_reason = EXCLUDED.rejection_reason
	`, v.ID, v.ExternalPlaceID, v.Name, v.Address, v.Coordinates.Lat, v.Coordinates.Lng, v.Geohash, string(v.Status), v.RejectionReason)
	return err
}

// UpdateExternalPlaceID implements venue.Repository.
func (r *PostgresRepository) UpdateExternalPlaceID(ctx context.Context, id, externalPlaceID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE venues SET external_place_id = $2 WHERE id = $1
	`, id, externalPlaceID)
	return err
}

// SetStatus implements venue.Repository. Rejection is the soft-delete path;
// rows are never removed.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status venue.Status, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE venues SET status = $2, rejection_reason = NULLIF($3, '') WHERE id = $1
	`, id, string(status), reason)
	return err
}

// AcceptedByVenue implements venue.DishRepository.
func (r *PostgresRepository) AcceptedByVenue(ctx context.Context, venueID string) ([]venue.Dish, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, venue_id, name, vegetarian, vegan, gluten_free, is_hero, status
		FROM dishes
		WHERE venue_id = $1 AND status = $2
		ORDER BY is_hero DESC, name
	`, venueID, string(venue.StatusAccepted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dishes := []venue.Dish{}
	for rows.Next() {
		var (
			d      venue.Dish
			status string
		)
		if err := rows.Scan(&d.ID, &d.VenueID, &d.Name, &d.Dietary.Vegetarian, &d.Dietary.Vegan, &d.Dietary.GlutenFree, &d.IsHero, &status); err != nil {
			return nil, err
		}
		d.Status = venue.Status(status)
		dishes = append(dishes, d)
	}
	return dishes, rows.Err()
}

// UpsertDish implements venue.DishRepository.
func (r *PostgresRepository) UpsertDish(ctx context.Context, d venue.Dish) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dishes (id, venue_id, name, vegetarian, vegan, gluten_free, is_hero, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			vegetarian = EXCLUDED.vegetarian,
			vegan = EXCLUDED.vegan,
			gluten_free = EXCLUDED.gluten_free,
			is_hero = EXCLUDED.is_hero,
			status = EXCLUDED.status
	`, d.ID, d.VenueID, d.Name, d.Dietary.Vegetarian, d.Dietary.Vegan, d.Dietary.GlutenFree, d.IsHero, string(d.Status))
	return err
}

// Dismiss implements venue.DismissalRepository. Merge-only upsert.
func (r *PostgresRepository) Dismiss(ctx context.Context, userID, venueID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dismissals (user_id, venue_id, dismissed)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (user_id, venue_id) DO UPDATE SET dismissed = TRUE
	`, userID, venueID)
	return err
}

// DismissedVenueIDs implements venue.DismissalRepository.
func (r *PostgresRepository) DismissedVenueIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT venue_id FROM dismissals WHERE user_id = $1 AND dismissed
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func scanVenue(row pgx.Row) (venue.Venue, error) {
	var (
		v      venue.Venue
		status string
	)
	err := row.Scan(&v.ID, &v.ExternalPlaceID, &v.Name, &v.Address, &v.Coordinates.Lat, &v.Coordinates.Lng, &v.Geohash, &status, &v.RejectionReason)
	if err != nil {
		return venue.Venue{}, err
	}
	v.Status = venue.Status(status)
	return v, nil
}

func collectVenues(rows pgx.Rows) ([]venue.Venue, error) {
	venues := []venue.Venue{}
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

var (
	_ venue.Repository          = (*PostgresRepository)(nil)
	_ venue.DishRepository      = (*PostgresRepository)(nil)
	_ venue.DismissalRepository = (*PostgresRepository)(nil)
)
