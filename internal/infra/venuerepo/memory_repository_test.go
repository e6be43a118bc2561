package venuerepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openbites/bitefinder/internal/domain/geo"
	"github.com/openbites/bitefinder/internal/domain/venue"
)

func TestMemoryRepositoryGeohashRange(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	inside := venue.New("Inside", "1 Mission St", geo.Coordinates{Lat: 37.7749, Lng: -122.4194})
	inside.Status = venue.StatusAccepted
	require.NoError(t, repo.Upsert(ctx, inside))

	// Roughly 350 miles south, in a different geohash cell.
	outside := venue.New("Outside", "1 Spring St", geo.Coordinates{Lat: 34.0522, Lng: -118.2437})
	outside.Status = venue.StatusAccepted
	require.NoError(t, repo.Upsert(ctx, outside))

	pending := venue.New("Pending", "2 Mission St", geo.Coordinates{Lat: 37.7750, Lng: -122.4195})
	require.NoError(t, repo.Upsert(ctx, pending))

	cell := inside.Geohash[:5]
	got, err := repo.GeohashRange(ctx, venue.StatusAccepted, cell, cell+"~")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, inside.ID, got[0].ID)
}

func TestMemoryRepositoryUpdateExternalPlaceID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	v := venue.New("Bistro", "1 Mission St", geo.Coordinates{Lat: 37.7749, Lng: -122.4194})
	v.ExternalPlaceID = "old-id"
	require.NoError(t, repo.Upsert(ctx, v))

	require.NoError(t, repo.UpdateExternalPlaceID(ctx, v.ID, "new-id"))

	got, found, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "new-id", got.ExternalPlaceID)
}

func TestMemoryRepositorySoftDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	v := venue.New("Bistro", "1 Mission St", geo.Coordinates{Lat: 37.7749, Lng: -122.4194})
	v.Status = venue.StatusAccepted
	require.NoError(t, repo.Upsert(ctx, v))

	require.NoError(t, repo.SetStatus(ctx, v.ID, venue.StatusRejected, "closed permanently"))

	got, found, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, venue.StatusRejected, got.Status)
	require.Equal(t, "closed permanently", got.RejectionReason)

	listed, err := repo.ListByStatus(ctx, venue.StatusAccepted)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestMemoryRepositoryAcceptedDishesOnly(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	accepted := venue.NewDish("venue-1", "Garden Bowl", venue.DietaryTags{Vegan: true})
	accepted.Status = venue.StatusAccepted
	require.NoError(t, repo.UpsertDish(ctx, accepted))

	pending := venue.NewDish("venue-1", "New Special", venue.DietaryTags{})
	require.NoError(t, repo.UpsertDish(ctx, pending))

	dishes, err := repo.AcceptedByVenue(ctx, "venue-1")
	require.NoError(t, err)
	require.Len(t, dishes, 1)
	require.Equal(t, "Garden Bowl", dishes[0].Name)

	// Upsert by id replaces in place rather than duplicating.
	accepted.Name = "Garden Bowl XL"
	require.NoError(t, repo.UpsertDish(ctx, accepted))
	dishes, err = repo.AcceptedByVenue(ctx, "venue-1")
	require.NoError(t, err)
	require.Len(t, dishes, 1)
	require.Equal(t, "Garden Bowl XL", dishes[0].Name)
}

func TestMemoryRepositoryDismissalsMergeOnly(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Dismiss(ctx, "user-1", "venue-1"))
	require.NoError(t, repo.Dismiss(ctx, "user-1", "venue-1"))
	require.NoError(t, repo.Dismiss(ctx, "user-1", "venue-2"))

	dismissed, err := repo.DismissedVenueIDs(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, dismissed, 2)
	require.Contains(t, dismissed, "venue-1")
	require.Contains(t, dismissed, "venue-2")

	other, err := repo.DismissedVenueIDs(ctx, "user-2")
	require.NoError(t, err)
	require.Empty(t, other)
}
