package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openbites/bitefinder/internal/domain/geo"
	"github.com/openbites/bitefinder/internal/domain/venue"
)

type stubVenueRepo struct {
	venues      map[string]venue.Venue
	getErr      error
	updateErr   error
	updateCalls int
}

func newStubVenueRepo(vs ...venue.Venue) *stubVenueRepo {
	repo := &stubVenueRepo{venues: make(map[string]venue.Venue)}
	for _, v := range vs {
		repo.venues[v.ID] = v
	}
	return repo
}

func (r *stubVenueRepo) GetByID(_ context.Context, id string) (venue.Venue, bool, error) {
	if r.getErr != nil {
		return venue.Venue{}, false, r.getErr
	}
	v, ok := r.venues[id]
	return v, ok, nil
}

func (r *stubVenueRepo) ListByStatus(context.Context, venue.Status) ([]venue.Venue, error) {
	return nil, nil
}

func (r *stubVenueRepo) GeohashRange(context.Context, venue.Status, string, string) ([]venue.Venue, error) {
	return nil, nil
}

func (r *stubVenueRepo) Upsert(_ context.Context, v venue.Venue) error {
	r.venues[v.ID] = v
	return nil
}

func (r *stubVenueRepo) UpdateExternalPlaceID(_ context.Context, id, externalID string) error {
	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	v := r.venues[id]
	v.ExternalPlaceID = externalID
	r.venues[id] = v
	return nil
}

func (r *stubVenueRepo) SetStatus(_ context.Context, id string, status venue.Status, reason string) error {
	v := r.venues[id]
	v.Status = status
	v.RejectionReason = reason
	r.venues[id] = v
	return nil
}

type stubRegistry struct {
	candidates  []Candidate
	searchErr   error
	searchCalls int
	lastQuery   string
	lastBias    *geo.Coordinates
}

func (s *stubRegistry) TextSearch(_ context.Context, query string, bias *geo.Coordinates) ([]Candidate, error) {
	s.searchCalls++
	s.lastQuery = query
	s.lastBias = bias
	return s.candidates, s.searchErr
}

func (s *stubRegistry) FetchDetails(context.Context, string, []string) (Details, error) {
	return Details{}, nil
}

func (s *stubRegistry) ResolvePhotoURL(context.Context, string, int) (string, error) {
	return "", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func retiredErr(id string) error {
	return fmt.Errorf("fetch details %q: %w", id, ErrIdentifierRetired)
}

func testResolver(repo *stubVenueRepo, registry *stubRegistry) (*Resolver, *stubLocal) {
	now := time.Date(2024, 7, 2, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	local := newStubLocal(clock)
	cache := NewCache(local, newStubPersistent(), discardLogger())
	cache.now = clock
	return NewResolver(repo, registry, cache, discardLogger()), local
}

func TestWithRefreshRecoversStaleID(t *testing.T) {
	v := venue.New("Tasty Corner", "1 Main St", geo.Coordinates{Lat: 37.77, Lng: -122.41})
	v.ExternalPlaceID = "old-id"
	repo := newStubVenueRepo(v)
	registry := &stubRegistry{candidates: []Candidate{{ExternalID: "new-id", Name: "Tasty Corner"}}}
	resolver, local := testResolver(repo, registry)

	local.Set("hours:old-id", []byte(`[]`))
	local.Set("photo:old-id:400", []byte(`"url"`))

	calls := []string{}
	got, err := WithRefresh(context.Background(), resolver, PlaceRef{VenueID: v.ID, ExternalID: "old-id"}, func(_ context.Context, externalID string) (string, error) {
		calls = append(calls, externalID)
		if externalID == "old-id" {
			return "", retiredErr(externalID)
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	require.Equal(t, "recovered", got)
	require.Equal(t, []string{"old-id", "new-id"}, calls)
	require.Equal(t, "new-id", repo.venues[v.ID].ExternalPlaceID)
	require.Equal(t, "Tasty Corner", registry.lastQuery)
	require.NotNil(t, registry.lastBias)
	require.Empty(t, local.entries, "old-id cache entries invalidated")
}

func TestWithRefreshNoCandidate(t *testing.T) {
	v := venue.New("Gone Cafe", "2 Main St", geo.Coordinates{Lat: 37.77, Lng: -122.41})
	v.ExternalPlaceID = "old-id"
	repo := newStubVenueRepo(v)
	registry := &stubRegistry{}
	resolver, _ := testResolver(repo, registry)

	opCalls := 0
	_, err := WithRefresh(context.Background(), resolver, PlaceRef{VenueID: v.ID, ExternalID: "old-id"}, func(_ context.Context, externalID string) (string, error) {
		opCalls++
		return "", retiredErr(externalID)
	})

	var stale *StaleIdentifierError
	require.ErrorAs(t, err, &stale)
	require.Equal(t, "old-id", stale.ExternalID)
	require.ErrorIs(t, err, ErrIdentifierRetired)
	require.Equal(t, 1, opCalls, "no retry without a replacement id")
	require.Equal(t, 1, registry.searchCalls, "exactly one secondary lookup")
}

func TestWithRefreshSameCandidate(t *testing.T) {
	v := venue.New("Same Place", "3 Main St", geo.Coordinates{Lat: 37.77, Lng: -122.41})
	v.ExternalPlaceID = "old-id"
	repo := newStubVenueRepo(v)
	registry := &stubRegistry{candidates: []Candidate{{ExternalID: "old-id"}}}
	resolver, _ := testResolver(repo, registry)

	opCalls := 0
	_, err := WithRefresh(context.Background(), resolver, PlaceRef{VenueID: v.ID, ExternalID: "old-id"}, func(_ context.Context, externalID string) (string, error) {
		opCalls++
		return "", retiredErr(externalID)
	})

	var stale *StaleIdentifierError
	require.ErrorAs(t, err, &stale)
	require.Equal(t, 1, opCalls)
	require.Zero(t, repo.updateCalls)
}

func TestWithRefreshNonStaleErrorPassesThrough(t *testing.T) {
	repo := newStubVenueRepo()
	registry := &stubRegistry{}
	resolver, _ := testResolver(repo, registry)

	boom := errors.New("upstream unavailable")
	_, err := WithRefresh(context.Background(), resolver, PlaceRef{VenueID: "v1", ExternalID: "id"}, func(context.Context, string) (int, error) {
		return 0, boom
	})

	require.ErrorIs(t, err, boom)
	require.Zero(t, registry.searchCalls)
}

func TestWithRefreshVenueRecordGone(t *testing.T) {
	repo := newStubVenueRepo()
	registry := &stubRegistry{candidates: []Candidate{{ExternalID: "new-id"}}}
	resolver, _ := testResolver(repo, registry)

	original := retiredErr("old-id")
	_, err := WithRefresh(context.Background(), resolver, PlaceRef{VenueID: "missing", ExternalID: "old-id"}, func(context.Context, string) (int, error) {
		return 0, original
	})

	require.ErrorIs(t, err, original)
	require.Zero(t, registry.searchCalls)
}

func TestWithRefreshSecondFailurePropagates(t *testing.T) {
	v := venue.New("Flaky", "4 Main St", geo.Coordinates{Lat: 37.77, Lng: -122.41})
	v.ExternalPlaceID = "old-id"
	repo := newStubVenueRepo(v)
	registry := &stubRegistry{candidates: []Candidate{{ExternalID: "new-id"}}}
	resolver, _ := testResolver(repo, registry)

	opCalls := 0
	_, err := WithRefresh(context.Background(), resolver, PlaceRef{VenueID: v.ID, ExternalID: "old-id"}, func(_ context.Context, externalID string) (string, error) {
		opCalls++
		return "", retiredErr(externalID)
	})

	require.ErrorIs(t, err, ErrIdentifierRetired)
	require.Equal(t, 2, opCalls, "one retry, never more")
	require.Equal(t, 1, registry.searchCalls)
}
