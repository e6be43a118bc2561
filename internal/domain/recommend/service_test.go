package recommend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openbites/bitefinder/internal/domain/geo"
	"github.com/openbites/bitefinder/internal/domain/hours"
	"github.com/openbites/bitefinder/internal/domain/places"
	"github.com/openbites/bitefinder/internal/domain/venue"
)

type stubDishRepo struct {
	byVenue map[string][]venue.Dish
	err     error
}

func (r *stubDishRepo) AcceptedByVenue(_ context.Context, venueID string) ([]venue.Dish, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byVenue[venueID], nil
}

func (r *stubDishRepo) UpsertDish(_ context.Context, d venue.Dish) error {
	if r.byVenue == nil {
		r.byVenue = make(map[string][]venue.Dish)
	}
	r.byVenue[d.VenueID] = append(r.byVenue[d.VenueID], d)
	return nil
}

type stubDismissalRepo struct {
	dismissed map[string]map[string]struct{}
	err       error
}

func (r *stubDismissalRepo) Dismiss(_ context.Context, userID, venueID string) error {
	if r.dismissed == nil {
		r.dismissed = make(map[string]map[string]struct{})
	}
	if r.dismissed[userID] == nil {
		r.dismissed[userID] = make(map[string]struct{})
	}
	r.dismissed[userID][venueID] = struct{}{}
	return nil
}

func (r *stubDismissalRepo) DismissedVenueIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.dismissed[userID], nil
}

type stubHoursProvider struct {
	byExternalID map[string][]hours.Period
	errFor       map[string]error
}

func (p *stubHoursProvider) OpeningHours(_ context.Context, ref places.PlaceRef) ([]hours.Period, error) {
	if err := p.errFor[ref.ExternalID]; err != nil {
		return nil, err
	}
	return p.byExternalID[ref.ExternalID], nil
}

// tuesdayNoon is 2024-07-02 12:00 UTC, a Tuesday.
var tuesdayNoon = time.Date(2024, 7, 2, 12, 0, 0, 0, time.UTC)

var bayArea = geo.Region{North: 38.5, South: 37.0, East: -121.5, West: -123.0}

func allDay(day time.Weekday) []hours.Period {
	return []hours.Period{{
		Open:  hours.DayTime{Day: day, Time: 900},
		Close: &hours.DayTime{Day: day, Time: 2100},
	}}
}

func dinnerOnly(day time.Weekday) []hours.Period {
	return []hours.Period{{
		Open:  hours.DayTime{Day: day, Time: 1400},
		Close: &hours.DayTime{Day: day, Time: 2100},
	}}
}

type fixture struct {
	svc        *Service
	venues     *memRepo
	dishes     *stubDishRepo
	dismissals *stubDismissalRepo
	hours      *stubHoursProvider

	near venue.Venue
	mid  venue.Venue
	far  venue.Venue
}

// threeVenueFixture builds the canonical scenario: venues at roughly 0.3, 0.8
// and 1.2 miles from the center; near is open with a vegan hero dish, mid is
// closed until 2 PM with a vegan dish, far is open with only a non-vegan dish.
func threeVenueFixture(t *testing.T) *fixture {
	t.Helper()

	near := acceptedVenue("near", testCenter.Lat+0.3/69.09, testCenter.Lng)
	mid := acceptedVenue("mid", testCenter.Lat+0.8/69.09, testCenter.Lng)
	far := acceptedVenue("far", testCenter.Lat+1.2/69.09, testCenter.Lng)

	veganHero := venue.NewDish(near.ID, "Garden Bowl", venue.DietaryTags{Vegetarian: true, Vegan: true})
	veganHero.IsHero = true
	veganHero.Status = venue.StatusAccepted

	midVegan := venue.NewDish(mid.ID, "Tofu Stir Fry", venue.DietaryTags{Vegetarian: true, Vegan: true})
	midVegan.Status = venue.StatusAccepted

	farMeat := venue.NewDish(far.ID, "Brisket Plate", venue.DietaryTags{})
	farMeat.Status = venue.StatusAccepted

	f := &fixture{
		venues: &memRepo{venues: []venue.Venue{near, mid, far}},
		dishes: &stubDishRepo{byVenue: map[string][]venue.Dish{
			near.ID: {veganHero},
			mid.ID:  {midVegan},
			far.ID:  {farMeat},
		}},
		dismissals: &stubDismissalRepo{},
		hours: &stubHoursProvider{
			byExternalID: map[string][]hours.Period{
				near.ExternalPlaceID: allDay(time.Tuesday),
				mid.ExternalPlaceID:  dinnerOnly(time.Tuesday),
				far.ExternalPlaceID:  allDay(time.Tuesday),
			},
			errFor: map[string]error{},
		},
		near: near,
		mid:  mid,
		far:  far,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(Config{Region: bayArea}, f.venues, f.dishes, f.dismissals, f.hours, logger)
	return f
}

func veganQuery() Query {
	return Query{
		Center:         testCenter,
		Dietary:        venue.DietaryFilters{Vegan: true},
		UserID:         "u1",
		MaxRadiusMiles: 5,
		Now:            tuesdayNoon,
	}
}

func TestNearestOpenPicksClosestOpenWithMatchingDish(t *testing.T) {
	f := threeVenueFixture(t)

	result, err := f.svc.NearestOpen(context.Background(), veganQuery())
	require.NoError(t, err)
	require.Equal(t, KindRecommendation, result.Kind)
	require.NotNil(t, result.Recommendation)

	rec := result.Recommendation
	require.Equal(t, f.near.ID, rec.Venue.ID, "never the farther venue without a matching dish")
	require.True(t, rec.IsOpen)
	require.Equal(t, "9 PM", rec.CloseTimeLabel)
	require.InDelta(t, 0.3, rec.DistanceMiles, 0.02)
	require.NotNil(t, rec.HeroDish)
	require.Equal(t, "Garden Bowl", rec.HeroDish.Name)
	require.Len(t, rec.MatchingDishes, 1)
}

func TestNearestOpenSkipsDismissedVenue(t *testing.T) {
	f := threeVenueFixture(t)
	require.NoError(t, f.dismissals.Dismiss(context.Background(), "u1", f.near.ID))

	result, err := f.svc.NearestOpen(context.Background(), veganQuery())
	require.NoError(t, err)

	// mid is closed until 2 PM and far has no vegan dish, so nothing is open;
	// mid is the only candidate with a computable reopen time.
	require.Equal(t, KindNothingOpen, result.Kind)
	require.NotNil(t, result.NextToOpen)
	require.Equal(t, f.mid.ID, result.NextToOpen.Venue.ID)
	require.Equal(t, "in 2 hrs", result.NextToOpen.OpensInLabel)
}

func TestNearestOpenAllSeen(t *testing.T) {
	f := threeVenueFixture(t)
	for _, v := range []venue.Venue{f.near, f.mid, f.far} {
		require.NoError(t, f.dismissals.Dismiss(context.Background(), "u1", v.ID))
	}

	result, err := f.svc.NearestOpen(context.Background(), veganQuery())
	require.NoError(t, err)
	require.Equal(t, KindAllSeen, result.Kind)
}

func TestNearestOpenOutsideServiceArea(t *testing.T) {
	f := threeVenueFixture(t)
	q := veganQuery()
	q.Center = geo.Coordinates{Lat: 40.7128, Lng: -74.0060}

	result, err := f.svc.NearestOpen(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, KindNotInServiceArea, result.Kind)
	require.NotEmpty(t, result.Preview)
	require.LessOrEqual(t, len(result.Preview), 6)
}

func TestNearestOpenNothingNearby(t *testing.T) {
	f := threeVenueFixture(t)
	q := veganQuery()
	q.Center = geo.Coordinates{Lat: 38.4, Lng: -122.9} // inside region, venues out of reach

	result, err := f.svc.NearestOpen(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, KindNothingOpen, result.Kind)
	require.Nil(t, result.NextToOpen)
}

func TestNearestOpenAssumesOpenOnHoursFailure(t *testing.T) {
	f := threeVenueFixture(t)
	f.hours.errFor[f.near.ExternalPlaceID] = errors.New("registry down")

	result, err := f.svc.NearestOpen(context.Background(), veganQuery())
	require.NoError(t, err)
	require.Equal(t, KindRecommendation, result.Kind)
	require.Equal(t, f.near.ID, result.Recommendation.Venue.ID)
	require.True(t, result.Recommendation.IsOpen)
	require.Empty(t, result.Recommendation.CloseTimeLabel, "degraded result carries no close label")
}

func TestNearestOpenSurvivesDismissalLookupFailure(t *testing.T) {
	f := threeVenueFixture(t)
	f.dismissals.err = errors.New("store unavailable")

	result, err := f.svc.NearestOpen(context.Background(), veganQuery())
	require.NoError(t, err)
	require.Equal(t, KindRecommendation, result.Kind)
}

func TestNearestOpenInfiniteCeilingStillClamped(t *testing.T) {
	f := threeVenueFixture(t)
	q := veganQuery()
	q.MaxRadiusMiles = math.Inf(1)

	result, err := f.svc.NearestOpen(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, KindRecommendation, result.Kind)
}

func TestQueueOrdersByDistanceAndTruncates(t *testing.T) {
	f := threeVenueFixture(t)
	q := veganQuery()
	q.Dietary = venue.DietaryFilters{} // no filtering: every dish matches

	queue, err := f.svc.Queue(context.Background(), q, 2)
	require.NoError(t, err)

	// near and far are open; mid is closed and drops out.
	require.Len(t, queue, 2)
	require.Equal(t, f.near.ID, queue[0].Venue.ID)
	require.Equal(t, f.far.ID, queue[1].Venue.ID)
	require.Less(t, queue[0].DistanceMiles, queue[1].DistanceMiles)
}

func TestQueueEmptyOutsideServiceArea(t *testing.T) {
	f := threeVenueFixture(t)
	q := veganQuery()
	q.Center = geo.Coordinates{Lat: 0, Lng: 0}

	queue, err := f.svc.Queue(context.Background(), q, 3)
	require.NoError(t, err)
	require.Empty(t, queue)
}

func TestQueueRespectsDietaryFilter(t *testing.T) {
	f := threeVenueFixture(t)

	queue, err := f.svc.Queue(context.Background(), veganQuery(), 5)
	require.NoError(t, err)
	require.Len(t, queue, 1, "only the near venue is open with a vegan dish")
	require.Equal(t, f.near.ID, queue[0].Venue.ID)
}

func TestMatchingDishesStrictConjunction(t *testing.T) {
	dishes := []venue.Dish{
		{Name: "vegan gf", Dietary: venue.DietaryTags{Vegan: true, Vegetarian: true, GlutenFree: true}},
		{Name: "vegan only", Dietary: venue.DietaryTags{Vegan: true, Vegetarian: true}},
		{Name: "gf only", Dietary: venue.DietaryTags{GlutenFree: true}},
	}

	all := matchingDishes(dishes, venue.DietaryFilters{})
	require.Len(t, all, 3, "all-false filters are the identity")

	both := matchingDishes(dishes, venue.DietaryFilters{Vegan: true, GlutenFree: true})
	require.Len(t, both, 1)
	require.Equal(t, "vegan gf", both[0].Name)

	vegan := matchingDishes(dishes, venue.DietaryFilters{Vegan: true})
	require.Len(t, vegan, 2)
}

func TestNearestOpenDeterministicWithFixedNow(t *testing.T) {
	f := threeVenueFixture(t)

	first, err := f.svc.NearestOpen(context.Background(), veganQuery())
	require.NoError(t, err)
	second, err := f.svc.NearestOpen(context.Background(), veganQuery())
	require.NoError(t, err)
	require.Equal(t, first, second)
}
