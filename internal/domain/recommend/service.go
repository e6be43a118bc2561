package recommend

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/openbites/bitefinder/internal/domain/geo"
	"github.com/openbites/bitefinder/internal/domain/hours"
	"github.com/openbites/bitefinder/internal/domain/places"
	"github.com/openbites/bitefinder/internal/domain/venue"
)

// Config carries the selector's tuning knobs.
type Config struct {
	Region geo.Region
	// BatchSize caps how many closest candidates NearestOpen evaluates in
	// parallel. Defaults to 10.
	BatchSize int
	// QueueOversample multiplies the queue limit when sizing its batch, to
	// compensate for candidates later dropped by dietary or hours filters.
	// Defaults to 2.
	QueueOversample int
	// PreviewCount caps the venues returned with a not-in-service-area
	// result. Defaults to 6.
	PreviewCount int
}

func (c Config) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return 10
}

func (c Config) oversample() int {
	if c.QueueOversample > 0 {
		return c.QueueOversample
	}
	return 2
}

func (c Config) previewCount() int {
	if c.PreviewCount > 0 {
		return c.PreviewCount
	}
	return 6
}

// HoursProvider fetches weekly opening periods for a place, normally the
// places service (cache + staleness recovery).
type HoursProvider interface {
	OpeningHours(ctx context.Context, ref places.PlaceRef) ([]hours.Period, error)
}

// Service is the top-level recommendation selector.
type Service struct {
	cfg        Config
	locator    *Locator
	dishes     venue.DishRepository
	dismissals venue.DismissalRepository
	venues     venue.Repository
	hours      HoursProvider
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires the selector pipeline.
func NewService(cfg Config, venues venue.Repository, dishes venue.DishRepository, dismissals venue.DismissalRepository, hoursProvider HoursProvider, logger *slog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		locator:    NewLocator(venues, logger),
		dishes:     dishes,
		dismissals: dismissals,
		venues:     venues,
		hours:      hoursProvider,
		logger:     logger.With("component", "recommend.service"),
		now:        time.Now,
	}
}

// NearestOpen returns the closest open, eligible venue as a tagged result.
func (s *Service) NearestOpen(ctx context.Context, q Query) (Result, error) {
	if !s.cfg.Region.Contains(q.Center) {
		return Result{Kind: KindNotInServiceArea, Preview: s.previewVenues(ctx)}, nil
	}
	at := s.referenceInstant(q)

	candidates, dismissed, err := s.sourceCandidates(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{Kind: KindNothingOpen}, nil
	}

	remaining := applyCeiling(filterDismissed(candidates, dismissed), q.MaxRadiusMiles)
	if len(remaining) == 0 {
		return Result{Kind: KindAllSeen}, nil
	}

	batch := remaining[:min(len(remaining), s.cfg.batchSize())]
	evals := s.evaluateBatch(ctx, batch, q.Dietary, at)

	// Batch order preserves distance order, so the first open evaluation is
	// the closest open venue.
	for i := range evals {
		ev := &evals[i]
		if !ev.eligible || !ev.isOpen {
			continue
		}
		return Result{Kind: KindRecommendation, Recommendation: ev.recommendation()}, nil
	}

	var (
		next        *evaluation
		nextMinutes int
	)
	for i := range evals {
		ev := &evals[i]
		if !ev.eligible || ev.nextOpenMinutes == nil {
			continue
		}
		if next == nil || *ev.nextOpenMinutes < nextMinutes {
			next = ev
			nextMinutes = *ev.nextOpenMinutes
		}
	}
	if next != nil {
		return Result{Kind: KindNothingOpen, NextToOpen: &NextToOpen{
			Venue:        next.candidate.Venue,
			OpensInLabel: hours.OpensInLabel(nextMinutes),
		}}, nil
	}
	return Result{Kind: KindAllSeen}, nil
}

// Queue returns up to limit open, eligible venues ordered by ascending
// distance. Outside the service region it returns an empty list, not an error.
func (s *Service) Queue(ctx context.Context, q Query, limit int) ([]Recommendation, error) {
	if limit <= 0 || !s.cfg.Region.Contains(q.Center) {
		return []Recommendation{}, nil
	}
	at := s.referenceInstant(q)

	candidates, dismissed, err := s.sourceCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	remaining := applyCeiling(filterDismissed(candidates, dismissed), q.MaxRadiusMiles)
	if len(remaining) == 0 {
		return []Recommendation{}, nil
	}

	batch := remaining[:min(len(remaining), limit*s.cfg.oversample())]
	evals := s.evaluateBatch(ctx, batch, q.Dietary, at)

	out := make([]Recommendation, 0, limit)
	for i := range evals {
		ev := &evals[i]
		if !ev.eligible || !ev.isOpen {
			continue
		}
		out = append(out, *ev.recommendation())
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Service) referenceInstant(q Query) time.Time {
	if !q.Now.IsZero() {
		return q.Now
	}
	return s.now()
}

// sourceCandidates runs the geospatial lookup and the dismissal lookup
// concurrently; only the former can fail the request.
func (s *Service) sourceCandidates(ctx context.Context, q Query) ([]Candidate, map[string]struct{}, error) {
	var (
		wg         sync.WaitGroup
		candidates []Candidate
		candErr    error
		dismissed  map[string]struct{}
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		candidates, candErr = s.locator.FindNearby(ctx, q.Center, q.MaxRadiusMiles)
	}()
	go func() {
		defer wg.Done()
		dismissed = s.dismissedSet(ctx, q.UserID)
	}()
	wg.Wait()
	return candidates, dismissed, candErr
}

func (s *Service) previewVenues(ctx context.Context) []venue.Venue {
	all, err := s.venues.ListByStatus(ctx, venue.StatusAccepted)
	if err != nil {
		s.logger.Warn("preview venue lookup failed", "error", err)
		return nil
	}
	if len(all) > s.cfg.previewCount() {
		all = all[:s.cfg.previewCount()]
	}
	return all
}

func filterDismissed(candidates []Candidate, dismissed map[string]struct{}) []Candidate {
	if len(dismissed) == 0 {
		return candidates
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := dismissed[c.Venue.ID]; skip {
			continue
		}
		out = append(out, c)
	}
	return out
}

// applyCeiling enforces the caller's logical radius ceiling. An infinite,
// zero or negative ceiling means none; the physical search clamp has already
// been applied by the locator.
func applyCeiling(candidates []Candidate, maxRadiusMiles float64) []Candidate {
	if maxRadiusMiles <= 0 || math.IsInf(maxRadiusMiles, 0) || math.IsNaN(maxRadiusMiles) {
		return candidates
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.DistanceMiles > maxRadiusMiles {
			continue
		}
		out = append(out, c)
	}
	return out
}

type evaluation struct {
	candidate       Candidate
	eligible        bool
	matching        []venue.Dish
	hero            *venue.Dish
	isOpen          bool
	closeLabel      string
	nextOpenMinutes *int
}

func (ev *evaluation) recommendation() *Recommendation {
	return &Recommendation{
		Venue:          ev.candidate.Venue,
		HeroDish:       ev.hero,
		MatchingDishes: ev.matching,
		DistanceMiles:  ev.candidate.DistanceMiles,
		IsOpen:         ev.isOpen,
		CloseTimeLabel: ev.closeLabel,
	}
}

// evaluateBatch gathers one evaluation per candidate in parallel, preserving
// input order. Siblings are not cancelled once a winner exists; the batch is
// awaited as a whole.
func (s *Service) evaluateBatch(ctx context.Context, batch []Candidate, dietary venue.DietaryFilters, at time.Time) []evaluation {
	evals := make([]evaluation, len(batch))
	var wg sync.WaitGroup
	for i, c := range batch {
		wg.Add(1)
		go func(i int, c Candidate) {
			defer wg.Done()
			evals[i] = s.evaluate(ctx, c, dietary, at)
		}(i, c)
	}
	wg.Wait()
	return evals
}

func (s *Service) evaluate(ctx context.Context, c Candidate, dietary venue.DietaryFilters, at time.Time) evaluation {
	ev := evaluation{candidate: c}

	dishes, err := s.dishes.AcceptedByVenue(ctx, c.Venue.ID)
	if err != nil {
		s.logger.Warn("dish lookup failed, excluding candidate", "venueId", c.Venue.ID, "error", err)
		return ev
	}
	ev.matching = matchingDishes(dishes, dietary)
	if len(ev.matching) == 0 {
		return ev
	}
	ev.eligible = true

	ref := places.PlaceRef{VenueID: c.Venue.ID, ExternalID: c.Venue.ExternalPlaceID}
	periods, err := s.hours.OpeningHours(ctx, ref)
	if err != nil {
		// Deliberate leniency: an unreachable hours source must not hide the
		// venue, so it counts as open with no close label.
		s.logger.Warn("hours fetch failed, assuming open", "venueId", c.Venue.ID, "error", err)
		ev.isOpen = true
	} else {
		state := hours.Evaluate(periods, at)
		ev.isOpen = state.IsOpen
		ev.closeLabel = state.CloseTimeLabel
		ev.nextOpenMinutes = state.NextOpenMinutes
	}

	if ev.isOpen {
		ev.hero = venue.HeroDish(dishes)
	}
	return ev
}
