package recommend

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	geohash "github.com/TomiHiltunen/geohash-golang"

	"github.com/openbites/bitefinder/internal/domain/geo"
	"github.com/openbites/bitefinder/internal/domain/venue"
)

const (
	defaultRadiusMiles = 20.0
	radiusClampMiles   = 50.0
)

// cellHeightMiles is the approximate north-south span of a geohash cell per
// precision. Covering a disc with the center cell plus its 8 neighbors is
// sound as long as the cell span is at least the radius.
var cellHeightMiles = [...]float64{
	1: 3102,
	2: 387.8,
	3: 96.9,
	4: 12.1,
	5: 3.0,
	6: 0.38,
}

// Locator finds accepted venues around a point via geohash bounding queries,
// falling back to a full scan when the indexed path comes up empty.
type Locator struct {
	venues venue.Repository
	logger *slog.Logger
}

// NewLocator constructs a locator over the venue repository.
func NewLocator(venues venue.Repository, logger *slog.Logger) *Locator {
	return &Locator{venues: venues, logger: logger.With("component", "recommend.locator")}
}

// FindNearby returns accepted venues within the effective radius of center,
// de-duplicated and sorted by ascending true distance.
func (l *Locator) FindNearby(ctx context.Context, center geo.Coordinates, maxRadiusMiles float64) ([]Candidate, error) {
	radius := effectiveRadius(maxRadiusMiles)

	merged := make(map[string]venue.Venue)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, r := range coverRanges(center, radius) {
		wg.Add(1)
		go func(r hashRange) {
			defer wg.Done()
			vs, err := l.venues.GeohashRange(ctx, venue.StatusAccepted, r.start, r.end)
			if err != nil {
				l.logger.Warn("geohash range query failed", "start", r.start, "error", err)
				return
			}
			mu.Lock()
			for _, v := range vs {
				merged[v.ID] = v
			}
			mu.Unlock()
		}(r)
	}
	wg.Wait()

	if len(merged) > 0 {
		indexed := make([]venue.Venue, 0, len(merged))
		for _, v := range merged {
			indexed = append(indexed, v)
		}
		if candidates := rankByDistance(indexed, center, radius); len(candidates) > 0 {
			return candidates, nil
		}
	}

	// The geohash bounds found nothing usable; scan everything instead. The
	// result must match what the indexed path would have produced.
	all, err := l.venues.ListByStatus(ctx, venue.StatusAccepted)
	if err != nil {
		return nil, err
	}
	return rankByDistance(all, center, radius), nil
}

func effectiveRadius(miles float64) float64 {
	if math.IsInf(miles, 0) || math.IsNaN(miles) || miles <= 0 {
		miles = defaultRadiusMiles
	}
	return math.Min(miles, radiusClampMiles)
}

func rankByDistance(vs []venue.Venue, center geo.Coordinates, radius float64) []Candidate {
	seen := make(map[string]struct{}, len(vs))
	candidates := make([]Candidate, 0, len(vs))
	for _, v := range vs {
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		d := geo.DistanceMiles(center, v.Coordinates)
		if d > radius {
			continue
		}
		candidates = append(candidates, Candidate{Venue: v, DistanceMiles: d})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DistanceMiles == candidates[j].DistanceMiles {
			return candidates[i].Venue.ID < candidates[j].Venue.ID
		}
		return candidates[i].DistanceMiles < candidates[j].DistanceMiles
	})
	return candidates
}

type hashRange struct {
	start string
	end   string
}

// coverRanges approximates the search disc as prefix ranges over the geohash
// index: the center cell and its 8 neighbors at a precision wide enough for
// the radius. The superset is post-filtered by true distance.
func coverRanges(center geo.Coordinates, radiusMiles float64) []hashRange {
	precision := 1
	for p := len(cellHeightMiles) - 1; p >= 1; p-- {
		if cellHeightMiles[p] >= radiusMiles {
			precision = p
			break
		}
	}

	centerCell := geohash.EncodeWithPrecision(center.Lat, center.Lng, precision)
	cells := map[string]struct{}{centerCell: {}}

	top := geohash.CalculateAdjacent(centerCell, "top")
	bottom := geohash.CalculateAdjacent(centerCell, "bottom")
	for _, c := range []string{
		top,
		bottom,
		geohash.CalculateAdjacent(centerCell, "left"),
		geohash.CalculateAdjacent(centerCell, "right"),
		geohash.CalculateAdjacent(top, "left"),
		geohash.CalculateAdjacent(top, "right"),
		geohash.CalculateAdjacent(bottom, "left"),
		geohash.CalculateAdjacent(bottom, "right"),
	} {
		if c != "" {
			cells[c] = struct{}{}
		}
	}

	ranges := make([]hashRange, 0, len(cells))
	for c := range cells {
		ranges = append(ranges, hashRange{start: c, end: c + "~"})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	return ranges
}
