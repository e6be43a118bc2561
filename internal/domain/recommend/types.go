package recommend

import (
	"time"

	"github.com/openbites/bitefinder/internal/domain/geo"
	"github.com/openbites/bitefinder/internal/domain/venue"
)

// ResultKind tags the variant carried by a Result.
type ResultKind string

const (
	KindRecommendation   ResultKind = "recommendation"
	KindNothingOpen      ResultKind = "nothing_open"
	KindNotInServiceArea ResultKind = "not_in_service_area"
	KindAllSeen          ResultKind = "all_seen"
)

// Recommendation is a single open, eligible venue with its dish context.
type Recommendation struct {
	Venue          venue.Venue  `json:"venue"`
	HeroDish       *venue.Dish  `json:"heroDish,omitempty"`
	MatchingDishes []venue.Dish `json:"matchingDishes"`
	DistanceMiles  float64      `json:"distanceMiles"`
	IsOpen         bool         `json:"isOpen"`
	CloseTimeLabel string       `json:"closeTimeLabel,omitempty"`
}

// NextToOpen points at the closed venue that reopens soonest.
type NextToOpen struct {
	Venue        venue.Venue `json:"venue"`
	OpensInLabel string      `json:"opensInLabel"`
}

// Result is the tagged union returned by NearestOpen. Exactly the fields for
// the tagged Kind are set; "no results" conditions are variants, not errors.
type Result struct {
	Kind           ResultKind      `json:"kind"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	NextToOpen     *NextToOpen     `json:"nextToOpen,omitempty"`
	Preview        []venue.Venue   `json:"preview,omitempty"`
}

// Candidate is a located venue with its true distance from the query center.
type Candidate struct {
	Venue         venue.Venue
	DistanceMiles float64
}

// Query carries one recommendation request. All session-ish state arrives as
// plain parameters so calls are deterministic under a fixed Now.
type Query struct {
	Center         geo.Coordinates
	Dietary        venue.DietaryFilters
	UserID         string
	MaxRadiusMiles float64
	// Now overrides the reference instant; the zero value means wall clock.
	Now time.Time
}
