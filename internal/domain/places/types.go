package places

import (
	"time"

	"github.com/openbites/bitefinder/internal/domain/geo"
	"github.com/openbites/bitefinder/internal/domain/hours"
)

// Kind names a cached data family. Each kind carries its own TTL pair.
type Kind string

const (
	KindHours   Kind = "hours"
	KindDetails Kind = "details"
	KindPhoto   Kind = "photo"
)

// Key addresses one cache entry. Suffix distinguishes parameterized variants
// such as a requested photo width.
type Key struct {
	Kind       Kind
	ExternalID string
	Suffix     string
}

func (k Key) String() string {
	if k.Suffix == "" {
		return string(k.Kind) + ":" + k.ExternalID
	}
	return string(k.Kind) + ":" + k.ExternalID + ":" + k.Suffix
}

// TTLs pairs the independent expiries of the two cache tiers.
type TTLs struct {
	Persistent time.Duration
	Local      time.Duration
}

// PlaceRef ties a durable venue record to its current external registry id.
type PlaceRef struct {
	VenueID    string
	ExternalID string
}

// Candidate is a text-search hit from the registry.
type Candidate struct {
	ExternalID  string
	Name        string
	Address     string
	Coordinates geo.Coordinates
}

// Details is the registry's view of a place.
type Details struct {
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	Coordinates geo.Coordinates `json:"coordinates"`
	Periods     []hours.Period  `json:"periods"`
	PhotoRef    string          `json:"photoRef"`
}
