package venue

import (
	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/google/uuid"

	"github.com/openbites/bitefinder/internal/domain/geo"
)

// Status tracks a record through the moderation lifecycle. Deletion is a soft
// transition to StatusRejected so historical interactions stay valid.
type Status string

const (
	StatusAccepted Status = "ACCEPTED"
	StatusPending  Status = "PENDING"
	StatusRejected Status = "REJECTED"
)

// Venue is a place candidate recommendations are drawn from. Geohash is
// derived from Coordinates and is the sole proximity index; every coordinate
// write must go through WithCoordinates to keep it consistent.
type Venue struct {
	ID              string          `json:"id"`
	ExternalPlaceID string          `json:"externalPlaceId"`
	Name            string          `json:"name"`
	Address         string          `json:"address"`
	Coordinates     geo.Coordinates `json:"coordinates"`
	Geohash         string          `json:"geohash"`
	Status          Status          `json:"status"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
}

// New builds a pending venue with a fresh id and a computed geohash.
func New(name, address string, c geo.Coordinates) Venue {
	v := Venue{
		ID:      uuid.NewString(),
		Name:    name,
		Address: address,
		Status:  StatusPending,
	}
	return v.WithCoordinates(c)
}

// WithCoordinates returns a copy carrying the new coordinates and the
// recomputed geohash.
func (v Venue) WithCoordinates(c geo.Coordinates) Venue {
	v.Coordinates = c
	v.Geohash = geohash.Encode(c.Lat, c.Lng)
	return v
}

// DietaryTags are the dietary properties a dish actually has.
type DietaryTags struct {
	Vegetarian bool `json:"vegetarian"`
	Vegan      bool `json:"vegan"`
	GlutenFree bool `json:"glutenFree"`
}

// DietaryFilters is a conjunctive requirement set: every true flag must be
// satisfied independently. All-false means no filtering.
type DietaryFilters struct {
	Vegetarian bool `json:"vegetarian"`
	Vegan      bool `json:"vegan"`
	GlutenFree bool `json:"glutenFree"`
}

// Satisfies reports whether the tags meet every requested flag.
func (t DietaryTags) Satisfies(f DietaryFilters) bool {
	if f.Vegetarian && !t.Vegetarian {
		return false
	}
	if f.Vegan && !t.Vegan {
		return false
	}
	if f.GlutenFree && !t.GlutenFree {
		return false
	}
	return true
}

// Dish belongs to a venue. At most one accepted dish per venue should carry
// IsHero; readers treat "first accepted hero" as the hero.
type Dish struct {
	ID      string      `json:"id"`
	VenueID string      `json:"venueId"`
	Name    string      `json:"name"`
	Dietary DietaryTags `json:"dietary"`
	IsHero  bool        `json:"isHero"`
	Status  Status      `json:"status"`
}

// NewDish builds a pending dish with a fresh id.
func NewDish(venueID, name string, tags DietaryTags) Dish {
	return Dish{
		ID:      uuid.NewString(),
		VenueID: venueID,
		Name:    name,
		Dietary: tags,
		Status:  StatusPending,
	}
}

// HeroDish returns the first accepted hero dish, or nil.
func HeroDish(dishes []Dish) *Dish {
	for i := range dishes {
		if dishes[i].Status == StatusAccepted && dishes[i].IsHero {
			return &dishes[i]
		}
	}
	return nil
}
