package geo

import "math"

const earthRadiusMiles = 3958.7613

// Coordinates is an immutable WGS84 point in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMiles returns the great-circle distance between two points.
func DistanceMiles(a, b Coordinates) float64 {
	if a == b {
		return 0
	}
	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLng*sinLng
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Region is a rectangular service area expressed as degree bounds.
type Region struct {
	North float64
	South float64
	East  float64
	West  float64
}

// Contains reports whether the point lies inside the region, borders included.
func (r Region) Contains(p Coordinates) bool {
	return p.Lat <= r.North && p.Lat >= r.South && p.Lng <= r.East && p.Lng >= r.West
}
