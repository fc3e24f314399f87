package geospatial

import "math"

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate pair
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm calculates the great-circle distance between two points in kilometers
func DistanceKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// WithinRadius checks if candidate is within radiusKm of center
func WithinRadius(center, candidate Point, radiusKm float64) bool {
	return DistanceKm(center, candidate) <= radiusKm
}

// ValidCoordinate reports whether a point is a plausible WGS84 coordinate.
// (0,0) is treated as unset since that is what an empty form submits.
func ValidCoordinate(p Point) bool {
	if p.Lat == 0 && p.Lng == 0 {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
