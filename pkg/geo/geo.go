// Package geo provides the great-circle distance primitive and the ranked
// proximity search shared by order discovery, nearby-worker lookup and ETA
// computation. All of these features must agree on the exact same numbers,
// so the formula and constants live here and nowhere else.
package geo

import (
	"math"
	"sort"
)

const (
	// EarthRadiusKm is Earth's radius used by the Haversine formula.
	EarthRadiusKm = 6371.0

	// kmPerDegreeLat approximates one degree of latitude in kilometers,
	// used only for the cheap bounding-box prefilter.
	kmPerDegreeLat = 111.0
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Haversine returns the great-circle distance between two points in
// kilometers, assuming a spherical Earth of radius 6371 km.
func Haversine(a, b Point) float64 {
	const degToRad = math.Pi / 180
	dLat := (b.Lat - a.Lat) * degToRad
	dLng := (b.Lng - a.Lng) * degToRad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*degToRad)*math.Cos(b.Lat*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Box is a rectangular latitude/longitude window.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether p falls inside the box.
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// BoundingBox returns the rectangular prefilter window for a radius search:
// the latitude window is radiusKm/111 degrees either side of the center,
// and the longitude window is widened by 1/cos(lat) to correct for meridian
// convergence. Points inside the box may still exceed the radius; points
// outside it never satisfy it.
func BoundingBox(center Point, radiusKm float64) Box {
	dLat := radiusKm / kmPerDegreeLat
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	// Near the poles the longitude window degenerates; fall back to the
	// whole range rather than dividing by ~0.
	dLng := 180.0
	if cosLat > 1e-9 {
		dLng = dLat / cosLat
	}
	return Box{
		MinLat: center.Lat - dLat,
		MaxLat: center.Lat + dLat,
		MinLng: center.Lng - dLng,
		MaxLng: center.Lng + dLng,
	}
}

// Match is an item that survived a proximity search, with its exact
// distance from the center.
type Match[T any] struct {
	Item       T
	DistanceKm float64
}

// FindNearby filters candidates to those within radiusKm of center and
// returns them sorted ascending by Haversine distance. The bounding-box
// prefilter cuts the candidate set before any trigonometry runs. Ties in
// distance are broken by the optional less function; a nil less keeps the
// input order for equal distances. The function is pure and safe for
// concurrent use.
func FindNearby[T any](center Point, radiusKm float64, candidates []T, at func(T) Point, less func(a, b T) bool) []Match[T] {
	box := BoundingBox(center, radiusKm)

	matches := make([]Match[T], 0, len(candidates))
	for _, c := range candidates {
		p := at(c)
		if !box.Contains(p) {
			continue
		}
		d := Haversine(center, p)
		if d > radiusKm {
			continue
		}
		matches = append(matches, Match[T]{Item: c, DistanceKm: d})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		if less != nil {
			return less(matches[i].Item, matches[j].Item)
		}
		return false
	})
	return matches
}

// RoundKm rounds a distance to two decimal places for presentation.
func RoundKm(d float64) float64 {
	return math.Round(d*100) / 100
}
