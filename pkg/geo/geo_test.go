package geo

import (
	"math"
	"testing"
)

func TestHaversineZeroDistance(t *testing.T) {
	p := Point{Lat: 19.0760, Lng: 72.8777}
	if d := Haversine(p, p); d > 1e-9 {
		t.Fatalf("distance to self = %v, want ~0", d)
	}
}

func TestHaversineMumbaiExample(t *testing.T) {
	// Two points 0.01 degrees of longitude apart at Mumbai's latitude are
	// about 1.05 km apart.
	a := Point{Lat: 19.0760, Lng: 72.8777}
	b := Point{Lat: 19.0760, Lng: 72.8877}
	d := Haversine(a, b)
	if math.Abs(d-1.05) > 0.01 {
		t.Fatalf("Haversine(%v, %v) = %v km, want ~1.05", a, b, d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := Point{Lat: 12.9716, Lng: 77.5946}
	b := Point{Lat: 13.0827, Lng: 80.2707}
	if d1, d2 := Haversine(a, b), Haversine(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("asymmetric distance: %v vs %v", d1, d2)
	}
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	center := Point{Lat: 19.0760, Lng: 72.8777}
	box := BoundingBox(center, 5)

	// Any point within the radius must be inside the box, otherwise the
	// prefilter would drop valid results.
	probes := []Point{
		{Lat: 19.0760, Lng: 72.8877},
		{Lat: 19.1100, Lng: 72.8777},
		{Lat: 19.0400, Lng: 72.9100},
	}
	for _, p := range probes {
		if Haversine(center, p) <= 5 && !box.Contains(p) {
			t.Errorf("point %v within 5 km but outside bounding box %+v", p, box)
		}
	}
}

func TestFindNearbyRadiusCutoff(t *testing.T) {
	center := Point{Lat: 19.0760, Lng: 72.8777}
	near := Point{Lat: 19.0760, Lng: 72.8877}  // ~1.05 km
	far := Point{Lat: 19.0760, Lng: 73.0777}   // ~21 km
	candidates := []Point{far, near}

	got := FindNearby(center, 5, candidates, func(p Point) Point { return p }, nil)
	if len(got) != 1 {
		t.Fatalf("radius 5 km: got %d matches, want 1", len(got))
	}
	if got[0].Item != near {
		t.Fatalf("radius 5 km kept wrong point: %v", got[0].Item)
	}

	if got := FindNearby(center, 1, candidates, func(p Point) Point { return p }, nil); len(got) != 0 {
		t.Fatalf("radius 1 km: got %d matches, want 0", len(got))
	}
}

func TestFindNearbySortedAscendingWithinRadius(t *testing.T) {
	center := Point{Lat: 19.0, Lng: 72.8}
	candidates := []Point{
		{Lat: 19.05, Lng: 72.8},
		{Lat: 19.01, Lng: 72.8},
		{Lat: 19.03, Lng: 72.81},
		{Lat: 19.002, Lng: 72.805},
	}
	const radius = 10.0

	got := FindNearby(center, radius, candidates, func(p Point) Point { return p }, nil)
	if len(got) != len(candidates) {
		t.Fatalf("got %d matches, want %d", len(got), len(candidates))
	}
	for i, m := range got {
		if m.DistanceKm > radius {
			t.Errorf("match %d exceeds radius: %v", i, m.DistanceKm)
		}
		if d := Haversine(center, m.Item); math.Abs(d-m.DistanceKm) > 1e-9 {
			t.Errorf("match %d reported distance %v, recomputed %v", i, m.DistanceKm, d)
		}
		if i > 0 && got[i-1].DistanceKm > m.DistanceKm {
			t.Errorf("results not sorted ascending at %d: %v > %v", i, got[i-1].DistanceKm, m.DistanceKm)
		}
	}
}

func TestFindNearbyTieBreak(t *testing.T) {
	type job struct {
		name string
		p    Point
	}
	center := Point{Lat: 0, Lng: 0}
	// Equidistant east and west.
	jobs := []job{
		{name: "b", p: Point{Lat: 0, Lng: 0.01}},
		{name: "a", p: Point{Lat: 0, Lng: -0.01}},
	}

	got := FindNearby(center, 5, jobs,
		func(j job) Point { return j.p },
		func(x, y job) bool { return x.name < y.name })
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	if got[0].Item.name != "a" {
		t.Fatalf("tie-break not applied: first = %q, want %q", got[0].Item.name, "a")
	}
}

func TestRoundKm(t *testing.T) {
	if got := RoundKm(1.04999); got != 1.05 {
		t.Fatalf("RoundKm(1.04999) = %v, want 1.05", got)
	}
	if got := RoundKm(2.004); got != 2.0 {
		t.Fatalf("RoundKm(2.004) = %v, want 2", got)
	}
}
