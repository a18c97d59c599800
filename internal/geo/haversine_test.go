package geo

import (
	"fos-allocation-service/internal/domain"
	"math"
	"testing"
)

func TestHaversineKnownDistance(t *testing.T) {
	// Mumbai CST to Pune station.
	mumbai := domain.Coordinates{Lat: 18.9398, Lon: 72.8355}
	pune := domain.Coordinates{Lat: 18.5286, Lon: 73.8743}

	got := Haversine(mumbai, pune)
	if got < 118 || got > 120 {
		t.Fatalf("distance = %.3f km, want ~119 km", got)
	}
}

func TestHaversineOneDegreeOfLatitude(t *testing.T) {
	a := domain.Coordinates{Lat: 0, Lon: 0}
	b := domain.Coordinates{Lat: 1, Lon: 0}

	want := EarthRadiusKm * math.Pi / 180
	if got := Haversine(a, b); math.Abs(got-want) > 1e-9 {
		t.Fatalf("distance = %v, want %v", got, want)
	}
}

func TestHaversineSymmetricAndZero(t *testing.T) {
	points := []domain.Coordinates{
		{Lat: 12.9716, Lon: 77.5946},
		{Lat: 28.7041, Lon: 77.1025},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 51.5074, Lon: -0.1278},
	}

	for _, p := range points {
		if d := Haversine(p, p); d != 0 {
			t.Errorf("Haversine(%v, %v) = %v, want 0", p, p, d)
		}
		for _, q := range points {
			if ab, ba := Haversine(p, q), Haversine(q, p); math.Abs(ab-ba) > 1e-9 {
				t.Errorf("asymmetric distance %v vs %v for %v, %v", ab, ba, p, q)
			}
		}
	}
}

func TestRoundKm(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.23449, 1.234},
		{1.2346, 1.235},
		{0, 0},
		{119.0004, 119},
	}
	for _, tt := range tests {
		if got := RoundKm(tt.in); got != tt.want {
			t.Errorf("RoundKm(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHaversineAntipodalIsHalfCircumference(t *testing.T) {
	want := EarthRadiusKm * math.Pi

	pairs := [][2]domain.Coordinates{
		{{Lat: -86.78, Lon: -179}, {Lat: 86.78, Lon: 1}},
		{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 180}},
		{{Lat: 90, Lon: 0}, {Lat: -90, Lon: 0}},
	}
	for _, p := range pairs {
		got := Haversine(p[0], p[1])
		if math.IsNaN(got) || math.Abs(got-want) > 1e-6 {
			t.Errorf("Haversine(%v, %v) = %v, want %v", p[0], p[1], got, want)
		}
	}

	// Sweep near-antipodal pairs; none may produce NaN.
	for lat := -89.99; lat < 90; lat += 0.37 {
		for lon := -180.0; lon < 180; lon += 1.3 {
			a := domain.Coordinates{Lat: lat, Lon: lon}
			b := domain.Coordinates{Lat: -lat, Lon: lon + 180}
			if d := Haversine(a, b); math.IsNaN(d) || d > want+1e-6 {
				t.Fatalf("Haversine(%v, %v) = %v", a, b, d)
			}
		}
	}
}
