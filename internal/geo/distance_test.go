package geo

import (
	"math"
	"testing"
)

func TestHaversine_ZeroDistance(t *testing.T) {
	d := Haversine(40.4406, -79.9951, 40.4406, -79.9951)
	if d != 0 {
		t.Errorf("distance between identical points = %f, want 0", d)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Cathedral of Learning to Carnegie Museum, roughly 500m
	d := Haversine(40.4443, -79.9532, 40.4433, -79.9489)
	if d < 300 || d > 600 {
		t.Errorf("distance = %f m, want roughly 300-600", d)
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Haversine(40.44, -79.99, 40.45, -80.00)
	b := Haversine(40.45, -80.00, 40.44, -79.99)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("Haversine not symmetric: %f vs %f", a, b)
	}
}

func TestValidCoords(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"origin", 0, 0, true},
		{"pittsburgh", 40.4406, -79.9951, true},
		{"lat edge", 90, 180, true},
		{"negative edge", -90, -180, true},
		{"lat too big", 90.0001, 0, false},
		{"lat too small", -91, 0, false},
		{"lon too big", 0, 180.5, false},
		{"lon too small", 0, -181, false},
		{"NaN lat", math.NaN(), 0, false},
		{"NaN lon", 0, math.NaN(), false},
		{"Inf lat", math.Inf(1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCoords(tt.lat, tt.lon); got != tt.want {
				t.Errorf("ValidCoords(%f, %f) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}
