package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/services/servicetest"
)

func TestCalculateFare(t *testing.T) {
	tests := []struct {
		name     string
		meters   int
		seconds  float64
		expected models.FareQuote
	}{
		{
			name:    "five km in ten minutes",
			meters:  5000,
			seconds: 600,
			expected: models.FareQuote{
				models.VehicleSmall:  100,
				models.VehicleMedium: 155,
				models.VehicleLarge:  210,
			},
		},
		{
			name:    "zero length route costs the base fare",
			meters:  0,
			seconds: 0,
			expected: models.FareQuote{
				models.VehicleSmall:  30,
				models.VehicleMedium: 50,
				models.VehicleLarge:  70,
			},
		},
		{
			name:    "fractions are rounded",
			meters:  1234,
			seconds: 95,
			// small: 30 + 12.34 + 3.1667 = 45.51
			expected: models.FareQuote{
				models.VehicleSmall:  46,
				models.VehicleMedium: 73,
				models.VehicleLarge:  101,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateFare(tt.meters, tt.seconds)
			for _, vt := range models.VehicleTypes {
				if got[vt] != tt.expected[vt] {
					t.Errorf("%s: got %d, want %d", vt, got[vt], tt.expected[vt])
				}
			}
		})
	}
}

func TestCalculateFareDeterministicAndMonotonic(t *testing.T) {
	base := CalculateFare(8000, 900)
	again := CalculateFare(8000, 900)
	longer := CalculateFare(9000, 900)
	slower := CalculateFare(8000, 1200)

	for _, vt := range models.VehicleTypes {
		if base[vt] != again[vt] {
			t.Errorf("%s: not deterministic, %d then %d", vt, base[vt], again[vt])
		}
		if longer[vt] <= base[vt] {
			t.Errorf("%s: longer route %d not above %d", vt, longer[vt], base[vt])
		}
		if slower[vt] <= base[vt] {
			t.Errorf("%s: slower route %d not above %d", vt, slower[vt], base[vt])
		}
	}
}

func TestComputeFare(t *testing.T) {
	distance := &servicetest.Distance{Meters: 5000, Seconds: 600}
	svc := NewFareService(distance)

	quote, err := svc.ComputeFare(context.Background(), "A", "B")
	if err != nil {
		t.Fatalf("ComputeFare: %v", err)
	}
	if quote[models.VehicleSmall] != 100 {
		t.Errorf("small fare = %d, want 100", quote[models.VehicleSmall])
	}
	if len(quote) != len(models.VehicleTypes) {
		t.Errorf("got %d classes, want %d", len(quote), len(models.VehicleTypes))
	}
}

func TestComputeFareRequiresBothEnds(t *testing.T) {
	distance := &servicetest.Distance{Meters: 5000, Seconds: 600}
	svc := NewFareService(distance)

	for _, tc := range [][2]string{{"", "B"}, {"A", ""}, {"  ", "B"}} {
		if _, err := svc.ComputeFare(context.Background(), tc[0], tc[1]); !errors.Is(err, ErrInput) {
			t.Errorf("ComputeFare(%q, %q): expected ErrInput, got %v", tc[0], tc[1], err)
		}
	}
	if distance.Calls != 0 {
		t.Errorf("distance client called %d times for invalid input", distance.Calls)
	}
}

func TestComputeFarePropagatesUpstreamError(t *testing.T) {
	svc := NewFareService(&servicetest.Distance{Err: ErrUpstream})

	if _, err := svc.ComputeFare(context.Background(), "A", "B"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
