package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Chetan6969/Testing-r/internal/metrics"
	"github.com/Chetan6969/Testing-r/internal/models"
)

// DistanceClient measures the route between two addresses
type DistanceClient interface {
	DistanceTime(ctx context.Context, origin, destination string) (*models.DistanceTime, error)
}

// Rate is the pricing of one vehicle class
type Rate struct {
	Base      float64
	PerKm     float64
	PerMinute float64
}

// Rates holds the fixed pricing table
var Rates = map[models.VehicleType]Rate{
	models.VehicleSmall:  {Base: 30, PerKm: 10, PerMinute: 2},
	models.VehicleMedium: {Base: 50, PerKm: 15, PerMinute: 3},
	models.VehicleLarge:  {Base: 70, PerKm: 20, PerMinute: 4},
}

// FareService quotes fares for a pickup/destination pair
type FareService struct {
	distance DistanceClient
}

// NewFareService creates a new fare service
func NewFareService(distance DistanceClient) *FareService {
	return &FareService{distance: distance}
}

// ComputeFare quotes every vehicle class for the route from pickup to destination
func (s *FareService) ComputeFare(ctx context.Context, pickup, destination string) (models.FareQuote, error) {
	if strings.TrimSpace(pickup) == "" || strings.TrimSpace(destination) == "" {
		return nil, fmt.Errorf("%w: pickup and destination are required", ErrInput)
	}

	dt, err := s.distance.DistanceTime(ctx, pickup, destination)
	if err != nil {
		return nil, err
	}

	metrics.FareQuotesTotal.Inc()
	return CalculateFare(dt.DistanceMeters, dt.DurationSeconds), nil
}

// CalculateFare prices a route of the given length and duration for every class
func CalculateFare(distanceMeters int, durationSeconds float64) models.FareQuote {
	km := float64(distanceMeters) / 1000
	minutes := durationSeconds / 60

	quote := make(models.FareQuote, len(Rates))
	for vt, r := range Rates {
		quote[vt] = int64(math.Round(r.Base + km*r.PerKm + minutes*r.PerMinute))
	}
	return quote
}
