package maps

import (
	"context"
	"fmt"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/services"

	"googlemaps.github.io/maps"
)

// Client handles geocoding, route measurement and place autocomplete against
// the Google Maps API or a compatible provider.
type Client struct {
	client *maps.Client
}

// NewClient creates a new Client with the given API key. An empty baseURL
// uses Google's endpoint.
func NewClient(apiKey, baseURL string) (*Client, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{client: client}, nil
}

// Geocode returns the coordinates of the best match for an address
func (c *Client) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", services.ErrInput)
	}

	results, err := c.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("%w: geocoding api error: %v", services.ErrUpstream, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: unable to fetch coordinates", services.ErrUpstream)
	}

	loc := results[0].Geometry.Location
	return &models.Coordinates{
		Lat:              loc.Lat,
		Lng:              loc.Lng,
		FormattedAddress: results[0].FormattedAddress,
	}, nil
}

// DistanceTime returns the driving distance and duration between two addresses
func (c *Client) DistanceTime(ctx context.Context, origin, destination string) (*models.DistanceTime, error) {
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", services.ErrInput)
	}

	resp, err := c.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: distance matrix api error: %v", services.ErrUpstream, err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("%w: unable to fetch distance and time", services.ErrUpstream)
	}

	el := resp.Rows[0].Elements[0]
	switch el.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return nil, fmt.Errorf("%w: no routes found", services.ErrUpstream)
	default:
		return nil, fmt.Errorf("%w: distance matrix element status %s", services.ErrUpstream, el.Status)
	}

	return &models.DistanceTime{
		DistanceMeters:  el.Distance.Meters,
		DurationSeconds: el.Duration.Seconds(),
		DistanceText:    el.Distance.HumanReadable,
		DurationText:    el.Duration.Round(time.Minute).String(),
	}, nil
}

// Autocomplete returns place descriptions matching the partial input
func (c *Client) Autocomplete(ctx context.Context, input string) ([]string, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: input is required", services.ErrInput)
	}

	resp, err := c.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("%w: places api error: %v", services.ErrUpstream, err)
	}

	suggestions := make([]string, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		suggestions = append(suggestions, p.Description)
	}
	return suggestions, nil
}
