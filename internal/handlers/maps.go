package handlers

import (
	"context"
	"net/http"

	"github.com/Chetan6969/Testing-r/internal/models"
)

// MapsClient is the geocoding and routing provider behind the /maps routes
type MapsClient interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
	DistanceTime(ctx context.Context, origin, destination string) (*models.DistanceTime, error)
	Autocomplete(ctx context.Context, input string) ([]string, error)
}

// MapsHandler proxies geocoding requests to the maps provider
type MapsHandler struct {
	maps MapsClient
}

// NewMapsHandler creates a new maps handler
func NewMapsHandler(maps MapsClient) *MapsHandler {
	return &MapsHandler{maps: maps}
}

type coordinatesQuery struct {
	Address string `query:"address" validate:"required,min=3"`
}

type distanceTimeQuery struct {
	Origin      string `query:"origin" validate:"required,min=3"`
	Destination string `query:"destination" validate:"required,min=3"`
}

type autocompleteQuery struct {
	Input string `query:"input" validate:"required,min=3"`
}

// GetCoordinates handles GET /maps/get-coordinates
func (h *MapsHandler) GetCoordinates(w http.ResponseWriter, r *http.Request) {
	req := coordinatesQuery{Address: r.URL.Query().Get("address")}
	if !validateRequest(w, &req) {
		return
	}

	coords, err := h.maps.Geocode(r.Context(), req.Address)
	if err != nil {
		respondServiceError(w, r, err, "get coordinates")
		return
	}
	respondJSON(w, http.StatusOK, coords)
}

// GetDistanceTime handles GET /maps/get-distance-time
func (h *MapsHandler) GetDistanceTime(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := distanceTimeQuery{Origin: q.Get("origin"), Destination: q.Get("destination")}
	if !validateRequest(w, &req) {
		return
	}

	dt, err := h.maps.DistanceTime(r.Context(), req.Origin, req.Destination)
	if err != nil {
		respondServiceError(w, r, err, "get distance time")
		return
	}
	respondJSON(w, http.StatusOK, dt)
}

// GetAutocomplete handles GET /maps/autocomplete
func (h *MapsHandler) GetAutocomplete(w http.ResponseWriter, r *http.Request) {
	req := autocompleteQuery{Input: r.URL.Query().Get("input")}
	if !validateRequest(w, &req) {
		return
	}

	suggestions, err := h.maps.Autocomplete(r.Context(), req.Input)
	if err != nil {
		respondServiceError(w, r, err, "get autocomplete suggestions")
		return
	}
	respondJSON(w, http.StatusOK, suggestions)
}
