package handlers

import (
	"net/http"

	"github.com/Chetan6969/Testing-r/internal/services"
	"github.com/Chetan6969/Testing-r/internal/storage"

	"github.com/go-chi/chi/v5"
)

// RideHandler handles ride lifecycle HTTP requests
type RideHandler struct {
	rideService *services.RideService
}

// NewRideHandler creates a new ride handler
func NewRideHandler(rideService *services.RideService) *RideHandler {
	return &RideHandler{
		rideService: rideService,
	}
}

type createRideRequest struct {
	Pickup      string `json:"pickup" validate:"required,min=3"`
	Destination string `json:"destination" validate:"required,min=3"`
	VehicleType string `json:"vehicleType" validate:"required"`
}

type fareQuery struct {
	Pickup      string `query:"pickup" validate:"required,min=3"`
	Destination string `query:"destination" validate:"required,min=3"`
}

type rideIDRequest struct {
	RideID string `json:"rideId" validate:"required,uuid"`
}

type startRideQuery struct {
	RideID string `query:"rideId" validate:"required,uuid"`
	OTP    string `query:"otp" validate:"required,len=6,numeric"`
}

type rideIDParam struct {
	RideID string `query:"rideId" validate:"required,uuid"`
}

// ReceiptResponse carries a short-lived receipt download link
type ReceiptResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}

// CreateRide handles POST /rides
func (h *RideHandler) CreateRide(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req createRideRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ride, err := h.rideService.Request(r.Context(), services.RequestRideInput{
		UserID:      identity.ID(),
		Pickup:      req.Pickup,
		Destination: req.Destination,
		VehicleType: req.VehicleType,
	})
	if err != nil {
		respondServiceError(w, r, err, "create ride")
		return
	}

	respondJSON(w, http.StatusCreated, ride)
}

// GetFare handles GET /rides/fare
func (h *RideHandler) GetFare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := fareQuery{Pickup: q.Get("pickup"), Destination: q.Get("destination")}
	if !validateRequest(w, &req) {
		return
	}

	quote, err := h.rideService.Quote(r.Context(), req.Pickup, req.Destination)
	if err != nil {
		respondServiceError(w, r, err, "get fare")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// ConfirmRide handles POST /rides/confirm
func (h *RideHandler) ConfirmRide(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req rideIDRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ride, err := h.rideService.Confirm(r.Context(), req.RideID, identity.Captain)
	if err != nil {
		respondServiceError(w, r, err, "confirm ride")
		return
	}

	respondJSON(w, http.StatusOK, ride)
}

// StartRide handles GET /rides/start-ride
func (h *RideHandler) StartRide(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	req := startRideQuery{RideID: q.Get("rideId"), OTP: q.Get("otp")}
	if !validateRequest(w, &req) {
		return
	}

	ride, err := h.rideService.Start(r.Context(), req.RideID, req.OTP, identity.Captain)
	if err != nil {
		respondServiceError(w, r, err, "start ride")
		return
	}

	respondJSON(w, http.StatusOK, ride)
}

// EndRide handles POST /rides/end-ride
func (h *RideHandler) EndRide(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req rideIDRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ride, err := h.rideService.End(r.Context(), req.RideID, identity.Captain)
	if err != nil {
		respondServiceError(w, r, err, "end ride")
		return
	}

	respondJSON(w, http.StatusOK, ride)
}

// GetRide handles GET /rides/{rideId}
func (h *RideHandler) GetRide(w http.ResponseWriter, r *http.Request) {
	req := rideIDParam{RideID: chi.URLParam(r, "rideId")}
	if !validateRequest(w, &req) {
		return
	}

	ride, err := h.rideService.Get(r.Context(), req.RideID)
	if err != nil {
		respondServiceError(w, r, err, "get ride")
		return
	}

	respondJSON(w, http.StatusOK, ride)
}

// UserHistory handles GET /rides/history/user
func (h *RideHandler) UserHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	rides, err := h.rideService.HistoryForUser(r.Context(), identity.ID())
	if err != nil {
		respondServiceError(w, r, err, "user ride history")
		return
	}

	respondJSON(w, http.StatusOK, rides)
}

// CaptainHistory handles GET /rides/history/captain
func (h *RideHandler) CaptainHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	rides, err := h.rideService.HistoryForCaptain(r.Context(), identity.ID())
	if err != nil {
		respondServiceError(w, r, err, "captain ride history")
		return
	}

	respondJSON(w, http.StatusOK, rides)
}

// GetReceipt handles GET /rides/{rideId}/receipt
func (h *RideHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	req := rideIDParam{RideID: chi.URLParam(r, "rideId")}
	if !validateRequest(w, &req) {
		return
	}

	url, err := h.rideService.ReceiptURL(r.Context(), req.RideID, identity)
	if err != nil {
		respondServiceError(w, r, err, "get receipt")
		return
	}

	respondJSON(w, http.StatusOK, ReceiptResponse{
		URL:       url,
		ExpiresIn: int(storage.ReceiptURLExpiry.Seconds()),
	})
}
