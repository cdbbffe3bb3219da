package handlers

import (
	"net/http"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/services"

	"github.com/rs/zerolog/log"
)

// CaptainHandler handles captain account HTTP requests
type CaptainHandler struct {
	captainService *services.CaptainService
	authService    *services.AuthService
	cookieTTL      time.Duration
	secureCookies  bool
}

// NewCaptainHandler creates a new captain handler
func NewCaptainHandler(
	captainService *services.CaptainService,
	authService *services.AuthService,
	cookieTTL time.Duration,
	secureCookies bool,
) *CaptainHandler {
	return &CaptainHandler{
		captainService: captainService,
		authService:    authService,
		cookieTTL:      cookieTTL,
		secureCookies:  secureCookies,
	}
}

type vehicleRequest struct {
	Color       string `json:"color" validate:"required,min=3"`
	Plate       string `json:"plate" validate:"required,min=3"`
	Capacity    int    `json:"capacity" validate:"required,min=1"`
	VehicleType string `json:"vehicleType" validate:"required"`
}

type registerCaptainRequest struct {
	FullName fullNameRequest `json:"fullname"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6,max=72"`
	Vehicle  vehicleRequest  `json:"vehicle"`
}

type locationRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

// Register handles POST /captains/register
func (h *CaptainHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerCaptainRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	captain, token, err := h.captainService.Register(r.Context(), services.RegisterCaptainInput{
		FullName: req.FullName.model(),
		Email:    req.Email,
		Password: req.Password,
		Vehicle: models.Vehicle{
			Color:       req.Vehicle.Color,
			Plate:       req.Vehicle.Plate,
			Capacity:    req.Vehicle.Capacity,
			VehicleType: models.VehicleType(req.Vehicle.VehicleType),
		},
	})
	if err != nil {
		respondServiceError(w, r, err, "register captain")
		return
	}

	log.Info().Str("captain_id", captain.ID).Msg("Captain registered")

	setTokenCookie(w, token, h.cookieTTL, h.secureCookies)
	respondJSON(w, http.StatusCreated, AuthResponse{Token: token, Captain: captain})
}

// Login handles POST /captains/login
func (h *CaptainHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	captain, token, err := h.captainService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "login captain")
		return
	}

	setTokenCookie(w, token, h.cookieTTL, h.secureCookies)
	respondJSON(w, http.StatusOK, AuthResponse{Token: token, Captain: captain})
}

// Profile handles GET /captains/profile
func (h *CaptainHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]*models.Captain{"captain": identity.Captain})
}

// Logout handles GET /captains/logout
func (h *CaptainHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	if err := h.authService.Logout(r.Context(), identity); err != nil {
		respondServiceError(w, r, err, "logout captain")
		return
	}

	clearTokenCookie(w, h.secureCookies)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successfully"})
}

// UpdateLocation handles PATCH /captains/location
func (h *CaptainHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req locationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	loc := models.Location{Lat: *req.Lat, Lng: *req.Lng}
	if err := h.captainService.UpdateLocation(r.Context(), identity.ID(), loc); err != nil {
		respondServiceError(w, r, err, "update captain location")
		return
	}
	respondJSON(w, http.StatusOK, loc)
}
