package handlers

import (
	"net/http"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles rider account HTTP requests
type UserHandler struct {
	userService   *services.UserService
	authService   *services.AuthService
	verifyService *services.VerificationService
	cookieTTL     time.Duration
	secureCookies bool
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userService *services.UserService,
	authService *services.AuthService,
	verifyService *services.VerificationService,
	cookieTTL time.Duration,
	secureCookies bool,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		authService:   authService,
		verifyService: verifyService,
		cookieTTL:     cookieTTL,
		secureCookies: secureCookies,
	}
}

type fullNameRequest struct {
	FirstName string `json:"firstname" validate:"required,min=3"`
	LastName  string `json:"lastname" validate:"omitempty,min=3"`
}

func (f fullNameRequest) model() models.FullName {
	return models.FullName{FirstName: f.FirstName, LastName: f.LastName}
}

type registerUserRequest struct {
	FullName fullNameRequest `json:"fullname"`
	Email    string          `json:"email" validate:"required,email"`
	Mobile   string          `json:"mobile" validate:"omitempty,e164"`
	Password string          `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// AuthResponse is returned on register and login
type AuthResponse struct {
	Token   string          `json:"token"`
	User    *models.User    `json:"user,omitempty"`
	Captain *models.Captain `json:"captain,omitempty"`
}

// Register handles POST /users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.userService.Register(r.Context(), services.RegisterUserInput{
		FullName: req.FullName.model(),
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(w, r, err, "register user")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")

	setTokenCookie(w, token, h.cookieTTL, h.secureCookies)
	respondJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "login user")
		return
	}

	setTokenCookie(w, token, h.cookieTTL, h.secureCookies)
	respondJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Profile handles GET /users/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, identity.User)
}

// Logout handles GET /users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	if err := h.authService.Logout(r.Context(), identity); err != nil {
		respondServiceError(w, r, err, "logout user")
		return
	}

	clearTokenCookie(w, h.secureCookies)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

type sendVerificationRequest struct {
	Channel string `json:"channel" validate:"required,oneof=email mobile"`
}

type confirmVerificationRequest struct {
	Channel string `json:"channel" validate:"required,oneof=email mobile"`
	OTP     string `json:"otp" validate:"required,len=6,numeric"`
}

// SendVerification handles POST /users/verify/send
func (h *UserHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req sendVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.verifyService.Send(r.Context(), identity.User, req.Channel); err != nil {
		respondServiceError(w, r, err, "send verification")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

// ConfirmVerification handles POST /users/verify/confirm
func (h *UserHandler) ConfirmVerification(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req confirmVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.verifyService.Confirm(r.Context(), identity.User, req.Channel, req.OTP); err != nil {
		respondServiceError(w, r, err, "confirm verification")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Verified"})
}
