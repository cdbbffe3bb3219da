package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Chetan6969/Testing-r/internal/middleware"
	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsEventConnected      = "connected"
	wsEventUpdateLocation = "update-location-captain"
	wsReadLimit           = 4096
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *services.WSHub
	authService    *services.AuthService
	userService    *services.UserService
	captainService *services.CaptainService
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. Browsers may only open
// sockets from the API's own host or a listed origin.
func NewWebSocketHandler(
	hub *services.WSHub,
	authService *services.AuthService,
	userService *services.UserService,
	captainService *services.CaptainService,
	origins middleware.Origins,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		authService:    authService,
		userService:    userService,
		captainService: captainService,
		upgrader:       websocket.Upgrader{CheckOrigin: origins.SameHostOrAllowed},
	}
}

// HandleWebSocket handles GET /ws?token=...&role=user|captain. The token
// cookie is not accepted here since browsers attach it to cross-site
// handshakes.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !h.upgrader.CheckOrigin(r) {
		respondError(w, "origin not allowed", http.StatusForbidden)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}

	var (
		identity *services.Identity
		err      error
	)
	switch role := models.Role(r.URL.Query().Get("role")); {
	case role == "":
		identity, err = h.authService.AuthenticateAny(r.Context(), token)
	case role.Valid():
		identity, err = h.authService.Authenticate(r.Context(), token, role)
	default:
		respondError(w, "invalid role", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondServiceError(w, r, err, "websocket auth")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	conn.SetReadLimit(wsReadLimit)

	connID := h.hub.Register(conn)
	defer h.hub.Unregister(connID)

	// the request context ends with the upgrade's handler, so the session
	// gets its own
	ctx := context.Background()

	if err := h.setSocketID(ctx, identity, connID); err != nil {
		log.Error().Err(err).Str("account_id", identity.ID()).Msg("Failed to store socket id")
		return
	}
	defer h.clearSocketID(ctx, identity, connID)

	log.Info().
		Str("account_id", identity.ID()).
		Str("role", string(identity.Role)).
		Str("connection_id", connID).
		Msg("WebSocket connection established")

	h.hub.Send(connID, wsEventConnected, map[string]string{"socketId": connID})

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("connection_id", connID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Warn().Err(err).Str("connection_id", connID).Msg("Failed to parse WebSocket message")
			h.sendError(connID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, identity, msg); err != nil {
			log.Warn().Err(err).Str("connection_id", connID).Str("event", msg.Event).Msg("Failed to handle message")
			h.sendError(connID, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, identity *services.Identity, msg services.WSMessage) error {
	switch msg.Event {
	case wsEventUpdateLocation:
		return h.handleUpdateLocation(ctx, identity, msg)
	default:
		return errors.New("unknown event")
	}
}

// handleUpdateLocation handles update-location-captain messages
func (h *WebSocketHandler) handleUpdateLocation(ctx context.Context, identity *services.Identity, msg services.WSMessage) error {
	if identity.Role != models.RoleCaptain {
		return errors.New("only captains can update their location")
	}

	var req locationRequest
	if err := json.Unmarshal(msg.Raw, &req); err != nil {
		return errors.New("invalid location data")
	}
	if err := validate.Struct(&req); err != nil {
		return errors.New("invalid location data")
	}

	return h.captainService.UpdateLocation(ctx, identity.ID(), models.Location{Lat: *req.Lat, Lng: *req.Lng})
}

func (h *WebSocketHandler) setSocketID(ctx context.Context, identity *services.Identity, connID string) error {
	if identity.Role == models.RoleCaptain {
		return h.captainService.SetSocketID(ctx, identity.ID(), &connID)
	}
	return h.userService.SetSocketID(ctx, identity.ID(), &connID)
}

func (h *WebSocketHandler) clearSocketID(ctx context.Context, identity *services.Identity, connID string) {
	var err error
	if identity.Role == models.RoleCaptain {
		err = h.captainService.ClearSocketID(ctx, identity.ID(), connID)
	} else {
		err = h.userService.ClearSocketID(ctx, identity.ID(), connID)
	}
	if err != nil {
		log.Error().Err(err).Str("account_id", identity.ID()).Msg("Failed to clear socket id")
	}
}

// sendError sends an error event to the connection
func (h *WebSocketHandler) sendError(connID, message string) {
	h.hub.Send(connID, services.EventError, ErrorResponse{Message: message})
}
