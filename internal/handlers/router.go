package handlers

import (
	"net/http"

	"github.com/Chetan6969/Testing-r/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds everything the HTTP router mounts
type RouterConfig struct {
	Auth     middleware.Authenticator
	Users    *UserHandler
	Captains *CaptainHandler
	Rides    *RideHandler
	Maps     *MapsHandler
	WS       *WebSocketHandler
	Metrics  http.Handler
	Health   http.HandlerFunc
	Origins  middleware.Origins
}

// NewRouter builds the HTTP routes
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.Origins))

	authUser := middleware.AuthUser(cfg.Auth)
	authCaptain := middleware.AuthCaptain(cfg.Auth)
	authAny := middleware.AuthAny(cfg.Auth)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", cfg.Users.Register)
		r.Post("/login", cfg.Users.Login)

		r.Group(func(r chi.Router) {
			r.Use(authUser)
			r.Get("/profile", cfg.Users.Profile)
			r.Get("/logout", cfg.Users.Logout)
			r.Post("/verify/send", cfg.Users.SendVerification)
			r.Post("/verify/confirm", cfg.Users.ConfirmVerification)
		})
	})

	r.Route("/captains", func(r chi.Router) {
		r.Post("/register", cfg.Captains.Register)
		r.Post("/login", cfg.Captains.Login)

		r.Group(func(r chi.Router) {
			r.Use(authCaptain)
			r.Get("/profile", cfg.Captains.Profile)
			r.Get("/logout", cfg.Captains.Logout)
			r.Patch("/location", cfg.Captains.UpdateLocation)
		})
	})

	r.Route("/rides", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authUser)
			r.Post("/", cfg.Rides.CreateRide)
			r.Get("/fare", cfg.Rides.GetFare)
			r.Get("/history/user", cfg.Rides.UserHistory)
		})

		r.Group(func(r chi.Router) {
			r.Use(authCaptain)
			r.Post("/confirm", cfg.Rides.ConfirmRide)
			r.Get("/start-ride", cfg.Rides.StartRide)
			r.Post("/end-ride", cfg.Rides.EndRide)
			r.Get("/history/captain", cfg.Rides.CaptainHistory)
		})

		r.Group(func(r chi.Router) {
			r.Use(authAny)
			r.Get("/{rideId}", cfg.Rides.GetRide)
			r.Get("/{rideId}/receipt", cfg.Rides.GetReceipt)
		})
	})

	r.Route("/maps", func(r chi.Router) {
		r.Use(authAny)
		r.Get("/get-coordinates", cfg.Maps.GetCoordinates)
		r.Get("/get-distance-time", cfg.Maps.GetDistanceTime)
		r.Get("/autocomplete", cfg.Maps.GetAutocomplete)
	})

	// WebSocket route
	r.Get("/ws", cfg.WS.HandleWebSocket)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health)
	}

	return r
}
