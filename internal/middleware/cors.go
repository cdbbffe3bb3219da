package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/cors"
)

// Origins is the set of browser origins allowed to call the API with
// credentials
type Origins map[string]struct{}

// NewOrigins builds the allowlist from configured origins such as
// "https://app.example.com"
func NewOrigins(list []string) Origins {
	o := make(Origins, len(list))
	for _, origin := range list {
		if origin = normalizeOrigin(origin); origin != "" {
			o[origin] = struct{}{}
		}
	}
	return o
}

// Allowed reports whether origin is on the list
func (o Origins) Allowed(origin string) bool {
	_, ok := o[normalizeOrigin(origin)]
	return ok
}

// SameHostOrAllowed accepts requests without an Origin header, requests whose
// Origin matches the Host they were sent to, and listed origins
func (o Origins) SameHostOrAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return o.Allowed(origin)
}

// CORS answers preflights and sets credentialed CORS headers for listed
// origins only
func CORS(origins Origins) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return origins.Allowed(origin)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
