package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/services"

	"github.com/rs/zerolog/log"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenCookie is the cookie that carries the access token
const TokenCookie = "token"

// Authenticator resolves access tokens to identities
type Authenticator interface {
	Authenticate(ctx context.Context, token string, role models.Role) (*services.Identity, error)
	AuthenticateAny(ctx context.Context, token string) (*services.Identity, error)
}

// AuthUser only lets riders through
func AuthUser(auth Authenticator) func(http.Handler) http.Handler {
	return authMiddleware(func(ctx context.Context, token string) (*services.Identity, error) {
		return auth.Authenticate(ctx, token, models.RoleUser)
	})
}

// AuthCaptain only lets captains through
func AuthCaptain(auth Authenticator) func(http.Handler) http.Handler {
	return authMiddleware(func(ctx context.Context, token string) (*services.Identity, error) {
		return auth.Authenticate(ctx, token, models.RoleCaptain)
	})
}

// AuthAny lets any authenticated rider or captain through
func AuthAny(auth Authenticator) func(http.Handler) http.Handler {
	return authMiddleware(auth.AuthenticateAny)
}

func authMiddleware(authenticate func(ctx context.Context, token string) (*services.Identity, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticate(r.Context(), TokenFromRequest(r))
			if err != nil {
				if errors.Is(err, services.ErrAuth) {
					respondError(w, err.Error(), http.StatusUnauthorized)
					return
				}
				log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to authenticate request")
				respondError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest reads the access token from the token cookie or a Bearer
// Authorization header, in that order.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return BearerToken(r)
}

// BearerToken reads the access token from a Bearer Authorization header
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// WithIdentity stores the caller's identity in the context
func WithIdentity(ctx context.Context, identity *services.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the caller's identity from context
func GetIdentity(ctx context.Context) *services.Identity {
	identity, _ := ctx.Value(identityKey).(*services.Identity)
	return identity
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
