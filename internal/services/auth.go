package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/repository"
)

// RevocationStore holds tokens invalidated before their expiry
type RevocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// UserStore persists rider accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateSocketID(ctx context.Context, userID string, socketID *string) error
	ClearSocketID(ctx context.Context, userID, socketID string) error
	MarkVerified(ctx context.Context, userID string, channel string) error
}

// CaptainStore persists captain accounts and positions
type CaptainStore interface {
	Create(ctx context.Context, c *models.Captain) error
	GetByID(ctx context.Context, id string) (*models.Captain, error)
	GetByEmail(ctx context.Context, email string) (*models.Captain, error)
	UpdateSocketID(ctx context.Context, captainID string, socketID *string) error
	ClearSocketID(ctx context.Context, captainID, socketID string) error
	UpdateLocation(ctx context.Context, captainID string, loc models.Location) error
	FindInRadius(ctx context.Context, center models.Location, radiusKm float64) ([]*models.Captain, error)
}

// Identity is the authenticated caller of a request
type Identity struct {
	Role    models.Role
	User    *models.User
	Captain *models.Captain
	Token   string
	Claims  *Claims
}

// ID returns the account id of the caller
func (i *Identity) ID() string {
	if i.Captain != nil {
		return i.Captain.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// AuthService resolves access tokens to identities
type AuthService struct {
	tokens   *TokenService
	revoked  RevocationStore
	users    UserStore
	captains CaptainStore
}

// NewAuthService creates a new auth service
func NewAuthService(tokens *TokenService, revoked RevocationStore, users UserStore, captains CaptainStore) *AuthService {
	return &AuthService{
		tokens:   tokens,
		revoked:  revoked,
		users:    users,
		captains: captains,
	}
}

// Authenticate checks the token against the revocation list, verifies it and
// loads the account it was issued for. A token of another role, or one whose
// account no longer exists, is rejected like any other invalid token.
func (s *AuthService) Authenticate(ctx context.Context, token string, role models.Role) (*Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no token", ErrAuth)
	}

	revoked, err := s.revoked.IsRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrAuth)
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", ErrAuth)
	}
	if claims.Role != role {
		return nil, fmt.Errorf("%w: invalid token", ErrAuth)
	}

	identity := &Identity{Role: role, Token: token, Claims: claims}
	switch role {
	case models.RoleUser:
		identity.User, err = s.users.GetByID(ctx, claims.Subject)
	case models.RoleCaptain:
		identity.Captain, err = s.captains.GetByID(ctx, claims.Subject)
	default:
		return nil, fmt.Errorf("%w: invalid token", ErrAuth)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not found", ErrAuth, role)
		}
		return nil, err
	}
	return identity, nil
}

// AuthenticateAny is Authenticate for routes open to both roles; the role is
// taken from the token itself.
func (s *AuthService) AuthenticateAny(ctx context.Context, token string) (*Identity, error) {
	var role models.Role
	if claims, err := s.tokens.Validate(token); err == nil {
		role = claims.Role
	}
	return s.Authenticate(ctx, token, role)
}

// Logout revokes the caller's token for the rest of its lifetime and clears
// the caller's live connection id.
func (s *AuthService) Logout(ctx context.Context, identity *Identity) error {
	ttl := s.tokens.TTL()
	if identity.Claims != nil && identity.Claims.ExpiresAt != nil {
		ttl = time.Until(identity.Claims.ExpiresAt.Time)
	}
	if err := s.revoked.Revoke(ctx, identity.Token, ttl); err != nil {
		return err
	}

	var err error
	switch identity.Role {
	case models.RoleUser:
		err = s.users.UpdateSocketID(ctx, identity.ID(), nil)
	case models.RoleCaptain:
		err = s.captains.UpdateSocketID(ctx, identity.ID(), nil)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}
