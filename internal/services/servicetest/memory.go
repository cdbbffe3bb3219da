// Package servicetest provides in-memory stores and recording collaborators
// for exercising the services and handlers without Postgres, Redis or any
// third-party API.
package servicetest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/repository"
)

// Users is an in-memory user store
type Users struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewUsers creates an empty user store
func NewUsers() *Users {
	return &Users{users: make(map[string]*models.User)}
}

func (s *Users) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
}

func (s *Users) UpdateSocketID(ctx context.Context, userID string, socketID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	u.SocketID = socketID
	return nil
}

func (s *Users) ClearSocketID(ctx context.Context, userID, socketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok && u.SocketID != nil && *u.SocketID == socketID {
		u.SocketID = nil
	}
	return nil
}

func (s *Users) MarkVerified(ctx context.Context, userID string, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	switch channel {
	case "email":
		u.EmailVerified = true
	case "mobile":
		u.MobileVerified = true
	default:
		return fmt.Errorf("unknown verification channel %q", channel)
	}
	return nil
}

// Captains is an in-memory captain store with a naive radius search
type Captains struct {
	mu       sync.RWMutex
	captains map[string]*models.Captain
}

// NewCaptains creates an empty captain store
func NewCaptains() *Captains {
	return &Captains{captains: make(map[string]*models.Captain)}
}

func (s *Captains) Create(ctx context.Context, c *models.Captain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.captains {
		if existing.Email == c.Email {
			return fmt.Errorf("failed to create captain: %w", repository.ErrDuplicate)
		}
	}
	cp := *c
	s.captains[c.ID] = &cp
	return nil
}

func (s *Captains) GetByID(ctx context.Context, id string) (*models.Captain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.captains[id]
	if !ok {
		return nil, fmt.Errorf("captain not found: %w", repository.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *Captains) GetByEmail(ctx context.Context, email string) (*models.Captain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.captains {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("captain not found: %w", repository.ErrNotFound)
}

func (s *Captains) UpdateSocketID(ctx context.Context, captainID string, socketID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.captains[captainID]
	if !ok {
		return fmt.Errorf("captain not found: %w", repository.ErrNotFound)
	}
	c.SocketID = socketID
	return nil
}

func (s *Captains) ClearSocketID(ctx context.Context, captainID, socketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.captains[captainID]; ok && c.SocketID != nil && *c.SocketID == socketID {
		c.SocketID = nil
	}
	return nil
}

func (s *Captains) UpdateLocation(ctx context.Context, captainID string, loc models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.captains[captainID]
	if !ok {
		return fmt.Errorf("captain not found: %w", repository.ErrNotFound)
	}
	c.Location = &loc
	return nil
}

func (s *Captains) FindInRadius(ctx context.Context, center models.Location, radiusKm float64) ([]*models.Captain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		c    *models.Captain
		dist float64
	}
	var hits []hit
	for _, c := range s.captains {
		if c.Location == nil {
			continue
		}
		if d := distanceKm(center, *c.Location); d <= radiusKm {
			cp := *c
			hits = append(hits, hit{c: &cp, dist: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]*models.Captain, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.c)
	}
	return out, nil
}

func distanceKm(a, b models.Location) float64 {
	const earthRadiusKm = 6371.0
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Rides is an in-memory ride store. Conditional updates hold the lock for
// the compare and the write, like the single UPDATE statements they stand in for.
type Rides struct {
	mu       sync.Mutex
	rides    map[string]*models.Ride
	users    *Users
	captains *Captains
}

// NewRides creates an empty ride store that joins participants from users and captains
func NewRides(users *Users, captains *Captains) *Rides {
	return &Rides{rides: make(map[string]*models.Ride), users: users, captains: captains}
}

func (s *Rides) Create(ctx context.Context, ride *models.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ride
	cp.User, cp.Captain = nil, nil
	s.rides[ride.ID] = &cp
	return nil
}

func (s *Rides) GetByID(ctx context.Context, id string, proj models.Projection) (*models.Ride, error) {
	s.mu.Lock()
	r, ok := s.rides[id]
	var cp models.Ride
	if ok {
		cp = *r
	}
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("ride not found: %w", repository.ErrNotFound)
	}
	return s.populate(ctx, &cp, proj), nil
}

func (s *Rides) populate(ctx context.Context, r *models.Ride, proj models.Projection) *models.Ride {
	if proj != models.WithOTP {
		r.OTP = ""
	}
	if u, err := s.users.GetByID(ctx, r.UserID); err == nil {
		r.User = u
	}
	if r.CaptainID != nil {
		if c, err := s.captains.GetByID(ctx, *r.CaptainID); err == nil {
			r.Captain = c
		}
	}
	return r
}

// Put stores a ride as is, for arranging state directly in tests
func (s *Rides) Put(ride *models.Ride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ride
	s.rides[ride.ID] = &cp
}

func (s *Rides) ListByUser(ctx context.Context, userID string) ([]*models.Ride, error) {
	return s.list(ctx, func(r *models.Ride) bool { return r.UserID == userID })
}

func (s *Rides) ListByCaptain(ctx context.Context, captainID string) ([]*models.Ride, error) {
	return s.list(ctx, func(r *models.Ride) bool { return r.CaptainID != nil && *r.CaptainID == captainID })
}

func (s *Rides) list(ctx context.Context, match func(*models.Ride) bool) ([]*models.Ride, error) {
	s.mu.Lock()
	var out []*models.Ride
	for _, r := range s.rides {
		if match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	rides := make([]*models.Ride, 0, len(out))
	for _, r := range out {
		rides = append(rides, s.populate(ctx, r, models.WithoutOTP))
	}
	return rides, nil
}

func (s *Rides) Accept(ctx context.Context, rideID, captainID string) (bool, error) {
	return s.update(rideID, func(r *models.Ride) bool {
		if r.Status != models.RideRequested {
			return false
		}
		id := captainID
		r.Status = models.RideAccepted
		r.CaptainID = &id
		return true
	})
}

func (s *Rides) Start(ctx context.Context, rideID, otp string) (bool, error) {
	return s.update(rideID, func(r *models.Ride) bool {
		if r.Status != models.RideAccepted || r.OTP != otp {
			return false
		}
		r.Status = models.RideOngoing
		return true
	})
}

func (s *Rides) Complete(ctx context.Context, rideID, captainID string) (bool, error) {
	return s.update(rideID, func(r *models.Ride) bool {
		if r.CaptainID == nil || *r.CaptainID != captainID || r.Status != models.RideOngoing {
			return false
		}
		r.Status = models.RideCompleted
		return true
	})
}

func (s *Rides) update(rideID string, apply func(*models.Ride) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[rideID]
	if !ok {
		return false, nil
	}
	return apply(r), nil
}

// Revocations is an in-memory revocation list
type Revocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

// NewRevocations creates an empty revocation list
func NewRevocations() *Revocations {
	return &Revocations{revoked: make(map[string]time.Duration)}
}

func (s *Revocations) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = ttl
	return nil
}

func (s *Revocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[token]
	return ok, nil
}

// Codes is an in-memory verification code store
type Codes struct {
	mu    sync.Mutex
	codes map[string]string
}

// NewCodes creates an empty code store
func NewCodes() *Codes {
	return &Codes{codes: make(map[string]string)}
}

func (s *Codes) Save(ctx context.Context, channel, userID, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[channel+":"+userID] = code
	return nil
}

func (s *Codes) Get(ctx context.Context, channel, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[channel+":"+userID]
	if !ok {
		return "", fmt.Errorf("verification code not found: %w", repository.ErrNotFound)
	}
	return code, nil
}

func (s *Codes) Delete(ctx context.Context, channel, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, channel+":"+userID)
	return nil
}
