package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/repository"

	"github.com/google/uuid"
)

// CaptainService handles captain account business logic
type CaptainService struct {
	captains CaptainStore
	tokens   *TokenService
}

// NewCaptainService creates a new captain service
func NewCaptainService(captains CaptainStore, tokens *TokenService) *CaptainService {
	return &CaptainService{
		captains: captains,
		tokens:   tokens,
	}
}

// RegisterCaptainInput is the data needed to sign a captain up
type RegisterCaptainInput struct {
	FullName models.FullName
	Email    string
	Password string
	Vehicle  models.Vehicle
}

// Register creates a captain account and returns it with an access token
func (s *CaptainService) Register(ctx context.Context, in RegisterCaptainInput) (*models.Captain, string, error) {
	vt, ok := models.ParseVehicleType(string(in.Vehicle.VehicleType))
	if !ok {
		return nil, "", fmt.Errorf("%w: unknown vehicle type %q", ErrInput, in.Vehicle.VehicleType)
	}
	in.Vehicle.VehicleType = vt

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	captain := &models.Captain{
		ID:           uuid.New().String(),
		FullName:     in.FullName,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Status:       models.CaptainInactive,
		Vehicle:      in.Vehicle,
		CreatedAt:    time.Now(),
	}

	if err := s.captains.Create(ctx, captain); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", fmt.Errorf("%w: captain already exists", ErrConflict)
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(captain.ID, models.RoleCaptain)
	if err != nil {
		return nil, "", err
	}
	return captain, token, nil
}

// Login checks the captain's credentials and returns a fresh access token
func (s *CaptainService) Login(ctx context.Context, email, password string) (*models.Captain, string, error) {
	captain, err := s.captains.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			checkPassword("", password)
			return nil, "", fmt.Errorf("%w: invalid email or password", ErrAuth)
		}
		return nil, "", err
	}

	if !checkPassword(captain.PasswordHash, password) {
		return nil, "", fmt.Errorf("%w: invalid email or password", ErrAuth)
	}

	token, err := s.tokens.Issue(captain.ID, models.RoleCaptain)
	if err != nil {
		return nil, "", err
	}
	return captain, token, nil
}

// UpdateLocation records the captain's current position
func (s *CaptainService) UpdateLocation(ctx context.Context, captainID string, loc models.Location) error {
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrInput)
	}
	return s.captains.UpdateLocation(ctx, captainID, loc)
}

// SetSocketID records the captain's live connection id; nil clears it
func (s *CaptainService) SetSocketID(ctx context.Context, captainID string, socketID *string) error {
	return s.captains.UpdateSocketID(ctx, captainID, socketID)
}

// ClearSocketID forgets the connection id unless a newer connection replaced it
func (s *CaptainService) ClearSocketID(ctx context.Context, captainID, socketID string) error {
	return s.captains.ClearSocketID(ctx, captainID, socketID)
}
