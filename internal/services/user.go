package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles rider account business logic
type UserService struct {
	users  UserStore
	tokens *TokenService
}

// NewUserService creates a new user service
func NewUserService(users UserStore, tokens *TokenService) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
	}
}

// RegisterUserInput is the data needed to sign a rider up
type RegisterUserInput struct {
	FullName models.FullName
	Email    string
	Mobile   string
	Password string
}

// Register creates a rider account and returns it with an access token
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (*models.User, string, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FullName:     in.FullName,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Mobile:       strings.TrimSpace(in.Mobile),
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID, models.RoleUser)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks the rider's credentials and returns a fresh access token
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			checkPassword("", password)
			return nil, "", fmt.Errorf("%w: invalid email or password", ErrAuth)
		}
		return nil, "", err
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, "", fmt.Errorf("%w: invalid email or password", ErrAuth)
	}

	token, err := s.tokens.Issue(user.ID, models.RoleUser)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// SetSocketID records the rider's live connection id; nil clears it
func (s *UserService) SetSocketID(ctx context.Context, userID string, socketID *string) error {
	return s.users.UpdateSocketID(ctx, userID, socketID)
}

// ClearSocketID forgets the connection id unless a newer connection replaced it
func (s *UserService) ClearSocketID(ctx context.Context, userID, socketID string) error {
	return s.users.ClearSocketID(ctx, userID, socketID)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password must be at most 72 bytes", ErrInput)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// dummyHash stands in for the stored hash of an unknown account
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("no account has this password"), bcrypt.DefaultCost)
	return hash
})

// checkPassword reports whether password matches hash. An empty hash still
// costs one bcrypt comparison, so unknown emails answer as slowly as wrong
// passwords.
func checkPassword(hash, password string) bool {
	if hash == "" {
		bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
