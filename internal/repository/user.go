package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Chetan6969/Testing-r/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, mobile, password_hash, socket_id,
		email_verified, mobile_verified, created_at`

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, mobile, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.FullName.FirstName, user.FullName.LastName,
		user.Email, user.Mobile, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user email taken: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.FullName.FirstName, &user.FullName.LastName, &user.Email,
		&user.Mobile, &user.PasswordHash, &user.SocketID,
		&user.EmailVerified, &user.MobileVerified, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateSocketID stores the live connection id of a user; nil clears it
func (r *UserRepository) UpdateSocketID(ctx context.Context, userID string, socketID *string) error {
	query := `UPDATE users SET socket_id = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, socketID, userID)
	if err != nil {
		return fmt.Errorf("failed to update socket id: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}

// ClearSocketID clears the user's connection id if it is still socketID
func (r *UserRepository) ClearSocketID(ctx context.Context, userID, socketID string) error {
	query := `UPDATE users SET socket_id = NULL WHERE id = $1 AND socket_id = $2`
	if _, err := r.db.Exec(ctx, query, userID, socketID); err != nil {
		return fmt.Errorf("failed to clear socket id: %w", err)
	}
	return nil
}

// MarkVerified flags the user's email or mobile number as verified
func (r *UserRepository) MarkVerified(ctx context.Context, userID string, channel string) error {
	var query string
	switch channel {
	case "email":
		query = `UPDATE users SET email_verified = TRUE WHERE id = $1`
	case "mobile":
		query = `UPDATE users SET mobile_verified = TRUE WHERE id = $1`
	default:
		return fmt.Errorf("unknown verification channel %q", channel)
	}

	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark %s verified: %w", channel, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}
