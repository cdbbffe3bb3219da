package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerificationRepository stores pending contact verification codes
type VerificationRepository struct {
	rdb *redis.Client
}

// NewVerificationRepository creates a new verification repository
func NewVerificationRepository(rdb *redis.Client) *VerificationRepository {
	return &VerificationRepository{rdb: rdb}
}

func verificationKey(channel, userID string) string {
	return "verify:" + channel + ":" + userID
}

// Save stores the code, replacing any pending one
func (r *VerificationRepository) Save(ctx context.Context, channel, userID, code string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, verificationKey(channel, userID), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save verification code: %w", err)
	}
	return nil
}

// Get returns the pending code
func (r *VerificationRepository) Get(ctx context.Context, channel, userID string) (string, error) {
	code, err := r.rdb.Get(ctx, verificationKey(channel, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("verification code not found: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get verification code: %w", err)
	}
	return code, nil
}

// Delete removes the pending code
func (r *VerificationRepository) Delete(ctx context.Context, channel, userID string) error {
	if err := r.rdb.Del(ctx, verificationKey(channel, userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}
	return nil
}
