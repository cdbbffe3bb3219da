package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/repository"

	"github.com/rs/zerolog/log"
)

// Verification channels
const (
	ChannelEmail  = "email"
	ChannelMobile = "mobile"
)

const (
	verificationDigits = 6
	verificationTTL    = 10 * time.Minute
)

// VerificationStore holds pending contact verification codes
type VerificationStore interface {
	Save(ctx context.Context, channel, userID, code string, ttl time.Duration) error
	Get(ctx context.Context, channel, userID string) (string, error)
	Delete(ctx context.Context, channel, userID string) error
}

// SMSSender sends a text message
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// VerificationService proves a rider owns their email address or mobile number
type VerificationService struct {
	codes  VerificationStore
	users  UserStore
	mailer Mailer
	sms    SMSSender
}

// NewVerificationService creates a new verification service. A nil mailer or
// sms sender disables that channel.
func NewVerificationService(codes VerificationStore, users UserStore, mailer Mailer, sms SMSSender) *VerificationService {
	return &VerificationService{
		codes:  codes,
		users:  users,
		mailer: mailer,
		sms:    sms,
	}
}

// Send generates a code and delivers it over the channel
func (s *VerificationService) Send(ctx context.Context, user *models.User, channel string) error {
	code, err := GenerateOTP(verificationDigits)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your OTP for signup is: %s", code)

	switch channel {
	case ChannelEmail:
		if s.mailer == nil {
			return fmt.Errorf("%w: email verification disabled", ErrUpstream)
		}
		if err := s.codes.Save(ctx, channel, user.ID, code, verificationTTL); err != nil {
			return err
		}
		if err := s.mailer.SendEmail(ctx, user.Email, "Your OTP for Signup", body); err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	case ChannelMobile:
		if user.Mobile == "" {
			return fmt.Errorf("%w: no mobile number on file", ErrInput)
		}
		if s.sms == nil {
			return fmt.Errorf("%w: sms verification disabled", ErrUpstream)
		}
		if err := s.codes.Save(ctx, channel, user.ID, code, verificationTTL); err != nil {
			return err
		}
		if err := s.sms.SendSMS(ctx, user.Mobile, body); err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	default:
		return fmt.Errorf("%w: unknown channel %q", ErrInput, channel)
	}

	log.Info().Str("user_id", user.ID).Str("channel", channel).Msg("Verification code sent")
	return nil
}

// Confirm checks the code and marks the channel verified. A code can be used once.
func (s *VerificationService) Confirm(ctx context.Context, user *models.User, channel, code string) error {
	if channel != ChannelEmail && channel != ChannelMobile {
		return fmt.Errorf("%w: unknown channel %q", ErrInput, channel)
	}

	stored, err := s.codes.Get(ctx, channel, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: code expired or never sent", ErrAuth)
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return fmt.Errorf("%w: invalid otp", ErrAuth)
	}

	if err := s.users.MarkVerified(ctx, user.ID, channel); err != nil {
		return translateNotFound(err, "user not found")
	}
	if err := s.codes.Delete(ctx, channel, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to delete used verification code")
	}
	return nil
}
