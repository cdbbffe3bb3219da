package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Chetan6969/Testing-r/internal/models"
	"github.com/Chetan6969/Testing-r/internal/services/servicetest"
)

func lastCode(t *testing.T, body string) string {
	t.Helper()
	i := strings.LastIndex(body, ": ")
	if i < 0 {
		t.Fatalf("no code in %q", body)
	}
	return body[i+2:]
}

func TestVerifyEmail(t *testing.T) {
	users := servicetest.NewUsers()
	mailer := &servicetest.Mailer{}
	svc := NewVerificationService(servicetest.NewCodes(), users, mailer, nil)
	ctx := context.Background()

	user := &models.User{ID: "u1", Email: "u1@example.com"}
	users.Create(ctx, user)

	if err := svc.Send(ctx, user, ChannelEmail); err != nil {
		t.Fatalf("Send: %v", err)
	}
	sent := mailer.Sent()
	if len(sent) != 1 || sent[0].To != "u1@example.com" {
		t.Fatalf("mails = %+v", sent)
	}
	code := lastCode(t, sent[0].Body)
	if len(code) != 6 {
		t.Fatalf("code = %q", code)
	}

	if err := svc.Confirm(ctx, user, ChannelEmail, "000000"); !errors.Is(err, ErrAuth) {
		t.Fatalf("wrong code: expected ErrAuth, got %v", err)
	}
	if err := svc.Confirm(ctx, user, ChannelEmail, code); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	got, _ := users.GetByID(ctx, "u1")
	if !got.EmailVerified || got.MobileVerified {
		t.Errorf("flags = email %v mobile %v", got.EmailVerified, got.MobileVerified)
	}

	if err := svc.Confirm(ctx, user, ChannelEmail, code); !errors.Is(err, ErrAuth) {
		t.Errorf("reused code: expected ErrAuth, got %v", err)
	}
}

func TestVerifyMobile(t *testing.T) {
	users := servicetest.NewUsers()
	sms := &servicetest.SMSSender{}
	svc := NewVerificationService(servicetest.NewCodes(), users, nil, sms)
	ctx := context.Background()

	user := &models.User{ID: "u1", Email: "u1@example.com", Mobile: "+911234567890"}
	users.Create(ctx, user)

	if err := svc.Send(ctx, user, ChannelMobile); err != nil {
		t.Fatalf("Send: %v", err)
	}
	sent := sms.Sent()
	if len(sent) != 1 || sent[0].To != "+911234567890" {
		t.Fatalf("sms = %+v", sent)
	}
	if err := svc.Confirm(ctx, user, ChannelMobile, lastCode(t, sent[0].Body)); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	got, _ := users.GetByID(ctx, "u1")
	if !got.MobileVerified {
		t.Error("mobile not verified")
	}
}

func TestVerifySendErrors(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "u1", Email: "u1@example.com"}

	svc := NewVerificationService(servicetest.NewCodes(), servicetest.NewUsers(), nil, &servicetest.SMSSender{})
	if err := svc.Send(ctx, user, ChannelMobile); !errors.Is(err, ErrInput) {
		t.Errorf("no mobile: expected ErrInput, got %v", err)
	}
	if err := svc.Send(ctx, user, "pigeon"); !errors.Is(err, ErrInput) {
		t.Errorf("unknown channel: expected ErrInput, got %v", err)
	}
	if err := svc.Send(ctx, user, ChannelEmail); !errors.Is(err, ErrUpstream) {
		t.Errorf("no mailer: expected ErrUpstream, got %v", err)
	}

	failing := NewVerificationService(servicetest.NewCodes(), servicetest.NewUsers(), &servicetest.Mailer{Err: errors.New("smtp down")}, nil)
	if err := failing.Send(ctx, user, ChannelEmail); !errors.Is(err, ErrUpstream) {
		t.Errorf("mailer failure: expected ErrUpstream, got %v", err)
	}
}

func TestVerifyConfirmWithoutSend(t *testing.T) {
	svc := NewVerificationService(servicetest.NewCodes(), servicetest.NewUsers(), &servicetest.Mailer{}, nil)
	err := svc.Confirm(context.Background(), &models.User{ID: "u1"}, ChannelEmail, "123456")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}
