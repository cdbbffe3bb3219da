package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Chetan6969/Testing-r/internal/services"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", services.ErrInput), http.StatusBadRequest},
		{fmt.Errorf("%w: invalid otp", services.ErrAuth), http.StatusUnauthorized},
		{fmt.Errorf("%w: ride not found", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: exists", services.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: ride already accepted", services.ErrState), http.StatusConflict},
		{fmt.Errorf("%w: no routes found", services.ErrUpstream), http.StatusBadGateway},
		{errors.New("pgx: connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFromError(tt.err); got != tt.want {
			t.Errorf("statusFromError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondServiceErrorHidesInternalErrors(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/rides/x", nil)

	w := httptest.NewRecorder()
	respondServiceError(w, r, errors.New("pgx: password authentication failed"), "get ride")
	var body ErrorResponse
	json.NewDecoder(w.Body).Decode(&body)
	if w.Code != http.StatusInternalServerError || body.Message != "Internal server error" {
		t.Errorf("got %d %q", w.Code, body.Message)
	}

	w = httptest.NewRecorder()
	respondServiceError(w, r, fmt.Errorf("%w: ride already accepted", services.ErrState), "confirm ride")
	json.NewDecoder(w.Body).Decode(&body)
	if w.Code != http.StatusConflict || body.Message != "invalid ride state: ride already accepted" {
		t.Errorf("got %d %q", w.Code, body.Message)
	}
}
