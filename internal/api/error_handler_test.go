package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/servimarket/session-service/internal/core/domain"
	"github.com/servimarket/session-service/internal/infrastructure/queue"
)

func TestHTTPErrorHandler_MapsErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{fmt.Errorf("login: %w", domain.ErrInvalidCredentials), http.StatusUnauthorized, "invalid credentials"},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized, "not authenticated"},
		{domain.ErrEmailAlreadyRegistered, http.StatusConflict, "email already registered"},
		{domain.ErrIdentityNotFound, http.StatusNotFound, "identity not found"},
		{queue.ErrStopped, http.StatusServiceUnavailable, "service shutting down"},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{errors.New("mongo exploded"), http.StatusInternalServerError, "internal server error"},
	}

	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		h(tc.err, c)

		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body.Error != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, body.Error)
		}
	}
}

func TestHTTPErrorHandler_InvalidRole(t *testing.T) {
	_, err := domain.ParseRole("guest")

	e := echo.New()
	rec := httptest.NewRecorder()
	NewHTTPErrorHandler(zerolog.Nop())(err, e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
