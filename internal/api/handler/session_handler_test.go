package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/servimarket/session-service/internal/core/domain"
)

type stubSessionService struct {
	loginFn    func(ctx context.Context, email, password string) (*domain.Identity, error)
	registerFn func(ctx context.Context, email, password, displayName string, role domain.Role) (*domain.Identity, error)
	updateFn   func(ctx context.Context, partial domain.Profile) (*domain.Identity, error)
	current    *domain.Identity
	loggedOut  bool
}

func (s *stubSessionService) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubSessionService) Register(ctx context.Context, email, password, displayName string, role domain.Role) (*domain.Identity, error) {
	return s.registerFn(ctx, email, password, displayName, role)
}

func (s *stubSessionService) Logout(context.Context) {
	s.loggedOut = true
	s.current = nil
}

func (s *stubSessionService) UpdateProfile(ctx context.Context, partial domain.Profile) (*domain.Identity, error) {
	return s.updateFn(ctx, partial)
}

func (s *stubSessionService) RestoreSession(context.Context) *domain.Identity { return s.current }
func (s *stubSessionService) Current() *domain.Identity                       { return s.current }
func (s *stubSessionService) IsAuthenticated() bool                           { return s.current != nil }
func (s *stubSessionService) IsClient() bool                                  { return s.is(domain.RoleClient) }
func (s *stubSessionService) IsProfessional() bool                            { return s.is(domain.RoleProfessional) }
func (s *stubSessionService) IsAdmin() bool                                   { return s.is(domain.RoleAdmin) }

func (s *stubSessionService) is(role domain.Role) bool {
	return s.current != nil && s.current.Role == role
}

type stubTokens struct{ err error }

func (s stubTokens) Issue(identity *domain.Identity) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-" + identity.ID, nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestSessionHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		loginFn: func(_ context.Context, email, password string) (*domain.Identity, error) {
			if email != "cliente@servimarket.dev" || password != "password123" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.Identity{ID: "u1", Email: email, Role: domain.RoleClient, Profile: domain.Profile{}}, nil
		},
	}
	h := NewSessionHandler(stub, stubTokens{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/session/login",
		`{"email":"cliente@servimarket.dev","password":"password123"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token-u1" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	identity, ok := resp["identity"].(map[string]any)
	if !ok || identity["email"] != "cliente@servimarket.dev" || identity["role"] != "client" {
		t.Fatalf("unexpected identity payload: %+v", resp["identity"])
	}
}

func TestSessionHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		loginFn: func(context.Context, string, string) (*domain.Identity, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewSessionHandler(stub, stubTokens{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/session/login",
		`{"email":"cliente@servimarket.dev","password":"nope"}`), httptest.NewRecorder())

	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionHandler_Login_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		loginFn: func(context.Context, string, string) (*domain.Identity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewSessionHandler(stub, stubTokens{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/session/login", "{"), httptest.NewRecorder())
	if code := httpCode(t, h.Login(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}

	c = e.NewContext(jsonRequest(http.MethodPost, "/v1/session/login", `{"email":"not-an-email","password":""}`), httptest.NewRecorder())
	if code := httpCode(t, h.Login(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestSessionHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		registerFn: func(_ context.Context, email, password, displayName string, role domain.Role) (*domain.Identity, error) {
			if role != domain.RoleProfessional || displayName != "Ana" {
				t.Fatalf("unexpected args: %s %s", displayName, role)
			}
			return &domain.Identity{ID: "u2", Email: email, DisplayName: displayName, Role: role, Profile: domain.NewProfile(role)}, nil
		},
	}
	h := NewSessionHandler(stub, stubTokens{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/session/register",
		`{"email":"ana@example.com","password":"secret1","display_name":"Ana","role":"professional"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Token    string          `json:"token"`
		Identity domain.Identity `json:"identity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token-u2" {
		t.Fatalf("expected token-u2, got %q", resp.Token)
	}
	if _, ok := resp.Identity.Profile[domain.ProfileProfession]; !ok {
		t.Fatalf("expected profession key in profile, got %+v", resp.Identity.Profile)
	}
}

func TestSessionHandler_Register_RejectsUnknownRole(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		registerFn: func(context.Context, string, string, string, domain.Role) (*domain.Identity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewSessionHandler(stub, stubTokens{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/session/register",
		`{"email":"x@example.com","password":"secret1","display_name":"X","role":"guest"}`), httptest.NewRecorder())

	if code := httpCode(t, h.Register(c)); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestSessionHandler_Register_EmailTaken(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		registerFn: func(context.Context, string, string, string, domain.Role) (*domain.Identity, error) {
			return nil, domain.ErrEmailAlreadyRegistered
		},
	}
	h := NewSessionHandler(stub, stubTokens{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/session/register",
		`{"email":"cliente@servimarket.dev","password":"secret1","display_name":"X","role":"client"}`), httptest.NewRecorder())

	if err := h.Register(c); !errors.Is(err, domain.ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
}

// bearer sets the claims the Auth middleware would inject for identity.
func bearer(c echo.Context, identity *domain.Identity) echo.Context {
	c.Set("sub", identity.ID)
	c.Set("email", identity.Email)
	c.Set("role", identity.Role)
	return c
}

func TestSessionHandler_UpdateProfile_SendsOnlyProvidedFields(t *testing.T) {
	e := newTestEcho()
	client := &domain.Identity{ID: "u1", Email: "a@b.c", Role: domain.RoleClient}
	var got domain.Profile
	stub := &stubSessionService{
		current: client,
		updateFn: func(_ context.Context, partial domain.Profile) (*domain.Identity, error) {
			got = partial
			return &domain.Identity{ID: "u1", Email: "a@b.c", Role: domain.RoleClient, Profile: partial}, nil
		},
	}
	h := NewSessionHandler(stub, stubTokens{})

	rec := httptest.NewRecorder()
	c := bearer(e.NewContext(jsonRequest(http.MethodPatch, "/v1/session/profile", `{"phone":"555-0100","bio":""}`), rec), client)

	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(got) != 2 || got[domain.ProfilePhone] != "555-0100" {
		t.Fatalf("unexpected partial profile: %+v", got)
	}
	if v, ok := got[domain.ProfileBio]; !ok || v != "" {
		t.Fatalf("explicit empty bio must be forwarded, got %+v", got)
	}
}

func TestSessionHandler_RejectsTokenOfAnotherIdentity(t *testing.T) {
	e := newTestEcho()
	admin := &domain.Identity{ID: "u3", Email: "admin@servimarket.dev", Role: domain.RoleAdmin}
	other := &domain.Identity{ID: "u1", Email: "cliente@servimarket.dev", Role: domain.RoleClient}
	stub := &stubSessionService{
		current: admin,
		updateFn: func(context.Context, domain.Profile) (*domain.Identity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewSessionHandler(stub, stubTokens{})

	c := bearer(e.NewContext(jsonRequest(http.MethodPatch, "/v1/session/profile", `{"bio":"x"}`), httptest.NewRecorder()), other)
	if err := h.UpdateProfile(c); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("update: expected ErrNotAuthenticated, got %v", err)
	}

	c = bearer(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/session", nil), httptest.NewRecorder()), other)
	if err := h.Current(c); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("current: expected ErrNotAuthenticated, got %v", err)
	}

	c = bearer(e.NewContext(httptest.NewRequest(http.MethodDelete, "/v1/session", nil), httptest.NewRecorder()), other)
	if err := h.Logout(c); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("logout: expected ErrNotAuthenticated, got %v", err)
	}
	if stub.loggedOut {
		t.Fatalf("another identity's token must not end the session")
	}
}

func TestSessionHandler_RequiresClaims(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		current: &domain.Identity{ID: "u3", Email: "admin@servimarket.dev", Role: domain.RoleAdmin},
	}
	h := NewSessionHandler(stub, stubTokens{})

	c := e.NewContext(jsonRequest(http.MethodPatch, "/v1/session/profile", `{"bio":"x"}`), httptest.NewRecorder())
	if code := httpCode(t, h.UpdateProfile(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestSessionHandler_LogoutAndCurrent(t *testing.T) {
	e := newTestEcho()
	admin := &domain.Identity{ID: "u3", Email: "admin@servimarket.dev", Role: domain.RoleAdmin}
	stub := &stubSessionService{current: admin}
	h := NewSessionHandler(stub, stubTokens{})

	rec := httptest.NewRecorder()
	if err := h.Current(bearer(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/session", nil), rec), admin)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var state sessionStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !state.Authenticated || !state.IsAdmin || state.IsClient || state.IsProfessional {
		t.Fatalf("unexpected state: %+v", state)
	}

	rec = httptest.NewRecorder()
	if err := h.Logout(bearer(e.NewContext(httptest.NewRequest(http.MethodDelete, "/v1/session", nil), rec), admin)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || !stub.loggedOut {
		t.Fatalf("expected 204 and logout, got %d", rec.Code)
	}

	err := h.Current(bearer(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/session", nil), httptest.NewRecorder()), admin))
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after logout, got %v", err)
	}
}

func TestSessionHandler_TokenFailure(t *testing.T) {
	e := newTestEcho()
	boom := errors.New("signing failed")
	stub := &stubSessionService{
		loginFn: func(_ context.Context, email, _ string) (*domain.Identity, error) {
			return &domain.Identity{ID: "u1", Email: email, Role: domain.RoleClient}, nil
		},
	}
	h := NewSessionHandler(stub, stubTokens{err: boom})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/session/login",
		`{"email":"cliente@servimarket.dev","password":"password123"}`), httptest.NewRecorder())
	if err := h.Login(c); !errors.Is(err, boom) {
		t.Fatalf("expected signing error, got %v", err)
	}
}
