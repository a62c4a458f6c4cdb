package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servimarket/session-service/internal/core/domain"
	"github.com/servimarket/session-service/internal/core/ports"
)

// SessionHandler exposes the session store over HTTP. Domain errors are
// returned as-is and rendered by the API error handler. Routes that read or
// change the current session run behind the Auth middleware and only serve
// the holder of that session's token.
type SessionHandler struct {
	session ports.SessionService
	tokens  ports.TokenIssuer
}

func NewSessionHandler(session ports.SessionService, tokens ports.TokenIssuer) *SessionHandler {
	return &SessionHandler{session: session, tokens: tokens}
}

// Current handles GET /v1/session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionStateResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	identity, err := h.owned(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionStateResponse{
		Authenticated:  h.session.IsAuthenticated(),
		IsClient:       h.session.IsClient(),
		IsProfessional: h.session.IsProfessional(),
		IsAdmin:        h.session.IsAdmin(),
		Identity:       identity,
	})
}

// Login handles POST /v1/session/login.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	identity, err := h.session.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, identity)
}

// Register handles POST /v1/session/register.
//
// @Summary      Register a new account and start a session
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	identity, err := h.session.Register(c.Request().Context(), req.Email, req.Password, req.DisplayName, role)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusCreated, identity)
}

// Logout handles DELETE /v1/session.
//
// @Summary      Logout
// @Tags         session
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /v1/session [delete]
func (h *SessionHandler) Logout(c echo.Context) error {
	if _, err := h.owned(c); err != nil {
		return err
	}
	h.session.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// UpdateProfile handles PATCH /v1/session/profile.
//
// @Summary      Update the current profile
// @Tags         session
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields to change"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/session/profile [patch]
func (h *SessionHandler) UpdateProfile(c echo.Context) error {
	if _, err := h.owned(c); err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	identity, err := h.session.UpdateProfile(c.Request().Context(), req.toProfile())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{Identity: identity})
}

// owned returns the current identity when it belongs to the bearer of the
// request's token, and domain.ErrNotAuthenticated otherwise.
func (h *SessionHandler) owned(c echo.Context) (*domain.Identity, error) {
	cl, err := ctxClaims(c)
	if err != nil {
		return nil, err
	}
	current := h.session.Current()
	if current == nil || current.Email != cl.Email {
		return nil, domain.ErrNotAuthenticated
	}
	return current, nil
}

func (h *SessionHandler) respond(c echo.Context, status int, identity *domain.Identity) error {
	token, err := h.tokens.Issue(identity)
	if err != nil {
		return err
	}
	return c.JSON(status, sessionResponse{Token: token, Identity: identity})
}
