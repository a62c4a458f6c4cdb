package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servimarket/session-service/internal/core/domain"
)

type claims struct {
	Subject string
	Email   string
	Role    domain.Role
}

// ctxClaims extracts the claims injected by the Auth middleware. A token
// without a known role or an email is rejected before any service call.
func ctxClaims(c echo.Context) (claims, error) {
	role, _ := c.Get("role").(domain.Role)
	if !role.Valid() {
		return claims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	email, _ := c.Get("email").(string)
	if email == "" {
		return claims{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing identity")
	}

	sub, _ := c.Get("sub").(string)
	return claims{Subject: sub, Email: email, Role: role}, nil
}
