package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servimarket/session-service/internal/core/ports"
)

// CatalogHandler serves read-only catalog lookups for administrators.
type CatalogHandler struct {
	catalog ports.IdentityCatalog
}

func NewCatalogHandler(catalog ports.IdentityCatalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Get handles GET /v1/catalog/:email.
//
// @Summary      Look up a catalog identity by email
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Account email"
// @Success      200    {object}  domain.Identity
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /v1/catalog/{email} [get]
func (h *CatalogHandler) Get(c echo.Context) error {
	account, err := h.catalog.FindByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account.Identity)
}
