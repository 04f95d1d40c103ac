// handlers_pages.go - Marketing page content
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sheet-dashboard/backend/internal/auth"
	"github.com/sheet-dashboard/backend/internal/pages"
)

// PagesHandlerImpl implements the PagesHandler interface
type PagesHandlerImpl struct {
	catalog  *pages.Catalog
	identity IdentityStore
	now      func() time.Time
}

// NewPagesHandler creates a new pages handler instance. identity may be nil,
// in which case every visitor is treated as anonymous.
func NewPagesHandler(catalog *pages.Catalog, identity IdentityStore) PagesHandler {
	return &PagesHandlerImpl{
		catalog:  catalog,
		identity: identity,
		now:      time.Now,
	}
}

// HandleGetPage returns one page, with call-to-action links chosen for the visitor
func (h *PagesHandlerImpl) HandleGetPage(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		return NewValidationError("slug")
	}
	signedIn := false
	if h.identity != nil {
		token := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		_, signedIn = h.identity.Lookup(token)
	}
	page, ok := h.catalog.Get(slug, signedIn, h.now())
	if !ok {
		return NewNotFoundError("page", slug)
	}
	return c.JSON(http.StatusOK, page)
}
