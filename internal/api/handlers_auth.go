// handlers_auth.go - Identity store handlers
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sheet-dashboard/backend/internal/auth"
	"github.com/sheet-dashboard/backend/internal/models"
)

// AuthHandlerImpl implements the AuthHandler interface
type AuthHandlerImpl struct {
	identity IdentityStore
}

// NewAuthHandler creates a new auth handler instance
func NewAuthHandler(identity IdentityStore) AuthHandler {
	return &AuthHandlerImpl{identity: identity}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *loginRequest) validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return NewValidationError("email")
	}
	if r.Password == "" {
		return NewValidationError("password")
	}
	return nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *registerRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name")
	}
	if strings.TrimSpace(r.Email) == "" {
		return NewValidationError("email")
	}
	if r.Password == "" {
		return NewValidationError("password")
	}
	return nil
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type meResponse struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsAdmin         bool         `json:"isAdmin"`
}

// HandleLogin authenticates credentials and issues a session token
func (h *AuthHandlerImpl) HandleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	sess, err := h.identity.Login(c.Request().Context(), models.Credentials{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		return wrapError(err, "login failed")
	}
	return c.JSON(http.StatusOK, sessionResponse{Token: sess.Token, User: sess.User})
}

// HandleRegister creates an account and signs it in
func (h *AuthHandlerImpl) HandleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	sess, err := h.identity.Register(c.Request().Context(), models.Credentials{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		return wrapError(err, "registration failed")
	}
	return c.JSON(http.StatusCreated, sessionResponse{Token: sess.Token, User: sess.User})
}

// HandleLogout ends the caller's session. Logging out twice is not an error.
func (h *AuthHandlerImpl) HandleLogout(c echo.Context) error {
	token := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if token != "" {
		h.identity.Logout(c.Request().Context(), token)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleMe reports who the caller is. Anonymous callers get a null user.
func (h *AuthHandlerImpl) HandleMe(c echo.Context) error {
	token := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	user, ok := h.identity.Lookup(token)
	if !ok {
		return c.JSON(http.StatusOK, meResponse{})
	}
	return c.JSON(http.StatusOK, meResponse{
		User:            user,
		IsAuthenticated: true,
		IsAdmin:         user.IsAdmin(),
	})
}
