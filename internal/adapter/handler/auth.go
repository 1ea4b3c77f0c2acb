package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ftfc/crm/errors"
	authdto "github.com/ftfc/crm/internal/adapter/dto/auth"
	"github.com/ftfc/crm/internal/adapter/dto/common"
	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/infrastructure/http/middleware"
	"github.com/ftfc/crm/internal/usecase/auth"
)

// AuthService is the connect flow the handler drives
type AuthService interface {
	GetGoogleAuthURL(ctx context.Context) (*auth.GoogleAuthURLResponse, error)
	HandleGoogleCallback(ctx context.Context, req *auth.GoogleCallbackRequest) (*auth.AuthResponse, error)
	Me(ctx context.Context, memberID uuid.UUID) (*entities.PublicMember, error)
	Disconnect(ctx context.Context, memberID uuid.UUID) error
}

// Auth handles Google connection HTTP requests
type Auth struct {
	service      AuthService
	secureCookie bool
	logger       *zap.Logger
}

// NewAuth creates a new auth handler
func NewAuth(service AuthService, secureCookie bool, logger *zap.Logger) *Auth {
	return &Auth{
		service:      service,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// GoogleLogin handles GET /v1/auth/google/login
// @Summary      Start Google connection
// @Description  Redirects the team member to Google's consent screen for Drive access
// @Tags         Auth
// @Success      307  "Redirect to Google"
// @Failure      500  {object}  map[string]interface{}  "Failed to create OAuth state"
// @Router       /auth/google/login [get]
func (h *Auth) GoogleLogin(c echo.Context) error {
	authURL, err := h.service.GetGoogleAuthURL(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, errors.ErrCacheFailed("store oauth state", err))
	}

	return c.Redirect(http.StatusTemporaryRedirect, authURL.URL)
}

// GoogleCallback handles GET /v1/auth/google/callback
// @Summary      Complete Google connection
// @Description  Exchanges the authorization code, stores the sealed refresh token and issues an API session
// @Tags         Auth
// @Produce      json
// @Param        code   query     string  true   "Authorization code"
// @Param        state  query     string  true   "OAuth state"
// @Param        error  query     string  false  "Error returned by Google"
// @Success      200    {object}  map[string]interface{}  "Session issued"
// @Failure      400    {object}  map[string]interface{}  "Missing code or state mismatch"
// @Failure      401    {object}  map[string]interface{}  "Consent denied"
// @Router       /auth/google/callback [get]
func (h *Auth) GoogleCallback(c echo.Context) error {
	if denied := c.QueryParam("error"); denied != "" {
		return HandleError(h.logger, c, errors.ErrOAuthFailed("google", fmt.Errorf("consent denied: %s", denied)))
	}

	var req authdto.CallbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	response, err := h.service.HandleGoogleCallback(c.Request().Context(), &auth.GoogleCallbackRequest{
		Code:  req.Code,
		State: req.State,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     "access_token",
		Value:    response.AccessToken,
		Path:     "/",
		MaxAge:   int(response.ExpiresIn),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return HandleSuccess(h.logger, c, response)
}

// Me handles GET /v1/auth/me
// @Summary      Get current member
// @Description  Returns the member and the server-confirmed Google connection status
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authdto.MeResponse      "Current member"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Router       /auth/me [get]
func (h *Auth) Me(c echo.Context) error {
	member, ok := middleware.GetMember(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	public, err := h.service.Me(c.Request().Context(), member.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, authdto.MeResponse{
		Member:    public,
		Connected: public.GoogleStatus == entities.GoogleStatusConnected,
	})
}

// Disconnect handles POST /v1/auth/google/disconnect
// @Summary      Disconnect Google
// @Description  Revokes the member's Google grant and clears the stored token
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}  "Disconnected"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Router       /auth/google/disconnect [post]
func (h *Auth) Disconnect(c echo.Context) error {
	member, ok := middleware.GetMember(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	if err := h.service.Disconnect(c.Request().Context(), member.ID); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, common.MessageResponse{Message: "Google account disconnected"})
}
