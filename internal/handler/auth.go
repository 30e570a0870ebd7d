package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel error matching
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"github.com/rs/zerolog"       // structured logging

	"github.com/iliyamo/field-visit-api/internal/config"     // app configuration
	"github.com/iliyamo/field-visit-api/internal/middleware" // cookie helpers
	"github.com/iliyamo/field-visit-api/internal/repository" // sentinel errors
	"github.com/iliyamo/field-visit-api/internal/utils"      // token signer, password digest
)

// AuthHandler bundles dependencies for the authentication endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Signer *utils.Signer
	Users  UserStore
	Log    zerolog.Logger
}

func NewAuthHandler(cfg config.Config, s *utils.Signer, u UserStore, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Signer: s, Users: u, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Password    string `json:"password" validate:"required"`
}

// Login verifies phone and password, then sets both token cookies.  Unknown
// phone is 404 and a digest mismatch is 403; the two outcomes are
// deliberately distinct in this API.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.ByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return err
	}
	if !utils.VerifyPassword(u.HashedPassword, req.Password) {
		return echo.NewHTTPError(http.StatusForbidden, "wrong password")
	}

	access, _, err := h.Signer.Issue(u.ID, u.FirstName, utils.AccessToken)
	if err != nil {
		return err
	}
	refresh, _, err := h.Signer.Issue(u.ID, u.FirstName, utils.RefreshToken)
	if err != nil {
		return err
	}
	middleware.SetTokenCookie(c, "access_token", access,
		int(h.Signer.TTL(utils.AccessToken).Seconds()), h.Cfg.CookieSecure)
	middleware.SetTokenCookie(c, "refresh_token", refresh,
		int(h.Signer.TTL(utils.RefreshToken).Seconds()), h.Cfg.CookieSecure)

	h.Log.Info().Str("phone_number", req.PhoneNumber).Uint64("user_id", u.ID).Msg("login")
	return c.JSON(http.StatusOK, echo.Map{"status": "OK"})
}

// Logout clears both token cookies and redirects to the confirmation page.
// The refresh token itself stays valid until expiry: there is no server-side
// blacklist in this deployment.
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearTokenCookie(c, "access_token", h.Cfg.CookieSecure)
	middleware.ClearTokenCookie(c, "refresh_token", h.Cfg.CookieSecure)
	h.Log.Info().Msg("logout")
	return c.Redirect(http.StatusSeeOther, "/auth/logout-successful")
}

// LogoutSuccessful is the target of the logout redirect.
func (h *AuthHandler) LogoutSuccessful(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "OK"})
}
