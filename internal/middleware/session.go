package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/field-visit-api/internal/metrics"
	"github.com/iliyamo/field-visit-api/internal/utils"
)

// SessionConfig carries what the session middleware needs: the token signer
// and the cookie policy.
type SessionConfig struct {
	Signer       *utils.Signer
	CookieSecure bool
	// OpenPaths is the unauthenticated allow-list. A request whose path has
	// one of these prefixes passes through with no identity attached.
	OpenPaths []string
}

// Session returns the boundary middleware every request passes through.  It
// authenticates the access_token cookie and, when that token has expired but
// a valid refresh_token cookie is present, transparently rotates the access
// token.  The rotated cookie is written to the response before the handler
// runs, so it can never be lost to a handler that also mutates the response.
//
// State machine per request:
//  1. allow-listed path or CORS pre-flight  -> pass through, identity unset
//  2. access cookie valid                   -> attach identity, continue
//     access cookie invalid                 -> 401
//     access cookie expired or absent       -> step 3
//  3. refresh cookie absent                 -> 401 "no token found"
//     refresh cookie invalid or expired     -> 401
//     refresh cookie valid                  -> mint access token from the
//     refresh claims, set cookie, attach identity, run handler
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions || isOpen(cfg.OpenPaths, c.Request().URL.Path) {
				return next(c)
			}

			if cookie, err := c.Cookie("access_token"); err == nil && cookie.Value != "" {
				claims, verr := cfg.Signer.Verify(cookie.Value, utils.AccessToken)
				switch {
				case verr == nil:
					WithIdentity(c, Identity{UserID: claims.UserID, FirstName: claims.FirstName})
					return next(c)
				case errors.Is(verr, utils.ErrTokenExpired):
					// fall through to the refresh attempt
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
				}
			}

			refresh, err := c.Cookie("refresh_token")
			if err != nil || refresh.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "no token found")
			}
			claims, err := cfg.Signer.Verify(refresh.Value, utils.RefreshToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
			}

			minted, _, err := cfg.Signer.Issue(claims.UserID, claims.FirstName, utils.AccessToken)
			if err != nil {
				return err
			}
			// Write the rotated cookie before the handler can commit the
			// response; echo sends headers on first body write.
			SetTokenCookie(c, "access_token", minted,
				int(cfg.Signer.TTL(utils.AccessToken).Seconds()), cfg.CookieSecure)
			metrics.TokenRotationsTotal.Inc()

			WithIdentity(c, Identity{UserID: claims.UserID, FirstName: claims.FirstName})
			return next(c)
		}
	}
}

// isOpen reports whether path matches the allow-list by prefix, mirroring the
// route groups registered in the router.
func isOpen(open []string, path string) bool {
	for _, p := range open {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
