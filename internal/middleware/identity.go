package middleware

// identity.go defines the per-request identity value attached by the session
// middleware and the typed accessors handlers use to read it. Identity is an
// explicit value stored under a single context key, never a package global.

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// identityKey is the echo context key the session middleware writes under.
const identityKey = "identity"

// adminKey is the echo context key RequireAdmin writes the grant under.
const adminKey = "admin"

// Identity describes the authenticated caller of the current request.
type Identity struct {
	UserID    uint64 // subject user id taken from the token claims
	FirstName string // display name carried in the claims
}

// WithIdentity attaches an identity to the request context. The session
// middleware is the only production caller; tests use it to simulate an
// authenticated request without minting tokens.
func WithIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity attached by the session middleware.
// The second result is false for requests on the unauthenticated allow-list.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// SetTokenCookie writes a token cookie with the attributes every minted
// token uses: http-only, SameSite=Lax, Max-Age equal to the token lifetime.
// Secure is driven by configuration since local deployments serve plain HTTP.
func SetTokenCookie(c echo.Context, name, value string, maxAge int, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie expires a token cookie on the client.
func ClearTokenCookie(c echo.Context, name string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
