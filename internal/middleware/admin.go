package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/field-visit-api/internal/model"
	"github.com/iliyamo/field-visit-api/internal/repository"
)

// AdminStore is the lookup the guard needs from the storage layer.  It
// returns repository.ErrNotFound when the user holds no active grant.
type AdminStore interface {
	ActiveByUserID(ctx context.Context, userID uint64) (model.Admin, error)
}

// RequireAdmin gates admin-only routes.  It must run after Session: a request
// with no identity is 401, an identity without an active admin grant is 403.
// On success the grant is stored in the context so handlers can reference its
// id in audit messages.
func RequireAdmin(store AdminStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok || ident.UserID == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			admin, err := store.ActiveByUserID(c.Request().Context(), ident.UserID)
			if err != nil {
				// Only a confirmed missing grant is a privilege decision; a
				// store failure goes to the error boundary instead.
				if errors.Is(err, repository.ErrNotFound) {
					return echo.NewHTTPError(http.StatusForbidden, "admin access only")
				}
				return err
			}
			c.Set(adminKey, admin)
			return next(c)
		}
	}
}

// AdminFrom returns the grant attached by RequireAdmin.
func AdminFrom(c echo.Context) (model.Admin, bool) {
	a, ok := c.Get(adminKey).(model.Admin)
	return a, ok
}
