package handler

// stores.go declares the narrow storage interfaces handlers depend on.
// The repository types satisfy them; tests substitute in-memory fakes.

import (
	"context"

	"github.com/iliyamo/field-visit-api/internal/model"
)

// UserStore is the user lookup/creation surface used by auth and admin handlers.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	ByPhone(ctx context.Context, phone string) (model.User, error)
	ByID(ctx context.Context, id uint64) (model.User, error)
}

// AdminStore covers grant management and the bootstrap transaction.
type AdminStore interface {
	Create(ctx context.Context, userID uint64, active bool) (uint64, error)
	Any(ctx context.Context) (bool, error)
	ByID(ctx context.Context, adminID uint64) (model.Admin, error)
	Delete(ctx context.Context, adminID uint64) error
	Bootstrap(ctx context.Context, u model.User) (uint64, error)
}

// VisitStore persists and serves visit reports.
type VisitStore interface {
	Create(ctx context.Context, v model.Visit) (model.Visit, error)
	ByID(ctx context.Context, id uint64) (model.Visit, error)
	Delete(ctx context.Context, id uint64) error
}

// GrantInvalidator drops a cached admin grant after it changes.
type GrantInvalidator interface {
	Invalidate(ctx context.Context, userID uint64)
}

// noopInvalidator is used when no cache is wired (tests, cache disabled).
type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, uint64) {}
