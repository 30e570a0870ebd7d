package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/iliyamo/field-visit-api/internal/model"
)

// AdminSource is the underlying lookup, satisfied by repository.AdminRepo.
type AdminSource interface {
	ActiveByUserID(ctx context.Context, userID uint64) (model.Admin, error)
}

// AdminGrants caches positive admin-grant lookups in front of the database.
// Misses and errors are never cached, so a denied request always re-checks.
// Grant and revoke paths call Invalidate to drop the entry immediately.
type AdminGrants struct {
	src   AdminSource
	store Store
	ttl   time.Duration
}

func NewAdminGrants(src AdminSource, store Store, ttl time.Duration) *AdminGrants {
	return &AdminGrants{src: src, store: store, ttl: ttl}
}

// ActiveByUserID implements the guard's AdminStore over the cached source.
func (g *AdminGrants) ActiveByUserID(ctx context.Context, userID uint64) (model.Admin, error) {
	key := grantKey(userID)
	if b, ok := g.store.Get(ctx, key); ok {
		var a model.Admin
		if err := json.Unmarshal(b, &a); err == nil {
			return a, nil
		}
		// Unreadable entry: drop it and fall through to the source.
		g.store.Delete(ctx, key)
	}
	a, err := g.src.ActiveByUserID(ctx, userID)
	if err != nil {
		return model.Admin{}, err
	}
	if b, err := json.Marshal(a); err == nil {
		g.store.Set(ctx, key, b, g.ttl)
	}
	return a, nil
}

// Invalidate drops the cached grant for a user.
func (g *AdminGrants) Invalidate(ctx context.Context, userID uint64) {
	g.store.Delete(ctx, grantKey(userID))
}

func grantKey(userID uint64) string {
	return "admin_grant:" + strconv.FormatUint(userID, 10)
}
