package model

import "time"

// Admin represents a privilege grant in the `admin` table.  A row with
// Active=true confers admin privilege on the referenced user; absence of a
// row (or Active=false) does not.  At most one row exists per user, enforced
// by a unique key on user_id.
type Admin struct {
	ID           uint64    // admin.admin_id
	UserID       uint64    // admin.user_id (unique)
	Active       bool      // admin.active
	RegisterDate time.Time // admin.register_date
}
