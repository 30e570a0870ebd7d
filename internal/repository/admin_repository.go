package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/field-visit-api/internal/model"
)

type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

// Create inserts an admin grant for a user. The unique key on user_id makes
// a second grant fail with ErrAdminExists regardless of request interleaving.
func (r *AdminRepo) Create(ctx context.Context, userID uint64, active bool) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin (user_id, active) VALUES (?,?)", userID, active)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrAdminExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Any reports whether at least one admin row exists. Used as the bootstrap
// precondition; this is a check, not a constraint.
func (r *AdminRepo) Any(ctx context.Context) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx, "SELECT admin_id FROM admin LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ActiveByUserID returns the active admin grant for a user, or ErrNotFound.
// An inactive row does not confer privilege and is reported as missing.
func (r *AdminRepo) ActiveByUserID(ctx context.Context, userID uint64) (model.Admin, error) {
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT admin_id, user_id, active, register_date FROM admin WHERE user_id=? AND active=1 LIMIT 1",
		userID).Scan(&a.ID, &a.UserID, &a.Active, &a.RegisterDate)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Admin{}, ErrNotFound
	}
	if err != nil {
		return model.Admin{}, err
	}
	return a, nil
}

// ByID returns an admin grant by its primary key, active or not.
func (r *AdminRepo) ByID(ctx context.Context, adminID uint64) (model.Admin, error) {
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT admin_id, user_id, active, register_date FROM admin WHERE admin_id=? LIMIT 1",
		adminID).Scan(&a.ID, &a.UserID, &a.Active, &a.RegisterDate)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Admin{}, ErrNotFound
	}
	if err != nil {
		return model.Admin{}, err
	}
	return a, nil
}

// Delete removes an admin grant by id. A missing id yields ErrNotFound so a
// repeated revoke never soft-succeeds.
func (r *AdminRepo) Delete(ctx context.Context, adminID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM admin WHERE admin_id=?", adminID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Bootstrap creates the first user together with their admin grant inside one
// transaction: both rows exist afterwards, or neither does.
func (r *AdminRepo) Bootstrap(ctx context.Context, u model.User) (adminID uint64, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	email := sql.NullString{String: u.Email, Valid: u.Email != ""}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO user_detail (phone_number, email, first_name, last_name, hashed_password, active) VALUES (?,?,?,?,?,?)",
		u.PhoneNumber, email, u.FirstName, u.LastName, u.HashedPassword, u.Active)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrPhoneExists
		}
		return 0, err
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, "INSERT INTO admin (user_id, active) VALUES (?,1)", userID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}
