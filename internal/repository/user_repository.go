package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/field-visit-api/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID. The password must already be
// digested by the caller; this layer never sees plaintext. Duplicate phone
// numbers surface as ErrPhoneExists via the unique key, so concurrent
// registrations cannot both succeed.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	email := sql.NullString{String: strings.ToLower(strings.TrimSpace(u.Email)), Valid: u.Email != ""}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_detail (phone_number, email, first_name, last_name, hashed_password, active) VALUES (?,?,?,?,?,?)",
		u.PhoneNumber, email, u.FirstName, u.LastName, u.HashedPassword, u.Active)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrPhoneExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ByPhone fetches a user by phone number.
func (r *UserRepo) ByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT user_id, phone_number, email, first_name, last_name, hashed_password, active, register_date FROM user_detail WHERE phone_number=? LIMIT 1",
		phone))
}

// ByID fetches a user by id.
func (r *UserRepo) ByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT user_id, phone_number, email, first_name, last_name, hashed_password, active, register_date FROM user_detail WHERE user_id=? LIMIT 1",
		id))
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u     model.User
		email sql.NullString
	)
	err := row.Scan(&u.ID, &u.PhoneNumber, &email, &u.FirstName, &u.LastName,
		&u.HashedPassword, &u.Active, &u.RegisterDate)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Email = email.String
	return u, nil
}

// isDuplicateKey reports whether err is a MySQL 1062 duplicate-entry error.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
