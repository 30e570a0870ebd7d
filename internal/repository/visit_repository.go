package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/field-visit-api/internal/model"
)

type VisitRepo struct{ DB *sql.DB }

func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{DB: db} }

// Create persists a visit report, bytes and metadata in one row, and returns
// the stored record with its id and timestamp filled in.
func (r *VisitRepo) Create(ctx context.Context, v model.Visit) (model.Visit, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO visit_data
		 (user_id, hs_unique_code, filename, file_data, content_type, place_name,
		  person_name, person_position, latitude, longitude, address, description, visit_timestamp)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		v.UserID, v.UniqueCode, v.Filename, v.FileData, v.ContentType, v.PlaceName,
		v.PersonName, v.PersonPosition, v.Latitude, v.Longitude, v.Address, v.Description, now)
	if err != nil {
		return model.Visit{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Visit{}, err
	}
	v.ID = uint64(id)
	v.VisitTimestamp = now
	return v, nil
}

// ByID loads a full visit row including the binary payload.
func (r *VisitRepo) ByID(ctx context.Context, id uint64) (model.Visit, error) {
	var v model.Visit
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, hs_unique_code, filename, file_data, content_type, place_name,
		        person_name, person_position, latitude, longitude, address, description, visit_timestamp
		 FROM visit_data WHERE id=? LIMIT 1`, id).
		Scan(&v.ID, &v.UserID, &v.UniqueCode, &v.Filename, &v.FileData, &v.ContentType,
			&v.PlaceName, &v.PersonName, &v.PersonPosition, &v.Latitude, &v.Longitude,
			&v.Address, &v.Description, &v.VisitTimestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Visit{}, ErrNotFound
	}
	if err != nil {
		return model.Visit{}, err
	}
	return v, nil
}

// Delete removes a visit row. Only the webhook's administrative action calls
// this; the HTTP API never exposes it.
func (r *VisitRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM visit_data WHERE id=?", id)
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
