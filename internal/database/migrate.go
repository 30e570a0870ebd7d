package database

import (
	"context"
	"database/sql"
)

// schema contains idempotent table definitions. The unique keys on
// user_detail.phone_number and admin.user_id are load-bearing: concurrent
// duplicate registrations and double admin grants are resolved here, not in
// application code.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_detail (
		user_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		phone_number VARCHAR(20) NOT NULL,
		email VARCHAR(255) NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		hashed_password CHAR(32) NOT NULL,
		active TINYINT(1) NOT NULL DEFAULT 1,
		register_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id),
		UNIQUE KEY uq_user_phone (phone_number),
		UNIQUE KEY uq_user_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS admin (
		admin_id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		active TINYINT(1) NOT NULL DEFAULT 1,
		register_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (admin_id),
		UNIQUE KEY uq_admin_user (user_id),
		CONSTRAINT fk_admin_user FOREIGN KEY (user_id)
			REFERENCES user_detail (user_id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS visit_data (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		hs_unique_code VARCHAR(100) NOT NULL,
		filename VARCHAR(255) NOT NULL,
		file_data LONGBLOB NOT NULL,
		content_type VARCHAR(100) NOT NULL,
		place_name VARCHAR(255) NOT NULL,
		person_name VARCHAR(255) NOT NULL,
		person_position VARCHAR(255) NULL,
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		address TEXT NULL,
		description TEXT NULL,
		visit_timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_visit_user (user_id),
		CONSTRAINT fk_visit_user FOREIGN KEY (user_id)
			REFERENCES user_detail (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
