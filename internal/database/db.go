package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/field-visit-api/internal/config"
)

// maxUploadPacket raises the driver's packet ceiling to 64 MiB so a voice
// note travels inside a single INSERT; the server default can be smaller
// than one recording.
const maxUploadPacket = 64 << 20

// Open connects to MySQL using the loaded configuration and verifies the
// connection before returning. parseTime maps the register and visit
// DATETIME columns onto time.Time, and loc=UTC keeps those timestamps
// comparable no matter where the server runs.
func Open(cfg config.Config) (*sql.DB, error) {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.DBUser, cfg.DBPass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&maxAllowedPacket=%d",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName, maxUploadPacket)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Uploads hold a connection for the whole blob write, so the pool keeps
	// fewer idle handles and recycles them sooner than a read-mostly service
	// would.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
