package repository

import (
	"database/sql"
	"time"

	"github.com/RealZimboGuy/flowlint/internal/config"
)

// ConfigurePool applies connection pool limits suited to a read heavy API.
// SQLite gets a single writer connection to avoid "database is locked" errors.
func ConfigurePool(db *sql.DB) {
	if config.GetSystemSettingString(config.DATABASE_TYPE) == config.DATABASE_TYPE_SQLLITE {
		db.SetMaxOpenConns(1)
		return
	}
	// Reasonable pool settings to reduce stale connections
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)
}
