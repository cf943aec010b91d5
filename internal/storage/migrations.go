package storage

import "fmt"

// migrate creates the local schema if it doesn't exist.
func (db *DB) migrate() error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	db.logger.Debug("database migrations applied")
	return nil
}

var migrations = []string{
	// Favorite lines, one row per selected line
	`CREATE TABLE IF NOT EXISTS favorite_lines (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		line TEXT NOT NULL
	)`,

	// Client-local key-value storage (session token, username, avatar URL, locale)
	`CREATE TABLE IF NOT EXISTS local_storage (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}
