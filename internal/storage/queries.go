package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// GetItem retrieves a value from local storage. Missing keys return "".
func (db *DB) GetItem(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetItem stores a key-value pair in local storage.
func (db *DB) SetItem(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO local_storage (key, value) VALUES (?, ?)`,
		key, value)
	return err
}

// RemoveItem deletes a key from local storage. Missing keys are not an error.
func (db *DB) RemoveItem(ctx context.Context, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key)
	return err
}

// FavoriteLines returns the saved favorite lines in insertion order.
func (db *DB) FavoriteLines(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT line FROM favorite_lines ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query favorite lines: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan favorite line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ReplaceFavoriteLines deletes every saved line and inserts lines in order.
// Both steps run in one transaction so a failed insert keeps the old rows.
func (db *DB) ReplaceFavoriteLines(ctx context.Context, lines []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorite_lines`); err != nil {
		return fmt.Errorf("delete favorite lines: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO favorite_lines (line) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, line := range lines {
		if _, err := stmt.ExecContext(ctx, line); err != nil {
			return fmt.Errorf("insert favorite line %s: %w", line, err)
		}
	}
	return tx.Commit()
}

// ClearFavoriteLines deletes every saved line.
func (db *DB) ClearFavoriteLines(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `DELETE FROM favorite_lines`)
	return err
}
