package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetRecord returns the serialized value stored under key.
// The second return is false when no record exists.
func (db *DB) GetRecord(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get record %q: %w", key, err)
	}
	return value, true, nil
}

// PutRecord stores value under key, replacing any prior value.
func (db *DB) PutRecord(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO records (key, value, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("put record %q: %w", key, err)
	}
	return nil
}

// DeleteRecord removes the record stored under key, if any.
func (db *DB) DeleteRecord(ctx context.Context, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}
