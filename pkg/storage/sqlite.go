package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	loadBlobStatement = `
	SELECT value
	FROM kv_store
	WHERE key = ?
	`

	saveBlobStatement = `
	INSERT INTO kv_store (key, value)
	VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()
	`

	deleteBlobStatement = `
	DELETE FROM kv_store
	WHERE key = ?
	`
)

// SQLiteBackend keeps the blob in the kv_store table.
type SQLiteBackend struct {
	db  *sql.DB
	key string
}

// NewSQLiteBackend stores the blob under key in db. The schema must
// already be in place (see db.UpgradeDB).
func NewSQLiteBackend(db *sql.DB, key string) *SQLiteBackend {
	return &SQLiteBackend{db: db, key: key}
}

func (b *SQLiteBackend) Load(ctx context.Context) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, loadBlobStatement, b.key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load %q: %w", b.key, err)
	}
	return value, nil
}

// Save overwrites the previous blob unconditionally.
func (b *SQLiteBackend) Save(ctx context.Context, data []byte) error {
	if _, err := b.db.ExecContext(ctx, saveBlobStatement, b.key, data); err != nil {
		return fmt.Errorf("save %q: %w", b.key, err)
	}
	return nil
}

// Delete removes the blob; a missing blob is not an error.
func (b *SQLiteBackend) Delete(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, deleteBlobStatement, b.key); err != nil {
		return fmt.Errorf("delete %q: %w", b.key, err)
	}
	return nil
}
