// Package storage persists the medicine snapshot as a single blob.
//
// Two backends exist: a key-value table inside the pillbox SQLite database
// (the default) and a JSON file written atomically next to it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unowned-ai/pillbox/pkg/config"
)

// DefaultKey is the fixed key the medicine snapshot is stored under.
const DefaultKey = "medicines"

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("snapshot not found")

// Backend loads and saves one opaque blob.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// NewBackend picks the backend named by cfg.Backend. db is used by the
// sqlite backend and ignored otherwise.
func NewBackend(cfg *config.Config, db *sql.DB) (Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		if db == nil {
			return nil, errors.New("storage: sqlite backend requires an open database")
		}
		return NewSQLiteBackend(db, DefaultKey), nil
	case config.BackendFile:
		path, err := cfg.ResolveFilePath()
		if err != nil {
			return nil, err
		}
		return NewFileBackend(path), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
