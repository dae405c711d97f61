package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// TargetSchemaVersion is the highest schema version this build understands
	// for the pillboxdb component.
	TargetSchemaVersion int64 = 1
	// PillboxDBComponent names the main database component in pillbox_versions.
	PillboxDBComponent = "pillboxdb"
)

// GetComponentSchemaVersion retrieves the schema version for a given component.
// Returns 0 if the component is not found or the versions table doesn't exist yet.
func GetComponentSchemaVersion(db *sql.DB, componentName string) (int64, error) {
	query := `SELECT version FROM pillbox_versions WHERE component = ?;`

	var version int64
	err := db.QueryRow(query, componentName).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "pillbox_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

// InitializeSchema creates all pillboxdb tables and records schemaVersionToSet.
func InitializeSchema(db *sql.DB, schemaVersionToSet int64) error {
	if _, err := db.Exec(SchemaV1); err != nil {
		return fmt.Errorf("failed to execute schema v1 SQL: %w", err)
	}

	insertVersionSQL := `
INSERT INTO pillbox_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`

	if _, err := db.Exec(insertVersionSQL, PillboxDBComponent, schemaVersionToSet); err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", PillboxDBComponent, schemaVersionToSet, err)
	}
	return nil
}

// UpgradeDB brings the pillboxdb component of db to appTargetSchemaVersion.
// dbIdentifierForLog is only used in log lines and error messages.
func UpgradeDB(db *sql.DB, dbIdentifierForLog string, appTargetSchemaVersion int64, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	currentDBVersion, err := GetComponentSchemaVersion(db, PillboxDBComponent)
	if err != nil {
		return err
	}

	switch {
	case currentDBVersion == 0:
		logger.Infow("initializing database schema",
			"component", PillboxDBComponent, "db", dbIdentifierForLog, "version", appTargetSchemaVersion)
		if err := InitializeSchema(db, appTargetSchemaVersion); err != nil {
			return fmt.Errorf("failed to initialize component %s in database '%s': %w", PillboxDBComponent, dbIdentifierForLog, err)
		}
		return nil
	case currentDBVersion == appTargetSchemaVersion:
		logger.Debugw("database schema up to date",
			"component", PillboxDBComponent, "db", dbIdentifierForLog, "version", currentDBVersion)
		return nil
	case currentDBVersion < appTargetSchemaVersion:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is older than application's target schema version %d. Automatic migration from this older version is not yet supported", PillboxDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	default:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is newer than application's target schema version %d. Please upgrade the application", PillboxDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	}
}

// Open opens the database at path and applies UpgradeDB.
func Open(path string, enableWAL bool, syncPragma string, logger *zap.SugaredLogger) (*sql.DB, error) {
	conn, err := OpenDBConnection(path, enableWAL, syncPragma)
	if err != nil {
		return nil, err
	}
	if err := UpgradeDB(conn, path, TargetSchemaVersion, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize/upgrade database schema for '%s': %w", path, err)
	}
	return conn, nil
}
