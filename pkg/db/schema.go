package db

const (
	// SchemaV1 holds every table of the pillboxdb component.
	//
	// kv_store keeps the medicine snapshot as one blob under a fixed key.
	// reminders is the local notification queue the daemon drains.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS pillbox_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS kv_store (
    key VARCHAR(128) PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS reminders (
    id UUID PRIMARY KEY,
    title VARCHAR(256) NOT NULL,
    body TEXT NOT NULL,
    fire_at INTEGER NOT NULL,
    delivered BOOLEAN NOT NULL DEFAULT FALSE,
    created_at REAL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_reminders_pending ON reminders(delivered, fire_at);

CREATE TABLE IF NOT EXISTS notification_settings (
    key VARCHAR(64) PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at REAL DEFAULT (unixepoch())
);
`
)
