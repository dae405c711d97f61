package reminders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unowned-ai/pillbox/pkg/logging"
)

const permissionKey = "permission"

const (
	getSettingStatement = `
	SELECT value
	FROM notification_settings
	WHERE key = ?
	`

	setSettingStatement = `
	INSERT INTO notification_settings (key, value)
	VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()
	`

	createReminderStatement = `
	INSERT INTO reminders (id, title, body, fire_at, delivered)
	VALUES (?, ?, ?, ?, FALSE)
	`

	listPendingStatement = `
	SELECT id, title, body, fire_at, delivered
	FROM reminders
	WHERE delivered = FALSE
	ORDER BY fire_at ASC
	`

	listDueStatement = `
	SELECT id, title, body, fire_at, delivered
	FROM reminders
	WHERE delivered = FALSE AND fire_at <= ?
	ORDER BY fire_at ASC
	`

	markDeliveredStatement = `
	UPDATE reminders
	SET delivered = TRUE
	WHERE id = ? AND delivered = FALSE
	`

	cancelPendingStatement = `
	DELETE FROM reminders
	WHERE delivered = FALSE
	`
)

// SQLiteNotifier queues reminders in the pillbox database.
type SQLiteNotifier struct {
	db             *sql.DB
	grantByDefault bool
	logger         *zap.SugaredLogger
}

// NewSQLiteNotifier returns a notifier over db. grantByDefault is the
// answer recorded the first time permission is requested.
func NewSQLiteNotifier(db *sql.DB, grantByDefault bool, logger *zap.SugaredLogger) *SQLiteNotifier {
	return &SQLiteNotifier{db: db, grantByDefault: grantByDefault, logger: logging.OrNop(logger)}
}

// Permission returns the stored answer without prompting.
func (n *SQLiteNotifier) Permission(ctx context.Context) (Permission, error) {
	var value string
	err := n.db.QueryRowContext(ctx, getSettingStatement, permissionKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PermissionUndetermined, nil
		}
		return PermissionUndetermined, fmt.Errorf("read notification permission: %w", err)
	}
	perm, ok := ParsePermission(value)
	if !ok {
		n.logger.Warnw("ignoring unknown notification permission", "value", value)
	}
	return perm, nil
}

// SetPermission records the user's answer.
func (n *SQLiteNotifier) SetPermission(ctx context.Context, perm Permission) error {
	if _, ok := ParsePermission(string(perm)); !ok {
		return fmt.Errorf("invalid notification permission %q", perm)
	}
	if _, err := n.db.ExecContext(ctx, setSettingStatement, permissionKey, string(perm)); err != nil {
		return fmt.Errorf("store notification permission: %w", err)
	}
	return nil
}

func (n *SQLiteNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	perm, err := n.Permission(ctx)
	if err != nil || perm != PermissionUndetermined {
		return perm, err
	}

	perm = PermissionDenied
	if n.grantByDefault {
		perm = PermissionGranted
	}
	if err := n.SetPermission(ctx, perm); err != nil {
		return PermissionUndetermined, err
	}
	n.logger.Infow("notification permission recorded", "permission", perm)
	return perm, nil
}

func (n *SQLiteNotifier) Schedule(ctx context.Context, notification Notification) (string, error) {
	id := uuid.New()
	_, err := n.db.ExecContext(
		ctx,
		createReminderStatement,
		id,
		notification.Title,
		notification.Body,
		notification.FireAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("queue reminder: %w", err)
	}
	return id.String(), nil
}

func (n *SQLiteNotifier) CancelAll(ctx context.Context) error {
	res, err := n.db.ExecContext(ctx, cancelPendingStatement)
	if err != nil {
		return err
	}
	if count, err := res.RowsAffected(); err == nil {
		n.logger.Debugw("cancelled pending reminders", "count", count)
	}
	return nil
}

// Pending lists undelivered reminders, soonest first.
func (n *SQLiteNotifier) Pending(ctx context.Context) ([]Reminder, error) {
	return n.query(ctx, listPendingStatement)
}

// Due lists undelivered reminders whose firing time is at or before now.
func (n *SQLiteNotifier) Due(ctx context.Context, now time.Time) ([]Reminder, error) {
	return n.query(ctx, listDueStatement, now.Unix())
}

// MarkDelivered flags a pending reminder as delivered.
func (n *SQLiteNotifier) MarkDelivered(ctx context.Context, id string) error {
	res, err := n.db.ExecContext(ctx, markDeliveredStatement, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (n *SQLiteNotifier) query(ctx context.Context, statement string, args ...any) ([]Reminder, error) {
	rows, err := n.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var r Reminder
		var fireAt int64
		if err := rows.Scan(&r.ID, &r.Title, &r.Body, &fireAt, &r.Delivered); err != nil {
			return nil, err
		}
		r.FireAt = time.Unix(fireAt, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}
