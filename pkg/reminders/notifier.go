// Package reminders turns medicine records into one-shot local reminders.
//
// The Scheduler expands a record's frequency into firing times and hands
// them to a Notifier. SQLiteNotifier is the built-in Notifier: it queues
// reminders in the pillbox database, where a Dispatcher delivers them once
// they fall due.
package reminders

import (
	"context"
	"errors"
	"time"
)

var (
	ErrReminderNotFound = errors.New("reminder not found")
)

// Permission is the user's answer to the notification prompt.
type Permission string

const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUndetermined Permission = "undetermined"
)

// ParsePermission accepts the stored permission values.
func ParsePermission(s string) (Permission, bool) {
	switch p := Permission(s); p {
	case PermissionGranted, PermissionDenied, PermissionUndetermined:
		return p, true
	}
	return PermissionUndetermined, false
}

// Notification is a reminder to register.
type Notification struct {
	Title  string
	Body   string
	FireAt time.Time
}

// Notifier registers reminders with the platform.
type Notifier interface {
	// RequestPermission asks for permission to post reminders. Asking
	// again after the user answered returns the stored answer.
	RequestPermission(ctx context.Context) (Permission, error)
	// Schedule registers a one-shot reminder and returns its handle.
	Schedule(ctx context.Context, n Notification) (string, error)
	// CancelAll removes every pending reminder of the app.
	CancelAll(ctx context.Context) error
}

// Reminder is a queued notification.
type Reminder struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	FireAt    time.Time `json:"fire_at"`
	Delivered bool      `json:"delivered"`
}
