package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unowned-ai/pillbox/pkg/medicines"
	"github.com/unowned-ai/pillbox/pkg/session"
)

// recordsMsg carries a fresh snapshot of the collection.
type recordsMsg []medicines.MedicineRecord

// clockMsg drives the greeting and quote rotation.
type clockMsg struct{}

// subscribe forwards store snapshots to a channel, keeping only the
// latest one when the UI falls behind. The returned func unsubscribes.
func subscribe(sess *session.Session) (<-chan []medicines.MedicineRecord, func()) {
	ch := make(chan []medicines.MedicineRecord, 1)
	unsubscribe := sess.Store().Subscribe(func(records []medicines.MedicineRecord) {
		for {
			select {
			case ch <- records:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch, unsubscribe
}

// Wait for the next snapshot from the store and return tea data
func waitForRecords(ch <-chan []medicines.MedicineRecord) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		records, ok := <-ch
		if !ok {
			return nil
		}
		return recordsMsg(records)
	}
}

// Load the current collection and return tea data
func loadRecords(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return recordsMsg(sess.Store().Records())
	}
}

func clockTick() tea.Cmd {
	return tea.Tick(clockTickDuration, func(time.Time) tea.Msg {
		return clockMsg{}
	})
}
