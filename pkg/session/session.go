// Package session is the action surface shared by the CLI, the TUI and the
// MCP server. It ties the record store to the reminder scheduler and keeps
// the per-screen state (selected calendar day, history filter, search term).
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unowned-ai/pillbox/pkg/logging"
	"github.com/unowned-ai/pillbox/pkg/medicines"
	"github.com/unowned-ai/pillbox/pkg/reminders"
	"github.com/unowned-ai/pillbox/pkg/views"
)

// ErrInvalidDate is returned by SelectDate for a malformed day-key.
var ErrInvalidDate = errors.New("invalid date")

// Scheduler is the part of reminders.Scheduler a session needs.
type Scheduler interface {
	ScheduleReminders(ctx context.Context, name string, base medicines.TimeOfDay, freq medicines.Frequency) (reminders.Report, error)
}

// Session serves one user. It is safe for concurrent use.
type Session struct {
	store     *medicines.Store
	scheduler Scheduler
	now       func() time.Time
	logger    *zap.SugaredLogger

	mu           sync.RWMutex
	selectedDate string
	filter       views.Filter
	searchTerm   string
}

// New returns a session over store. scheduler may be nil, in which case
// adding a medicine registers no reminders. now defaults to time.Now.
func New(store *medicines.Store, scheduler Scheduler, now func() time.Time, logger *zap.SugaredLogger) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		store:        store,
		scheduler:    scheduler,
		now:          now,
		logger:       logging.OrNop(logger),
		selectedDate: medicines.DayKey(now()),
		filter:       views.FilterTaken,
	}
}

// Store returns the underlying record store.
func (s *Session) Store() *medicines.Store {
	return s.store
}

// Now returns the session clock.
func (s *Session) Now() time.Time {
	return s.now()
}

// Add creates a record and schedules its reminders.
//
// The record is kept even when scheduling fails or permission is denied;
// the report and error describe the reminder outcome only.
func (s *Session) Add(ctx context.Context, draft medicines.Draft) (medicines.MedicineRecord, reminders.Report, error) {
	rec, err := s.store.Add(draft)
	if err != nil {
		return medicines.MedicineRecord{}, reminders.Report{}, err
	}
	s.logger.Infow("medicine added", "id", rec.ID, "name", rec.Name, "frequency", rec.Frequency)

	if s.scheduler == nil || rec.TimeOfDay == nil {
		return rec, reminders.Report{Medicine: rec.Name}, nil
	}
	report, err := s.scheduler.ScheduleReminders(ctx, rec.Name, *rec.TimeOfDay, rec.Frequency)
	return rec, report, err
}

// Toggle flips the taken flag; unknown ids are ignored.
func (s *Session) Toggle(id string) bool {
	return s.store.Toggle(id)
}

// Delete removes a record; unknown ids are ignored. Its reminders are left
// in place.
func (s *Session) Delete(id string) bool {
	return s.store.Remove(id)
}

// ClearAll removes every record.
func (s *Session) ClearAll() {
	s.store.Clear()
}

// ClearFiltered removes the records of the given history filter as of now.
func (s *Session) ClearFiltered(f views.Filter) (int, error) {
	return views.ClearFiltered(s.store, f, s.now())
}

func (s *Session) SelectDate(day string) error {
	if !medicines.ValidDay(day) {
		return fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDate, day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedDate = day
	return nil
}

func (s *Session) SetFilter(f views.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

func (s *Session) SetSearchTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchTerm = term
}

func (s *Session) SelectedDate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedDate
}

func (s *Session) Filter() views.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *Session) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchTerm
}

// Today returns today's schedule.
func (s *Session) Today() views.TodaySchedule {
	return views.Today(s.store.Records(), s.now())
}

// Calendar returns the per-day aggregation of every record.
func (s *Session) Calendar() map[string]views.DaySummary {
	return views.Calendar(s.store.Records())
}

// SelectedDay lists the records of the selected calendar day.
func (s *Session) SelectedDay() []medicines.MedicineRecord {
	return views.RecordsOn(s.store.Records(), s.SelectedDate())
}

// History applies the current filter and search term.
func (s *Session) History() []medicines.MedicineRecord {
	s.mu.RLock()
	f, term := s.filter, s.searchTerm
	s.mu.RUnlock()
	return views.History(s.store.Records(), f, term, s.now())
}
