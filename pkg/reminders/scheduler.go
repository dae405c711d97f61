package reminders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unowned-ai/pillbox/pkg/logging"
	"github.com/unowned-ai/pillbox/pkg/medicines"
)

// DefaultTitle is the title of every medicine reminder.
const DefaultTitle = "⏰ Medicine Reminder"

// Options configures a Scheduler.
type Options struct {
	Logger *zap.SugaredLogger
	// Now is the clock used for expansion; defaults to time.Now.
	Now   func() time.Time
	Title string
	// Concurrency caps in-flight registrations. 1 keeps them in
	// expansion order.
	Concurrency int
}

// Scheduler registers the reminders of a medicine with a Notifier.
type Scheduler struct {
	notifier    Notifier
	logger      *zap.SugaredLogger
	now         func() time.Time
	title       string
	concurrency int
}

func NewScheduler(notifier Notifier, opts Options) *Scheduler {
	s := &Scheduler{
		notifier:    notifier,
		logger:      logging.OrNop(opts.Logger),
		now:         opts.Now,
		title:       opts.Title,
		concurrency: opts.Concurrency,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.title == "" {
		s.title = DefaultTitle
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

// Registration is the outcome of registering one firing time.
type Registration struct {
	FireAt time.Time `json:"fire_at"`
	Handle string    `json:"handle,omitempty"`
	Err    error     `json:"-"`
}

// Report summarises one ScheduleReminders call.
type Report struct {
	Medicine         string         `json:"medicine"`
	PermissionDenied bool           `json:"permission_denied"`
	Registrations    []Registration `json:"registrations"`
}

// Handles returns the handles of successful registrations in expansion order.
func (r Report) Handles() []string {
	var out []string
	for _, reg := range r.Registrations {
		if reg.Err == nil {
			out = append(out, reg.Handle)
		}
	}
	return out
}

// Failed returns the registrations that did not succeed.
func (r Report) Failed() []Registration {
	var out []Registration
	for _, reg := range r.Registrations {
		if reg.Err != nil {
			out = append(out, reg)
		}
	}
	return out
}

// Body returns the reminder text for a medicine.
func Body(name string) string {
	return "Time to take " + name
}

// ScheduleReminders registers one reminder per offset of freq.
//
// A denied permission is not an error: the report says so and nothing is
// registered. A failing registration does not stop the others; failures
// are recorded per firing time in the report.
func (s *Scheduler) ScheduleReminders(ctx context.Context, name string, base medicines.TimeOfDay, freq medicines.Frequency) (Report, error) {
	report := Report{Medicine: name}

	perm, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		return report, fmt.Errorf("request notification permission: %w", err)
	}
	if perm != PermissionGranted {
		PermissionDeniedTotal.Inc()
		s.logger.Warnw("notifications are not allowed, reminders not scheduled", "medicine", name, "permission", perm)
		report.PermissionDenied = true
		return report, nil
	}

	times := Expand(base, freq, s.now())
	report.Registrations = make([]Registration, len(times))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, at := range times {
		i, at := i, at
		g.Go(func() error {
			handle, err := s.notifier.Schedule(ctx, Notification{
				Title:  s.title,
				Body:   Body(name),
				FireAt: at,
			})
			report.Registrations[i] = Registration{FireAt: at, Handle: handle, Err: err}
			if err != nil {
				RegistrationsTotal.WithLabelValues(outcomeFailed).Inc()
				s.logger.Errorw("failed to schedule reminder", "medicine", name, "fire_at", at, "error", err)
				return nil
			}
			RegistrationsTotal.WithLabelValues(outcomeOK).Inc()
			s.logger.Debugw("scheduled reminder", "medicine", name, "fire_at", at, "handle", handle)
			return nil
		})
	}
	_ = g.Wait()

	return report, nil
}

// CancelAll removes every pending reminder, whichever medicine it belongs to.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	if err := s.notifier.CancelAll(ctx); err != nil {
		return fmt.Errorf("cancel reminders: %w", err)
	}
	s.logger.Infow("cancelled all pending reminders")
	return nil
}

// Resync cancels every pending reminder and schedules fresh ones for
// records. Records without a structured time of day are skipped.
func (s *Scheduler) Resync(ctx context.Context, records []medicines.MedicineRecord) ([]Report, error) {
	if err := s.CancelAll(ctx); err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(records))
	for _, rec := range records {
		if rec.TimeOfDay == nil {
			s.logger.Warnw("skipping medicine without a time of day", "id", rec.ID, "name", rec.Name)
			continue
		}
		report, err := s.ScheduleReminders(ctx, rec.Name, *rec.TimeOfDay, rec.Frequency)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		if report.PermissionDenied {
			break
		}
	}
	return reports, nil
}
