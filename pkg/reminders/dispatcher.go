package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unowned-ai/pillbox/pkg/logging"
)

// DeliverFunc shows a due reminder to the user.
type DeliverFunc func(ctx context.Context, r Reminder) error

// Queue is the part of SQLiteNotifier the Dispatcher drains.
type Queue interface {
	Due(ctx context.Context, now time.Time) ([]Reminder, error)
	MarkDelivered(ctx context.Context, id string) error
}

// Dispatcher polls a Queue and delivers reminders that fell due.
type Dispatcher struct {
	queue    Queue
	deliver  DeliverFunc
	interval time.Duration
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// NewDispatcher polls queue every interval. now defaults to time.Now.
func NewDispatcher(queue Queue, deliver DeliverFunc, interval time.Duration, now func() time.Time, logger *zap.SugaredLogger) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Dispatcher{
		queue:    queue,
		deliver:  deliver,
		interval: interval,
		now:      now,
		logger:   logging.OrNop(logger),
	}
}

// RunOnce delivers every due reminder and returns how many were delivered.
// A failed delivery leaves its reminder pending for the next pass.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { DispatchDuration.Observe(time.Since(start).Seconds()) }()

	due, err := d.queue.Due(ctx, d.now())
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	delivered := 0
	for _, r := range due {
		if err := d.deliver(ctx, r); err != nil {
			DeliveriesTotal.WithLabelValues(outcomeFailed).Inc()
			d.logger.Errorw("failed to deliver reminder", "id", r.ID, "error", err)
			continue
		}
		if err := d.queue.MarkDelivered(ctx, r.ID); err != nil && !errors.Is(err, ErrReminderNotFound) {
			return delivered, fmt.Errorf("mark reminder %s delivered: %w", r.ID, err)
		}
		DeliveriesTotal.WithLabelValues(outcomeOK).Inc()
		delivered++
	}
	if delivered > 0 {
		d.logger.Infow("delivered reminders", "count", delivered)
	}
	return delivered, nil
}

// Run polls until ctx is cancelled. Pass errors are logged and do not stop
// the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Infow("reminder dispatcher started", "interval", d.interval)
	for {
		if _, err := d.RunOnce(ctx); err != nil {
			d.logger.Errorw("dispatch pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			d.logger.Infow("reminder dispatcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}
