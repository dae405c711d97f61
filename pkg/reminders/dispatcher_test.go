package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDispatcher_RunOnce(t *testing.T) {
	ctx := context.Background()
	n := setupTestNotifier(t, true)
	for _, fire := range []time.Time{at(10, 8, 0), at(10, 9, 0), at(10, 20, 0)} {
		_, err := n.Schedule(ctx, Notification{Title: DefaultTitle, Body: Body("Aspirin"), FireAt: fire})
		require.NoError(t, err)
	}

	var delivered []Reminder
	deliver := func(_ context.Context, r Reminder) error {
		delivered = append(delivered, r)
		return nil
	}
	d := NewDispatcher(n, deliver, time.Minute, func() time.Time { return at(10, 9, 30) }, zaptest.NewLogger(t).Sugar())

	count, err := d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, delivered, 2)

	count, err = d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	pending, err := n.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestDispatcher_FailedDeliveryStaysPending(t *testing.T) {
	ctx := context.Background()
	n := setupTestNotifier(t, true)
	_, err := n.Schedule(ctx, Notification{Title: DefaultTitle, Body: Body("Iron"), FireAt: at(10, 8, 0)})
	require.NoError(t, err)

	fail := true
	deliver := func(context.Context, Reminder) error {
		if fail {
			return errors.New("terminal closed")
		}
		return nil
	}
	d := NewDispatcher(n, deliver, time.Minute, func() time.Time { return at(10, 9, 0) }, nil)

	count, err := d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	fail = false
	count, err = d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	n := setupTestNotifier(t, true)
	d := NewDispatcher(n, func(context.Context, Reminder) error { return nil }, time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
