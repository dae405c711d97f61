package medicines

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unowned-ai/pillbox/pkg/storage"
)

type memBackend struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	saveErr error
	loadErr error
}

func (m *memBackend) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memBackend) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *memBackend) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func openTestStore(t *testing.T, b storage.Backend) *Store {
	t.Helper()
	s := Open(context.Background(), b, Options{Logger: zaptest.NewLogger(t).Sugar()})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AddAndReopen(t *testing.T) {
	b := &memBackend{}
	s := openTestStore(t, b)

	rec, err := s.Add(validDraft())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Taken)
	assert.Equal(t, "500 mg", rec.Dosage)
	require.NoError(t, s.Close())

	reopened := openTestStore(t, b)
	assert.Equal(t, []MedicineRecord{rec}, reopened.Records())
}

func TestStore_AddInvalidDraft(t *testing.T) {
	b := &memBackend{}
	s := openTestStore(t, b)

	d := validDraft()
	d.Name = ""
	_, err := s.Add(d)
	assert.ErrorIs(t, err, ErrInvalidDraft)
	assert.Zero(t, s.Len())

	require.NoError(t, s.Flush(context.Background()))
	assert.Zero(t, b.saveCount())
}

func TestStore_UniqueIDs(t *testing.T) {
	s := openTestStore(t, &memBackend{})

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		rec, err := s.Add(validDraft())
		require.NoError(t, err)
		require.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}
	assert.Equal(t, 200, s.Len())
}

func TestStore_AddRetriesOnCollision(t *testing.T) {
	ids := []string{"same", "same", "other"}
	var n int
	s := Open(context.Background(), &memBackend{}, Options{NewID: func() string {
		id := ids[n%len(ids)]
		n++
		return id
	}})
	defer s.Close()

	first, err := s.Add(validDraft())
	require.NoError(t, err)
	second, err := s.Add(validDraft())
	require.NoError(t, err)

	assert.Equal(t, "same", first.ID)
	assert.Equal(t, "other", second.ID)
}

func TestStore_AddGivesUpOnConstantID(t *testing.T) {
	s := Open(context.Background(), &memBackend{}, Options{NewID: func() string { return "fixed" }})
	defer s.Close()

	_, err := s.Add(validDraft())
	require.NoError(t, err)
	_, err = s.Add(validDraft())
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, s.Len())
}

func TestStore_ToggleTwiceRestores(t *testing.T) {
	s := openTestStore(t, &memBackend{})
	rec, err := s.Add(validDraft())
	require.NoError(t, err)

	assert.True(t, s.Toggle(rec.ID))
	got, _ := s.Get(rec.ID)
	assert.True(t, got.Taken)

	assert.True(t, s.Toggle(rec.ID))
	got, _ = s.Get(rec.ID)
	assert.Equal(t, rec, got)
}

func TestStore_UnknownIDIsNoop(t *testing.T) {
	b := &memBackend{}
	s := openTestStore(t, b)
	_, err := s.Add(validDraft())
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))
	saves := b.saveCount()

	var notified int
	s.Subscribe(func([]MedicineRecord) { notified++ })

	assert.False(t, s.Toggle("missing"))
	assert.False(t, s.Remove("missing"))
	require.NoError(t, s.Flush(context.Background()))

	assert.Zero(t, notified)
	assert.Equal(t, saves, b.saveCount())
}

func TestStore_RemoveAndClear(t *testing.T) {
	s := openTestStore(t, &memBackend{})
	a, _ := s.Add(validDraft())
	b, _ := s.Add(validDraft())
	c, _ := s.Add(validDraft())

	assert.True(t, s.Remove(b.ID))
	assert.Equal(t, []string{a.ID, c.ID}, ids(s.Records()))

	assert.True(t, s.Toggle(c.ID))
	assert.Equal(t, 1, s.RemoveWhere(func(r MedicineRecord) bool { return r.Taken }))
	assert.Equal(t, []string{a.ID}, ids(s.Records()))

	s.Clear()
	assert.Empty(t, s.Records())
	assert.NotNil(t, s.Records())
}

func TestStore_SubscribersGetCopies(t *testing.T) {
	s := openTestStore(t, &memBackend{})

	var got [][]MedicineRecord
	unsubscribe := s.Subscribe(func(records []MedicineRecord) {
		got = append(got, records)
		if len(records) > 0 {
			records[0].Name = "mutated by subscriber"
		}
	})

	rec, err := s.Add(validDraft())
	require.NoError(t, err)
	s.Toggle(rec.ID)
	unsubscribe()
	s.Clear()

	require.Len(t, got, 2)
	assert.Len(t, got[0], 1)
	assert.True(t, got[1][0].Taken)

	stored, _ := s.Get(rec.ID)
	assert.Equal(t, "Aspirin", stored.Name)
}

func TestStore_ReadsSeeCompletedMutations(t *testing.T) {
	s := openTestStore(t, &memBackend{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(validDraft())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
}

func TestStore_SaveDelayBatchesWrites(t *testing.T) {
	b := &memBackend{}
	s := Open(context.Background(), b, Options{SaveDelay: time.Hour})

	for i := 0; i < 5; i++ {
		_, err := s.Add(validDraft())
		require.NoError(t, err)
	}
	assert.Zero(t, b.saveCount())

	require.NoError(t, s.Close())
	assert.Equal(t, 1, b.saveCount())

	records, err := DecodeSnapshot(b.data)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestStore_BackgroundSave(t *testing.T) {
	b := &memBackend{}
	s := openTestStore(t, b)

	_, err := s.Add(validDraft())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return b.saveCount() > 0 }, time.Second, 5*time.Millisecond)
}

func TestStore_WriteFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := &memBackend{saveErr: errors.New("disk full")}
	s := Open(context.Background(), b, Options{Logger: zap.New(core).Sugar()})

	rec, err := s.Add(validDraft())
	require.NoError(t, err)

	err = s.Flush(context.Background())
	require.Error(t, err)

	got, ok := s.Get(rec.ID)
	assert.True(t, ok)
	assert.Equal(t, rec, got)
	assert.NotZero(t, logs.FilterMessage("failed to persist medicines").Len())

	b.mu.Lock()
	b.saveErr = nil
	b.mu.Unlock()
	require.NoError(t, s.Close())
	assert.Equal(t, 1, b.saveCount())
}

func TestStore_LoadFailureStartsEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := Open(context.Background(), &memBackend{loadErr: errors.New("permission denied")}, Options{Logger: zap.New(core).Sugar()})
	defer s.Close()

	assert.Empty(t, s.Records())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	core, logs = observer.New(zapcore.DebugLevel)
	s2 := Open(context.Background(), &memBackend{data: []byte("{garbage")}, Options{Logger: zap.New(core).Sugar()})
	defer s2.Close()
	assert.Empty(t, s2.Records())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestStore_LoadDropsInvalidRecords(t *testing.T) {
	data := []byte(`[
		{"id":"a","name":"Aspirin","startDate":"2025-06-01"},
		{"id":"a","name":"Duplicate","startDate":"2025-06-01"},
		{"id":"b","name":"Bad date","startDate":"June 1"},
		{"id":"","name":"No id","startDate":"2025-06-01"},
		{"id":"c","name":"Zinc","startDate":"2025-06-02"}
	]`)
	core, logs := observer.New(zapcore.DebugLevel)
	s := Open(context.Background(), &memBackend{data: data}, Options{Logger: zap.New(core).Sugar()})
	defer s.Close()

	assert.Equal(t, []string{"a", "c"}, ids(s.Records()))
	assert.Equal(t, 3, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s := Open(context.Background(), &memBackend{}, Options{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func ExampleStore() {
	s := Open(context.Background(), &memBackend{}, Options{})
	defer s.Close()

	rec, _ := s.Add(Draft{Name: "Aspirin", Dosage: "500", TimeOfDay: TimeOfDay{Hour: 8}, StartDate: "2025-06-01"})
	s.Toggle(rec.ID)
	got, _ := s.Get(rec.ID)
	fmt.Println(got.Name, got.Dosage, got.Type, got.Frequency, got.Time, got.Taken)
	// Output: Aspirin 500 mg Tablet Once Daily 08:00 AM true
}
