package medicines

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unowned-ai/pillbox/pkg/logging"
	"github.com/unowned-ai/pillbox/pkg/storage"
)

// ErrDuplicateID is returned by Add when the id generator keeps colliding.
var ErrDuplicateID = errors.New("could not generate a unique medicine id")

const maxIDAttempts = 8

// Options configures a Store.
type Options struct {
	Logger *zap.SugaredLogger
	// SaveDelay batches bursts of mutations into one write. Zero writes
	// after every mutation.
	SaveDelay time.Duration
	Format    Format
	// NewID generates record ids; defaults to random UUIDs.
	NewID func() string
}

// Store is the process-wide medicine collection.
//
// Every mutation swaps in a new slice, notifies subscribers and queues the
// snapshot for the save worker. Mutators do not wait for the write: a crash
// before the worker runs loses the latest change. Write failures are logged
// and the in-memory collection stays authoritative.
type Store struct {
	mu         sync.RWMutex
	records    []MedicineRecord
	generation uint64

	backend storage.Backend
	logger  *zap.SugaredLogger
	format  Format
	newID   func() string

	subMu       sync.Mutex
	subscribers map[int]func([]MedicineRecord)
	nextSub     int

	saveMu         sync.Mutex
	savedGen       uint64
	saveDelay      time.Duration
	saveChan       chan struct{}
	shutdownChan   chan struct{}
	workerDoneChan chan struct{}
	closeOnce      sync.Once
}

// Open loads the persisted collection from backend and starts the save
// worker. Missing or unreadable data yields an empty collection.
func Open(ctx context.Context, backend storage.Backend, opts Options) *Store {
	s := &Store{
		records:        []MedicineRecord{},
		backend:        backend,
		logger:         logging.OrNop(opts.Logger),
		format:         opts.Format,
		newID:          opts.NewID,
		subscribers:    make(map[int]func([]MedicineRecord)),
		saveDelay:      opts.SaveDelay,
		saveChan:       make(chan struct{}, 1),
		shutdownChan:   make(chan struct{}),
		workerDoneChan: make(chan struct{}),
	}
	if s.format == (Format{}) {
		s.format = DefaultFormat
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	s.records = s.load(ctx)

	go s.saveWorker()
	return s
}

func (s *Store) load(ctx context.Context) []MedicineRecord {
	data, err := s.backend.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("no saved medicines yet")
		} else {
			s.logger.Warnw("failed to read saved medicines, starting empty", "error", err)
		}
		return []MedicineRecord{}
	}

	records, err := DecodeSnapshot(data)
	if err != nil {
		s.logger.Warnw("saved medicines are unreadable, starting empty", "error", err)
		return []MedicineRecord{}
	}

	seen := make(map[string]bool, len(records))
	clean := make([]MedicineRecord, 0, len(records))
	for _, r := range records {
		switch {
		case r.ID == "" || seen[r.ID]:
			s.logger.Warnw("dropping saved medicine with missing or duplicate id", "id", r.ID, "name", r.Name)
		case !ValidDay(r.StartDate):
			s.logger.Warnw("dropping saved medicine with invalid start date", "id", r.ID, "startDate", r.StartDate)
		default:
			seen[r.ID] = true
			clean = append(clean, r)
		}
	}
	s.logger.Debugw("loaded medicines", "count", len(clean))
	return clean
}

// Records returns a copy of the current collection in insertion order.
func (s *Store) Records() []MedicineRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Clone(s.records)
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (MedicineRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := IndexOf(s.records, id); idx >= 0 {
		return s.records[idx], true
	}
	return MedicineRecord{}, false
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Add validates draft and appends a new record with a fresh id and
// taken=false. Invalid drafts return ErrInvalidDraft and change nothing.
func (s *Store) Add(draft Draft) (MedicineRecord, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return MedicineRecord{}, err
	}

	var rec MedicineRecord
	var addErr error
	s.mutate(func(current []MedicineRecord) ([]MedicineRecord, bool) {
		id, err := s.uniqueID(current)
		if err != nil {
			addErr = err
			return current, false
		}
		rec = draft.Record(id, s.format)
		return Append(current, rec), true
	})
	if addErr != nil {
		return MedicineRecord{}, addErr
	}
	return rec, nil
}

func (s *Store) uniqueID(current []MedicineRecord) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && IndexOf(current, id) < 0 {
			return id, nil
		}
	}
	return "", ErrDuplicateID
}

// Toggle flips the taken flag of id. Unknown ids are a no-op reported as false.
func (s *Store) Toggle(id string) bool {
	return s.mutate(func(current []MedicineRecord) ([]MedicineRecord, bool) {
		return Toggle(current, id)
	})
}

// Remove deletes id. Unknown ids are a no-op reported as false.
func (s *Store) Remove(id string) bool {
	return s.mutate(func(current []MedicineRecord) ([]MedicineRecord, bool) {
		return Remove(current, id)
	})
}

// RemoveWhere deletes every record matching pred, evaluated against the
// collection at call time, and returns the number removed.
func (s *Store) RemoveWhere(pred func(MedicineRecord) bool) int {
	var removed int
	s.mutate(func(current []MedicineRecord) ([]MedicineRecord, bool) {
		var next []MedicineRecord
		next, removed = RemoveWhere(current, pred)
		return next, removed > 0
	})
	return removed
}

// Clear deletes every record.
func (s *Store) Clear() {
	s.mutate(func([]MedicineRecord) ([]MedicineRecord, bool) {
		return Clear(), true
	})
}

// Subscribe registers fn to receive a copy of the collection after every
// mutation. fn runs on the mutating goroutine after the store lock is
// released. The returned func unregisters fn.
func (s *Store) Subscribe(fn func([]MedicineRecord)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) mutate(fn func([]MedicineRecord) ([]MedicineRecord, bool)) bool {
	s.mu.Lock()
	next, changed := fn(s.records)
	if changed {
		s.records = next
		s.generation++
	}
	snapshot := s.records
	s.mu.Unlock()

	if !changed {
		return false
	}
	s.requestSave()
	s.notify(snapshot)
	return true
}

func (s *Store) notify(snapshot []MedicineRecord) {
	s.subMu.Lock()
	fns := make([]func([]MedicineRecord), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(Clone(snapshot))
	}
}

func (s *Store) requestSave() {
	select {
	case s.saveChan <- struct{}{}:
	default:
	}
}

// saveWorker writes the latest snapshot whenever a save is requested,
// waiting saveDelay after the last request when batching is enabled.
func (s *Store) saveWorker() {
	defer close(s.workerDoneChan)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-s.saveChan:
			if s.saveDelay <= 0 {
				s.persistLogged()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.saveDelay)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.saveDelay)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			s.persistLogged()
		case <-s.shutdownChan:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (s *Store) persistLogged() {
	// Errors are already logged by persist.
	_ = s.persist(context.Background())
}

// persist writes the current snapshot if it changed since the last
// successful write.
func (s *Store) persist(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	snapshot, gen := s.records, s.generation
	s.mu.RUnlock()

	if gen == s.savedGen {
		return nil
	}

	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		s.logger.Errorw("failed to encode medicines", "error", err)
		return err
	}
	if err := s.backend.Save(ctx, data); err != nil {
		s.logger.Errorw("failed to persist medicines", "error", err, "count", len(snapshot))
		return fmt.Errorf("persist medicines: %w", err)
	}

	s.savedGen = gen
	s.logger.Debugw("persisted medicines", "count", len(snapshot))
	return nil
}

// Flush synchronously writes any unsaved change.
func (s *Store) Flush(ctx context.Context) error {
	return s.persist(ctx)
}

// Close stops the save worker and flushes pending changes.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		<-s.workerDoneChan
		err = s.Flush(context.Background())
	})
	return err
}
