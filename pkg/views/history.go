package views

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/unowned-ai/pillbox/pkg/medicines"
)

var (
	ErrUnknownFilter   = errors.New("unknown history filter")
	ErrClearNotOffered = errors.New("clearing is not offered for this filter")
)

// Filter selects a slice of the history relative to today.
type Filter string

const (
	FilterTaken    Filter = "Taken"
	FilterMissed   Filter = "Missed"
	FilterUpcoming Filter = "Upcoming"
)

// Filters lists the history tabs in display order.
var Filters = []Filter{FilterTaken, FilterMissed, FilterUpcoming}

// ParseFilter matches s case-insensitively against Filters.
func ParseFilter(s string) (Filter, error) {
	for _, f := range Filters {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of %v", ErrUnknownFilter, s, Filters)
}

// Matches reports whether r belongs to f on the given day-key.
//
// Taken also covers records taken on today's date; Missed only covers days
// strictly before today. Upcoming ignores the taken flag.
func (f Filter) Matches(r medicines.MedicineRecord, today string) bool {
	switch f {
	case FilterTaken:
		return r.Taken && r.StartDate <= today
	case FilterMissed:
		return !r.Taken && r.StartDate < today
	case FilterUpcoming:
		return r.StartDate > today
	default:
		return false
	}
}

// Clearable reports whether the bulk clear action exists for f.
func (f Filter) Clearable() bool {
	return f == FilterTaken || f == FilterMissed
}

// History returns the records matching f whose name contains search
// (Unicode case-insensitive), most recent start date first. Records with
// the same start date keep collection order.
func History(records []medicines.MedicineRecord, f Filter, search string, now time.Time) []medicines.MedicineRecord {
	today := medicines.DayKey(now)
	folder := cases.Fold()
	term := folder.String(search)

	out := []medicines.MedicineRecord{}
	for _, r := range records {
		if !f.Matches(r, today) {
			continue
		}
		if term != "" && !strings.Contains(folder.String(r.Name), term) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate > out[j].StartDate
	})
	return out
}

// Remover deletes records matching a predicate; medicines.Store is one.
type Remover interface {
	RemoveWhere(pred func(medicines.MedicineRecord) bool) int
}

// ClearFiltered removes every record matching f as of now, ignoring any
// search term, and returns how many were removed. Upcoming returns
// ErrClearNotOffered.
func ClearFiltered(store Remover, f Filter, now time.Time) (int, error) {
	if !f.Clearable() {
		return 0, fmt.Errorf("%w: %s", ErrClearNotOffered, f)
	}
	today := medicines.DayKey(now)
	return store.RemoveWhere(func(r medicines.MedicineRecord) bool {
		return f.Matches(r, today)
	}), nil
}
