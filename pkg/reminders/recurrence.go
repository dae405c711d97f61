package reminders

import (
	"time"

	"github.com/unowned-ai/pillbox/pkg/medicines"
)

// Expand returns the next firing time for each hour offset of freq.
//
// Each candidate is today's date (in now's location) at base plus the
// offset, normalised by the calendar, so 14:00 + 12h lands on 02:00 the
// next day. A candidate strictly before now moves forward one calendar day.
// The result keeps offset order and is not sorted.
func Expand(base medicines.TimeOfDay, freq medicines.Frequency, now time.Time) []time.Time {
	offsets := freq.Offsets()
	out := make([]time.Time, 0, len(offsets))
	y, m, d := now.Date()
	for _, offset := range offsets {
		candidate := time.Date(y, m, d, base.Hour+offset, base.Minute, 0, 0, now.Location())
		if candidate.Before(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		out = append(out, candidate)
	}
	return out
}
