package views

import (
	"sort"

	"github.com/unowned-ai/pillbox/pkg/medicines"
)

// DayStatus colours a calendar day.
type DayStatus string

const (
	StatusNoneTaken DayStatus = "none-taken"
	StatusAllTaken  DayStatus = "all-taken"
	StatusPartial   DayStatus = "partial"
)

// DaySummary aggregates the records starting on one day.
type DaySummary struct {
	Total  int       `json:"total"`
	Taken  int       `json:"taken"`
	Status DayStatus `json:"status"`
}

// Calendar groups records by day-key. Days without records are absent.
func Calendar(records []medicines.MedicineRecord) map[string]DaySummary {
	out := make(map[string]DaySummary)
	for _, r := range records {
		s := out[r.StartDate]
		s.Total++
		if r.Taken {
			s.Taken++
		}
		out[r.StartDate] = s
	}
	for day, s := range out {
		s.Status = statusOf(s)
		out[day] = s
	}
	return out
}

func statusOf(s DaySummary) DayStatus {
	switch s.Taken {
	case 0:
		return StatusNoneTaken
	case s.Total:
		return StatusAllTaken
	default:
		return StatusPartial
	}
}

// Days returns the day-keys of a calendar in ascending order.
func Days(calendar map[string]DaySummary) []string {
	days := make([]string, 0, len(calendar))
	for day := range calendar {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// RecordsOn lists the records starting on day, in collection order.
func RecordsOn(records []medicines.MedicineRecord, day string) []medicines.MedicineRecord {
	out := []medicines.MedicineRecord{}
	for _, r := range records {
		if r.StartDate == day {
			out = append(out, r)
		}
	}
	return out
}
