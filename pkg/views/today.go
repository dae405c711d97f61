// Package views derives the read-only projections shown by every front end:
// today's schedule, the calendar aggregation and the filtered history.
//
// Every function takes a snapshot of the collection and an explicit "now";
// none of them modifies its input.
package views

import (
	"math"
	"time"

	"github.com/unowned-ai/pillbox/pkg/medicines"
)

// TodaySchedule is the home screen projection.
type TodaySchedule struct {
	Date    string                     `json:"date"`
	Records []medicines.MedicineRecord `json:"records"`
	Taken   int                        `json:"taken"`
	Total   int                        `json:"total"`
	Percent int                        `json:"percent"`
}

// Today returns the records that start on now's calendar day, in
// collection order, with the share already taken.
func Today(records []medicines.MedicineRecord, now time.Time) TodaySchedule {
	day := medicines.DayKey(now)
	out := TodaySchedule{Date: day, Records: []medicines.MedicineRecord{}}
	for _, r := range records {
		if r.StartDate != day {
			continue
		}
		out.Records = append(out.Records, r)
		out.Total++
		if r.Taken {
			out.Taken++
		}
	}
	out.Percent = Percent(out.Taken, out.Total)
	return out
}

// Percent returns taken/total as a rounded percentage, 0 for an empty day.
func Percent(taken, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(taken) / float64(total) * 100))
}
