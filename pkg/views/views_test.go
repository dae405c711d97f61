package views

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/pillbox/pkg/medicines"
)

var testNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func rec(id, name, day string, taken bool) medicines.MedicineRecord {
	return medicines.MedicineRecord{
		ID:        id,
		Name:      name,
		Dosage:    "10 mg",
		Type:      medicines.TypeTablet,
		Time:      "08:00 AM",
		Frequency: medicines.FrequencyOnceDaily,
		StartDate: day,
		Taken:     taken,
	}
}

func fixture() []medicines.MedicineRecord {
	return []medicines.MedicineRecord{
		rec("a", "Aspirin", "2025-06-10", true),
		rec("b", "Zinc", "2025-06-10", false),
		rec("c", "Iron", "2025-06-10", false),
		rec("d", "Vitamin D", "2025-06-08", true),
		rec("e", "Aspirin Plus", "2025-06-08", false),
		rec("f", "Magnesium", "2025-06-12", false),
		rec("g", "Omega 3", "2025-06-09", true),
	}
}

func TestToday_Golden(t *testing.T) {
	g := goldie.New(t)
	g.AssertJson(t, "today", Today(fixture(), testNow))
}

func TestToday_Empty(t *testing.T) {
	got := Today(fixture(), testNow.AddDate(0, 1, 0))
	assert.Equal(t, "2025-07-10", got.Date)
	assert.NotNil(t, got.Records)
	assert.Zero(t, got.Total)
	assert.Zero(t, got.Percent)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 50, Percent(1, 2))
	assert.Equal(t, 100, Percent(4, 4))
}

func TestCalendar_Golden(t *testing.T) {
	g := goldie.New(t)
	g.AssertJson(t, "calendar", Calendar(fixture()))
}

func TestCalendar(t *testing.T) {
	cal := Calendar(fixture())

	assert.Equal(t, []string{"2025-06-08", "2025-06-09", "2025-06-10", "2025-06-12"}, Days(cal))
	assert.Equal(t, DaySummary{Total: 2, Taken: 1, Status: StatusPartial}, cal["2025-06-08"])
	assert.Equal(t, StatusAllTaken, cal["2025-06-09"].Status)
	assert.Equal(t, StatusNoneTaken, cal["2025-06-12"].Status)
	_, ok := cal["2025-06-11"]
	assert.False(t, ok)

	assert.Empty(t, Calendar(nil))
}

func TestRecordsOn(t *testing.T) {
	got := RecordsOn(fixture(), "2025-06-10")
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
	assert.NotNil(t, RecordsOn(fixture(), "2024-01-01"))
}

func TestHistory_Golden(t *testing.T) {
	g := goldie.New(t)
	g.AssertJson(t, "history_taken", History(fixture(), FilterTaken, "", testNow))
}

func TestHistory_Filters(t *testing.T) {
	records := fixture()

	assert.Equal(t, []string{"a", "g", "d"}, ids(History(records, FilterTaken, "", testNow)))
	assert.Equal(t, []string{"e"}, ids(History(records, FilterMissed, "", testNow)))
	assert.Equal(t, []string{"f"}, ids(History(records, FilterUpcoming, "", testNow)))
}

func TestHistory_TodayBoundary(t *testing.T) {
	records := []medicines.MedicineRecord{
		rec("taken-today", "A", "2025-06-10", true),
		rec("untaken-today", "B", "2025-06-10", false),
	}

	assert.Equal(t, []string{"taken-today"}, ids(History(records, FilterTaken, "", testNow)))
	assert.Empty(t, History(records, FilterMissed, "", testNow))
	assert.Empty(t, History(records, FilterUpcoming, "", testNow))
}

func TestHistory_Search(t *testing.T) {
	records := append(fixture(), rec("h", "STRAßE Drops", "2025-06-01", true))

	assert.Equal(t, []string{"a"}, ids(History(records, FilterTaken, "ASP", testNow)))
	assert.Equal(t, []string{"e"}, ids(History(records, FilterMissed, "plus", testNow)))
	assert.Equal(t, []string{"h"}, ids(History(records, FilterTaken, "strasse", testNow)))
	assert.Empty(t, History(records, FilterUpcoming, "zzz", testNow))
}

func TestHistory_StableOnEqualDates(t *testing.T) {
	records := []medicines.MedicineRecord{
		rec("1", "A", "2025-06-01", true),
		rec("2", "B", "2025-06-05", true),
		rec("3", "C", "2025-06-01", true),
	}
	assert.Equal(t, []string{"2", "1", "3"}, ids(History(records, FilterTaken, "", testNow)))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(" missed ")
	require.NoError(t, err)
	assert.Equal(t, FilterMissed, f)

	_, err = ParseFilter("all")
	assert.ErrorIs(t, err, ErrUnknownFilter)
}

type sliceRemover struct{ records []medicines.MedicineRecord }

func (s *sliceRemover) RemoveWhere(pred func(medicines.MedicineRecord) bool) int {
	var n int
	s.records, n = medicines.RemoveWhere(s.records, pred)
	return n
}

func TestClearFiltered(t *testing.T) {
	s := &sliceRemover{records: fixture()}

	n, err := ClearFiltered(s, FilterMissed, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ClearFiltered(s, FilterTaken, testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"b", "c", "f"}, ids(s.records))

	_, err = ClearFiltered(s, FilterUpcoming, testNow)
	assert.ErrorIs(t, err, ErrClearNotOffered)
	assert.Len(t, s.records, 3)
}

func TestGreeting(t *testing.T) {
	day := func(h int) time.Time { return time.Date(2025, 6, 10, h, 0, 0, 0, time.UTC) }
	assert.Equal(t, "Good Morning ☀️", Greeting(day(0)))
	assert.Equal(t, "Good Morning ☀️", Greeting(day(11)))
	assert.Equal(t, "Good Afternoon 🌤️", Greeting(day(12)))
	assert.Equal(t, "Good Afternoon 🌤️", Greeting(day(17)))
	assert.Equal(t, "Good Evening 🌙", Greeting(day(18)))
}

func TestQuoteRotates(t *testing.T) {
	start := time.Unix(0, 0)
	assert.Equal(t, Quotes[0], Quote(start))
	assert.Equal(t, Quotes[1], Quote(start.Add(QuoteInterval)))
	assert.Equal(t, Quotes[0], Quote(start.Add(QuoteInterval*time.Duration(len(Quotes)))))
}

func ids(records []medicines.MedicineRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
