package medicines

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the layout of a record's day-key.
const DayLayout = "2006-01-02"

// MedicineType is the form a medicine comes in. The set is open: unknown
// values are kept as entered and shown with DefaultTypeIcon.
type MedicineType string

const (
	TypeTablet    MedicineType = "Tablet"
	TypeSyrup     MedicineType = "Syrup"
	TypeInjection MedicineType = "Injection"
	TypeCapsule   MedicineType = "Capsule"

	DefaultTypeIcon = "💊"
)

// MedicineTypes lists the known types in display order.
var MedicineTypes = []MedicineType{TypeTablet, TypeSyrup, TypeInjection, TypeCapsule}

// ParseMedicineType matches s case-insensitively against the known types.
// Unknown non-empty input is returned trimmed, with ok set to false.
func ParseMedicineType(s string) (t MedicineType, ok bool) {
	s = strings.TrimSpace(s)
	for _, known := range MedicineTypes {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return MedicineType(s), false
}

// Known reports whether t is one of MedicineTypes.
func (t MedicineType) Known() bool {
	for _, known := range MedicineTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Icon returns the glyph shown next to a record of this type.
func (t MedicineType) Icon() string {
	switch t {
	case TypeTablet, TypeCapsule:
		return "💊"
	case TypeSyrup:
		return "🧴"
	case TypeInjection:
		return "💉"
	default:
		return DefaultTypeIcon
	}
}

// Frequency is the recurrence rule of a record.
type Frequency string

const (
	FrequencyOnceDaily   Frequency = "Once Daily"
	FrequencyTwiceDaily  Frequency = "Twice Daily"
	FrequencyEvery6Hours Frequency = "Every 6 Hours"
	FrequencyEvery8Hours Frequency = "Every 8 Hours"
)

// Frequencies lists the known frequencies in display order.
var Frequencies = []Frequency{FrequencyOnceDaily, FrequencyTwiceDaily, FrequencyEvery6Hours, FrequencyEvery8Hours}

var frequencyAliases = map[string]Frequency{
	"oncedaily":   FrequencyOnceDaily,
	"once":        FrequencyOnceDaily,
	"daily":       FrequencyOnceDaily,
	"twicedaily":  FrequencyTwiceDaily,
	"twice":       FrequencyTwiceDaily,
	"every6hours": FrequencyEvery6Hours,
	"6h":          FrequencyEvery6Hours,
	"every8hours": FrequencyEvery8Hours,
	"8h":          FrequencyEvery8Hours,
}

// ParseFrequency accepts display names and short aliases such as
// "twice-daily" or "6h". Unknown input is returned trimmed with ok false.
func ParseFrequency(s string) (f Frequency, ok bool) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	if f, ok := frequencyAliases[key]; ok {
		return f, true
	}
	return Frequency(strings.TrimSpace(s)), false
}

// Known reports whether f is one of Frequencies.
func (f Frequency) Known() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// Offsets returns the reminder hour offsets from the base time of day.
// Unrecognised frequencies fall back to a single daily reminder.
func (f Frequency) Offsets() []int {
	switch f {
	case FrequencyTwiceDaily:
		return []int{0, 12}
	case FrequencyEvery6Hours:
		return []int{0, 6, 12, 18}
	case FrequencyEvery8Hours:
		return []int{0, 8, 16}
	default:
		return []int{0}
	}
}

// Icon returns the glyph shown next to the frequency.
func (f Frequency) Icon() string {
	switch f {
	case FrequencyTwiceDaily:
		return "🔁🔁"
	case FrequencyEvery6Hours:
		return "⏲️"
	case FrequencyEvery8Hours:
		return "⏰"
	default:
		return "🔁"
	}
}

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var timeOfDayLayouts = []string{"15:04", "3:04PM", "3:04 PM", "03:04PM", "03:04 PM", "3PM", "3 PM"}

// ParseTimeOfDay accepts 24-hour "14:30" and 12-hour "2:30 PM" forms.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q: expected HH:MM or H:MM AM/PM", s)
}

// TimeOfDayOf returns the wall-clock time of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Valid reports whether the hour and minute are in range.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// String formats t as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Format renders t with a time.Format layout, e.g. "03:04 PM".
func (t TimeOfDay) Format(layout string) string {
	return time.Date(2000, time.January, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format(layout)
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MedicineRecord is one user-entered schedule entry.
//
// Time is the display string captured when the record was created; the
// reminder logic only ever reads TimeOfDay.
type MedicineRecord struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Dosage    string       `json:"dosage"`
	Type      MedicineType `json:"type"`
	Time      string       `json:"time"`
	TimeOfDay *TimeOfDay   `json:"timeOfDay,omitempty"`
	Frequency Frequency    `json:"frequency"`
	StartDate string       `json:"startDate"`
	Taken     bool         `json:"taken"`
}

// DayKey formats t as a day-key in t's location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// ValidDay reports whether s is a real, zero-padded YYYY-MM-DD date.
func ValidDay(s string) bool {
	t, err := time.Parse(DayLayout, s)
	return err == nil && t.Format(DayLayout) == s
}
