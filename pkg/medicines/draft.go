package medicines

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidDraft is returned by Add when a draft fails validation.
// Nothing is created in that case.
var ErrInvalidDraft = errors.New("invalid medicine draft")

var validate = validator.New()

// Draft is the user input for a new record.
type Draft struct {
	Name      string       `validate:"required"`
	Dosage    string       `validate:"required"`
	Type      MedicineType `validate:"required"`
	TimeOfDay TimeOfDay
	Frequency Frequency `validate:"required"`
	StartDate string    `validate:"required,datetime=2006-01-02"`
}

// Normalize trims text fields and fills the add-form defaults
// (Tablet, Once Daily).
func (d Draft) Normalize() Draft {
	d.Name = strings.TrimSpace(d.Name)
	d.Dosage = strings.TrimSpace(d.Dosage)
	d.StartDate = strings.TrimSpace(d.StartDate)
	if t, _ := ParseMedicineType(string(d.Type)); t != "" {
		d.Type = t
	} else {
		d.Type = TypeTablet
	}
	if f, _ := ParseFrequency(string(d.Frequency)); f != "" {
		d.Frequency = f
	} else {
		d.Frequency = FrequencyOnceDaily
	}
	return d
}

// Validate checks a normalized draft.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	if !d.TimeOfDay.Valid() {
		return fmt.Errorf("%w: time of day %s out of range", ErrInvalidDraft, d.TimeOfDay)
	}
	if !ValidDay(d.StartDate) {
		return fmt.Errorf("%w: start date %q is not YYYY-MM-DD", ErrInvalidDraft, d.StartDate)
	}
	return nil
}

// Format controls how a draft is rendered into a stored record.
type Format struct {
	DosageUnit string // appended to the dosage, e.g. "mg"
	TimeLayout string // layout of the display time, e.g. "03:04 PM"
}

// DefaultFormat matches the add form: milligrams and a 12-hour clock.
var DefaultFormat = Format{DosageUnit: "mg", TimeLayout: "03:04 PM"}

// Record builds the stored record for a normalized, valid draft.
func (d Draft) Record(id string, f Format) MedicineRecord {
	if f.TimeLayout == "" {
		f.TimeLayout = DefaultFormat.TimeLayout
	}
	tod := d.TimeOfDay
	return MedicineRecord{
		ID:        id,
		Name:      d.Name,
		Dosage:    withUnit(d.Dosage, f.DosageUnit),
		Type:      d.Type,
		Time:      tod.Format(f.TimeLayout),
		TimeOfDay: &tod,
		Frequency: d.Frequency,
		StartDate: d.StartDate,
		Taken:     false,
	}
}

func withUnit(dosage, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" || strings.HasSuffix(strings.ToLower(dosage), strings.ToLower(unit)) {
		return dosage
	}
	return dosage + " " + unit
}
