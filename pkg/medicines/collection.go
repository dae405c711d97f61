package medicines

// The functions below never modify their input: each returns a freshly
// allocated collection so a reader holding the previous slice keeps a
// consistent view.

// Clone returns a copy of records. A nil input yields an empty slice.
func Clone(records []MedicineRecord) []MedicineRecord {
	out := make([]MedicineRecord, len(records))
	copy(out, records)
	return out
}

// Append returns records with rec added at the end.
func Append(records []MedicineRecord, rec MedicineRecord) []MedicineRecord {
	out := make([]MedicineRecord, len(records), len(records)+1)
	copy(out, records)
	return append(out, rec)
}

// Toggle flips the taken flag of the record with the given id.
// It reports false and returns records unchanged when id is unknown.
func Toggle(records []MedicineRecord, id string) ([]MedicineRecord, bool) {
	idx := IndexOf(records, id)
	if idx < 0 {
		return records, false
	}
	out := Clone(records)
	out[idx].Taken = !out[idx].Taken
	return out, true
}

// Remove drops the record with the given id.
// It reports false and returns records unchanged when id is unknown.
func Remove(records []MedicineRecord, id string) ([]MedicineRecord, bool) {
	n, removed := RemoveWhere(records, func(r MedicineRecord) bool { return r.ID == id })
	return n, removed > 0
}

// RemoveWhere drops every record matching pred and returns how many were dropped.
func RemoveWhere(records []MedicineRecord, pred func(MedicineRecord) bool) ([]MedicineRecord, int) {
	out := make([]MedicineRecord, 0, len(records))
	for _, r := range records {
		if !pred(r) {
			out = append(out, r)
		}
	}
	removed := len(records) - len(out)
	if removed == 0 {
		return records, 0
	}
	return out, removed
}

// Clear returns an empty collection.
func Clear() []MedicineRecord {
	return []MedicineRecord{}
}

// IndexOf returns the position of id in records, or -1.
func IndexOf(records []MedicineRecord, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
