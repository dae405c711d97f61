package medicines

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SnapshotVersion is the snapshot schema this build writes and reads.
const SnapshotVersion = 1

// ErrUnsupportedSnapshot is returned for snapshots written by a newer build.
var ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")

type snapshot struct {
	Version   int              `json:"version"`
	Medicines []MedicineRecord `json:"medicines"`
}

// EncodeSnapshot serializes the whole collection.
func EncodeSnapshot(records []MedicineRecord) ([]byte, error) {
	if records == nil {
		records = []MedicineRecord{}
	}
	data, err := json.Marshal(snapshot{Version: SnapshotVersion, Medicines: records})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot. Both the versioned object and a bare
// JSON array of records are accepted; empty input decodes to no records.
func DecodeSnapshot(data []byte) ([]MedicineRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []MedicineRecord{}, nil
	}

	if data[0] == '[' {
		var records []MedicineRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode legacy snapshot: %w", err)
		}
		return nonNil(records), nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: %d (this build reads up to %d)", ErrUnsupportedSnapshot, snap.Version, SnapshotVersion)
	}
	return nonNil(snap.Medicines), nil
}

func nonNil(records []MedicineRecord) []MedicineRecord {
	if records == nil {
		return []MedicineRecord{}
	}
	return records
}
