package medicines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshot_Empty(t *testing.T) {
	data, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"medicines":[]}`, string(data))
}

func TestDecodeSnapshot(t *testing.T) {
	records := sampleRecords()
	data, err := EncodeSnapshot(records)
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestDecodeSnapshot_LegacyArray(t *testing.T) {
	got, err := DecodeSnapshot([]byte(` [{"id":"x","name":"Zinc","dosage":"10 mg","type":"Capsule",
		"time":"08:00 AM","frequency":"Once Daily","startDate":"2025-01-01","taken":false}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Zinc", got[0].Name)
}

func TestDecodeSnapshot_EdgeCases(t *testing.T) {
	got, err := DecodeSnapshot(nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = DecodeSnapshot([]byte(`{"version":1}`))
	require.NoError(t, err)
	assert.NotNil(t, got)

	_, err = DecodeSnapshot([]byte(`{"version":2,"medicines":[]}`))
	assert.ErrorIs(t, err, ErrUnsupportedSnapshot)

	_, err = DecodeSnapshot([]byte(`not json`))
	assert.Error(t, err)
}
