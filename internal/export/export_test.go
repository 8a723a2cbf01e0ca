// internal/export/export_test.go
package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macmon/internal/model"
)

func sampleRecords() []model.ProbeRecord {
	ts := time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC)
	return []model.ProbeRecord{
		{
			ID:        uuid.New(),
			Timestamp: ts,
			Port:      "/dev/ttyUSB0",
			MAC:       "aa:bb:cc:dd:ee:01",
			Status:    model.StatusOK,
		},
		{
			ID:        uuid.New(),
			Timestamp: ts.Add(time.Second),
			Port:      "/dev/ttyUSB1",
			Status:    model.StatusCommError,
			Detail:    "sync timeout",
		},
		{
			ID:        uuid.New(),
			Timestamp: ts.Add(2 * time.Second),
			Port:      "/dev/ttyUSB2",
			MAC:       "aa:bb:cc:dd:ee:01",
			Status:    model.StatusOK,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
		ok    bool
	}{
		{"csv", FormatCSV, true},
		{"", FormatCSV, true},
		{"JSON", FormatJSON, true},
		{"txt", FormatText, true},
		{"maclist", FormatText, true},
		{"xlsx", "", false},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.ok {
			require.NoError(t, err, tt.input)
			assert.Equal(t, tt.want, got, tt.input)
		} else {
			assert.Error(t, err, tt.input)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleRecords()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "timestamp,port,mac,status", lines[0])
	assert.Equal(t, "2026-08-30 12:30:00,/dev/ttyUSB0,aa:bb:cc:dd:ee:01,ok", lines[1])
	assert.Equal(t, "2026-08-30 12:30:01,/dev/ttyUSB1,,comm_error: sync timeout", lines[2])
}

func TestWriteJSON(t *testing.T) {
	t.Run("roundtrips records", func(t *testing.T) {
		var buf bytes.Buffer
		records := sampleRecords()
		require.NoError(t, Write(&buf, FormatJSON, records))

		var decoded []model.ProbeRecord
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 3)
		assert.Equal(t, records[0].MAC, decoded[0].MAC)
		assert.Equal(t, records[1].Detail, decoded[1].Detail)
	})

	t.Run("nil projection encodes as empty array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, FormatJSON, nil))
		assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
	})
}

func TestWriteMACList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sampleRecords()))

	// Failures and repeated MACs are excluded.
	assert.Equal(t, "aa:bb:cc:dd:ee:01\n", buf.String())
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("xlsx"), nil))
}
