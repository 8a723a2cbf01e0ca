// internal/engine/log_test.go
package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macmon/internal/model"
)

func newRecord(port, mac string, status model.ProbeStatus) model.ProbeRecord {
	return model.ProbeRecord{
		ID:     uuid.New(),
		Port:   port,
		MAC:    mac,
		Status: status,
	}
}

func logWith(records ...model.ProbeRecord) *ResultLog {
	log := NewResultLog()
	for _, r := range records {
		log.Append(r)
	}
	return log
}

func macs(records []model.ProbeRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.MAC
	}
	return out
}

func TestResultLogAppendAndSnapshot(t *testing.T) {
	log := logWith(
		newRecord("COM3", "aa:bb:cc:dd:ee:01", model.StatusOK),
		newRecord("COM4", "", model.StatusCommError),
	)

	require.Equal(t, 2, log.Len())

	snapshot := log.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "COM3", snapshot[0].Port)
	assert.Equal(t, "COM4", snapshot[1].Port)

	// Mutating the snapshot must not touch the log.
	snapshot[0].Port = "mutated"
	assert.Equal(t, "COM3", log.Snapshot()[0].Port)
}

func TestResultLogClearAll(t *testing.T) {
	log := logWith(
		newRecord("COM3", "aa", model.StatusOK),
		newRecord("COM4", "bb", model.StatusOK),
	)

	assert.Equal(t, 2, log.ClearAll())
	assert.Equal(t, 0, log.Len())
	assert.Equal(t, 0, log.ClearAll())
}

func TestResultLogRemoveFailed(t *testing.T) {
	t.Run("keeps successes in order", func(t *testing.T) {
		log := logWith(
			newRecord("COM1", "aa", model.StatusOK),
			newRecord("COM2", "", model.StatusSetupError),
			newRecord("COM3", "bb", model.StatusOK),
			newRecord("COM4", "", model.StatusNotFound),
			newRecord("COM5", "", model.StatusCommError),
		)

		assert.Equal(t, 3, log.RemoveFailed())

		remaining := log.Snapshot()
		require.Len(t, remaining, 2)
		assert.Equal(t, "COM1", remaining[0].Port)
		assert.Equal(t, "COM3", remaining[1].Port)
	})

	t.Run("no failures is a no-op", func(t *testing.T) {
		log := logWith(newRecord("COM1", "aa", model.StatusOK))
		assert.Equal(t, 0, log.RemoveFailed())
		assert.Equal(t, 1, log.Len())
	})
}

func TestResultLogRemoveDuplicates(t *testing.T) {
	t.Run("first record per MAC wins", func(t *testing.T) {
		log := logWith(
			newRecord("COM1", "aa", model.StatusOK),
			newRecord("COM2", "", model.StatusCommError),
			newRecord("COM3", "aa", model.StatusOK),
			newRecord("COM4", "bb", model.StatusOK),
		)

		assert.Equal(t, 1, log.RemoveDuplicates())
		assert.Equal(t, []string{"aa", "", "bb"}, macs(log.Snapshot()))
	})

	t.Run("empty MACs are never merged", func(t *testing.T) {
		log := logWith(
			newRecord("COM1", "", model.StatusSetupError),
			newRecord("COM2", "", model.StatusCommError),
			newRecord("COM3", "", model.StatusNotFound),
		)

		assert.Equal(t, 0, log.RemoveDuplicates())
		assert.Equal(t, 3, log.Len())
	})

	t.Run("idempotent", func(t *testing.T) {
		log := logWith(
			newRecord("COM1", "aa", model.StatusOK),
			newRecord("COM2", "aa", model.StatusOK),
			newRecord("COM3", "aa", model.StatusOK),
		)

		assert.Equal(t, 2, log.RemoveDuplicates())
		assert.Equal(t, 0, log.RemoveDuplicates())
		assert.Equal(t, []string{"aa"}, macs(log.Snapshot()))
	})
}
