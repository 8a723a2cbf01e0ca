// internal/engine/view_test.go
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macmon/internal/model"
)

func TestProject(t *testing.T) {
	records := []model.ProbeRecord{
		newRecord("COM1", "aa:bb:cc:dd:ee:01", model.StatusOK),
		newRecord("COM2", "", model.StatusSetupError),
		newRecord("COM3", "aa:bb:cc:dd:ee:01", model.StatusOK),
		newRecord("COM4", "aa:bb:cc:dd:ee:02", model.StatusOK),
	}
	records[1].Detail = "open failed"

	t.Run("empty filter passes everything in order", func(t *testing.T) {
		out := Project(records, model.Filter{})
		require.Len(t, out, 4)
		assert.Equal(t, "COM1", out[0].Port)
		assert.Equal(t, "COM4", out[3].Port)
	})

	t.Run("status bucket success", func(t *testing.T) {
		out := Project(records, model.Filter{Status: model.BucketSuccess})
		require.Len(t, out, 3)
		for _, r := range out {
			assert.True(t, r.Status.IsSuccess())
		}
	})

	t.Run("status bucket failure", func(t *testing.T) {
		out := Project(records, model.Filter{Status: model.BucketFailure})
		require.Len(t, out, 1)
		assert.Equal(t, "COM2", out[0].Port)
	})

	t.Run("query matches failure detail text", func(t *testing.T) {
		out := Project(records, model.Filter{Query: "open FAILED"})
		require.Len(t, out, 1)
		assert.Equal(t, "COM2", out[0].Port)
	})

	t.Run("dedup keeps first occurrence per MAC", func(t *testing.T) {
		out := Project(records, model.Filter{Dedup: true})
		require.Len(t, out, 3)
		assert.Equal(t, []string{"COM1", "COM2", "COM4"}, ports(out))
	})

	t.Run("dedup applies after the status filter", func(t *testing.T) {
		out := Project(records, model.Filter{Status: model.BucketSuccess, Dedup: true})
		require.Len(t, out, 2)
		assert.Equal(t, []string{"COM1", "COM4"}, ports(out))
	})

	t.Run("input is never mutated", func(t *testing.T) {
		before := make([]model.ProbeRecord, len(records))
		copy(before, records)

		Project(records, model.Filter{Query: "com", Status: model.BucketSuccess, Dedup: true})
		assert.Equal(t, before, records)
	})
}

func ports(records []model.ProbeRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Port
	}
	return out
}
