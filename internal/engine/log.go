// internal/engine/log.go
package engine

import (
	"sync"

	"macmon/internal/model"
)

// ResultLog is the append-only, insertion-ordered sequence of probe
// outcomes. The engine's reconcile step is the only appender; bulk removal
// happens only through the explicit user-facing operations below. Reads
// always work on snapshots, so projections can never observe a mutation
// mid-flight.
type ResultLog struct {
	mu      sync.RWMutex
	records []model.ProbeRecord
}

// NewResultLog creates an empty result log.
func NewResultLog() *ResultLog {
	return &ResultLog{}
}

// Append adds one outcome to the end of the log.
func (l *ResultLog) Append(record model.ProbeRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
}

// Len returns the current record count.
func (l *ResultLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Snapshot returns a copy of the log in insertion order.
func (l *ResultLog) Snapshot() []model.ProbeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.ProbeRecord, len(l.records))
	copy(out, l.records)
	return out
}

// ClearAll empties the log and returns the number of removed records.
func (l *ResultLog) ClearAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := len(l.records)
	l.records = nil
	return removed
}

// RemoveFailed retains only successful records, preserving their relative
// order, and returns the number of removed records.
func (l *ResultLog) RemoveFailed() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.records[:0]
	for _, record := range l.records {
		if record.Status.IsSuccess() {
			kept = append(kept, record)
		}
	}
	removed := len(l.records) - len(kept)
	l.records = kept
	return removed
}

// RemoveDuplicates keeps the first record for each distinct non-empty MAC
// in a single forward pass. Records with an empty MAC are never treated as
// duplicates of one another. Returns the number of removed records.
func (l *ResultLog) RemoveDuplicates() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	deduped := dedupRecords(l.records)
	removed := len(l.records) - len(deduped)
	l.records = deduped
	return removed
}

// dedupRecords is the shared first-seen-wins pass used by both the log
// mutation and the deduplicated projection.
func dedupRecords(records []model.ProbeRecord) []model.ProbeRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.ProbeRecord, 0, len(records))
	for _, record := range records {
		if record.MAC != "" {
			if _, dup := seen[record.MAC]; dup {
				continue
			}
			seen[record.MAC] = struct{}{}
		}
		out = append(out, record)
	}
	return out
}
