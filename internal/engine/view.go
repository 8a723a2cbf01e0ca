// internal/engine/view.go
package engine

import (
	"macmon/internal/model"
)

// Project computes the filtered projection of a record sequence. It is a
// pure function: input order is preserved, nothing is mutated, and the full
// projection is recomputed on every call. Log sizes in this domain are small
// enough that incremental indexing would be pointless complexity.
func Project(records []model.ProbeRecord, filter model.Filter) []model.ProbeRecord {
	out := make([]model.ProbeRecord, 0, len(records))
	for _, record := range records {
		if filter.Matches(&record) {
			out = append(out, record)
		}
	}

	if filter.Dedup {
		out = dedupRecords(out)
	}
	return out
}
