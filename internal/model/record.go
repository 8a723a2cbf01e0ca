// internal/model/record.go
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProbeStatus classifies the outcome of a single identification probe.
type ProbeStatus string

const (
	StatusOK         ProbeStatus = "ok"
	StatusSetupError ProbeStatus = "setup_error"
	StatusCommError  ProbeStatus = "comm_error"
	StatusNotFound   ProbeStatus = "not_found"
)

// IsSuccess reports whether the status is the success bucket.
func (s ProbeStatus) IsSuccess() bool {
	return s == StatusOK
}

// StatusBucket selects which status class a projection includes.
type StatusBucket string

const (
	BucketAll     StatusBucket = "all"
	BucketSuccess StatusBucket = "success"
	BucketFailure StatusBucket = "failure"
)

// ParseStatusBucket maps a user-supplied filter value to a bucket.
// Unknown values fall back to BucketAll.
func ParseStatusBucket(value string) StatusBucket {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "success", "ok":
		return BucketSuccess
	case "failure", "failed", "error":
		return BucketFailure
	default:
		return BucketAll
	}
}

// DisplayTimeLayout is the timestamp layout used for presentation and
// text filtering. Matches the layout exported records carry.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// ProbeRecord is one immutable probe outcome in the result log.
type ProbeRecord struct {
	ID        uuid.UUID   `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Port      string      `json:"port"`
	MAC       string      `json:"mac"`
	Status    ProbeStatus `json:"status"`
	Detail    string      `json:"detail,omitempty"`
}

// StatusText returns the status string shown to the user. Failure details
// are folded in so text filtering can match on them.
func (r *ProbeRecord) StatusText() string {
	if r.Detail == "" {
		return string(r.Status)
	}
	return fmt.Sprintf("%s: %s", r.Status, r.Detail)
}

// DisplayFields returns the record's fields in presentation order.
func (r *ProbeRecord) DisplayFields() []string {
	return []string{
		r.Timestamp.Format(DisplayTimeLayout),
		r.Port,
		r.MAC,
		r.StatusText(),
	}
}

// Filter is a pure description of a projection over the result log.
type Filter struct {
	Query  string       `json:"query"`
	Status StatusBucket `json:"status"`
	Dedup  bool         `json:"dedup"`
}

// Matches reports whether a record passes this filter. The text query is a
// case-insensitive substring match against the space-joined display fields.
func (f Filter) Matches(r *ProbeRecord) bool {
	switch f.Status {
	case BucketSuccess:
		if !r.Status.IsSuccess() {
			return false
		}
	case BucketFailure:
		if r.Status.IsSuccess() {
			return false
		}
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	row := strings.ToLower(strings.Join(r.DisplayFields(), " "))
	return strings.Contains(row, query)
}

// FormatMAC normalizes a raw hardware address into lowercase
// colon-separated hex. Raw bytes are rendered pairwise; a bare 12-digit hex
// string is regrouped; anything else is lowercased as-is.
func FormatMAC(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	parts := make([]string, len(raw))
	for i, b := range raw {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// NormalizeMACString applies the same normalization to a textual address.
func NormalizeMACString(value string) string {
	text := strings.ToLower(strings.TrimSpace(value))
	if len(text) == 12 && isHex(text) {
		parts := make([]string, 0, 6)
		for i := 0; i < 12; i += 2 {
			parts = append(parts, text[i:i+2])
		}
		return strings.Join(parts, ":")
	}
	return text
}

func isHex(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}
