// internal/export/export.go
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"macmon/internal/model"
)

// Format identifies an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatText Format = "txt"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv", "":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "txt", "text", "mac", "maclist":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown export format: %q", value)
	}
}

// ContentType returns the MIME type for HTTP delivery of this format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "text/csv"
	}
}

// Extension returns the filename extension for this format.
func (f Format) Extension() string {
	return string(f)
}

// Write encodes a record projection to w in the given format. Records are
// written in the order given; callers pass an already-projected slice.
func Write(w io.Writer, format Format, records []model.ProbeRecord) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, records)
	case FormatJSON:
		return writeJSON(w, records)
	case FormatText:
		return writeMACList(w, records)
	default:
		return fmt.Errorf("unknown export format: %q", format)
	}
}

var csvHeader = []string{"timestamp", "port", "mac", "status"}

func writeCSV(w io.Writer, records []model.ProbeRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	for i := range records {
		if err := writer.Write(records[i].DisplayFields()); err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, records []model.ProbeRecord) error {
	if records == nil {
		records = []model.ProbeRecord{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("json export: %w", err)
	}
	return nil
}

// writeMACList emits one MAC per line, successes only, duplicates dropped.
func writeMACList(w io.Writer, records []model.ProbeRecord) error {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		record := &records[i]
		if !record.Status.IsSuccess() || record.MAC == "" {
			continue
		}
		if _, dup := seen[record.MAC]; dup {
			continue
		}
		seen[record.MAC] = struct{}{}

		if _, err := fmt.Fprintln(w, record.MAC); err != nil {
			return fmt.Errorf("text export: %w", err)
		}
	}
	return nil
}
