package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"
)

// ExportCSV writes events as CSV with one column per field, in the given order
func ExportCSV(fields []string, events []Event) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(fields); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(fields))
	for i := range events {
		for j, f := range fields {
			row[j] = events[i].FieldValue(f)
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportNDJSON writes events as newline-delimited JSON
func ExportNDJSON(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)

	for i := range events {
		if err := encoder.Encode(&events[i]); err != nil {
			return nil, fmt.Errorf("failed to encode event: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// FieldValue formats the named field for tabular output. Timestamps use RFC 3339
// and unset or unknown fields are empty.
func (e *Event) FieldValue(field string) string {
	switch field {
	case FieldAction:
		return string(e.Action)
	case FieldClient:
		return e.Client
	case FieldDescription:
		return e.Description
	case FieldFlowName:
		return e.FlowName
	case FieldTimestamp:
		if e.Timestamp.IsZero() {
			return ""
		}
		return e.Timestamp.UTC().Format(time.RFC3339)
	case FieldURN:
		return e.URN
	case FieldUser:
		return e.User
	}
	return ""
}
