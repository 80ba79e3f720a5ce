// Package core provides the business logic for spreadsheet notification runs.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"strings"
	"time"
)

// FirstDataRow is the store position of the first data row; row 1 holds headers.
const FirstDataRow = 2

// Table is one snapshot of the external store: a header row plus data rows.
// Sheet names the tab the snapshot was read from; writes for its rows go back
// to the same tab. Empty means the store's default sheet.
type Table struct {
	Sheet   string
	Headers []string
	Rows    []Row
}

// Row is a single data row keyed by header name.
// Position is only valid for the snapshot it was read in.
type Row struct {
	Position int               // 1-based row in the store (offset + 2)
	Values   map[string]string // header -> cell value; absent cells are ""
}

// NewTable builds a Table from raw store rows where rows[0] is the header row.
// Short rows are padded with empty strings; cells beyond the header are dropped.
func NewTable(rows [][]string) *Table {
	if len(rows) == 0 {
		return &Table{}
	}

	headers := append([]string(nil), rows[0]...)
	t := &Table{
		Headers: headers,
		Rows:    make([]Row, 0, len(rows)-1),
	}

	for i, raw := range rows[1:] {
		values := make(map[string]string, len(headers))
		for col, h := range headers {
			// First occurrence wins for duplicate headers.
			if _, seen := values[h]; seen {
				continue
			}
			if col < len(raw) {
				values[h] = raw[col]
			} else {
				values[h] = ""
			}
		}
		t.Rows = append(t.Rows, Row{Position: i + FirstDataRow, Values: values})
	}
	return t
}

// cell returns the raw cell at a zero-based column index in the row.
func (t *Table) cell(row Row, col int) string {
	if col < 0 || col >= len(t.Headers) {
		return ""
	}
	return row.Values[t.Headers[col]]
}

// Columns holds the zero-based header indices of the required fields.
type Columns struct {
	Name      int
	Recipient int
	Status    int
}

// Record is the processing view of one row.
type Record struct {
	Name      string
	Recipient string
	Status    string
	Position  int
}

// Pending reports whether the record has not been marked yet.
func (r Record) Pending() bool {
	return strings.TrimSpace(r.Status) == ""
}

// Eligible reports whether the record is pending and has a name and recipient.
func (r Record) Eligible() bool {
	return r.Pending() && r.Name != "" && r.Recipient != ""
}

// FailureStage identifies which external call failed for a record.
type FailureStage string

const (
	StageSend  FailureStage = "send"
	StageWrite FailureStage = "write"
)

// RecordFailure describes one record that was not fully processed.
type RecordFailure struct {
	Position  int          `json:"row"`
	Recipient string       `json:"recipient"`
	Stage     FailureStage `json:"stage"`
	Error     string       `json:"error"`
}

// Run result messages.
const (
	MessageComplete = "execution complete"
	MessageNoData   = "no data found"
)

// RunResult summarizes one run. It is never persisted.
type RunResult struct {
	RunID       string          `json:"runId"`
	Processed   int             `json:"processed"`
	Message     string          `json:"message"`
	Skipped     int             `json:"skipped"`
	AlreadyDone int             `json:"alreadyDone"`
	Failures    []RecordFailure `json:"failures,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	DurationMs  int64           `json:"durationMs"`
}
