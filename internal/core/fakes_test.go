package core

import (
	"context"
	"errors"
	"sync"
)

// memorySource is an in-memory TableSource backed by raw rows (row 0 = headers).
type memorySource struct {
	mu      sync.Mutex
	rows    [][]string
	readErr error
	// failWrites makes WriteCell fail for the listed 1-based row positions.
	failWrites map[int]bool
	writes     []cellWrite
	reads      int
	sheet      string
}

type cellWrite struct {
	Sheet  string
	Row    int
	Column int
	Value  string
}

func newMemorySource(rows ...[]string) *memorySource {
	return &memorySource{rows: rows, failWrites: map[int]bool{}}
}

func (m *memorySource) ReadTable(ctx context.Context) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++

	if m.readErr != nil {
		return nil, &ReadError{Err: m.readErr}
	}
	if len(m.rows) == 0 {
		return nil, &ReadError{Err: ErrEmptyTable}
	}
	copied := make([][]string, len(m.rows))
	for i, r := range m.rows {
		copied[i] = append([]string(nil), r...)
	}
	table := NewTable(copied)
	table.Sheet = m.sheet
	return table, nil
}

func (m *memorySource) WriteCell(ctx context.Context, sheet string, row, column int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites[row] {
		return &WriteError{Row: row, Column: column, Err: errors.New("quota exceeded")}
	}
	m.writes = append(m.writes, cellWrite{Sheet: sheet, Row: row, Column: column, Value: value})

	idx := row - 1
	for len(m.rows) <= idx {
		m.rows = append(m.rows, nil)
	}
	for len(m.rows[idx]) < column {
		m.rows[idx] = append(m.rows[idx], "")
	}
	m.rows[idx][column-1] = value
	return nil
}

func (m *memorySource) writesFor(row int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.writes {
		if w.Row == row {
			n++
		}
	}
	return n
}

// recordingSender records every Send call and fails for listed recipients.
type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	names []string
	fail  map[string]bool
	// block, when set, is waited on inside Send.
	block chan struct{}
}

func newRecordingSender() *recordingSender {
	return &recordingSender{fail: map[string]bool{}}
}

func (s *recordingSender) Send(ctx context.Context, recipient, name string) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return &SendError{Recipient: recipient, Err: ctx.Err()}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[recipient] {
		return &SendError{Recipient: recipient, Err: errors.New("550 mailbox unavailable")}
	}
	s.sent = append(s.sent, recipient)
	s.names = append(s.names, name)
	return nil
}

func (s *recordingSender) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// countingObserver tallies observer callbacks.
type countingObserver struct {
	mu       sync.Mutex
	started  int
	finished int
	outcomes map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{outcomes: map[string]int{}}
}

func (o *countingObserver) RunStarted() {
	o.mu.Lock()
	o.started++
	o.mu.Unlock()
}

func (o *countingObserver) RecordOutcome(outcome string) {
	o.mu.Lock()
	o.outcomes[outcome]++
	o.mu.Unlock()
}

func (o *countingObserver) RunFinished(*RunResult, error) {
	o.mu.Lock()
	o.finished++
	o.mu.Unlock()
}
