package core

import "context"

// TableSource reads and writes the external tabular store.
//
// ReadTable returns a fresh snapshot on every call. Implementations return a
// *ReadError when the store is unreachable or has no header row (wrapping
// ErrEmptyTable in the latter case).
//
// WriteCell sets a single cell of the named sheet addressed by 1-based row and
// column and returns a *WriteError on failure. sheet is the Table.Sheet of the
// snapshot the row came from. Calls are independent; there is no transaction
// spanning several writes.
type TableSource interface {
	ReadTable(ctx context.Context) (*Table, error)
	WriteCell(ctx context.Context, sheet string, row, column int, value string) error
}

// Sender delivers one notification to one recipient.
// It returns a *SendError when the transport does not accept the message.
type Sender interface {
	Send(ctx context.Context, recipient, name string) error
}

// Observer receives run and record outcomes, typically for metrics.
type Observer interface {
	RunStarted()
	RecordOutcome(outcome string)
	RunFinished(result *RunResult, err error)
}

// Record outcomes reported to an Observer.
const (
	OutcomeSent        = "sent"
	OutcomeSendFailed  = "send_failed"
	OutcomeWriteFailed = "write_failed"
	OutcomeSkipped     = "skipped"
	OutcomeAlreadyDone = "already_done"
)

type nopObserver struct{}

func (nopObserver) RunStarted()                   {}
func (nopObserver) RecordOutcome(string)          {}
func (nopObserver) RunFinished(*RunResult, error) {}
