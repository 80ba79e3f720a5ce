package core

// processor.go implements one reconciliation run.
//
// A run moves through Reading -> Selecting -> Iterating -> Done. Only the first
// two states can fail the run; inside Iterating each record is handled in row
// order, one external call at a time:
//
//  1. skip records that are already marked or lack a name/recipient
//  2. send the notification; on failure record it and move on
//  3. write the marker; on failure record it (the record stays pending and
//     will be notified again by a later run)
//  4. count the record as processed
//
// Records are never processed concurrently: positions come from the snapshot
// read at the start of the run, so parallel writes would widen the window in
// which another editor can shift rows under us.

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultMarker is written into the status column after a successful send.
const DefaultMarker = "Y"

// Default per-call timeouts.
const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultSendTimeout  = 30 * time.Second
	DefaultWriteTimeout = 15 * time.Second
)

// Processor runs the batch reconciliation against a TableSource and Sender.
// It keeps no state between runs.
type Processor struct {
	source   TableSource
	sender   Sender
	columns  RequiredColumns
	marker   string
	observer Observer
	logger   *slog.Logger

	readTimeout  time.Duration
	sendTimeout  time.Duration
	writeTimeout time.Duration
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithColumns overrides the required header names.
func WithColumns(cols RequiredColumns) ProcessorOption {
	return func(p *Processor) { p.columns = cols }
}

// WithMarker overrides the value written after a successful send.
func WithMarker(marker string) ProcessorOption {
	return func(p *Processor) {
		if marker != "" {
			p.marker = marker
		}
	}
}

// WithTimeouts bounds each external call. Zero values keep the defaults.
func WithTimeouts(read, send, write time.Duration) ProcessorOption {
	return func(p *Processor) {
		if read > 0 {
			p.readTimeout = read
		}
		if send > 0 {
			p.sendTimeout = send
		}
		if write > 0 {
			p.writeTimeout = write
		}
	}
}

// WithObserver reports run and record outcomes to o.
func WithObserver(o Observer) ProcessorOption {
	return func(p *Processor) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithLogger sets the base logger for runs.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor creates a Processor. The source and sender are long-lived
// clients owned by the caller.
func NewProcessor(source TableSource, sender Sender, opts ...ProcessorOption) *Processor {
	p := &Processor{
		source:       source,
		sender:       sender,
		columns:      DefaultColumns,
		marker:       DefaultMarker,
		observer:     nopObserver{},
		logger:       slog.Default(),
		readTimeout:  DefaultReadTimeout,
		sendTimeout:  DefaultSendTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Columns returns the required header names this processor looks for.
func (p *Processor) Columns() RequiredColumns {
	return p.columns
}

// Run performs one full reconciliation pass.
//
// It returns an error only for run-fatal conditions (*ReadError,
// *MissingColumnError) or when ctx is cancelled mid-run, in which case the
// partial result is returned alongside ctx.Err(). Per-record failures are
// reported in RunResult.Failures.
func (p *Processor) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := p.logger.With("run_id", result.RunID)
	if trigger := TriggerFromContext(ctx); trigger != "" {
		logger = logger.With("trigger", trigger)
	}

	p.observer.RunStarted()
	err := p.run(ctx, logger, result)
	result.DurationMs = time.Since(result.StartedAt).Milliseconds()
	p.observer.RunFinished(result, err)

	if err != nil {
		logger.Error("run failed", "error", err, "processed", result.Processed)
		return result, err
	}
	logger.Info("run completed",
		"processed", result.Processed,
		"skipped", result.Skipped,
		"already_done", result.AlreadyDone,
		"failed", len(result.Failures),
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (p *Processor) run(ctx context.Context, logger *slog.Logger, result *RunResult) error {
	// Reading
	table, err := p.readTable(ctx)
	if err != nil {
		if errors.Is(err, ErrEmptyTable) {
			result.Message = MessageNoData
			return nil
		}
		return err
	}
	if len(table.Rows) == 0 {
		result.Message = MessageNoData
		return nil
	}

	// Selecting
	cols, err := LocateColumns(table.Headers, p.columns)
	if err != nil {
		return err
	}
	records := Select(table, cols)
	statusColumn := cols.Status + 1

	logger.Debug("records selected", "rows", len(records), "status_column", statusColumn)

	// Iterating
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.processRecord(ctx, logger, rec, table.Sheet, statusColumn, result)
	}

	// Done
	result.Message = MessageComplete
	return nil
}

// processRecord handles one record and updates result counters.
func (p *Processor) processRecord(ctx context.Context, logger *slog.Logger, rec Record, sheetName string, statusColumn int, result *RunResult) {
	if !rec.Pending() {
		result.AlreadyDone++
		p.observer.RecordOutcome(OutcomeAlreadyDone)
		return
	}
	if !rec.Eligible() {
		result.Skipped++
		p.observer.RecordOutcome(OutcomeSkipped)
		logger.Debug("record skipped: missing name or recipient", "row", rec.Position)
		return
	}

	if err := p.send(ctx, rec); err != nil {
		logger.Warn("send failed", "row", rec.Position, "recipient", rec.Recipient, "error", err)
		result.Failures = append(result.Failures, RecordFailure{
			Position:  rec.Position,
			Recipient: rec.Recipient,
			Stage:     StageSend,
			Error:     err.Error(),
		})
		p.observer.RecordOutcome(OutcomeSendFailed)
		return
	}

	if err := p.writeMarker(ctx, sheetName, rec.Position, statusColumn); err != nil {
		// Already notified; the record stays pending and a later run will resend.
		logger.Error("marker write failed after send",
			"row", rec.Position,
			"recipient", rec.Recipient,
			"error", err,
		)
		result.Failures = append(result.Failures, RecordFailure{
			Position:  rec.Position,
			Recipient: rec.Recipient,
			Stage:     StageWrite,
			Error:     err.Error(),
		})
		p.observer.RecordOutcome(OutcomeWriteFailed)
		return
	}

	result.Processed++
	p.observer.RecordOutcome(OutcomeSent)
	logger.Info("notification sent", "row", rec.Position, "recipient", rec.Recipient)
}

func (p *Processor) readTable(ctx context.Context) (*Table, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.readTimeout)
	defer cancel()

	table, err := p.source.ReadTable(callCtx)
	if err != nil {
		var re *ReadError
		if errors.As(err, &re) {
			return nil, err
		}
		return nil, &ReadError{Err: err}
	}
	if table == nil || len(table.Headers) == 0 {
		return nil, &ReadError{Err: ErrEmptyTable}
	}
	return table, nil
}

func (p *Processor) send(ctx context.Context, rec Record) error {
	callCtx, cancel := context.WithTimeout(ctx, p.sendTimeout)
	defer cancel()

	if err := p.sender.Send(callCtx, rec.Recipient, rec.Name); err != nil {
		var se *SendError
		if errors.As(err, &se) {
			return err
		}
		return &SendError{Recipient: rec.Recipient, Err: err}
	}
	return nil
}

func (p *Processor) writeMarker(ctx context.Context, sheetName string, row, column int) error {
	callCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	if err := p.source.WriteCell(callCtx, sheetName, row, column, p.marker); err != nil {
		var we *WriteError
		if errors.As(err, &we) {
			return err
		}
		return &WriteError{Row: row, Column: column, Err: err}
	}
	return nil
}
