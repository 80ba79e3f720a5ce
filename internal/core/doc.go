// Package core provides the business logic for spreadsheet notification runs.
//
// A contact sheet has one row per person and a status column. A run reads the
// sheet, sends a notification to every row whose status cell is blank, and
// writes a marker into that cell once the notification is accepted. The
// package is independent of any transport and is driven by the web server,
// the CLI, the cron scheduler and tests alike.
//
// # Collaborators
//
// The store and the notification channel are reached only through two
// interfaces, injected at construction:
//
//   - [TableSource]: ReadTable returns a fresh snapshot; WriteCell sets one cell.
//   - [Sender]: Send delivers one notification to one recipient.
//
// # Runs
//
// [Processor.Run] performs one pass:
//
//  1. Read the table. Failure aborts the run with a [ReadError].
//  2. Locate the name, recipient and status headers. Failure aborts the run
//     with a [MissingColumnError] before anything is sent.
//  3. Walk the rows in order. Rows with a non-blank status are already done;
//     rows missing a name or recipient are skipped and stay pending.
//  4. For each eligible row, send, then write the marker. A failed send or
//     write is recorded in [RunResult.Failures] and the loop continues.
//
// A row whose marker write fails after a successful send stays pending and is
// notified again by the next run: delivery is at-least-once.
//
// # Mutual Exclusion
//
// [Service.Execute] wraps each run in a [RunGuard] so at most one run is
// active per process. Callers waiting longer than the configured wait get
// [ErrRunInProgress].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference (RUN, COL, SRC, MAIL).
package core
