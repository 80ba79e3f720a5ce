package core

// error_messages.go maps technical errors to user-friendly messages with codes
// for support reference. Users can quote the code; staff look it up here.
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - A run is already in progress
//	         Action: Wait for the current run to finish, then try again
//	RUN002 - The run timed out
//	         Action: Check spreadsheet and mail server reachability, then retry
//	RUN003 - The request was cancelled
//	         Action: Please try again
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Required column is missing from the sheet
//	         Action: Add the missing header to row 1 of the sheet
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Unable to read the spreadsheet
//	         Action: Check the spreadsheet ID, sharing settings and credentials
//	SRC002 - The sheet is empty
//	         Action: Add a header row to the sheet
//	SRC003 - Unable to update the status cell
//	         Action: Check that the service account can edit the sheet
//	SRC004 - Permission denied by the spreadsheet service
//	         Action: Share the sheet with the service account email
//
// # Mail Errors (MAIL001-MAIL099)
//
//	MAIL001 - The mail server rejected the message
//	          Action: Check the recipient address and sender credentials
//	MAIL002 - Mail server authentication failed
//	          Action: Regenerate the app password and update MAIL_PASSWORD
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Action: Please wait a moment before trying again
//
// # Default Error (ERR000)
//
// Typed errors are matched first with errors.Is/As; otherwise patterns are
// matched case-insensitively with strings.Contains and the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgRunBusy = UserMessage{
		Message: "A run is already in progress",
		Action:  "Wait for the current run to finish, then try again",
		Code:    "RUN001",
	}
	msgRunTimeout = UserMessage{
		Message: "The run timed out",
		Action:  "Check spreadsheet and mail server reachability, then retry",
		Code:    "RUN002",
	}
	msgRunCancelled = UserMessage{
		Message: "The request was cancelled",
		Action:  "Please try again",
		Code:    "RUN003",
	}
	msgMissingColumn = UserMessage{
		Message: "Required column is missing from the sheet",
		Action:  "Add the missing header to row 1 of the sheet",
		Code:    "COL001",
	}
	msgReadFailed = UserMessage{
		Message: "Unable to read the spreadsheet",
		Action:  "Check the spreadsheet ID, sharing settings and credentials",
		Code:    "SRC001",
	}
	msgEmptySheet = UserMessage{
		Message: "The sheet is empty",
		Action:  "Add a header row to the sheet",
		Code:    "SRC002",
	}
	msgWriteFailed = UserMessage{
		Message: "Unable to update the status cell",
		Action:  "Check that the service account can edit the sheet",
		Code:    "SRC003",
	}
	msgSendFailed = UserMessage{
		Message: "The mail server rejected the message",
		Action:  "Check the recipient address and sender credentials",
		Code:    "MAIL001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps untyped error text (case-insensitive) to user messages.
// More specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "permission_denied",
		msg: UserMessage{
			Message: "Permission denied by the spreadsheet service",
			Action:  "Share the sheet with the service account email",
			Code:    "SRC004",
		},
	},
	{
		pattern: "authentication failed",
		msg: UserMessage{
			Message: "Mail server authentication failed",
			Action:  "Regenerate the app password and update MAIL_PASSWORD",
			Code:    "MAIL002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{pattern: "run already in progress", msg: msgRunBusy},
	{pattern: "missing required column", msg: msgMissingColumn},
	{pattern: "deadline exceeded", msg: msgRunTimeout},
	{pattern: "context canceled", msg: msgRunCancelled},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	// Pattern hits on the wrapped cause (auth, permissions) are more specific
	// than the generic category, so try them first for source and mail errors.
	errStr := strings.ToLower(err.Error())
	var (
		re *ReadError
		we *WriteError
		se *SendError
		me *MissingColumnError
	)
	switch {
	case errors.Is(err, ErrRunInProgress):
		return msgRunBusy
	case errors.As(err, &me):
		return msgMissingColumn
	case errors.Is(err, ErrEmptyTable):
		return msgEmptySheet
	case errors.As(err, &re):
		return matchPattern(errStr, msgReadFailed)
	case errors.As(err, &we):
		return matchPattern(errStr, msgWriteFailed)
	case errors.As(err, &se):
		return matchPattern(errStr, msgSendFailed)
	case errors.Is(err, context.DeadlineExceeded):
		return msgRunTimeout
	case errors.Is(err, context.Canceled):
		return msgRunCancelled
	}

	return matchPattern(errStr, defaultMessage)
}

func matchPattern(errStr string, fallback UserMessage) UserMessage {
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return fallback
}

// FormatUserError returns a formatted user-facing error string with code.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
