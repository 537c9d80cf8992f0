package core

// error_messages.go maps errors to user-facing messages with support codes.
//
// # Error Codes Reference
//
// File errors (FILE001-FILE099):
//
//	FILE001 - File too large: the upload exceeds the configured size limit
//	FILE002 - Invalid CSV: the file could not be parsed as comma-separated text
//	FILE003 - Encoding error: the file is not UTF-8 text
//	FILE004 - No file: no file was selected
//	FILE005 - Empty file: the file has no content
//	FILE006 - Missing header: the file has no header row
//	FILE007 - Invalid form: the upload form could not be read
//
// Column errors (COL001-COL099):
//
//	COL001 - Missing selector: one of the three column letters is blank
//	COL002 - Invalid letter: a column selector is not a single letter A-Z
//	COL003 - Out of range: a column letter points past the last header column
//
// Validation errors (VAL001-VAL099):
//
//	VAL001 - No contacts: no data row carries an email address
//
// Generation errors (AI001-AI099, RUN001-RUN099):
//
//	AI001  - Missing key: AI drafting was requested without an API key
//	RUN001 - System busy: too many runs in progress
//	RUN002 - Cancelled: the request was cancelled
//	RUN003 - Timeout: the request timed out
//
// ERR000 is the fallback. Support staff should check the application logs for
// the technical error, which is always logged with the request id.

import (
	"context"
	"errors"
	"fmt"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorCode struct {
	target error
	msg    UserMessage
}

// errorCodes is checked in order with errors.Is; the first match wins.
var errorCodes = []errorCode{
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "FILE001"}},
	{ErrMalformedCSV, UserMessage{"An error occurred while reading the CSV file", "Ensure the file is comma-separated text and try again", "FILE002"}},
	{ErrEncoding, UserMessage{"An error occurred while reading the CSV file", "Save the file with UTF-8 encoding and try again", "FILE003"}},
	{ErrNoFile, UserMessage{"No file selected", "Please select a CSV file to upload", "FILE004"}},
	{ErrEmptyInput, UserMessage{"The uploaded CSV file is empty", "Please upload a CSV file with data rows", "FILE005"}},
	{ErrMissingHeader, UserMessage{"The CSV file has no headers", "Add a header row as the first line", "FILE006"}},
	{ErrInvalidForm, UserMessage{"The upload form could not be read", "Please submit the form again", "FILE007"}},

	{ErrMissingColumnSelector, UserMessage{"Please provide all required column letters", "Enter a letter for the email, first name and company columns", "COL001"}},
	{ErrInvalidColumnLetter, UserMessage{"Invalid column letters", "Please use letters A-Z", "COL002"}},

	{ErrNoValidContacts, UserMessage{"No valid email addresses found in the CSV", "Check that the email column letter is correct", "VAL001"}},

	{ErrMissingAPIKey, UserMessage{"Please provide a Perplexity API key when using AI", "Enter an API key or turn off AI drafting", "AI001"}},

	{ErrTooManyRuns, UserMessage{"Too many generation runs in progress", "Please wait a moment and try again", "RUN001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "RUN002"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "RUN003"}},
}

// defaultMessage is returned when no entry matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message. A nil error maps to
// the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var rangeErr *ColumnRangeError
	if errors.As(err, &rangeErr) {
		return UserMessage{
			Message: fmt.Sprintf("Column index out of range. CSV has only %d columns.", rangeErr.Width),
			Action:  "Check the column letters against your file",
			Code:    "COL003",
		}
	}

	for _, ec := range errorCodes {
		if errors.Is(err, ec.target) {
			return ec.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err is a known condition the user can fix,
// as opposed to an internal failure.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrNoFile, ErrFileTooLarge, ErrInvalidForm, ErrEmptyInput, ErrMissingHeader,
		ErrMissingColumnSelector, ErrInvalidColumnLetter, ErrColumnOutOfRange,
		ErrNoValidContacts, ErrMissingAPIKey,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
