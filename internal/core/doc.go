// Package core provides the business logic for drafting outreach emails from
// an uploaded contact spreadsheet.
//
// The package is independent of any transport. Web handlers and the CLI build
// a [Request] and hand it to [Service.Generate]; tests drive [ParseContacts]
// and [Pipeline] directly.
//
// # Ingestion
//
// [ParseContacts] reads the CSV payload, checks the three column letters
// against the header width and returns one [Contact] per data row that has
// an email. Lookup is positional: column A is index 0, B is 1 and so on.
// Rows too short for the selected columns are skipped without error.
//
// # Drafting
//
// [Pipeline.Run] produces one [Draft] per contact in input order:
//
//   - Subject: [Substitute] applied to the subject template when templating
//     is enabled, otherwise empty.
//   - Body: the AI draft when AI is enabled, else the substituted body
//     template when templating is enabled, else empty.
//
// AI calls go through a [Generator] and run on a bounded worker pool. A
// failed call does not fail the run; the draft body carries
// "Error generating email: <detail>" instead.
//
// # Error Handling
//
// Validation failures are sentinel errors (ErrEmptyInput, ErrMissingHeader,
// ErrInvalidColumnLetter, ...) that [MapError] converts to a [UserMessage]
// with a support code. No output is produced when one is returned.
package core
