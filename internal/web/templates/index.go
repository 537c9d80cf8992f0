// Package templates holds the templ components for the web UI. The
// *_templ.go files are generated with `templ generate`; edit the .templ
// sources instead.
package templates

import "fmt"

// Placeholder tokens shown in the form help text.
const (
	FirstNamePlaceholder = "{first_name}"
	CompanyPlaceholder   = "{company}"
)

// IndexParams holds the values shown on the upload form. Form values are
// echoed back after a validation error so the user does not retype them.
// The API key is never echoed.
type IndexParams struct {
	EmailColumn     string
	FirstNameColumn string
	CompanyColumn   string

	UseTemplate     bool
	SubjectTemplate string
	BodyTemplate    string

	UseAI         bool
	CustomPrompt  string
	DefaultPrompt string

	MaxUploadBytes int64

	// Error is rendered above the form when ErrorMessage is set.
	ErrorMessage string
	ErrorAction  string
	ErrorCode    string
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n <= 0 {
		return "unlimited"
	}
	if n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
