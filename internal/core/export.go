package core

import (
	"encoding/csv"
	"fmt"
	"io"
)

// OutputHeader is the header row of the generated file.
var OutputHeader = []string{"Email", "Subject", "Body"}

// OutputFilename is the suggested download name for the generated file.
const OutputFilename = "generated_emails.csv"

// WriteDrafts writes drafts as CSV, header first, in the given order.
// Lines end in CRLF so the file opens cleanly in spreadsheet tools.
func WriteDrafts(w io.Writer, drafts []Draft) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(OutputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, d := range drafts {
		if err := cw.Write([]string{d.Email, d.Subject, d.Body}); err != nil {
			return fmt.Errorf("write draft %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
