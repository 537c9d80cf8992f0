package core

// ingest.go turns an uploaded CSV payload into an ordered list of contacts.
//
// Field lookup is purely positional: the header row is only used to check
// that the selected columns exist. Data rows that are too short to hold every
// selected column are skipped, and rows whose email cell is blank are dropped.
// Neither case is an error.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Contact is one row of the uploaded file reduced to the fields used for
// drafting. All values are trimmed; Email is never empty.
type Contact struct {
	Email     string
	FirstName string
	Company   string
}

// ParseContacts decodes payload as CSV and extracts a Contact for every data
// row that carries an email address.
func ParseContacts(payload []byte, cols ColumnSelection) ([]Contact, error) {
	text, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) || (err == nil && len(header) == 0) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	idx, err := cols.resolve()
	if err != nil {
		return nil, err
	}
	if err := checkWidth(cols, idx, len(header)); err != nil {
		return nil, err
	}

	maxIdx := idx.max()
	var contacts []Contact
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}

		if len(row) <= maxIdx {
			continue
		}

		email := strings.TrimSpace(row[idx.email])
		if email == "" {
			continue
		}
		contacts = append(contacts, Contact{
			Email:     email,
			FirstName: strings.TrimSpace(row[idx.firstName]),
			Company:   strings.TrimSpace(row[idx.company]),
		})
	}

	if len(contacts) == 0 {
		return nil, ErrNoValidContacts
	}
	return contacts, nil
}

// checkWidth rejects selections that point past the last header column.
func checkWidth(cols ColumnSelection, idx columnIndexes, width int) error {
	if idx.max() < width {
		return nil
	}
	named := cols.fields()
	for i, n := range [3]int{idx.email, idx.firstName, idx.company} {
		if n >= width {
			return &ColumnRangeError{Field: named[i].name, Index: n, Width: width}
		}
	}
	return nil
}

// decodePayload validates the payload as UTF-8 and strips a leading byte
// order mark, which spreadsheet exports on Windows commonly add.
func decodePayload(payload []byte) (string, error) {
	if !utf8.Valid(payload) {
		return "", fmt.Errorf("%w: payload is not valid UTF-8", ErrEncoding)
	}
	if !bytes.HasPrefix(payload, []byte("\xef\xbb\xbf")) {
		return string(payload), nil
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return string(out), nil
}
