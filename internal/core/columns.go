package core

import "fmt"

// MaxColumns is the number of addressable columns (A through Z).
const MaxColumns = 26

// ColumnSelection holds the three user-supplied column letters.
type ColumnSelection struct {
	Email     string
	FirstName string
	Company   string
}

// columnIndexes is a resolved ColumnSelection.
type columnIndexes struct {
	email     int
	firstName int
	company   int
}

// max returns the highest of the three indexes.
func (c columnIndexes) max() int {
	return max(c.email, c.firstName, c.company)
}

// ColumnIndex converts a single column letter to its zero-based index.
// Lowercase letters are accepted. Anything other than exactly one ASCII
// letter returns ErrInvalidColumnLetter.
func ColumnIndex(letter string) (int, error) {
	if len(letter) != 1 {
		return -1, ErrInvalidColumnLetter
	}

	c := letter[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' {
		return -1, ErrInvalidColumnLetter
	}
	idx := int(c - 'A')
	if idx >= MaxColumns {
		return -1, ErrInvalidColumnLetter
	}
	return idx, nil
}

// Validate checks that all three selectors were supplied.
func (s ColumnSelection) Validate() error {
	for _, f := range s.fields() {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingColumnSelector, f.name)
		}
	}
	return nil
}

// resolve converts every selector to an index.
func (s ColumnSelection) resolve() (columnIndexes, error) {
	var idx [3]int
	for i, f := range s.fields() {
		n, err := ColumnIndex(f.value)
		if err != nil {
			return columnIndexes{}, &InvalidColumnError{Field: f.name, Value: f.value}
		}
		idx[i] = n
	}
	return columnIndexes{email: idx[0], firstName: idx[1], company: idx[2]}, nil
}

type namedSelector struct {
	name  string
	value string
}

func (s ColumnSelection) fields() [3]namedSelector {
	return [3]namedSelector{
		{"email", s.Email},
		{"first name", s.FirstName},
		{"company", s.Company},
	}
}
