package core

import "strings"

// Placeholders recognised by Substitute. No other tokens are expanded.
const (
	FirstNameToken = "{first_name}"
	CompanyToken   = "{company}"
)

// Substitute replaces every literal {first_name} and {company} in tmpl with
// the contact's values. Replacement is a single left-to-right pass, so
// placeholders inside the substituted values are left alone.
func Substitute(tmpl string, c Contact) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	return strings.NewReplacer(
		FirstNameToken, c.FirstName,
		CompanyToken, c.Company,
	).Replace(tmpl)
}
