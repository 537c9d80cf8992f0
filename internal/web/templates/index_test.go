package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexPage_EscapesValues(t *testing.T) {
	var b strings.Builder
	err := IndexPage(IndexParams{
		EmailColumn:    `"><script>`,
		BodyTemplate:   "</textarea><b>x</b>",
		UseAI:          true,
		MaxUploadBytes: 5 << 20,
		ErrorMessage:   "<bad>",
		ErrorCode:      "COL002",
	}).Render(context.Background(), &b)
	require.NoError(t, err)

	out := b.String()
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "</textarea><b>")
	assert.Contains(t, out, "&lt;bad&gt;")
	assert.Contains(t, out, `name="use_ai" value="true" checked`)
	assert.Contains(t, out, "5 MB")
	assert.Contains(t, out, "Code: COL002")
}

func TestErrorAlert(t *testing.T) {
	var b strings.Builder
	require.NoError(t, ErrorAlert("Invalid column letters", "Please use letters A-Z", "COL002").Render(context.Background(), &b))

	assert.Equal(t,
		`<div class="alert alert-error" role="alert"><strong>Invalid column letters</strong><p>Please use letters A-Z</p><small>Code: COL002</small></div>`,
		b.String())
}

func TestIndexPage_FormDefaults(t *testing.T) {
	var b strings.Builder
	err := IndexPage(IndexParams{
		EmailColumn:   "A",
		DefaultPrompt: "Write to {first_name}",
	}).Render(context.Background(), &b)
	require.NoError(t, err)

	out := b.String()
	assert.Contains(t, out, "Use {first_name} and {company} as placeholders.")
	assert.Contains(t, out, `name="use_ai" value="true">`)
	assert.Contains(t, out, `name="email_column" value="A"`)
	assert.Contains(t, out, `placeholder="Write to {first_name}"`)
	assert.Contains(t, out, "(max unlimited)")
	assert.NotContains(t, out, `role="alert"`)
}
