package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/JonMunkholm/outreach/internal/config"
	"github.com/JonMunkholm/outreach/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactsCSV = "Name,Email,Company\nAna,ana@x.com,Acme\n,,\nBo,bo@y.com,Beta\n"

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, _, prompt string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return "AI: " + prompt, nil
}

func newTestServer(t *testing.T, gen core.Generator, env map[string]string) *Server {
	t.Helper()
	cfg, err := config.LoadFrom(env)
	require.NoError(t, err)
	svc := core.NewService(gen, core.ServiceConfig{
		Pipeline: core.PipelineConfig{
			Workers: cfg.Generation.Workers,
			Timeout: cfg.Generation.Timeout,
		},
		MaxConcurrentRuns: cfg.Generation.MaxConcurrentRuns,
		MaxWaitTime:       cfg.Generation.MaxWaitTime,
	})
	return NewServer(svc, cfg)
}

// multipartBody builds an upload form. A nil file omits the file part.
func multipartBody(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("csv_file", "contacts.csv")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func templateFields() map[string]string {
	return map[string]string{
		"email_column":      "B",
		"first_name_column": "A",
		"company_column":    "C",
		"use_template":      "on",
		"subject_template":  "Hello {first_name}",
		"body_template":     "Hi {first_name} from {company}",
	}
}

func postForm(t *testing.T, s *Server, path string, fields map[string]string, file []byte, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, file)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleGenerate_TemplateCSV(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := postForm(t, s, "/generate", templateFields(), []byte(contactsCSV), nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=generated_emails.csv", rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Header().Get("X-Batch-ID"))
	assert.Equal(t,
		"Email,Subject,Body\r\n"+
			"ana@x.com,Hello Ana,Hi Ana from Acme\r\n"+
			"bo@y.com,Hello Bo,Hi Bo from Beta\r\n",
		rec.Body.String())
}

func TestHandleGenerate_TemplateFlagOff(t *testing.T) {
	s := newTestServer(t, nil, nil)

	fields := templateFields()
	fields["use_template"] = "false"

	rec := postForm(t, s, "/generate", fields, []byte(contactsCSV), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email,Subject,Body\r\nana@x.com,,\r\nbo@y.com,,\r\n", rec.Body.String())
}

func TestHandleGenerate_AIFailuresInBody(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("401 Unauthorized")}
	s := newTestServer(t, gen, nil)

	fields := templateFields()
	fields["use_ai"] = "true"
	fields["api_key"] = "pplx-bad"

	rec := postForm(t, s, "/generate", fields, []byte(contactsCSV), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ana@x.com,Hello Ana,Error generating email: 401 Unauthorized")
	assert.Equal(t, 2, gen.calls)
}

func TestHandleGenerate_CustomPromptPassedThrough(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestServer(t, gen, map[string]string{"GENERATION_WORKERS": "1"})

	fields := templateFields()
	fields["use_ai"] = "on"
	fields["api_key"] = "pplx-key"
	fields["custom_prompt"] = "  Pitch {company} to {first_name}\n"

	rec := postForm(t, s, "/generate", fields, []byte(contactsCSV), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{
		"  Pitch Acme to Ana\n",
		"  Pitch Beta to Bo\n",
	}, gen.prompts)
}

func TestHandleGenerate_ValidationHTML(t *testing.T) {
	s := newTestServer(t, nil, nil)

	fields := templateFields()
	fields["email_column"] = "D"
	fields["api_key"] = "secret-key-value"

	rec := postForm(t, s, "/generate", fields, []byte(contactsCSV), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Column index out of range. CSV has only 3 columns.")
	assert.Contains(t, body, "COL003")
	assert.Contains(t, body, `value="Hello {first_name}"`)
	assert.NotContains(t, body, "secret-key-value")
	assert.NotContains(t, body, "Email,Subject,Body")
}

func TestHandleGenerate_ValidationJSON(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestServer(t, gen, nil)

	tests := []struct {
		name     string
		modify   func(map[string]string)
		file     []byte
		wantCode string
		status   int
	}{
		{"missing selector", func(f map[string]string) { delete(f, "company_column") }, []byte(contactsCSV), "COL001", http.StatusBadRequest},
		{"blank selector", func(f map[string]string) { f["email_column"] = "  " }, []byte(contactsCSV), "COL001", http.StatusBadRequest},
		{"invalid letter", func(f map[string]string) { f["first_name_column"] = "3" }, []byte(contactsCSV), "COL002", http.StatusBadRequest},
		{"no file", func(map[string]string) {}, nil, "FILE004", http.StatusBadRequest},
		{"empty file", func(map[string]string) {}, []byte{}, "FILE005", http.StatusBadRequest},
		{"no contacts", func(map[string]string) {}, []byte("Name,Email,Company\n,,\n"), "VAL001", http.StatusBadRequest},
		{"ai without key", func(f map[string]string) { f["use_ai"] = "on" }, []byte(contactsCSV), "AI001", http.StatusBadRequest},
		{"bad encoding", func(map[string]string) {}, []byte("Name,Email,Company\nA\xff,a@x.com,C\n"), "FILE003", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := templateFields()
			tt.modify(fields)

			rec := postForm(t, s, "/api/generate", fields, tt.file, nil)

			assert.Equal(t, tt.status, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
	assert.Zero(t, gen.calls)
}

func TestHandleGenerate_HTMXFragment(t *testing.T) {
	s := newTestServer(t, nil, nil)

	fields := templateFields()
	fields["email_column"] = "!"

	rec := postForm(t, s, "/generate", fields, []byte(contactsCSV), http.Header{"Hx-Request": {"true"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid column letters")
	assert.NotContains(t, body, "<form")
}

func TestHandleGenerate_FileTooLarge(t *testing.T) {
	s := newTestServer(t, nil, map[string]string{"UPLOAD_MAX_FILE_SIZE": "1024"})

	big := []byte("Name,Email,Company\n" + strings.Repeat("Ana,ana@x.com,Acme\n", 200))
	rec := postForm(t, s, "/api/generate", templateFields(), big, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE001", resp.Code)
}

func TestHandleGenerate_NotMultipart(t *testing.T) {
	s := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("email_column=B"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE007", resp.Code)
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="csv_file"`)
	assert.Contains(t, body, `name="api_key"`)
	assert.Contains(t, body, "10 MB")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, core.DefaultMaxConcurrentRuns, resp.Runs.MaxConcurrent)
}

func TestMetricsRoute(t *testing.T) {
	enabled := newTestServer(t, nil, nil)
	rec := httptest.NewRecorder()
	enabled.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "outreach_runs_active")

	disabled := newTestServer(t, nil, map[string]string{"METRICS_ENABLED": "false"})
	rec = httptest.NewRecorder()
	disabled.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestFormFlag(t *testing.T) {
	tests := []struct {
		value   string
		present bool
		want    bool
	}{
		{"on", true, true},
		{"true", true, true},
		{"1", true, true},
		{"", true, true},
		{"false", true, false},
		{"OFF", true, false},
		{"0", true, false},
		{"", false, false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.PostForm = map[string][]string{}
		if tt.present {
			r.PostForm["use_ai"] = []string{tt.value}
		}
		assert.Equal(t, tt.want, formFlag(r, "use_ai"), "value=%q present=%v", tt.value, tt.present)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(core.ErrNoValidContacts))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(core.ErrFileTooLarge))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(core.ErrTooManyRuns))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
