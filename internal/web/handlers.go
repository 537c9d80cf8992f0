package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/outreach/internal/core"
	"github.com/JonMunkholm/outreach/internal/logging"
	"github.com/JonMunkholm/outreach/internal/web/templates"
)

// Form field names of the upload form.
const (
	fieldFile            = "csv_file"
	fieldEmailColumn     = "email_column"
	fieldFirstNameColumn = "first_name_column"
	fieldCompanyColumn   = "company_column"
	fieldUseTemplate     = "use_template"
	fieldSubjectTemplate = "subject_template"
	fieldBodyTemplate    = "body_template"
	fieldUseAI           = "use_ai"
	fieldAPIKey          = "api_key"
	fieldCustomPrompt    = "custom_prompt"
)

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.IndexPage(s.indexParams()).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleGenerate reads the upload form, runs the draft pipeline and returns
// the generated CSV as an attachment.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	form := s.indexParams()

	req, err := s.parseGenerateForm(w, r, &form)
	if err != nil {
		s.respondError(w, r, err, form)
		return
	}

	result, err := s.service.Generate(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err, form)
		return
	}

	var buf bytes.Buffer
	if err := result.WriteCSV(&buf); err != nil {
		s.respondError(w, r, fmt.Errorf("write output: %w", err), form)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", core.OutputFilename))
	w.Header().Set("X-Batch-ID", result.BatchID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.FromContext(r.Context()).Warn("write response", "batch_id", result.BatchID, "error", err)
	}
}

// parseGenerateForm builds a core.Request from the multipart form. Echo-safe
// form values are copied into form for re-rendering on error.
func (s *Server) parseGenerateForm(w http.ResponseWriter, r *http.Request, form *templates.IndexParams) (core.Request, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return core.Request{}, fmt.Errorf("%w: %w", core.ErrFileTooLarge, err)
		}
		return core.Request{}, fmt.Errorf("%w: %w", core.ErrInvalidForm, err)
	}

	cols := core.ColumnSelection{
		Email:     strings.TrimSpace(r.PostFormValue(fieldEmailColumn)),
		FirstName: strings.TrimSpace(r.PostFormValue(fieldFirstNameColumn)),
		Company:   strings.TrimSpace(r.PostFormValue(fieldCompanyColumn)),
	}
	gen := core.GenerationConfig{
		UseTemplate:     formFlag(r, fieldUseTemplate),
		SubjectTemplate: r.PostFormValue(fieldSubjectTemplate),
		BodyTemplate:    r.PostFormValue(fieldBodyTemplate),
		UseAI:           formFlag(r, fieldUseAI),
		APIKey:          strings.TrimSpace(r.PostFormValue(fieldAPIKey)),
		CustomPrompt:    r.PostFormValue(fieldCustomPrompt),
	}

	form.EmailColumn = cols.Email
	form.FirstNameColumn = cols.FirstName
	form.CompanyColumn = cols.Company
	form.UseTemplate = gen.UseTemplate
	form.SubjectTemplate = gen.SubjectTemplate
	form.BodyTemplate = gen.BodyTemplate
	form.UseAI = gen.UseAI
	form.CustomPrompt = gen.CustomPrompt

	file, header, err := r.FormFile(fieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return core.Request{}, core.ErrNoFile
		}
		return core.Request{}, fmt.Errorf("%w: %w", core.ErrInvalidForm, err)
	}
	defer file.Close()

	if header.Filename == "" {
		return core.Request{}, core.ErrNoFile
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		return core.Request{}, fmt.Errorf("%w: read upload: %w", core.ErrInvalidForm, err)
	}

	return core.Request{
		Payload:    payload,
		Columns:    cols,
		Generation: gen,
	}, nil
}

// formFlag reports whether a checkbox field is set. A present field counts
// as on unless its value is an explicit false.
func formFlag(r *http.Request, name string) bool {
	values, ok := r.PostForm[name]
	if !ok || len(values) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(values[0])) {
	case "false", "off", "0":
		return false
	default:
		return true
	}
}

// handleHealth reports liveness and the run limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Time:   time.Now().UTC(),
		Runs:   s.service.RunLimiterStatus(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found", Message: "Not found", Code: "HTTP404"})
		return
	}
	http.Error(w, "Not found", http.StatusNotFound)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed", Message: "Method not allowed", Code: "HTTP405"})
		return
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func (s *Server) indexParams() templates.IndexParams {
	return templates.IndexParams{
		DefaultPrompt:  core.DefaultPrompt,
		MaxUploadBytes: s.cfg.Upload.MaxFileSize,
	}
}
