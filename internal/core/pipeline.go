package core

// pipeline.go computes a subject and body for every contact.
//
// Subjects come from the subject template when templating is on and are empty
// otherwise. Bodies are chosen by priority: the AI strategy wins when enabled,
// then the body template, then an empty body. A failed AI call never fails the
// run; its error text becomes that contact's body so the user can see which
// drafts need manual attention.

import (
	"context"
	"strings"
	"time"

	"github.com/JonMunkholm/outreach/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultPrompt is used when AI drafting is enabled without a custom prompt.
const DefaultPrompt = "Write a friendly outreach email to {first_name} at {company}."

// GenerationErrorPrefix starts the body of a draft whose AI call failed.
const GenerationErrorPrefix = "Error generating email: "

const (
	// DefaultWorkers is the default number of concurrent AI calls per run.
	DefaultWorkers = 4

	// DefaultGenerationTimeout bounds a single AI call.
	DefaultGenerationTimeout = 60 * time.Second
)

// Generator produces text for a prompt using an external completion service.
type Generator interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
}

// GenerationConfig controls how subjects and bodies are produced.
type GenerationConfig struct {
	UseTemplate     bool
	SubjectTemplate string
	BodyTemplate    string

	UseAI        bool
	APIKey       string
	CustomPrompt string
}

// Validate checks settings that must hold before any draft is produced.
func (c GenerationConfig) Validate() error {
	if c.UseAI && c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Prompt returns the substituted AI prompt for a contact.
func (c GenerationConfig) Prompt(contact Contact) string {
	prompt := c.CustomPrompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return Substitute(prompt, contact)
}

// Draft is the generated output for one contact.
type Draft struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// RunStats summarises a pipeline run.
type RunStats struct {
	Contacts  int `json:"contacts"`
	Generated int `json:"generated"` // AI bodies produced successfully
	Failed    int `json:"failed"`    // AI bodies replaced by an error message
}

// PipelineConfig holds pipeline tuning.
type PipelineConfig struct {
	// Workers is the maximum number of AI calls in flight (default: 4)
	Workers int

	// Timeout bounds each AI call (default: 60s)
	Timeout time.Duration
}

// Pipeline drafts emails for a list of contacts.
type Pipeline struct {
	generator Generator
	workers   int
	timeout   time.Duration
}

// NewPipeline creates a pipeline. generator may be nil when only template
// drafting is used.
func NewPipeline(generator Generator, cfg PipelineConfig) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGenerationTimeout
	}
	return &Pipeline{
		generator: generator,
		workers:   cfg.Workers,
		timeout:   cfg.Timeout,
	}
}

// Run returns one draft per contact in input order. It fails only when cfg
// is invalid; AI failures are recorded in the affected draft instead. Once
// ctx is done the remaining contacts are not sent to the generator and their
// bodies carry the context error.
func (p *Pipeline) Run(ctx context.Context, contacts []Contact, cfg GenerationConfig) ([]Draft, RunStats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, RunStats{}, err
	}
	if cfg.UseAI && p.generator == nil {
		return nil, RunStats{}, ErrNoGenerator
	}

	drafts := make([]Draft, len(contacts))
	failed := make([]bool, len(contacts))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, c := range contacts {
		g.Go(func() error {
			drafts[i], failed[i] = p.draft(ctx, i, c, cfg)
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	stats := RunStats{Contacts: len(contacts)}
	if cfg.UseAI {
		for _, f := range failed {
			if f {
				stats.Failed++
			} else {
				stats.Generated++
			}
		}
	}
	return drafts, stats, nil
}

// draft builds the draft for one contact. The bool reports an AI failure.
func (p *Pipeline) draft(ctx context.Context, row int, c Contact, cfg GenerationConfig) (Draft, bool) {
	d := Draft{Email: c.Email}
	if cfg.UseTemplate {
		d.Subject = Substitute(cfg.SubjectTemplate, c)
	}

	switch {
	case cfg.UseAI:
		body, err := p.generate(ctx, cfg.APIKey, cfg.Prompt(c))
		draftsTotal.WithLabelValues(StrategyAI, outcomeLabel(err)).Inc()
		if err != nil {
			logging.FromContext(ctx).Warn("draft generation failed", "row", row, "error", err)
			d.Body = GenerationErrorPrefix + err.Error()
			return d, true
		}
		d.Body = body
	case cfg.UseTemplate:
		d.Body = Substitute(cfg.BodyTemplate, c)
		draftsTotal.WithLabelValues(StrategyTemplate, "ok").Inc()
	default:
		draftsTotal.WithLabelValues(StrategyBlank, "ok").Inc()
	}
	return d, false
}

// generate makes a single bounded call to the generator.
func (p *Pipeline) generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.generator.Generate(callCtx, apiKey, prompt)
	generationDuration.WithLabelValues(outcomeLabel(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
