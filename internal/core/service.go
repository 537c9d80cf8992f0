package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/outreach/internal/logging"
	"github.com/google/uuid"
)

// Request is everything a caller supplies for one generation run.
type Request struct {
	Payload    []byte
	Columns    ColumnSelection
	Generation GenerationConfig
}

// Validate checks the request fields that do not depend on the payload.
func (r Request) Validate() error {
	if err := r.Columns.Validate(); err != nil {
		return err
	}
	return r.Generation.Validate()
}

// Result is the outcome of a successful run.
type Result struct {
	BatchID string
	Drafts  []Draft
	Stats   RunStats
}

// WriteCSV writes the drafts in the output file format.
func (r *Result) WriteCSV(w io.Writer) error {
	return WriteDrafts(w, r.Drafts)
}

// ServiceConfig holds Service settings.
type ServiceConfig struct {
	Pipeline          PipelineConfig
	MaxConcurrentRuns int
	MaxWaitTime       time.Duration
}

// Service runs validation, ingestion and drafting for a request.
type Service struct {
	pipeline *Pipeline
	limiter  *RunLimiter
}

// NewService creates a Service. generator may be nil if AI drafting is never
// requested.
func NewService(generator Generator, cfg ServiceConfig) *Service {
	return &Service{
		pipeline: NewPipeline(generator, cfg.Pipeline),
		limiter:  NewRunLimiter(cfg.MaxConcurrentRuns, cfg.MaxWaitTime),
	}
}

// Generate validates req, extracts its contacts and drafts an email for each.
// Validation failures are returned before any generation call is made. If ctx
// is cancelled during the run no result is returned; if its deadline passes
// the drafts are returned with the unfinished rows marked as failed.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		runsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	contacts, err := ParseContacts(req.Payload, req.Columns)
	if err != nil {
		runsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		runsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	defer s.limiter.Release()

	batchID := uuid.NewString()
	logger := logging.WithFields(ctx, "batch_id", batchID)
	ctx = logging.WithLogger(ctx, logger)

	start := time.Now()
	logger.Info("generation started",
		"contacts", len(contacts),
		"use_template", req.Generation.UseTemplate,
		"use_ai", req.Generation.UseAI,
	)

	drafts, stats, err := s.pipeline.Run(ctx, contacts, req.Generation)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("generation run: %w", err)
	}
	// A client that went away gets nothing. A run that hit its deadline still
	// returns every draft; rows that did not finish carry the error text.
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		runsTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("generation run: %w", err)
	} else if err != nil {
		logger.Warn("generation deadline reached, returning partial drafts",
			"failed", stats.Failed,
			"error", err,
		)
	}

	runsTotal.WithLabelValues("ok").Inc()
	logger.Info("generation completed",
		"contacts", stats.Contacts,
		"generated", stats.Generated,
		"failed", stats.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{BatchID: batchID, Drafts: drafts, Stats: stats}, nil
}

// RunLimiterStatus returns the current run limiter state.
func (s *Service) RunLimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until in-flight runs finish or ctx is done.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
