package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/outreach/internal/config"
	"github.com/JonMunkholm/outreach/internal/core"
	"github.com/JonMunkholm/outreach/internal/llm"
	"github.com/spf13/cobra"
)

// apiKeyEnv is read when --api-key is not given.
const apiKeyEnv = "PERPLEXITY_API_KEY"

type generateOptions struct {
	emailColumn     string
	firstNameColumn string
	companyColumn   string

	subject string
	body    string

	useAI  bool
	apiKey string
	prompt string

	output string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <input.csv>",
		Short: "Draft one email per contact and write them as CSV",
		Long: `Reads a contact CSV, selects the email, first name and company columns by
letter, and writes Email,Subject,Body rows. Templates may use {first_name} and
{company}. With --ai each body is written by the chat completion API; a failed
call puts the error text in that body and the run continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.emailColumn, "email", "", "email column letter (required)")
	f.StringVar(&opts.firstNameColumn, "first-name", "", "first name column letter (required)")
	f.StringVar(&opts.companyColumn, "company", "", "company column letter (required)")
	f.StringVar(&opts.subject, "subject", "", "subject template")
	f.StringVar(&opts.body, "body", "", "body template")
	f.BoolVar(&opts.useAI, "ai", false, "write bodies with the chat completion API")
	f.StringVar(&opts.apiKey, "api-key", "", "API key (default $"+apiKeyEnv+")")
	f.StringVar(&opts.prompt, "prompt", "", "custom AI prompt")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")

	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func runGenerate(cmd *cobra.Command, input string, opts *generateOptions) error {
	payload, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	apiKey := strings.TrimSpace(opts.apiKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(apiKeyEnv))
	}

	useTemplate := cmd.Flags().Changed("subject") || cmd.Flags().Changed("body")
	req := core.Request{
		Payload: payload,
		Columns: core.ColumnSelection{
			Email:     strings.TrimSpace(opts.emailColumn),
			FirstName: strings.TrimSpace(opts.firstNameColumn),
			Company:   strings.TrimSpace(opts.companyColumn),
		},
		Generation: core.GenerationConfig{
			UseTemplate:     useTemplate,
			SubjectTemplate: opts.subject,
			BodyTemplate:    opts.body,
			UseAI:           opts.useAI,
			APIKey:          apiKey,
			CustomPrompt:    opts.prompt,
		},
	}

	service := core.NewService(
		llm.NewPerplexity(llm.Config{
			BaseURL:     cfg.Generation.BaseURL,
			Model:       cfg.Generation.Model,
			Temperature: &cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
		}),
		core.ServiceConfig{
			Pipeline: core.PipelineConfig{
				Workers: cfg.Generation.Workers,
				Timeout: cfg.Generation.Timeout,
			},
			MaxConcurrentRuns: 1,
		},
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return generateTo(ctx, service, req, opts.output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// generateTo runs req and writes the CSV to path, or to stdout when path is
// empty. Nothing is written when the run fails.
func generateTo(ctx context.Context, service *core.Service, req core.Request, path string, stdout, stderr io.Writer) error {
	result, err := service.Generate(ctx, req)
	if err != nil {
		if core.IsUserFacing(err) {
			return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
		}
		return err
	}

	if path == "" {
		if err := result.WriteCSV(stdout); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else {
		if err := writeFile(path, result); err != nil {
			return err
		}
	}

	fmt.Fprintf(stderr, "%d drafts written", result.Stats.Contacts)
	if req.Generation.UseAI {
		fmt.Fprintf(stderr, " (%d generated, %d failed)", result.Stats.Generated, result.Stats.Failed)
	}
	fmt.Fprintln(stderr)
	return nil
}

func writeFile(path string, result *core.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	if err := result.WriteCSV(f); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
