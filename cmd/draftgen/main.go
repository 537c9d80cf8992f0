// Command draftgen generates outreach email drafts from a CSV file without
// running the web server.
//
// Usage:
//
//	draftgen generate contacts.csv --email B --first-name A --company C \
//	    --subject "Hello {first_name}" --body "Hi {first_name} at {company}" \
//	    -o generated_emails.csv
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/outreach/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "draftgen",
		Short:         "Generate outreach email drafts from a contact CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logs go to stderr so stdout can carry the CSV
			logging.SetupWriter(os.Stderr, logLevel, logFormat)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", envOr("LOG_FORMAT", "text"), "log format (text, json)")

	root.AddCommand(newGenerateCmd())
	return root
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
