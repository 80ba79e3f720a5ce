// Package main provides the command-line entry point for one-off runs and
// previews against Google Sheets or a local workbook.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetnotify/internal/app"
	"github.com/JonMunkholm/sheetnotify/internal/config"
	"github.com/JonMunkholm/sheetnotify/internal/core"
	"github.com/JonMunkholm/sheetnotify/internal/logging"
)

// errRecordFailures is returned by run --fail-on-error when any record failed.
var errRecordFailures = errors.New("one or more records failed")

type options struct {
	envFile     string
	xlsxPath    string
	sheetName   string
	dryRun      bool
	pretty      bool
	failOnError bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "sheetnotify",
		Short: "Send notifications to pending rows of a contact sheet",
		Long: `sheetnotify reads a contact sheet, emails every row whose status
column is empty and marks the row once the message is sent.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "Environment file to load if present")
	flags.StringVar(&opts.xlsxPath, "xlsx", "", "Use a local .xlsx workbook instead of Google Sheets")
	flags.StringVar(&opts.sheetName, "sheet", "", "Sheet name (default: first sheet)")
	flags.BoolVar(&opts.pretty, "pretty", false, "Pretty-print JSON output")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Notify every pending row once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}
	runCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Log messages instead of sending them (markers are still written)")
	runCmd.Flags().BoolVar(&opts.failOnError, "fail-on-error", false, "Exit non-zero when any record fails")

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the sheet as JSON without changing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return preview(cmd, opts)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, false)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, previewCmd, validateCmd)
	return rootCmd
}

// loadConfig reads the environment, applies flag overrides and validates.
// Preview never sends, so it always uses the dry-run sender.
func loadConfig(opts *options, forceDryRun bool) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.envFile, err)
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if opts.xlsxPath != "" {
		cfg.Sheets.XLSXPath = opts.xlsxPath
	}
	if opts.sheetName != "" {
		cfg.Sheets.SheetName = opts.sheetName
	}
	if opts.dryRun || forceDryRun {
		cfg.Mail.DryRun = true
	}
	// The CLI never listens; the scheduler belongs to the server.
	cfg.Schedule = config.ScheduleConfig{}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func build(cmd *cobra.Command, opts *options, forceDryRun bool) (*app.App, error) {
	cfg, err := loadConfig(opts, forceDryRun)
	if err != nil {
		return nil, err
	}
	logger := logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	return app.New(cmd.Context(), cfg, logger)
}

func runOnce(cmd *cobra.Command, opts *options) error {
	a, err := build(cmd, opts, false)
	if err != nil {
		return err
	}

	ctx := core.ContextWithTrigger(cmd.Context(), core.TriggerCLI)
	result, err := a.Service.Execute(ctx)
	if result != nil {
		if werr := writeJSON(cmd.OutOrStdout(), result, opts.pretty); werr != nil {
			return werr
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}
	if opts.failOnError && len(result.Failures) > 0 {
		return fmt.Errorf("%w: %d of %d attempted", errRecordFailures,
			len(result.Failures), len(result.Failures)+result.Processed)
	}
	return nil
}

func preview(cmd *cobra.Command, opts *options) error {
	a, err := build(cmd, opts, true)
	if err != nil {
		return err
	}

	p, err := a.Service.Preview(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}
	return writeJSON(cmd.OutOrStdout(), p, opts.pretty)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
