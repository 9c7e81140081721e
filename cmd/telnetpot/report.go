package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/telnetpot/internal/config"
	"github.com/nao1215/telnetpot/internal/database"
	"github.com/nao1215/telnetpot/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize captured credentials",
		Long: `Report aggregates the captured credentials stored in the database:
total attempts, distinct sources, most-tried usernames and passwords,
and the most recent captures.

Examples:
  # Human-readable summary on stdout
  telnetpot report

  # JSON for tool integration
  telnetpot report --json

  # Markdown with tables and a source chart
  telnetpot report --markdown -o captures.md

  # Widen the top-N and recent lists
  telnetpot report --top 25 --recent 50`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Int("top", config.DefaultReportTopN,
		"Number of entries in the top-N lists")
	cmd.Flags().Int("recent", config.DefaultReportRecentN,
		"Number of entries in the recent-captures list")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite database (default: XDG data directory)")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildReportConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// The database must already exist; a missing one means nothing was
	// ever captured and there is nothing to report on.
	db, err := database.Open(cfg.DBDir, database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("failed to open database (run serve first?): %w", err)
	}
	defer func() { _ = db.Close() }()

	captureReport, err := db.BuildReport(cmd.Context(), cfg.ReportTopN, cfg.ReportRecentN)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	output, closeOutput, err := reportOutput(cfg)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer := reportWriter(cfg, output)
	if _, err := writer.Write(captureReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// buildReportConfig creates a Config from the report command flags.
func buildReportConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if cfg.ReportTopN, err = cmd.Flags().GetInt("top"); err != nil {
		return nil, err
	}
	if cfg.ReportRecentN, err = cmd.Flags().GetInt("recent"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return nil, err
	}

	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// reportOutput resolves the output destination: the report file when set,
// stdout otherwise. The returned func closes the file when one was opened.
func reportOutput(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports contain captured passwords, so keep them owner-only.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// reportWriter picks the writer for the requested format.
func reportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output)
	}
}
