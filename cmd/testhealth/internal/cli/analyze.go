package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/testhealth/cmd/testhealth/internal/ui"
	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/health/engine"
	"github.com/example/testhealth/internal/ingest"
	"github.com/example/testhealth/internal/render"
	"github.com/example/testhealth/internal/service"
	"github.com/example/testhealth/internal/storage"
)

// ErrBelowThreshold is returned when --fail-under is set and the health
// score is lower.
var ErrBelowThreshold = errors.New("health score below threshold")

var (
	summaryPath   string
	historyPath   string
	storedHistory bool
	historyRuns   int
	outPath       string
	markdownPath  string
	record        bool
	source        string
	failUnder     int
	quiet         bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a test run and produce a health report",
	Long: `Analyze the results of one test run.

The summary is either a Playwright JSON report or a metrics.json document.
History, when given, maps test names to their past run statuses:

  {"login test": [{"status": "passed"}, {"status": "failed"}, ...]}

Malformed records are skipped and counted in the report's omissions; they
never fail the command. The exit code is non-zero only for I/O and
configuration errors, or when --fail-under is set and the score is lower.

EXAMPLES:
  # Print a summary of a Playwright report
  testhealth analyze --summary playwright-report.json

  # Write the full JSON report and a markdown CI summary
  testhealth analyze --summary metrics.json --history history.json \
      --out report.json --markdown summary.md

  # Use the stored history and record this run for next time
  testhealth analyze --summary results.json --stored-history --record

  # Fail below a health score of 70
  testhealth analyze --summary results.json --fail-under 70`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&summaryPath, "summary", "s", "", "test run summary (Playwright JSON or metrics.json)")
	analyzeCmd.Flags().StringVar(&historyPath, "history", "", "history document (JSON)")
	analyzeCmd.Flags().BoolVar(&storedHistory, "stored-history", false, "load history from the history database")
	analyzeCmd.Flags().IntVar(&historyRuns, "history-runs", 0, "limit stored history to the last N runs (0 = all)")
	analyzeCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the JSON report to this file (- for stdout)")
	analyzeCmd.Flags().StringVar(&markdownPath, "markdown", "", "write a markdown summary to this file")
	analyzeCmd.Flags().BoolVar(&record, "record", false, "record this run in the history database")
	analyzeCmd.Flags().StringVar(&source, "source", "", "label for the recorded run, e.g. a CI build URL")
	analyzeCmd.Flags().IntVar(&failUnder, "fail-under", 0, "exit non-zero when the health score is below this value")
	analyzeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the terminal summary")
	_ = analyzeCmd.MarkFlagRequired("summary")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if historyPath != "" && storedHistory {
		return fmt.Errorf("%w: --history and --stored-history are mutually exclusive", domain.ErrInvalidInput)
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	summary, err := ingest.LoadSummary(summaryPath)
	if err != nil {
		return err
	}
	in := engine.Input{Summary: summary.Summary, Omissions: summary.Omissions}

	if historyPath != "" {
		history, historyOmissions, err := ingest.LoadHistory(historyPath)
		if err != nil {
			return err
		}
		in.History = history
		in.Omissions = in.Omissions.Merge(historyOmissions)
	}

	opts := []service.Option{service.WithLogger(e.logger)}
	if record || storedHistory {
		store, repo, err := e.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if storedHistory {
			history, err := repo.LoadHistory(ctx, storage.HistoryOptions{LastN: historyRuns})
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}
			in.History = history
		}
		opts = append(opts, service.WithStore(repo), service.WithReportObserver(e.metrics))
	}

	svc := service.NewAnalysisService(e.engine, opts...)
	report, err := svc.AnalyzeInput(ctx, in, record, source)
	if err != nil {
		return err
	}

	if err := writeOutputs(report); err != nil {
		return err
	}

	if !quiet && outPath != "-" {
		ui.PrintReport(report)
		if record {
			ui.PrintSuccess(fmt.Sprintf("Recorded run in %s", e.cfg.DBPath))
		}
	}

	if report.HealthScore < failUnder {
		return fmt.Errorf("%w: %d < %d", ErrBelowThreshold, report.HealthScore, failUnder)
	}
	return nil
}

func writeOutputs(report *domain.HealthReport) error {
	if outPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		data = append(data, '\n')
		if outPath == "-" {
			if _, err := os.Stdout.Write(data); err != nil {
				return err
			}
		} else if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if markdownPath != "" {
		if err := os.WriteFile(markdownPath, []byte(render.Markdown(report)), 0o644); err != nil {
			return fmt.Errorf("failed to write markdown summary: %w", err)
		}
	}
	return nil
}
