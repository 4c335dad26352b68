package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/testhealth/cmd/testhealth/internal/ui"
	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/internal/ingest"
	"github.com/example/testhealth/internal/storage"
)

var (
	recordSummary string
	recordSource  string
	showLimit     int
	showTests     bool
	showRuns      int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the run history database",
	Long: `Record test runs and inspect the stored history.

The history database feeds flaky-test detection: every recorded run adds
one pass/fail sample per test.`,
}

var historyRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a test run without analyzing it",
	Long: `Append the statuses and durations of a test run to the history database.

EXAMPLES:
  # Record a Playwright report
  testhealth history record --summary playwright-report.json

  # Label the run with its CI build
  testhealth history record --summary metrics.json --source "$CI_JOB_URL"`,
	RunE: runHistoryRecord,
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recorded runs",
	Long: `Display the runs stored in the history database, newest first.

EXAMPLES:
  # Show the last 10 runs
  testhealth history show --limit 10

  # Show per-test outcomes over the last 20 runs
  testhealth history show --tests --runs 20`,
	RunE: runHistoryShow,
}

var historyReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List stored health reports",
	RunE:  runHistoryReports,
}

func init() {
	historyRecordCmd.Flags().StringVarP(&recordSummary, "summary", "s", "", "test run summary (Playwright JSON or metrics.json)")
	historyRecordCmd.Flags().StringVar(&recordSource, "source", "", "label for the recorded run")
	_ = historyRecordCmd.MarkFlagRequired("summary")

	historyShowCmd.Flags().IntVarP(&showLimit, "limit", "n", 20, "limit number of runs shown (0 = all)")
	historyShowCmd.Flags().BoolVar(&showTests, "tests", false, "show per-test outcomes instead of runs")
	historyShowCmd.Flags().IntVar(&showRuns, "runs", 0, "with --tests, limit to the last N runs (0 = all)")

	historyReportsCmd.Flags().IntVarP(&showLimit, "limit", "n", 20, "limit number of reports shown (0 = all)")

	historyCmd.AddCommand(historyRecordCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyReportsCmd)
}

func runHistoryRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := loadEnv()
	if err != nil {
		return err
	}

	summary, err := ingest.LoadSummary(recordSummary)
	if err != nil {
		return err
	}
	if summary.Omissions.Count > 0 {
		ui.PrintWarning(fmt.Sprintf("%d malformed records were skipped", summary.Omissions.Count))
	}

	store, repo, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	run := storage.RunFromSummary(recordSource, summary.Summary)
	if err := repo.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Recorded run %s (%d tests) in %s", run.ID, len(run.Results), e.cfg.DBPath))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := loadEnv()
	if err != nil {
		return err
	}
	store, repo, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if showTests {
		history, err := repo.LoadHistory(ctx, storage.HistoryOptions{LastN: showRuns})
		if err != nil {
			return err
		}
		printTestHistory(history)
		return nil
	}

	runs, err := repo.ListRuns(ctx, showLimit)
	if err != nil {
		return err
	}

	ui.PrintHeader("Recorded Runs")
	if len(runs) == 0 {
		ui.PrintInfo("No runs recorded yet. Use 'testhealth history record' or 'analyze --record'.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortID(r.ID),
			r.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", r.Tests),
			fmt.Sprintf("%d", r.Passed),
			fmt.Sprintf("%d", r.Failed),
			r.Source,
		})
	}
	ui.PrintTable([]string{"RUN", "RECORDED", "TESTS", "PASSED", "FAILED", "SOURCE"}, rows)
	return nil
}

// printTestHistory prints one line per test, P for pass and F for fail,
// oldest run first.
func printTestHistory(history domain.History) {
	ui.PrintHeader("Test History")
	if history.Len() == 0 {
		ui.PrintInfo("No runs recorded yet.")
		return
	}

	names := make([]string, 0, len(history))
	for name := range history {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		var b strings.Builder
		failed := 0
		for _, s := range history[name] {
			if s == domain.StatusFailed {
				b.WriteByte('F')
				failed++
			} else {
				b.WriteByte('P')
			}
		}
		rows = append(rows, []string{name, b.String(), fmt.Sprintf("%d/%d", failed, len(history[name]))})
	}
	ui.PrintTable([]string{"TEST", "OUTCOMES", "FAILED"}, rows)
}

func runHistoryReports(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := loadEnv()
	if err != nil {
		return err
	}
	store, repo, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	reports, err := repo.ListReports(ctx, showLimit)
	if err != nil {
		return err
	}

	ui.PrintHeader("Stored Reports")
	if len(reports) == 0 {
		ui.PrintInfo("No reports stored yet.")
		return nil
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.ID,
			r.GeneratedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", r.HealthScore),
			string(r.Trend),
			r.Engine,
		})
	}
	ui.PrintTable([]string{"REPORT", "GENERATED", "SCORE", "TREND", "ENGINE"}, rows)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
