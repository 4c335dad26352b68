package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/testhealth/health/backend"
	"github.com/example/testhealth/health/engine"
	"github.com/example/testhealth/internal/config"
	"github.com/example/testhealth/internal/logging"
	"github.com/example/testhealth/internal/observability"
	"github.com/example/testhealth/internal/storage"
	"github.com/example/testhealth/internal/storage/sqlite"
)

var (
	configPath string
	dbPath     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "testhealth",
	Short: "Analyze test runs for failures, flakiness and slow tests",
	Long: `testhealth turns the output of a test run into a health report.

It classifies failures by root cause, detects flaky tests from run history,
flags performance anomalies and produces prioritized recommendations along
with a 0-100 health score.

Classification uses an AI model when a token is configured
(TESTHEALTH_AI_TOKEN, GITHUB_TOKEN or OPENAI_API_KEY) and falls back to
rule-based classification otherwise.

WORKFLOW:
  1. testhealth analyze --summary results.json --record
  2. repeat for every CI run to build up history
  3. testhealth history show   (inspect stored runs)
  4. testhealth serve          (HTTP and gRPC API)

EXAMPLES:
  # Analyze a Playwright report
  testhealth analyze --summary playwright-report.json

  # Analyze with history and write a markdown summary
  testhealth analyze --summary metrics.json --history history.json --markdown summary.md

  # Fail the build below a health score of 70
  testhealth analyze --summary results.json --fail-under 70`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// env is everything a command needs to run analyses.
type env struct {
	cfg     config.Config
	logger  *logrus.Logger
	metrics *observability.Metrics
	engine  *engine.Engine
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format))
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()
	b := backend.Select(cfg.BackendOptions())
	e, err := engine.New(cfg.Analysis,
		engine.WithBackend(b),
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
		engine.WithVersion(version),
	)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, metrics: metrics, engine: e}, nil
}

// openStore opens and migrates the history database.
func (e *env) openStore(ctx context.Context) (*sqlite.SQLiteStorage, *storage.Repository, error) {
	store, err := sqlite.Open(ctx, e.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, storage.NewRepository(store), nil
}
