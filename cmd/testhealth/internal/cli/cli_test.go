package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/testhealth/cmd/testhealth/internal/ui"
	"github.com/example/testhealth/health/domain"
)

const runReport = `{
  "suites": [
    {
      "title": "checkout.spec.ts",
      "specs": [
        {"title": "adds item to cart", "tests": [
          {"results": [{"status": "passed", "duration": 1200}]}
        ]},
        {"title": "pays with card", "tests": [
          {"results": [{"status": "failed", "duration": 31000, "error": {"message": "Timeout 30000ms exceeded"}}]}
        ]}
      ]
    }
  ]
}`

func resetFlags() {
	configPath, dbPath, logLevel = "", "", ""
	summaryPath, historyPath, storedHistory, historyRuns = "", "", false, 0
	outPath, markdownPath, record, source, failUnder, quiet = "", "", false, "", 0, false
	recordSummary, recordSource, showLimit, showTests, showRuns = "", "", 20, false, 0
	httpAddr, grpcAddr, noGRPC = "", "", false
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	for _, key := range []string{"TESTHEALTH_AI_TOKEN", "GITHUB_TOKEN", "OPENAI_API_KEY", "TESTHEALTH_LOG_FORMAT", "TESTHEALTH_AI_CALL_CAP"} {
		t.Setenv(key, "")
	}

	var buf bytes.Buffer
	ui.SetOutput(&buf)
	t.Cleanup(func() { ui.SetOutput(os.Stdout) })
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(append(args, "--log-level", "error"))

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	summary := writeFile(t, dir, "results.json", runReport)
	reportPath := filepath.Join(dir, "report.json")
	mdPath := filepath.Join(dir, "summary.md")

	out, err := execute(t, "analyze",
		"--summary", summary,
		"--out", reportPath,
		"--markdown", mdPath,
		"--db", filepath.Join(dir, "th.db"),
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Health Report")
	assert.Contains(t, out, "50/100")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report domain.HealthReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 50, report.HealthScore)
	assert.Equal(t, domain.HealthCritical, report.Trend)
	assert.Equal(t, "statistical-only", report.Engine)
	assert.Equal(t, version, report.Version)
	assert.Equal(t, 2, report.Summary.TotalTests)
	assert.Equal(t, 1, report.Summary.FailedTests)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "**Health Score**: 50/100 (CRITICAL)")

	// Without --record or --stored-history the database is never created.
	_, err = os.Stat(filepath.Join(dir, "th.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyzeFailUnder(t *testing.T) {
	dir := t.TempDir()
	summary := writeFile(t, dir, "results.json", runReport)

	tests := []struct {
		name      string
		threshold string
		wantErr   bool
	}{
		{"below threshold", "70", true},
		{"at threshold", "50", false},
		{"above threshold", "40", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "analyze", "--summary", summary, "--fail-under", tt.threshold, "--quiet")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBelowThreshold)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnalyzeInputErrors(t *testing.T) {
	dir := t.TempDir()
	summary := writeFile(t, dir, "results.json", runReport)
	history := writeFile(t, dir, "history.json", `{"pays with card": ["passed", "failed"]}`)

	_, err := execute(t, "analyze", "--summary", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = execute(t, "analyze", "--summary", summary, "--history", history, "--stored-history")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad := writeFile(t, dir, "bad.json", `[1, 2, 3]`)
	_, err = execute(t, "analyze", "--summary", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnalyzeWithHistoryFile(t *testing.T) {
	dir := t.TempDir()
	summary := writeFile(t, dir, "results.json", runReport)
	history := writeFile(t, dir, "history.json", `{
  "pays with card": ["passed", "failed", "passed", "failed", "passed", "failed"],
  "adds item to cart": ["passed", "passed", "passed", "passed", "passed"],
  "broken": ["unknown"]
}`)
	reportPath := filepath.Join(dir, "report.json")

	_, err := execute(t, "analyze", "--summary", summary, "--history", history, "--out", reportPath, "--quiet")
	require.NoError(t, err)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report domain.HealthReport
	require.NoError(t, json.Unmarshal(data, &report))

	require.Len(t, report.FlakyTests, 1)
	assert.Equal(t, "pays with card", report.FlakyTests[0].TestName)
	assert.Equal(t, 1, report.Omissions.Count)
}

func TestHistoryRecordAndShow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "th.db")
	summary := writeFile(t, dir, "results.json", runReport)

	out, err := execute(t, "history", "record", "--summary", summary, "--source", "ci-42", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded run")

	out, err = execute(t, "history", "show", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded Runs")
	assert.Contains(t, out, "ci-42")

	out, err = execute(t, "history", "show", "--tests", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "pays with card")
	assert.Contains(t, out, "1/1")
}

func TestAnalyzeRecordsIntoStore(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "th.db")
	summary := writeFile(t, dir, "results.json", runReport)

	out, err := execute(t, "analyze", "--summary", summary, "--stored-history", "--record", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded run in")

	out, err = execute(t, "history", "reports", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored Reports")
	assert.Contains(t, out, "statistical-only")

	out, err = execute(t, "history", "show", "--db", db)
	require.NoError(t, err)
	assert.NotContains(t, out, "No runs recorded yet")
}

func TestHistoryShowEmpty(t *testing.T) {
	out, err := execute(t, "history", "show", "--db", filepath.Join(t.TempDir(), "th.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: "+version)
	assert.Contains(t, out, "Engine: statistical-only")
}
