package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/example/testhealth/health/domain"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

var out io.Writer = os.Stdout

// SetOutput redirects all ui output. Tests use it to capture output.
func SetOutput(w io.Writer) {
	out = w
}

// PrintHeader prints a section header
func PrintHeader(title string) {
	line := strings.Repeat("=", len(title)+4)
	fmt.Fprintf(out, "\n%s\n%s\n%s\n\n",
		headerStyle.Render(line),
		headerStyle.Render("  "+title+"  "),
		headerStyle.Render(line))
}

// PrintStep prints a step in progress
func PrintStep(message string) {
	fmt.Fprintf(out, "%s %s\n", stepStyle.Render("▶"), message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(out, "%s %s\n", successStyle.Render("✓"), message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(out, "%s %s\n", errorStyle.Render("✗"), message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(out, "%s %s\n", warningStyle.Render("⚠"), message)
}

// PrintInfo prints an informational message
func PrintInfo(message string) {
	fmt.Fprintf(out, "  %s\n", message)
}

// trendStyle colors a trend band.
func trendStyle(t domain.HealthTrend) lipgloss.Style {
	switch t {
	case domain.HealthExcellent:
		return successStyle
	case domain.HealthStable:
		return stepStyle
	case domain.HealthDegrading:
		return warningStyle
	default:
		return errorStyle
	}
}

// PrintScore prints the boxed health score headline of a report.
func PrintScore(r *domain.HealthReport) {
	style := trendStyle(r.Trend)
	body := fmt.Sprintf("%s %s\n%s %s\n%s %s",
		boldStyle.Render("Health score:"), style.Render(fmt.Sprintf("%d/100", r.HealthScore)),
		boldStyle.Render("Trend:       "), style.Render(string(r.Trend)),
		boldStyle.Render("Engine:      "), r.Engine)
	fmt.Fprintln(out, boxStyle.BorderForeground(style.GetForeground()).Render(body))
}

// PrintReport prints a terminal summary of a report.
func PrintReport(r *domain.HealthReport) {
	PrintHeader("Test Health Report")
	PrintScore(r)
	fmt.Fprintln(out)

	s := r.Summary
	PrintInfo(fmt.Sprintf("Tests: %d total, %d passed, %d failed (%.1f%%)",
		s.TotalTests, s.PassedTests, s.FailedTests, r.PassRate))
	PrintInfo(fmt.Sprintf("Failures analyzed: %d", s.TotalFailuresAnalyzed))
	PrintInfo(fmt.Sprintf("Flaky tests: %d", s.FlakyTestsDetected))
	PrintInfo(fmt.Sprintf("Performance anomalies: %d", s.PerformanceAnomalies))
	PrintInfo(fmt.Sprintf("Root causes: %d", s.RootCausesIdentified))

	if len(r.FlakyTests) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(r.FlakyTests))
		for _, f := range r.FlakyTests {
			rows = append(rows, []string{
				f.TestName,
				fmt.Sprintf("%.3f", f.FlakinessScore),
				fmt.Sprintf("%.1f%%", f.PassRatePercent),
				string(f.Recommendation),
			})
		}
		PrintTable([]string{"FLAKY TEST", "SCORE", "PASS RATE", "ACTION"}, rows)
	}

	if len(r.Anomalies) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(r.Anomalies))
		for _, a := range r.Anomalies {
			rows = append(rows, []string{
				a.TestName,
				fmt.Sprintf("%.0fms", a.DurationMs),
				fmt.Sprintf("%+.1f%%", a.DeviationPercent),
				string(a.Severity),
			})
		}
		PrintTable([]string{"SLOW TEST", "DURATION", "DEVIATION", "SEVERITY"}, rows)
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(out)
		PrintInfo(boldStyle.Render("Recommendations:"))
		for _, rec := range r.Recommendations {
			PrintInfo(fmt.Sprintf("P%d %s %s", rec.Priority, rec.Title, mutedStyle.Render("("+string(rec.Impact)+")")))
		}
	}

	if r.Omissions.Count > 0 {
		fmt.Fprintln(out)
		PrintWarning(fmt.Sprintf("%d malformed input records were skipped", r.Omissions.Count))
	}
}

// PrintTable prints a simple table
func PrintTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for i, h := range headers {
		fmt.Fprint(out, pad(boldStyle.Render(h), widths[i])+"  ")
	}
	fmt.Fprintln(out)

	for _, w := range widths {
		fmt.Fprint(out, strings.Repeat("-", w)+"  ")
	}
	fmt.Fprintln(out)

	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprint(out, pad(cell, widths[i])+"  ")
		}
		fmt.Fprintln(out)
	}
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
