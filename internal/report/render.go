package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/webbench/internal/stresstest"
	"github.com/studiowebux/webbench/internal/types"
)

// Format selects how a report is written
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleBorder = lipgloss.NewStyle().Foreground(colorGray)
)

// Columns of the table view
var Columns = []string{
	"framework",
	"endpoint",
	"total_requests",
	"concurrency",
	"total_time_ms",
	"avg_response_time_ms",
	"requests_per_second",
	"success_rate_pct",
}

const successRateColumn = 7

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q (expected table, json or yaml)", stresstest.ErrConfiguration, s)
	}
}

// Render writes the report in the requested format
func Render(w io.Writer, report *types.ComparisonReport, format Format) error {
	if report == nil {
		report = &types.ComparisonReport{}
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case FormatYAML:
		data, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err

	case FormatTable, "":
		_, err := fmt.Fprintln(w, renderTable(report))
		return err

	default:
		return fmt.Errorf("%w: unknown output format %q", stresstest.ErrConfiguration, format)
	}
}

// Row formats one summary for the table view. Counts are integers,
// everything else is rounded to two decimals.
func Row(s types.AggregatedStats) []string {
	return []string{
		s.Framework,
		s.Endpoint,
		strconv.Itoa(s.TotalRequests),
		strconv.Itoa(s.Concurrency),
		formatFloat(s.TotalTimeMs),
		formatFloat(s.AvgResponseTimeMs),
		formatFloat(s.RequestsPerSecond),
		formatFloat(s.SuccessRatePct),
	}
}

func renderTable(report *types.ComparisonReport) string {
	rows := make([][]string, 0, report.Len())
	for _, s := range report.Rows {
		rows = append(rows, Row(s))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleBorder).
		Headers(Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == successRateColumn && row >= 0 && row < len(report.Rows) {
				return styleCell.Foreground(successColor(report.Rows[row].SuccessRatePct))
			}
			return styleCell
		})

	return t.String()
}

// successColor highlights runs that dropped requests
func successColor(pct float64) lipgloss.TerminalColor {
	switch {
	case pct >= 100:
		return colorGreen
	case pct >= 90:
		return colorYellow
	default:
		return colorRed
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
