// Package cli provides CLI utilities for Shortlist.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/shortlist/internal/models"
)

// ReportOutputFormat is the format for screening report output.
type ReportOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText ReportOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON ReportOutputFormat = "json"
)

// WriteReport writes a screening report to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteReport(w io.Writer, report *models.ScreeningReport, format ReportOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		writeReportText(w, report)
		return nil
	}
}

func writeReportText(w io.Writer, report *models.ScreeningReport) {
	fmt.Fprintf(w, "\nTop %d candidates in %dms (%d skipped)\n\n",
		len(report.Results), report.QueryTime, len(report.Skipped))
	for _, result := range report.Results {
		writeOneResult(w, result)
	}
	if len(report.Skipped) > 0 {
		fmt.Fprintln(w, "--- Skipped ---")
		for _, skipped := range report.Skipped {
			fmt.Fprintf(w, "%s (%s): %s\n", skipped.DocumentID, skipped.Stage, skipped.Reason)
		}
		fmt.Fprintln(w)
	}
}

func writeOneResult(w io.Writer, result *models.MatchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Similarity: %.4f\n", result.Rank, result.Similarity)
	fmt.Fprintf(w, "Resume: %s\n", result.DocumentID)
	if result.HasExplanation {
		fmt.Fprintf(w, "\n%s\n", result.Explanation)
	} else {
		fmt.Fprintf(w, "\n(no explanation available)\n")
	}
	fmt.Fprintln(w)
}

// PrintReport prints a screening report to stdout in text format.
func PrintReport(report *models.ScreeningReport) {
	_ = WriteReport(os.Stdout, report, OutputText)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
