package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/shortlist/internal/models"
)

func sampleReport() *models.ScreeningReport {
	return &models.ScreeningReport{
		QueryTime: 42,
		Results: []*models.MatchResult{
			{
				DocumentID:     "backend.pdf",
				Similarity:     0.9123,
				Explanation:    "Rating: 9/10. The resume shows strong backend experience.",
				HasExplanation: true,
				Rank:           1,
			},
			{
				DocumentID:     "designer.pdf",
				Similarity:     0.4411,
				HasExplanation: false,
				Rank:           2,
			},
		},
		Skipped: []*models.SkippedDocument{
			{DocumentID: "broken.pdf", Stage: models.StageExtract, Reason: "open PDF: bad header"},
		},
	}
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), OutputJSON); err != nil {
		t.Fatalf("WriteReport(json): %v", err)
	}
	var decoded models.ScreeningReport
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].DocumentID != "backend.pdf" {
		t.Errorf("decoded results: %+v", decoded.Results)
	}
	if decoded.QueryTime != 42 {
		t.Errorf("query_time_ms = %d, want 42", decoded.QueryTime)
	}
}

func TestWriteReport_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), OutputText); err != nil {
		t.Fatalf("WriteReport(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{
		"Top 2 candidates", "42ms", "1 skipped",
		"Rank: 1", "Similarity: 0.9123", "backend.pdf",
		"Rating: 9/10", "(no explanation available)",
		"broken.pdf (extract): open PDF: bad header",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteReport_text_noSkipped(t *testing.T) {
	report := sampleReport()
	report.Skipped = nil
	var buf bytes.Buffer
	if err := WriteReport(&buf, report, OutputText); err != nil {
		t.Fatalf("WriteReport(text): %v", err)
	}
	if strings.Contains(buf.String(), "--- Skipped ---") {
		t.Error("skipped section should be omitted when nothing was skipped")
	}
}

func TestWriteReport_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleReport(), ReportOutputFormat("unknown")); err != nil {
		t.Fatalf("WriteReport(unknown): %v", err)
	}
	if !strings.Contains(buf.String(), "Top 2 candidates") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"single long", "word", 1, "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
