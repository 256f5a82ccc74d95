package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/shortlist/internal/extract"
	"github.com/hyperjump/shortlist/internal/models"
	"github.com/hyperjump/shortlist/internal/retriever"
	"github.com/hyperjump/shortlist/pkg/utils"
)

// bowEmbedder mirrors term overlap into cosine similarity for ranking tests.
type bowEmbedder struct{ dims int }

func (e *bowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty input")
	}
	vec := make([]float32, e.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := 0
		for _, c := range tok {
			h = 31*h + int(c)
		}
		if h < 0 {
			h = -h
		}
		vec[h%e.dims]++
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

func (e *bowEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *bowEmbedder) Dimensions() int { return e.dims }
func (e *bowEmbedder) Close() error    { return nil }

// echoScorer returns a fixed-shape explanation naming the resume.
type echoScorer struct{}

func (echoScorer) Explain(ctx context.Context, jobText, resumeText string) (string, error) {
	return "Rating: 8/10. The resume shows relevant experience.", nil
}

// failingScorer always fails.
type failingScorer struct{}

func (failingScorer) Explain(ctx context.Context, jobText, resumeText string) (string, error) {
	return "", errors.New("generation failed after retry")
}

func writeResume(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestPipeline(scorer Explainer, opts ...Option) *Pipeline {
	r := retriever.NewRetriever(&bowEmbedder{dims: 64})
	return NewPipeline(extract.NewExtractor(), r, scorer, opts...)
}

func TestRun_RanksAndAnnotates(t *testing.T) {
	dir := t.TempDir()
	backend := writeResume(t, dir, "backend.txt",
		"Senior backend engineer distributed systems golang grpc kafka")
	designer := writeResume(t, dir, "designer.txt",
		"Graphic design typography branding illustration")

	p := newTestPipeline(echoScorer{})
	report, err := p.Run(context.Background(),
		"Senior backend engineer with distributed systems experience",
		[]string{designer, backend}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("results = %d", len(report.Results))
	}
	if report.Results[0].DocumentID != backend {
		t.Errorf("top match = %s, want %s", report.Results[0].DocumentID, backend)
	}
	for i, res := range report.Results {
		if !res.HasExplanation {
			t.Errorf("result %d missing explanation", i)
		}
		if res.Rank != i+1 {
			t.Errorf("result %d rank = %d", i, res.Rank)
		}
	}
	if len(report.Skipped) != 0 {
		t.Errorf("skipped = %+v", report.Skipped)
	}
}

func TestRun_UnreadableFileSkippedWithReason(t *testing.T) {
	dir := t.TempDir()
	good := writeResume(t, dir, "good.txt", "golang backend developer")
	missing := filepath.Join(dir, "missing.pdf")

	p := newTestPipeline(echoScorer{})
	report, err := p.Run(context.Background(), "golang backend", []string{good, missing}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 1 || report.Results[0].DocumentID != good {
		t.Fatalf("results = %+v", report.Results)
	}
	if len(report.Skipped) != 1 {
		t.Fatalf("skipped = %+v", report.Skipped)
	}
	if report.Skipped[0].DocumentID != missing || report.Skipped[0].Stage != models.StageExtract {
		t.Errorf("skip entry = %+v", report.Skipped[0])
	}
	if report.Skipped[0].Reason == "" {
		t.Error("skip must record a reason")
	}
}

func TestRun_ScoringFailureKeepsRanking(t *testing.T) {
	dir := t.TempDir()
	path := writeResume(t, dir, "r.txt", "golang backend developer")

	p := newTestPipeline(failingScorer{})
	report, err := p.Run(context.Background(), "golang backend", []string{path}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("results = %d", len(report.Results))
	}
	res := report.Results[0]
	if res.HasExplanation || res.Explanation != "" {
		t.Errorf("explanation should be absent: %+v", res)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Stage != models.StageScore {
		t.Fatalf("skipped = %+v", report.Skipped)
	}
}

func TestRun_BlankJobTextIsFatal(t *testing.T) {
	p := newTestPipeline(echoScorer{})
	if _, err := p.Run(context.Background(), "  ", nil, 3); err == nil {
		t.Error("expected error for blank job description")
	}
}

func TestRun_NoResumes(t *testing.T) {
	p := newTestPipeline(echoScorer{})
	report, err := p.Run(context.Background(), "golang backend", nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 0 {
		t.Errorf("results = %d", len(report.Results))
	}
}

func TestRun_ParallelScoringPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 6)
	for i := range paths {
		// Vary overlap so similarity strictly decreases with i.
		content := "golang backend" + strings.Repeat(" filler", i)
		paths[i] = writeResume(t, dir, fmt.Sprintf("r%d.txt", i), content)
	}

	p := newTestPipeline(echoScorer{}, WithScoringWorkers(4))
	report, err := p.Run(context.Background(), "golang backend", paths, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 6 {
		t.Fatalf("results = %d", len(report.Results))
	}
	for i := 1; i < len(report.Results); i++ {
		if report.Results[i-1].Similarity < report.Results[i].Similarity {
			t.Errorf("results out of order at %d", i)
		}
	}
	for i, res := range report.Results {
		if res.Rank != i+1 {
			t.Errorf("rank[%d] = %d", i, res.Rank)
		}
		if !res.HasExplanation {
			t.Errorf("result %d missing explanation", i)
		}
	}
}
