// Package pipeline composes extraction, retrieval, and scoring into one
// screening pass.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/shortlist/internal/models"
	"github.com/hyperjump/shortlist/internal/retriever"
)

// TextExtractor turns a resume file path into raw text.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Explainer produces a match explanation for one (job, resume) pair.
type Explainer interface {
	Explain(ctx context.Context, jobText, resumeText string) (string, error)
}

// Pipeline runs one screening pass: extract resumes, rank them against the
// job description, and annotate the top matches with explanations. It holds
// no state between runs; each Run owns its corpus and index.
type Pipeline struct {
	extractor TextExtractor
	retriever *retriever.Retriever
	scorer    Explainer
	workers   int
	logger    *zap.Logger // optional
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for per-stage debug output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithScoringWorkers sets how many explanations are generated concurrently.
// Output order is always similarity-rank order regardless of completion order.
func WithScoringWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewPipeline creates a pipeline from its three stages.
func NewPipeline(extractor TextExtractor, r *retriever.Retriever, scorer Explainer, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		retriever: r,
		scorer:    scorer,
		workers:   1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run screens resumePaths against jobText and returns the top-k matches in
// similarity-rank order, each annotated with an explanation when generation
// succeeded. Per-document failures (extraction, embedding, scoring) are
// recorded in the report's Skipped list and never abort the run; a blank job
// description, negative k, or a query embedding failure is fatal.
func (p *Pipeline) Run(ctx context.Context, jobText string, resumePaths []string, k int) (*models.ScreeningReport, error) {
	start := time.Now()

	corpus := models.NewCorpus()
	var skipped []*models.SkippedDocument
	for _, path := range resumePaths {
		text, err := p.extractor.Extract(path)
		if err != nil {
			if p.logger != nil {
				p.logger.Debug("extraction failed, skipping",
					zap.String("path", path), zap.Error(err))
			}
			skipped = append(skipped, &models.SkippedDocument{
				DocumentID: path,
				Stage:      models.StageExtract,
				Reason:     err.Error(),
			})
			continue
		}
		corpus.Add(models.NewDocument(path, text))
	}

	query := &models.Query{Text: jobText, K: k}
	results, embedSkipped, err := p.retriever.Retrieve(ctx, query, corpus)
	if err != nil {
		return nil, err
	}
	skipped = append(skipped, embedSkipped...)

	skipped = append(skipped, p.explainAll(ctx, corpus, jobText, results)...)

	return &models.ScreeningReport{
		Results:   results,
		Skipped:   skipped,
		JobText:   jobText,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// explainAll annotates results in place, generating up to p.workers
// explanations concurrently. Results keep their rank positions; a scoring
// failure leaves the explanation absent and records the reason.
func (p *Pipeline) explainAll(ctx context.Context, corpus *models.Corpus, jobText string, results []*models.MatchResult) []*models.SkippedDocument {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		skipped []*models.SkippedDocument
	)
	sem := make(chan struct{}, p.workers)
	for _, res := range results {
		doc := corpus.Get(res.DocumentID)
		if doc == nil {
			continue
		}
		wg.Add(1)
		go func(res *models.MatchResult, resumeText string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			explanation, err := p.scorer.Explain(ctx, jobText, resumeText)
			if err != nil {
				if p.logger != nil {
					p.logger.Debug("scoring failed, explanation absent",
						zap.String("id", res.DocumentID), zap.Error(err))
				}
				mu.Lock()
				skipped = append(skipped, &models.SkippedDocument{
					DocumentID: res.DocumentID,
					Stage:      models.StageScore,
					Reason:     err.Error(),
				})
				mu.Unlock()
				return
			}
			res.Explanation = explanation
			res.HasExplanation = true
		}(res, doc.Text)
	}
	wg.Wait()
	return skipped
}
