package scorer

import "context"

// KeywordScorer explains matches by keyword overlap alone, without calling a
// generative model. It is the fallback used when no API key is configured.
type KeywordScorer struct {
	maxChars int
}

// NewKeywordScorer creates an offline keyword-overlap scorer.
func NewKeywordScorer(opts ...Option) *KeywordScorer {
	// Reuse Scorer options for the length bound; other options are ignored.
	s := &Scorer{maxChars: defaultMaxExplanationChars}
	for _, opt := range opts {
		opt(s)
	}
	return &KeywordScorer{maxChars: s.maxChars}
}

// Explain returns the deterministic keyword-overlap explanation.
func (s *KeywordScorer) Explain(_ context.Context, jobText, resumeText string) (string, error) {
	return bound(fallbackExplanation(jobText, resumeText), s.maxChars), nil
}
