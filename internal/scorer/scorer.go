package scorer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hyperjump/shortlist/pkg/utils"
)

// ErrGeneration is returned when the model fails on both the initial call
// and the single retry. The caller records it and leaves the explanation
// absent rather than failing the whole run.
var ErrGeneration = errors.New("explanation generation failed")

const (
	defaultMaxExplanationChars = 1200
	defaultCallTimeout         = 60 * time.Second
	// Model output shorter than this is treated as trivial and replaced by
	// the keyword-overlap fallback.
	minUsefulLength = 20
	maxLogPreview   = 200
)

// numericOnly matches output that is nothing but a number ("7", "8.5").
var numericOnly = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Scorer asks a generative model how well a resume matches a job description
// and returns a bounded natural-language explanation.
type Scorer struct {
	generator Generator
	maxChars  int
	timeout   time.Duration
	logger    *zap.Logger // optional
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithLogger sets a logger for request/response debug previews.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// WithMaxChars bounds the explanation length in runes.
func WithMaxChars(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// WithTimeout sets the per-call timeout applied to each model invocation.
func WithTimeout(d time.Duration) Option {
	return func(s *Scorer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewScorer creates a scorer using the given generator.
func NewScorer(generator Generator, opts ...Option) *Scorer {
	s := &Scorer{
		generator: generator,
		maxChars:  defaultMaxExplanationChars,
		timeout:   defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Explain generates an explanation of how well resumeText matches jobText.
// The model is invoked with a constructed prompt; a failed call is retried
// once with the same input, and a second failure returns ErrGeneration.
// Trivial output (empty, purely numeric, or shorter than 20 characters) is
// replaced by a deterministic keyword-overlap explanation. The returned
// string never exceeds the configured maximum length.
func (s *Scorer) Explain(ctx context.Context, jobText, resumeText string) (string, error) {
	prompt := buildPrompt(jobText, resumeText)

	if s.logger != nil {
		s.logger.Debug("explanation request",
			zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
			zap.String("prompt_preview", utils.Truncate(prompt, maxLogPreview)),
		)
	}

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		// Retry once with the same input.
		raw, err = s.generate(ctx, prompt)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	raw = strings.TrimSpace(raw)
	if isTrivial(raw) {
		if s.logger != nil {
			s.logger.Debug("model output trivial, using keyword fallback",
				zap.String("raw", raw))
		}
		raw = fallbackExplanation(jobText, resumeText)
	}

	if s.logger != nil {
		s.logger.Debug("explanation response",
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.Truncate(raw, maxLogPreview)),
		)
	}
	return bound(raw, s.maxChars), nil
}

func (s *Scorer) generate(ctx context.Context, prompt string) (string, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.generator.GenerateContent(callCtx, prompt)
}

// buildPrompt combines the job description and resume into the evaluation prompt.
func buildPrompt(jobText, resumeText string) string {
	var b strings.Builder
	b.WriteString("Job Description:\n")
	b.WriteString(strings.TrimSpace(jobText))
	b.WriteString("\n\nResume:\n")
	b.WriteString(strings.TrimSpace(resumeText))
	b.WriteString("\n\nQuestion: On a scale of 0 to 10, how well does this resume match the job description? ")
	b.WriteString("Provide a concise rating and a brief explanation in natural language. ")
	b.WriteString("Begin the explanation with a phrase like \"The resume shows...\" if positive match, ")
	b.WriteString("or \"The resume lacks...\" if weak match. ")
	b.WriteString("Format example: \"Rating: 8/10. The resume shows strong Python and ML experience, including ...\"")
	return b.String()
}

// isTrivial reports whether model output is unusable: empty, a bare number,
// or too short to explain anything.
func isTrivial(s string) bool {
	if s == "" {
		return true
	}
	if numericOnly.MatchString(s) {
		return true
	}
	return utf8.RuneCountInString(s) < minUsefulLength
}

// bound cuts s to at most max runes.
func bound(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
