package models

// MatchResult is a single ranked match: one retrieved resume with its
// similarity to the job description and, once scoring has run, an
// explanation. Explanation stays empty and HasExplanation false when
// generation failed for this document.
type MatchResult struct {
	DocumentID      string  `json:"document_id"`
	Similarity      float64 `json:"similarity_score"`
	Explanation     string  `json:"explanation,omitempty"`
	HasExplanation  bool    `json:"has_explanation"`
	Rank            int     `json:"rank"`
}

// Skip stages identify where in the pipeline a document was dropped.
const (
	StageExtract = "extract"
	StageEmbed   = "embed"
	StageScore   = "score"
)

// SkippedDocument records a document excluded from results and why.
// Scoring failures appear here too even though the document stays ranked.
type SkippedDocument struct {
	DocumentID string `json:"document_id"`
	Stage      string `json:"stage"`
	Reason     string `json:"reason"`
}

// ScreeningReport is the pipeline output: the ranked, annotated matches
// plus every document that failed along the way with a recorded reason.
type ScreeningReport struct {
	Results   []*MatchResult     `json:"results"`
	Skipped   []*SkippedDocument `json:"skipped,omitempty"`
	JobText   string             `json:"job_text,omitempty"`
	QueryTime int64              `json:"query_time_ms"`
}
