package models

import (
	"fmt"
	"strings"
)

// DefaultTopK is the number of matches returned when a query does not set K.
const DefaultTopK = 3

// Query represents one screening request: a job description and how many
// matches to return. Embedding is populated by the retriever.
type Query struct {
	Text      string    `json:"text"`
	K         int       `json:"k,omitempty"`
	Embedding []float32 `json:"-"`
}

// Validate ensures the query has usable fields and applies the default K.
// Returns an error for blank job text or an explicitly non-positive K;
// K larger than the corpus is clamped later, at retrieval time.
func (q *Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("job description cannot be empty")
	}
	if q.K == 0 {
		q.K = DefaultTopK
	}
	if q.K < 0 {
		return fmt.Errorf("k must be positive, got %d", q.K)
	}
	return nil
}
