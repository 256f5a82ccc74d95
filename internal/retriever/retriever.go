// Package retriever ranks a resume corpus against a job description by
// embedding similarity.
package retriever

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/shortlist/internal/embedding"
	"github.com/hyperjump/shortlist/internal/models"
	"github.com/hyperjump/shortlist/internal/vector"
)

// ErrQueryEmbedding is returned when the job description itself cannot be
// embedded. Unlike per-resume failures this aborts the whole retrieval.
var ErrQueryEmbedding = errors.New("failed to embed job description")

// Retriever embeds the query and corpus and returns the top-k matches.
// The vector index is rebuilt from the corpus on every call; it is derived
// data and never outlives a retrieval.
type Retriever struct {
	embedder embedding.Embedder
	logger   *zap.Logger // optional; when set, logs skipped documents
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever using the given embedder.
func NewRetriever(embedder embedding.Embedder, opts ...Option) *Retriever {
	r := &Retriever{embedder: embedder}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve embeds the query text once, embeds every corpus document that does
// not already carry an embedding (memoized on the Document, never recomputed),
// rebuilds the index, and returns up to query.K matches ordered by descending
// similarity with ties broken by corpus insertion order.
//
// A resume whose embedding fails is skipped and recorded; it never aborts the
// batch. A query embedding failure is fatal and wraps ErrQueryEmbedding.
// An empty corpus yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query *models.Query, corpus *models.Corpus) ([]*models.MatchResult, []*models.SkippedDocument, error) {
	if err := query.Validate(); err != nil {
		return nil, nil, err
	}
	if corpus == nil || corpus.Len() == 0 {
		return []*models.MatchResult{}, nil, nil
	}

	queryEmb, err := r.embedder.Embed(ctx, query.Text)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrQueryEmbedding, err)
	}
	query.Embedding = queryEmb

	index, err := vector.NewMemoryIndex(r.embedder.Dimensions())
	if err != nil {
		return nil, nil, fmt.Errorf("create index: %w", err)
	}
	defer index.Close()

	var skipped []*models.SkippedDocument
	for _, doc := range corpus.Documents() {
		if !doc.HasEmbedding() {
			emb, err := r.embedder.Embed(ctx, doc.Text)
			if err != nil {
				if r.logger != nil {
					r.logger.Debug("resume embedding failed, skipping",
						zap.String("id", doc.ID), zap.Error(err))
				}
				skipped = append(skipped, &models.SkippedDocument{
					DocumentID: doc.ID,
					Stage:      models.StageEmbed,
					Reason:     err.Error(),
				})
				continue
			}
			doc.SetEmbedding(emb)
		}
		if err := index.Add(ctx, doc.ID, doc.Embedding); err != nil {
			skipped = append(skipped, &models.SkippedDocument{
				DocumentID: doc.ID,
				Stage:      models.StageEmbed,
				Reason:     err.Error(),
			})
		}
	}

	k := query.K
	if k > index.Size() {
		k = index.Size()
	}
	hits, err := index.Search(ctx, query.Embedding, k)
	if err != nil {
		return nil, skipped, fmt.Errorf("index search: %w", err)
	}

	results := make([]*models.MatchResult, 0, len(hits))
	for i, hit := range hits {
		results = append(results, &models.MatchResult{
			DocumentID: hit.ID,
			Similarity: hit.Score,
			Rank:       i + 1,
		})
	}
	return results, skipped, nil
}
