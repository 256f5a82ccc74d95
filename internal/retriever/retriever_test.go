package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/shortlist/internal/embedding"
	"github.com/hyperjump/shortlist/internal/models"
	"github.com/hyperjump/shortlist/pkg/utils"
)

// bowEmbedder is a bag-of-words test embedder: token counts hashed into a
// fixed number of buckets, L2-normalized. Texts sharing vocabulary get a
// higher cosine similarity, so ranking reflects term overlap.
type bowEmbedder struct {
	dims  int
	calls map[string]int
}

func newBOWEmbedder(dims int) *bowEmbedder {
	return &bowEmbedder{dims: dims, calls: make(map[string]int)}
}

func (e *bowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, embedding.ErrEmptyInput
	}
	e.calls[text]++
	vec := make([]float32, e.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		vec[embedding.HashString(tok)%e.dims]++
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

// failingEmbedder fails for one specific text and delegates otherwise.
type failingEmbedder struct {
	*bowEmbedder
	failText string
}

func (e *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == e.failText {
		return nil, errors.New("model produced garbage")
	}
	return e.bowEmbedder.Embed(ctx, text)
}

func TestRetrieve_BackendResumeRanksFirst(t *testing.T) {
	ctx := context.Background()
	emb := newBOWEmbedder(64)
	r := NewRetriever(emb)

	corpus := models.NewCorpus()
	corpus.Add(models.NewDocument("designer.txt",
		"Graphic design portfolio covering typography branding illustration and layout"))
	corpus.Add(models.NewDocument("backend.txt",
		"Senior backend engineer built distributed systems with Go, gRPC and Kafka; "+
			"distributed consensus and systems experience"))

	query := &models.Query{Text: "Senior backend engineer with distributed systems experience", K: 2}
	results, skipped, err := r.Retrieve(ctx, query, corpus)
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Fatalf("unexpected skips: %+v", skipped[0])
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d", len(results))
	}
	if results[0].DocumentID != "backend.txt" {
		t.Errorf("top match = %s, want backend.txt", results[0].DocumentID)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not ordered by descending similarity")
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Errorf("ranks = %d, %d", results[0].Rank, results[1].Rank)
	}
}

func TestRetrieve_KClampedToCorpusSize(t *testing.T) {
	ctx := context.Background()
	r := NewRetriever(newBOWEmbedder(32))
	corpus := models.NewCorpus()
	corpus.Add(models.NewDocument("a.txt", "golang developer"))
	corpus.Add(models.NewDocument("b.txt", "java developer"))

	results, _, err := r.Retrieve(ctx, &models.Query{Text: "golang", K: 50}, corpus)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want corpus size 2", len(results))
	}
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	r := NewRetriever(newBOWEmbedder(32))
	results, skipped, err := r.Retrieve(context.Background(),
		&models.Query{Text: "anything", K: 3}, models.NewCorpus())
	if err != nil {
		t.Fatalf("empty corpus should not error: %v", err)
	}
	if len(results) != 0 || len(skipped) != 0 {
		t.Errorf("results=%d skipped=%d", len(results), len(skipped))
	}
}

func TestRetrieve_InvalidQuery(t *testing.T) {
	r := NewRetriever(newBOWEmbedder(32))
	corpus := models.NewCorpus()
	corpus.Add(models.NewDocument("a.txt", "text"))
	if _, _, err := r.Retrieve(context.Background(), &models.Query{Text: "  "}, corpus); err == nil {
		t.Error("expected error for blank query")
	}
}

func TestRetrieve_QueryEmbeddingFailureIsFatal(t *testing.T) {
	emb := &failingEmbedder{bowEmbedder: newBOWEmbedder(32), failText: "the job"}
	r := NewRetriever(emb)
	corpus := models.NewCorpus()
	corpus.Add(models.NewDocument("a.txt", "fine resume"))

	_, _, err := r.Retrieve(context.Background(), &models.Query{Text: "the job", K: 1}, corpus)
	if !errors.Is(err, ErrQueryEmbedding) {
		t.Errorf("err = %v, want ErrQueryEmbedding", err)
	}
}

func TestRetrieve_BadResumeIsSkippedNotFatal(t *testing.T) {
	ctx := context.Background()
	emb := &failingEmbedder{bowEmbedder: newBOWEmbedder(32), failText: "corrupt resume"}
	r := NewRetriever(emb)

	corpus := models.NewCorpus()
	corpus.Add(models.NewDocument("good.txt", "golang backend services"))
	corpus.Add(models.NewDocument("bad.txt", "corrupt resume"))

	results, skipped, err := r.Retrieve(ctx, &models.Query{Text: "golang backend", K: 5}, corpus)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DocumentID != "good.txt" {
		t.Fatalf("results = %+v", results)
	}
	if len(skipped) != 1 || skipped[0].DocumentID != "bad.txt" || skipped[0].Stage != models.StageEmbed {
		t.Fatalf("skipped = %+v", skipped)
	}
	if skipped[0].Reason == "" {
		t.Error("skip must record a reason")
	}
}

func TestRetrieve_EmbeddingMemoized(t *testing.T) {
	ctx := context.Background()
	emb := newBOWEmbedder(32)
	r := NewRetriever(emb)

	corpus := models.NewCorpus()
	corpus.Add(models.NewDocument("a.txt", "golang backend services"))

	query := &models.Query{Text: "golang", K: 1}
	if _, _, err := r.Retrieve(ctx, query, corpus); err != nil {
		t.Fatal(err)
	}
	// Same corpus again: document embedding must come from the Document.
	if _, _, err := r.Retrieve(ctx, &models.Query{Text: "golang", K: 1}, corpus); err != nil {
		t.Fatal(err)
	}
	if got := emb.calls["golang backend services"]; got != 1 {
		t.Errorf("document embedded %d times, want 1", got)
	}
}
