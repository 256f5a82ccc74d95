package models

import "testing"

func TestQuery_Validate(t *testing.T) {
	q := &Query{Text: "backend engineer"}
	if err := q.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if q.K != DefaultTopK {
		t.Errorf("default K = %d, want %d", q.K, DefaultTopK)
	}

	q = &Query{Text: "   \n\t "}
	if err := q.Validate(); err == nil {
		t.Error("expected error for blank job text")
	}

	q = &Query{Text: "x", K: -1}
	if err := q.Validate(); err == nil {
		t.Error("expected error for negative k")
	}
}

func TestCorpus_InsertionOrder(t *testing.T) {
	c := NewCorpus()
	c.Add(NewDocument("b.pdf", "bravo"))
	c.Add(NewDocument("a.pdf", "alpha"))
	c.Add(NewDocument("c.pdf", "charlie"))

	docs := c.Documents()
	if len(docs) != 3 {
		t.Fatalf("len = %d", len(docs))
	}
	if docs[0].ID != "b.pdf" || docs[2].ID != "c.pdf" {
		t.Errorf("insertion order not preserved: %v %v", docs[0].ID, docs[2].ID)
	}
	if c.Position("a.pdf") != 1 {
		t.Errorf("Position(a.pdf) = %d", c.Position("a.pdf"))
	}
	if c.Position("missing") != -1 {
		t.Errorf("Position(missing) = %d", c.Position("missing"))
	}
}

func TestCorpus_DuplicateIDReplacesInPlace(t *testing.T) {
	c := NewCorpus()
	c.Add(NewDocument("r.txt", "old"))
	c.Add(NewDocument("other.txt", "x"))
	c.Add(NewDocument("r.txt", "new"))

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if got := c.Get("r.txt").Text; got != "new" {
		t.Errorf("Text = %q, want replacement", got)
	}
	if c.Position("r.txt") != 0 {
		t.Errorf("replacement moved position: %d", c.Position("r.txt"))
	}
}

func TestDocument_EmbeddingImmutable(t *testing.T) {
	d := NewDocument("r.txt", "text")
	if d.HasEmbedding() {
		t.Fatal("fresh document should have no embedding")
	}
	d.SetEmbedding([]float32{1, 2})
	d.SetEmbedding([]float32{9, 9})
	if d.Embedding[0] != 1 {
		t.Errorf("embedding was overwritten: %v", d.Embedding)
	}

	src := []float32{3, 4}
	d2 := NewDocument("s.txt", "text")
	d2.SetEmbedding(src)
	src[0] = 99
	if d2.Embedding[0] != 3 {
		t.Error("embedding aliases caller slice")
	}
}
