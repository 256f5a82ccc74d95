// Package models defines core data structures for resumes, queries, and match results.
package models

// Document represents one candidate resume loaded from a source file.
// The ID is the source path; Embedding stays nil until the retriever
// computes it and is never recomputed afterwards.
type Document struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
}

// NewDocument creates a document with no embedding yet.
func NewDocument(id, text string) *Document {
	return &Document{ID: id, Text: text}
}

// HasEmbedding reports whether the document's embedding has been computed.
func (d *Document) HasEmbedding() bool {
	return d.Embedding != nil
}

// SetEmbedding records the embedding for the document. The first write wins;
// a document is embedded once per load, re-embedding requires a new Document.
func (d *Document) SetEmbedding(emb []float32) {
	if d.Embedding != nil {
		return
	}
	vec := make([]float32, len(emb))
	copy(vec, emb)
	d.Embedding = vec
}

// Corpus is an ordered collection of documents with unique IDs.
// Insertion order is preserved and used for deterministic tie-breaking
// when two documents score identically.
type Corpus struct {
	docs []*Document
	byID map[string]int
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{byID: make(map[string]int)}
}

// Add appends a document. Adding a document with an existing ID replaces the
// previous one but keeps its original insertion position, matching the
// vector index's last-write-wins policy.
func (c *Corpus) Add(doc *Document) {
	if pos, ok := c.byID[doc.ID]; ok {
		c.docs[pos] = doc
		return
	}
	c.byID[doc.ID] = len(c.docs)
	c.docs = append(c.docs, doc)
}

// Get returns the document with the given ID, or nil.
func (c *Corpus) Get(id string) *Document {
	if pos, ok := c.byID[id]; ok {
		return c.docs[pos]
	}
	return nil
}

// Position returns the insertion position of id, or -1 if absent.
func (c *Corpus) Position(id string) int {
	if pos, ok := c.byID[id]; ok {
		return pos
	}
	return -1
}

// Documents returns documents in insertion order. The slice is shared;
// callers must not reorder it.
func (c *Corpus) Documents() []*Document {
	return c.docs
}

// Len returns the number of documents in the corpus.
func (c *Corpus) Len() int {
	return len(c.docs)
}
