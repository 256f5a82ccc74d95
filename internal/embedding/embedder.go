// Package embedding provides text embedding backends (ONNX, Gemini) and caching.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Embedder produces vector embeddings for text. Implementations are pure
// functions of their input for a fixed loaded model: the same text always
// yields the same vector, and handles are safe for concurrent read-only use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ErrEmptyInput is returned when text is empty after trimming whitespace.
var ErrEmptyInput = errors.New("embedding input is empty")

// ErrNonFinite is returned when a model produces NaN or Inf components.
var ErrNonFinite = errors.New("embedding contains non-finite values")

// normalizeInput trims text and rejects blank input.
func normalizeInput(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyInput
	}
	return trimmed, nil
}

// checkFinite rejects vectors with NaN or Inf components.
func checkFinite(vec []float32) error {
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("component %d is %v: %w", i, v, ErrNonFinite)
		}
	}
	return nil
}

// Backend identifies an embedding backend implementation.
type Backend string

const (
	// BackendONNX runs a local ONNX sentence-embedding model. Requires CGO
	// and the onnxruntime shared library.
	BackendONNX Backend = "onnx"
	// BackendGemini calls the Gemini embedding API.
	BackendGemini Backend = "gemini"
	// BackendMock produces deterministic hash-derived vectors; tests only.
	BackendMock Backend = "mock"
)

// Options configures NewEmbedder.
type Options struct {
	ModelPath   string // ONNX model file
	Model       string // Gemini embedding model name
	APIKey      string // Gemini API key
	Dimensions  int
	MaxTokens   int
	CacheSize   int
}

// NewEmbedder creates an embedder of the specified backend.
func NewEmbedder(ctx context.Context, backend string, opts Options) (Embedder, error) {
	switch Backend(backend) {
	case BackendONNX, "":
		e, err := NewONNXEmbedder(opts.ModelPath, opts.Dimensions, opts.MaxTokens, opts.CacheSize)
		if err != nil {
			return nil, err
		}
		return e, nil
	case BackendGemini:
		e, err := NewGeminiEmbedder(ctx, opts.APIKey, opts.Model, opts.Dimensions, opts.CacheSize)
		if err != nil {
			return nil, err
		}
		return e, nil
	case BackendMock:
		return NewMockEmbedder(opts.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend: %s (supported: onnx, gemini, mock)", backend)
	}
}
