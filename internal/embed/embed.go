// Package embed declares the abstract embedding and reranking interfaces
// the core consumes, plus a deterministic hash-based Embedder usable
// without any model weights or network access.
package embed

import (
	"context"
	"math"
)

// Embedder generates fixed-dimension, unit-normalized vector embeddings for
// text. The concrete model backing an Embedder is outside the core's
// scope; callers inject whatever implementation they like.
type Embedder interface {
	// Embed returns a unit vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one unit vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length this embedder produces.
	Dimensions() int

	// ModelID identifies the embedding model, recorded in library
	// manifests so a reopened artifact can detect embedder mismatches.
	ModelID() string
}

// Reranker scores a query against candidate document texts. Higher scores
// are more relevant. The concrete model is outside the core's scope.
type Reranker interface {
	// Score returns one relevance score per document, in order.
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Normalize scales v to unit length in place and returns it. A zero vector
// is returned unchanged (its magnitude is 0, so downstream cosine scoring
// naturally yields 0).
func Normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	for i, x := range v {
		v[i] = float32(float64(x) / magnitude)
	}
	return v
}
