// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed provides the embedding service clients used by the
// vector-similarity strategy. Two backends are supported: a local
// Ollama server and the hosted Voyage API.
package embed

import (
	"context"
	"fmt"
	"math"

	"github.com/meshintel/align-engine/pkg/types"
)

// Embedder turns text into fixed-size vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New constructs the embedder selected by cfg.Provider.
func New(cfg types.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg), nil
	case "voyage":
		return NewVoyage(cfg), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Cosine computes the cosine similarity between two vectors. Mismatched
// lengths or zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
