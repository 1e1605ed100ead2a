// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/meshintel/align-engine/internal/embed"
	"github.com/meshintel/align-engine/pkg/types"
)

// Vector scores candidates by cosine similarity between the concept's
// embedding and each candidate's embedding. A failure to reach the
// embedding backend fails the whole strategy for the concept; the
// ensemble then renormalizes over the remaining strategies.
type Vector struct {
	cfg      types.VectorConfig
	embedder embed.Embedder
}

func NewVector(cfg types.VectorConfig, embedder embed.Embedder) *Vector {
	return &Vector{cfg: cfg, embedder: embedder}
}

func (v *Vector) Name() string { return types.StrategyVector }

func (v *Vector) Score(ctx context.Context, q Query, candidates []Candidate) Outcome {
	queryText := q.Term
	if q.Definition != "" {
		queryText += ": " + truncateRunes(q.Definition, v.cfg.MaxChars)
	}

	queryVec, err := v.embedder.Embed(ctx, queryText)
	if err != nil {
		return Failed(types.StrategyVector, fmt.Sprintf("embed query: %v", err))
	}

	// Empty candidate texts would error out of most embedding APIs, so
	// they are scored zero up front and skipped in the batch.
	texts := make([]string, 0, len(candidates))
	idx := make([]int, 0, len(candidates))
	scores := make([]Score, len(candidates))
	for i, cand := range candidates {
		scores[i] = Score{CandidateID: cand.ID}
		text := strings.TrimSpace(cand.Text)
		if text == "" {
			scores[i].Note = "empty text"
			continue
		}
		texts = append(texts, truncateRunes(text, v.cfg.MaxChars))
		idx = append(idx, i)
	}

	if len(texts) > 0 {
		vecs, err := v.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return Failed(types.StrategyVector, fmt.Sprintf("embed candidates: %v", err))
		}
		if len(vecs) != len(texts) {
			return Failed(types.StrategyVector, fmt.Sprintf("embedding count mismatch: got %d want %d", len(vecs), len(texts)))
		}
		for j, vec := range vecs {
			sim := embed.Cosine(queryVec, vec)
			if sim < 0 {
				sim = 0
			}
			if sim > 1 {
				sim = 1
			}
			scores[idx[j]].Value = sim
		}
	}

	return Ok(types.StrategyVector, scores)
}
