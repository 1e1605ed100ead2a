// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/align-engine/pkg/types"
)

// fakeEmbedder returns fixed vectors keyed by input text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func vectorConfig() types.VectorConfig {
	return types.VectorConfig{
		StrategyConfig: types.StrategyConfig{Enabled: true, Weight: 0.3},
		MaxChars:       8000,
	}
}

func TestVector_RanksByCosineSimilarity(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"inflation: rising prices": {1, 0, 0},
		"prices are rising fast":   {0.9, 0.1, 0},
		"harbor docking fees":      {0, 1, 0},
	}}
	v := NewVector(vectorConfig(), emb)

	out := v.Score(context.Background(), Query{Term: "inflation", Definition: "rising prices"}, []Candidate{
		{ID: 1, Text: "prices are rising fast"},
		{ID: 2, Text: "harbor docking fees"},
	})

	require.True(t, out.OK())
	require.Len(t, out.Scores, 2)
	assert.Greater(t, out.Scores[0].Value, 0.9)
	assert.InDelta(t, 0, out.Scores[1].Value, 1e-9)
}

func TestVector_EmbedderFailureFailsStrategy(t *testing.T) {
	v := NewVector(vectorConfig(), &fakeEmbedder{err: fmt.Errorf("connection refused")})

	out := v.Score(context.Background(), Query{Term: "inflation"}, []Candidate{{ID: 1, Text: "text"}})

	assert.False(t, out.OK())
	assert.Contains(t, out.FailReason, "connection refused")
}

func TestVector_EmptyTextScoresZero(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"inflation": {1, 0},
	}}
	v := NewVector(vectorConfig(), emb)

	out := v.Score(context.Background(), Query{Term: "inflation"}, []Candidate{
		{ID: 1, Text: "   "},
	})

	require.True(t, out.OK())
	require.Len(t, out.Scores, 1)
	assert.Equal(t, 0.0, out.Scores[0].Value)
	assert.Equal(t, "empty text", out.Scores[0].Note)
}

func TestVector_TruncatesLongCandidates(t *testing.T) {
	cfg := vectorConfig()
	cfg.MaxChars = 5
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"infla": {1, 0},
		"abcde": {1, 0},
	}}
	v := NewVector(cfg, emb)

	out := v.Score(context.Background(), Query{Term: "infla"}, []Candidate{
		{ID: 1, Text: "abcdefghij"},
	})

	require.True(t, out.OK())
	assert.InDelta(t, 1.0, out.Scores[0].Value, 1e-6)
}
