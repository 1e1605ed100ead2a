// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/align-engine/pkg/types"
)

func keywordConfig() types.KeywordConfig {
	return types.KeywordConfig{
		StrategyConfig: types.StrategyConfig{Enabled: true, Weight: 0.2},
		Fuzzy:          true,
	}
}

func TestKeyword_DirectMatchScoresHigher(t *testing.T) {
	k := NewKeyword(keywordConfig())
	q := Query{
		Term:       "inflation",
		Definition: "a general increase in prices and fall in the purchasing value of money",
	}
	candidates := []Candidate{
		{ID: 1, Text: "Inflation reached 4.2 percent this quarter as consumer prices rose."},
		{ID: 2, Text: "The harbor authority approved new docking fees for cargo vessels."},
	}

	out := k.Score(context.Background(), q, candidates)
	require.True(t, out.OK())
	require.Len(t, out.Scores, 2)
	assert.Greater(t, out.Scores[0].Value, out.Scores[1].Value)
	assert.Contains(t, out.Scores[0].Note, "inflation")
}

func TestKeyword_Deterministic(t *testing.T) {
	k := NewKeyword(keywordConfig())
	q := Query{
		Term:         "monetary policy",
		Definition:   "central bank actions controlling money supply and interest rates",
		RelatedTerms: []string{"interest rate", "central bank"},
	}
	candidates := []Candidate{
		{ID: 1, Text: "The central bank raised interest rates to tighten monetary policy."},
		{ID: 2, Text: "Policy makers debated the money supply and rate decisions."},
		{ID: 3, Text: "Unrelated gardening advice for spring tomatoes."},
	}

	first := k.Score(context.Background(), q, candidates)
	require.True(t, first.OK())
	for i := 0; i < 50; i++ {
		again := k.Score(context.Background(), q, candidates)
		require.True(t, again.OK())
		assert.Equal(t, first.Scores, again.Scores)
	}
}

func TestKeyword_FuzzyVariantMatch(t *testing.T) {
	k := NewKeyword(keywordConfig())
	q := Query{Term: "tariff"}
	candidates := []Candidate{
		{ID: 1, Text: "New tariffs were imposed on imported steel."},
	}

	out := k.Score(context.Background(), q, candidates)
	require.True(t, out.OK())
	assert.Greater(t, out.Scores[0].Value, 0.0)
}

func TestKeyword_HanKeywords(t *testing.T) {
	keywords := extractKeywords("通货膨胀 continues to rise, 通货膨胀率 at 4%")
	assert.Contains(t, keywords, "通货膨胀")
}

func TestExtractKeywords(t *testing.T) {
	keywords := extractKeywords("The Inflation of consumer prices, and the fall of money!")
	assert.Contains(t, keywords, "inflation")
	assert.Contains(t, keywords, "consumer")
	assert.Contains(t, keywords, "prices")
	assert.NotContains(t, keywords, "the", "stopwords are filtered")
	assert.NotContains(t, keywords, "of", "short words are filtered")

	// Sorted and deduplicated.
	assert.IsNonDecreasing(t, keywords)
}

func TestKeyword_ScoreNeverExceedsOne(t *testing.T) {
	k := NewKeyword(keywordConfig())
	q := Query{Term: "inflation", Definition: "inflation inflation inflation"}
	text := ""
	for i := 0; i < 40; i++ {
		text += "inflation inflations "
	}
	out := k.Score(context.Background(), q, []Candidate{{ID: 1, Text: text}})
	require.True(t, out.OK())
	assert.LessOrEqual(t, out.Scores[0].Value, 1.0)
}
