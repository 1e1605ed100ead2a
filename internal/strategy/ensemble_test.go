// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/align-engine/pkg/types"
)

func testEnsembleConfig() types.EnsembleConfig {
	return types.EnsembleConfig{
		MinFinalScore:  0.65,
		AgreementBonus: 0.05,
		AgreementDelta: 0.15,
	}
}

func TestCombine_AllStrategiesAgree(t *testing.T) {
	weights := map[string]float64{
		types.StrategyLLM:    0.5,
		types.StrategyVector: 0.3,
		types.StrategyRule:   0.15,
	}
	c := NewCombiner(testEnsembleConfig(), weights, nil)

	// Spread is 0.92-0.78 = 0.14, within the 0.15 delta, so the
	// bonus applies on top of the weighted mean.
	final := c.Combine(map[string]float64{
		types.StrategyLLM:    0.92,
		types.StrategyVector: 0.78,
		types.StrategyRule:   0.85,
	})

	want := (0.5*0.92+0.3*0.78+0.15*0.85)/0.95 + 0.05
	assert.InDelta(t, want, final, 1e-9)
	assert.GreaterOrEqual(t, final, 0.65)
}

func TestCombine_RenormalizesOverProducingStrategies(t *testing.T) {
	weights := map[string]float64{
		types.StrategyLLM:    0.5,
		types.StrategyVector: 0.3,
		types.StrategyRule:   0.15,
	}
	c := NewCombiner(testEnsembleConfig(), weights, nil)

	// LLM produced nothing; its weight leaves both numerator and
	// denominator. 0.40 and 0.35 agree, so the bonus still applies,
	// but the candidate stays below the admission threshold.
	final := c.Combine(map[string]float64{
		types.StrategyVector: 0.40,
		types.StrategyRule:   0.35,
	})

	want := (0.3*0.40+0.15*0.35)/0.45 + 0.05
	assert.InDelta(t, want, final, 1e-9)
	assert.Less(t, final, 0.65)
}

func TestCombine_WeightRatioInvariant(t *testing.T) {
	scores := map[string]float64{
		types.StrategyVector: 0.7,
		types.StrategyRule:   0.6,
	}

	a := NewCombiner(testEnsembleConfig(), map[string]float64{
		types.StrategyVector: 0.3,
		types.StrategyRule:   0.15,
	}, nil)
	b := NewCombiner(testEnsembleConfig(), map[string]float64{
		types.StrategyVector: 0.6,
		types.StrategyRule:   0.3,
	}, nil)

	assert.InDelta(t, a.Combine(scores), b.Combine(scores), 1e-9)
}

func TestCombine_NoBonusWhenScoresDisagree(t *testing.T) {
	weights := map[string]float64{
		types.StrategyLLM:    0.5,
		types.StrategyVector: 0.5,
	}
	c := NewCombiner(testEnsembleConfig(), weights, nil)

	final := c.Combine(map[string]float64{
		types.StrategyLLM:    0.9,
		types.StrategyVector: 0.5,
	})

	assert.InDelta(t, 0.7, final, 1e-9)
}

func TestCombine_SingleStrategy(t *testing.T) {
	weights := map[string]float64{types.StrategyRule: 0.2}

	c := NewCombiner(testEnsembleConfig(), weights, nil)
	assert.InDelta(t, 0.8, c.Combine(map[string]float64{types.StrategyRule: 0.8}), 1e-9)

	cfg := testEnsembleConfig()
	cfg.ApplySingle = true
	c = NewCombiner(cfg, weights, nil)
	assert.InDelta(t, 0.85, c.Combine(map[string]float64{types.StrategyRule: 0.8}), 1e-9)
}

func TestCombine_ClampsToOne(t *testing.T) {
	weights := map[string]float64{
		types.StrategyLLM:    0.5,
		types.StrategyVector: 0.5,
	}
	c := NewCombiner(testEnsembleConfig(), weights, nil)

	final := c.Combine(map[string]float64{
		types.StrategyLLM:    0.99,
		types.StrategyVector: 0.98,
	})

	assert.Equal(t, 1.0, final)
}

func TestCombine_NoScores(t *testing.T) {
	c := NewCombiner(testEnsembleConfig(), map[string]float64{types.StrategyRule: 0.2}, nil)
	assert.Equal(t, 0.0, c.Combine(nil))
}

func TestResults_ClampsOutOfRangeInputs(t *testing.T) {
	var warn bytes.Buffer
	c := NewCombiner(testEnsembleConfig(), map[string]float64{types.StrategyRule: 1}, &warn)

	candidates := []Candidate{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}
	outcomes := []Outcome{
		Ok(types.StrategyRule, []Score{
			{CandidateID: 1, Value: 1.4},
			{CandidateID: 2, Value: -0.2},
		}),
	}

	results := c.Results(candidates, outcomes)
	require.Len(t, results, 2)
	assert.Equal(t, 1.0, results[0].PerStrategy[types.StrategyRule])
	assert.Equal(t, 0.0, results[1].PerStrategy[types.StrategyRule])
	assert.Contains(t, warn.String(), "out of range")
}

func TestResults_SkipsFailedOutcomes(t *testing.T) {
	weights := map[string]float64{
		types.StrategyLLM:  0.5,
		types.StrategyRule: 0.5,
	}
	c := NewCombiner(testEnsembleConfig(), weights, nil)

	candidates := []Candidate{{ID: 7, Text: "x"}}
	outcomes := []Outcome{
		Failed(types.StrategyLLM, "quota exhausted"),
		Ok(types.StrategyRule, []Score{{CandidateID: 7, Value: 0.6}}),
	}

	results := c.Results(candidates, outcomes)
	require.Len(t, results, 1)
	assert.Equal(t, types.MethodHybridEnsemble, results[0].Method)
	assert.Len(t, results[0].PerStrategy, 1)
	assert.InDelta(t, 0.6, results[0].FinalScore, 1e-9)
}

func TestAdmit(t *testing.T) {
	c := NewCombiner(testEnsembleConfig(), nil, nil)

	admitted := c.Admit([]types.AlignmentResult{
		{CandidateID: 1, FinalScore: 0.9},
		{CandidateID: 2, FinalScore: 0.64},
		{CandidateID: 3, FinalScore: 0.65},
	})

	require.Len(t, admitted, 2)
	assert.Equal(t, int64(1), admitted[0].CandidateID)
	assert.Equal(t, int64(3), admitted[1].CandidateID)
}
