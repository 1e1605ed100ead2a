// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"fmt"
	"io"

	"github.com/meshintel/align-engine/pkg/types"
)

// Combiner merges per-strategy scores into final ensemble scores.
// Combination is deterministic: the same scores and weights always
// produce the same final score.
type Combiner struct {
	cfg     types.EnsembleConfig
	weights map[string]float64
	warn    io.Writer
}

// NewCombiner builds a combiner over the configured strategy weights.
// Warnings (out-of-range input scores) are written to warn.
func NewCombiner(cfg types.EnsembleConfig, weights map[string]float64, warn io.Writer) *Combiner {
	if warn == nil {
		warn = io.Discard
	}
	return &Combiner{cfg: cfg, weights: weights, warn: warn}
}

// Combine computes the final score for one candidate from the scores
// the strategies actually produced. The weighted mean is renormalized
// over producing strategies only, so a failed strategy never pulls the
// score toward zero. The agreement bonus applies when all produced
// scores are mutually within the configured delta; with a single
// produced score agreement is vacuous and only counts when ApplySingle
// is set.
func (c *Combiner) Combine(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	var (
		weightedSum float64
		totalWeight float64
		minScore    = 2.0
		maxScore    = -1.0
	)
	for name, s := range scores {
		w := c.weights[name]
		weightedSum += w * s
		totalWeight += w
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}
	if totalWeight == 0 {
		return 0
	}

	final := weightedSum / totalWeight

	agrees := maxScore-minScore <= c.cfg.AgreementDelta
	if agrees && (len(scores) >= 2 || c.cfg.ApplySingle) {
		final += c.cfg.AgreementBonus
	}

	if final > 1 {
		final = 1
	}
	if final < 0 {
		final = 0
	}
	return final
}

// Results merges strategy outcomes into one AlignmentResult per
// candidate. Input scores are clamped to [0,1] at this boundary; an
// out-of-range score from a buggy strategy is a warning, never a crash.
func (c *Combiner) Results(candidates []Candidate, outcomes []Outcome) []types.AlignmentResult {
	perCandidate := make(map[int64]map[string]float64, len(candidates))
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		for _, s := range o.Scores {
			v := s.Value
			if v < 0 || v > 1 {
				fmt.Fprintf(c.warn, "warning: %s score %f for candidate %d out of range, clamping\n",
					o.Strategy, v, s.CandidateID)
				if v < 0 {
					v = 0
				} else {
					v = 1
				}
			}
			m := perCandidate[s.CandidateID]
			if m == nil {
				m = make(map[string]float64, len(outcomes))
				perCandidate[s.CandidateID] = m
			}
			m[o.Strategy] = v
		}
	}

	results := make([]types.AlignmentResult, 0, len(candidates))
	for _, cand := range candidates {
		scores := perCandidate[cand.ID]
		results = append(results, types.AlignmentResult{
			CandidateID: cand.ID,
			PerStrategy: scores,
			FinalScore:  c.Combine(scores),
			Method:      types.MethodHybridEnsemble,
		})
	}
	return results
}

// Admit filters results through the admission gate: only candidates
// with a final score at or above min_final_score are retained.
func (c *Combiner) Admit(results []types.AlignmentResult) []types.AlignmentResult {
	var admitted []types.AlignmentResult
	for _, r := range results {
		if r.FinalScore >= c.cfg.MinFinalScore {
			admitted = append(admitted, r)
		}
	}
	return admitted
}
