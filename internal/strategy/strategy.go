// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy implements the alignment strategies (LLM judge,
// vector similarity, keyword matching) and the ensemble combiner that
// merges their scores. Each strategy scores every candidate it is
// given; expected failures (timeouts, quota) are returned as values,
// not raised as errors.
package strategy

import "context"

// Candidate is the strategy-facing view of an evidence candidate:
// just an id and the text to judge.
type Candidate struct {
	ID   int64
	Text string
}

// Query carries the concept side of an alignment judgment.
type Query struct {
	// Term is the primary term string.
	Term string

	// Definition is the concept's primary definition summary.
	Definition string

	// RelatedTerms are synonyms and cross-language variants.
	RelatedTerms []string
}

// Score is one strategy's verdict on one candidate.
type Score struct {
	// CandidateID matches the input candidate.
	CandidateID int64

	// Value is the relevance score in [0,1].
	Value float64

	// Note explains a degenerate score (e.g. "empty text"); empty for
	// ordinary judgments.
	Note string
}

// Outcome is the result of running one strategy over a candidate pool:
// either a full score list (one entry per input candidate) or a failure
// that disables the strategy for this concept.
type Outcome struct {
	// Strategy is the canonical strategy name.
	Strategy string

	// Scores holds one entry per input candidate when the strategy
	// succeeded.
	Scores []Score

	// FailReason is non-empty when the strategy failed for this
	// concept (retries exhausted, backend unreachable).
	FailReason string
}

// OK reports whether the strategy produced scores.
func (o Outcome) OK() bool {
	return o.FailReason == ""
}

// Ok wraps a successful score list.
func Ok(strategy string, scores []Score) Outcome {
	return Outcome{Strategy: strategy, Scores: scores}
}

// Failed marks the strategy as disabled for this concept.
func Failed(strategy, reason string) Outcome {
	return Outcome{Strategy: strategy, FailReason: reason}
}

// Strategy scores a candidate pool against one concept. Implementations
// must return one score per input candidate. A candidate they cannot
// judge gets 0 with a note, never an omission.
type Strategy interface {
	Name() string
	Score(ctx context.Context, q Query, candidates []Candidate) Outcome
}

// truncateRunes limits text to max runes, used before sending text to
// model backends.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
