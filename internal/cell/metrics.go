// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cell

import "github.com/meshintel/align-engine/pkg/types"

// computeQuality derives a cell's quality metrics from its retained
// evidence. The overall score is a weighted blend of the average final
// scores and normalized language coverage; each component only ever
// raises the score, so adding evidence or languages never lowers it.
func computeQuality(concept types.Concept, policy []types.PolicyEvidence, sentiment []types.SentimentEvidence, cfg types.QualityConfig) types.QualityMetrics {
	m := types.QualityMetrics{
		LanguageCoverage:       len(concept.Definitions),
		PolicyEvidenceCount:    len(policy),
		SentimentEvidenceCount: len(sentiment),
	}

	for _, e := range policy {
		m.AvgPolicyScore += e.Scores.Final
	}
	if len(policy) > 0 {
		m.AvgPolicyScore /= float64(len(policy))
	}
	for _, e := range sentiment {
		m.AvgSentimentScore += e.Scores.Final
	}
	if len(sentiment) > 0 {
		m.AvgSentimentScore /= float64(len(sentiment))
	}

	expected := cfg.ExpectedLanguages
	if expected <= 0 {
		expected = 1
	}
	coverage := float64(m.LanguageCoverage) / float64(expected)
	if coverage > 1 {
		coverage = 1
	}

	totalWeight := cfg.PolicyWeight + cfg.SentimentWeight + cfg.LanguageWeight
	if totalWeight > 0 {
		m.OverallScore = (cfg.PolicyWeight*m.AvgPolicyScore +
			cfg.SentimentWeight*m.AvgSentimentScore +
			cfg.LanguageWeight*coverage) / totalWeight
	}
	return m
}
