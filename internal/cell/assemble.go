// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cell assembles Knowledge Cells from admitted alignment
// results, computes their quality metrics, exports them, and
// accumulates the run-level quality report.
package cell

import (
	"sort"
	"time"

	"github.com/meshintel/align-engine/pkg/types"
)

// Caps bound each cell's evidence lists.
type Caps struct {
	Policy    int
	Sentiment int
}

// AssembleInput carries everything the assembler needs for one concept.
// Results must already be admitted (post-threshold); the assembler only
// sorts, truncates, and aggregates.
type AssembleInput struct {
	Concept          types.Concept
	PolicyResults    []types.AlignmentResult
	SentimentResults []types.AlignmentResult
	Paragraphs       map[int64]types.PolicyParagraph
	Articles         map[int64]types.NewsArticle

	Caps    Caps
	Quality types.QualityConfig

	RunID         string
	EngineVersion string
	Now           time.Time
}

// Assemble builds the Knowledge Cell for one concept. The function is
// pure given its input: evidence is sorted descending by final score
// (ties broken by candidate id for stable output) and truncated to the
// caps before the quality metrics are computed over what remains.
func Assemble(in AssembleInput) types.KnowledgeCell {
	policy := sortResults(in.PolicyResults)
	sentiment := sortResults(in.SentimentResults)

	if in.Caps.Policy > 0 && len(policy) > in.Caps.Policy {
		policy = policy[:in.Caps.Policy]
	}
	if in.Caps.Sentiment > 0 && len(sentiment) > in.Caps.Sentiment {
		sentiment = sentiment[:in.Caps.Sentiment]
	}

	policyEvidence := make([]types.PolicyEvidence, 0, len(policy))
	for _, r := range policy {
		p, ok := in.Paragraphs[r.CandidateID]
		if !ok {
			continue
		}
		policyEvidence = append(policyEvidence, types.PolicyEvidence{
			Source:      p.Source,
			ParagraphID: p.ID,
			Text:        p.Text,
			Topic:       p.Topic,
			Scores:      r.Scores(),
			Method:      r.Method,
			ReportMetadata: types.ReportMetadata{
				Title:   p.ReportTitle,
				Date:    p.ReportDate,
				Section: p.SectionTitle,
			},
		})
	}

	sentimentEvidence := make([]types.SentimentEvidence, 0, len(sentiment))
	for _, r := range sentiment {
		a, ok := in.Articles[r.CandidateID]
		if !ok {
			continue
		}
		sentimentEvidence = append(sentimentEvidence, types.SentimentEvidence{
			ArticleID:     a.ID,
			Title:         a.Title,
			Source:        a.Source,
			URL:           a.URL,
			PublishedDate: a.PublishedDate,
			Sentiment: types.SentimentInfo{
				Label:      a.SentimentLabel,
				Confidence: a.SentimentConfidence,
			},
			Scores: r.Scores(),
		})
	}

	quality := computeQuality(in.Concept, policyEvidence, sentimentEvidence, in.Quality)

	return types.KnowledgeCell{
		ConceptID:         in.Concept.ID,
		PrimaryTerm:       in.Concept.PrimaryTerm,
		Definitions:       in.Concept.Definitions,
		PolicyEvidence:    policyEvidence,
		SentimentEvidence: sentimentEvidence,
		Metadata: types.CellMetadata{
			CreatedAt:     in.Now.UTC().Format(time.RFC3339),
			EngineVersion: in.EngineVersion,
			RunID:         in.RunID,
			Quality:       quality,
		},
	}
}

func sortResults(results []types.AlignmentResult) []types.AlignmentResult {
	sorted := make([]types.AlignmentResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FinalScore != sorted[j].FinalScore {
			return sorted[i].FinalScore > sorted[j].FinalScore
		}
		return sorted[i].CandidateID < sorted[j].CandidateID
	})
	return sorted
}
