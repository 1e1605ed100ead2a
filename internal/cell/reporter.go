// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cell

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/meshintel/align-engine/pkg/types"
)

// cellDigest is the slice of a cell the reporter keeps. Cells themselves
// are never retained or mutated.
type cellDigest struct {
	ConceptID      string
	PrimaryTerm    string
	OverallScore   float64
	PolicyCount    int
	SentimentCount int
}

// Reporter accumulates run-level quality statistics over emitted cells.
// Observe is safe to call from concurrent workers.
type Reporter struct {
	mu      sync.Mutex
	digests []cellDigest
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Observe folds one emitted cell into the running statistics.
func (r *Reporter) Observe(c types.KnowledgeCell) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.digests = append(r.digests, cellDigest{
		ConceptID:      c.ConceptID,
		PrimaryTerm:    c.PrimaryTerm,
		OverallScore:   c.Metadata.Quality.OverallScore,
		PolicyCount:    c.Metadata.Quality.PolicyEvidenceCount,
		SentimentCount: c.Metadata.Quality.SentimentEvidenceCount,
	})
}

// Summary is the aggregate quality picture for one run.
type Summary struct {
	TotalCells        int
	MeanOverallScore  float64
	PctWithPolicy     float64
	PctWithSentiment  float64
	Top               []RankedCell
	Bottom            []RankedCell
	ScoreDistribution [5]int
}

// RankedCell is one entry in the top/bottom lists.
type RankedCell struct {
	ConceptID    string
	PrimaryTerm  string
	OverallScore float64
}

// Summarize computes the run summary with top/bottom n cells by
// overall score.
func (r *Reporter) Summarize(n int) Summary {
	r.mu.Lock()
	digests := make([]cellDigest, len(r.digests))
	copy(digests, r.digests)
	r.mu.Unlock()

	s := Summary{TotalCells: len(digests)}
	if len(digests) == 0 {
		return s
	}

	var total float64
	var withPolicy, withSentiment int
	for _, d := range digests {
		total += d.OverallScore
		if d.PolicyCount > 0 {
			withPolicy++
		}
		if d.SentimentCount > 0 {
			withSentiment++
		}
		bucket := int(d.OverallScore * 5)
		if bucket > 4 {
			bucket = 4
		}
		if bucket < 0 {
			bucket = 0
		}
		s.ScoreDistribution[bucket]++
	}
	s.MeanOverallScore = total / float64(len(digests))
	s.PctWithPolicy = 100 * float64(withPolicy) / float64(len(digests))
	s.PctWithSentiment = 100 * float64(withSentiment) / float64(len(digests))

	sort.SliceStable(digests, func(i, j int) bool {
		if digests[i].OverallScore != digests[j].OverallScore {
			return digests[i].OverallScore > digests[j].OverallScore
		}
		return digests[i].ConceptID < digests[j].ConceptID
	})

	if n > len(digests) {
		n = len(digests)
	}
	for _, d := range digests[:n] {
		s.Top = append(s.Top, RankedCell{d.ConceptID, d.PrimaryTerm, d.OverallScore})
	}
	for _, d := range digests[len(digests)-n:] {
		s.Bottom = append(s.Bottom, RankedCell{d.ConceptID, d.PrimaryTerm, d.OverallScore})
	}
	return s
}

// Markdown renders the summary as a review document.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("# Alignment Quality Report\n\n")
	fmt.Fprintf(&b, "- Cells emitted: %d\n", s.TotalCells)
	fmt.Fprintf(&b, "- Mean overall score: %.3f\n", s.MeanOverallScore)
	fmt.Fprintf(&b, "- Cells with policy evidence: %.1f%%\n", s.PctWithPolicy)
	fmt.Fprintf(&b, "- Cells with sentiment evidence: %.1f%%\n\n", s.PctWithSentiment)

	b.WriteString("## Score distribution\n\n")
	labels := [5]string{"0.0-0.2", "0.2-0.4", "0.4-0.6", "0.6-0.8", "0.8-1.0"}
	for i, label := range labels {
		fmt.Fprintf(&b, "- %s: %d\n", label, s.ScoreDistribution[i])
	}

	b.WriteString("\n## Top cells\n\n")
	for i, c := range s.Top {
		fmt.Fprintf(&b, "%d. %s (%s): %.3f\n", i+1, c.PrimaryTerm, c.ConceptID, c.OverallScore)
	}
	b.WriteString("\n## Bottom cells\n\n")
	for i, c := range s.Bottom {
		fmt.Fprintf(&b, "%d. %s (%s): %.3f\n", i+1, c.PrimaryTerm, c.ConceptID, c.OverallScore)
	}
	return b.String()
}
