// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package align

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meshintel/align-engine/pkg/types"
)

// DeltaSource reports corpus texts added after a point in time. The
// corpus store implements it; incremental runs use it to find concepts
// whose candidate pools changed.
type DeltaSource interface {
	NewPolicyTextsSince(ctx context.Context, since string) ([]string, error)
	NewArticleTextsSince(ctx context.Context, since string) ([]string, error)
}

// RunSince aligns only the concepts touched after since: concepts whose
// upstream record changed, plus concepts whose term (or any variant)
// appears in corpus texts added after that time. Cells previously
// exported for untouched concepts are left alone.
func (e *Engine) RunSince(ctx context.Context, delta DeltaSource, since time.Time) (RunSummary, error) {
	concepts, err := e.terms.ListConcepts(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("listing concepts: %w", err)
	}

	sinceStr := since.UTC().Format(time.RFC3339)
	newPolicy, err := delta.NewPolicyTextsSince(ctx, sinceStr)
	if err != nil {
		return RunSummary{}, fmt.Errorf("listing new policy texts: %w", err)
	}
	newArticles, err := delta.NewArticleTextsSince(ctx, sinceStr)
	if err != nil {
		return RunSummary{}, fmt.Errorf("listing new article texts: %w", err)
	}

	newTexts := append(newPolicy, newArticles...)
	touched := selectTouched(concepts, since, newTexts)
	touched = e.dropCovered(ctx, touched, newTexts)
	fmt.Fprintf(e.logw, "incremental: %d of %d concepts touched since %s\n",
		len(touched), len(concepts), sinceStr)
	return e.runConcepts(ctx, touched)
}

// dropCovered removes concepts whose only trigger is their own record
// change when the state store shows an alignment at or after that
// change. Concepts mentioned in new corpus texts are always kept since
// their candidate pools shifted regardless of alignment recency.
func (e *Engine) dropCovered(ctx context.Context, touched []types.Concept, newTexts []string) []types.Concept {
	if e.state == nil {
		return touched
	}
	lowered := make([]string, len(newTexts))
	for i, t := range newTexts {
		lowered[i] = strings.ToLower(t)
	}

	kept := make([]types.Concept, 0, len(touched))
	for _, c := range touched {
		if mentionedIn(c, lowered) {
			kept = append(kept, c)
			continue
		}
		updatedAt, err := time.Parse(time.RFC3339, c.UpdatedAt)
		if err != nil {
			kept = append(kept, c)
			continue
		}
		last, err := e.state.LastAligned(ctx, c.ID)
		if err != nil {
			fmt.Fprintf(e.logw, "incremental: alignment state for %s unavailable: %v\n", c.ID, err)
			kept = append(kept, c)
			continue
		}
		if !last.IsZero() && !last.Before(updatedAt) {
			fmt.Fprintf(e.logw, "incremental: %s already aligned at %s, after its %s update\n",
				c.ID, last.Format(time.RFC3339), updatedAt.Format(time.RFC3339))
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// selectTouched filters concepts to those updated after since or whose
// term variants occur in any of the new corpus texts.
func selectTouched(concepts []types.Concept, since time.Time, newTexts []string) []types.Concept {
	lowered := make([]string, len(newTexts))
	for i, t := range newTexts {
		lowered[i] = strings.ToLower(t)
	}

	var touched []types.Concept
	for _, c := range concepts {
		if updatedAfter(c, since) || mentionedIn(c, lowered) {
			touched = append(touched, c)
		}
	}
	return touched
}

func updatedAfter(c types.Concept, since time.Time) bool {
	if c.UpdatedAt == "" {
		return false
	}
	at, err := time.Parse(time.RFC3339, c.UpdatedAt)
	if err != nil {
		// An unparseable timestamp is treated as touched rather than
		// silently skipping the concept.
		return true
	}
	return at.After(since)
}

func mentionedIn(c types.Concept, loweredTexts []string) bool {
	terms := append([]string{c.PrimaryTerm}, c.TermVariants()...)
	for _, text := range loweredTexts {
		for _, term := range terms {
			if term == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(term)) {
				return true
			}
		}
	}
	return false
}
