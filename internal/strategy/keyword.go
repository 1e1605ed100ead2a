// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/meshintel/align-engine/pkg/types"
)

// Keyword scores candidates by lexical overlap with the concept's term,
// definition, and related terms. It needs no network access and acts as
// the ensemble's always-available floor. Scoring is deterministic:
// keywords are kept in sorted order so repeated runs over identical
// inputs produce identical scores.
type Keyword struct {
	cfg types.KeywordConfig
}

func NewKeyword(cfg types.KeywordConfig) *Keyword {
	return &Keyword{cfg: cfg}
}

func (k *Keyword) Name() string { return types.StrategyRule }

// Score rates every candidate. The final score per candidate blends
// four signals: direct term match (0.4), keyword jaccard overlap (0.3),
// keyword frequency (0.2), and fuzzy variant match (0.1).
func (k *Keyword) Score(ctx context.Context, q Query, candidates []Candidate) Outcome {
	keywords := extractKeywords(q.Term + " " + q.Definition + " " + strings.Join(q.RelatedTerms, " "))
	term := normalizeText(q.Term)

	var variants []string
	if k.cfg.Fuzzy {
		variants = fuzzyVariants(term, q.RelatedTerms)
	}

	scores := make([]Score, 0, len(candidates))
	for _, cand := range candidates {
		select {
		case <-ctx.Done():
			return Failed(types.StrategyRule, ctx.Err().Error())
		default:
		}
		text := normalizeText(cand.Text)
		value, matched := scoreText(text, term, keywords, variants)
		note := ""
		if len(matched) > 0 {
			note = "matched: " + strings.Join(matched, ", ")
		}
		scores = append(scores, Score{CandidateID: cand.ID, Value: value, Note: note})
	}
	return Ok(types.StrategyRule, scores)
}

func scoreText(text, term string, keywords, variants []string) (float64, []string) {
	var (
		score   float64
		matched []string
	)

	if term != "" && strings.Contains(text, term) {
		score += 0.4
		matched = append(matched, term)
	}

	// Jaccard overlap between concept keywords and text keywords.
	textKeywords := extractKeywords(text)
	if len(keywords) > 0 && len(textKeywords) > 0 {
		inText := make(map[string]bool, len(textKeywords))
		for _, kw := range textKeywords {
			inText[kw] = true
		}
		common := 0
		for _, kw := range keywords {
			if inText[kw] {
				common++
				matched = append(matched, kw)
			}
		}
		union := len(keywords) + len(textKeywords) - common
		if union > 0 {
			score += 0.3 * float64(common) / float64(union)
		}
	}

	// Frequency signal. Each keyword contributes 0.1 per occurrence,
	// capped at 0.3, and the combined signal is capped at 1 before
	// weighting.
	var freq float64
	for _, kw := range keywords {
		count := strings.Count(text, kw)
		contrib := float64(count) * 0.1
		if contrib > 0.3 {
			contrib = 0.3
		}
		freq += contrib
	}
	if freq > 1 {
		freq = 1
	}
	score += 0.2 * freq

	for _, v := range variants {
		if strings.Contains(text, v) {
			score += 0.1
			matched = append(matched, v)
			break
		}
	}

	if score > 1 {
		score = 1
	}
	return score, matched
}

// fuzzyVariants derives near-miss spellings of the term and its related
// terms: plural toggles, common suffix swaps, and hyphenation changes.
func fuzzyVariants(term string, related []string) []string {
	seen := make(map[string]bool)
	add := func(v string) {
		if v != "" && v != term && !seen[v] {
			seen[v] = true
		}
	}

	bases := make([]string, 0, 1+len(related))
	if term != "" {
		bases = append(bases, term)
	}
	for _, r := range related {
		if n := normalizeText(r); n != "" {
			bases = append(bases, n)
		}
	}

	for _, base := range bases {
		if base != term {
			add(base)
		}
		if strings.HasSuffix(base, "s") {
			add(strings.TrimSuffix(base, "s"))
		} else {
			add(base + "s")
		}
		if strings.HasSuffix(base, "tion") {
			add(strings.TrimSuffix(base, "tion") + "ting")
			add(strings.TrimSuffix(base, "tion") + "t")
		}
		if strings.HasSuffix(base, "ary") {
			add(strings.TrimSuffix(base, "ary") + "ory")
		}
		if strings.Contains(base, " ") {
			add(strings.ReplaceAll(base, " ", "-"))
			add(strings.ReplaceAll(base, " ", ""))
		}
	}

	variants := make([]string, 0, len(seen))
	for v := range seen {
		variants = append(variants, v)
	}
	sort.Strings(variants)
	return variants
}

// extractKeywords tokenizes normalized text into a sorted, deduplicated
// keyword slice. Latin-script words must be at least 3 letters and not
// stopwords; runs of Han characters of length 2 or more are kept whole.
func extractKeywords(text string) []string {
	text = normalizeText(text)
	seen := make(map[string]bool)

	var word, han []rune
	flushWord := func() {
		if len(word) >= 3 {
			w := string(word)
			if !stopwords[w] {
				seen[w] = true
			}
		}
		word = word[:0]
	}
	flushHan := func() {
		if len(han) >= 2 {
			seen[string(han)] = true
		}
		han = han[:0]
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flushWord()
			han = append(han, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushHan()
			word = append(word, r)
		default:
			flushWord()
			flushHan()
		}
	}
	flushWord()
	flushHan()

	keywords := make([]string, 0, len(seen))
	for kw := range seen {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)
	return keywords
}

func normalizeText(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true,
	"have": true, "this": true, "that": true, "with": true, "from": true,
	"they": true, "been": true, "were": true, "which": true, "their": true,
	"will": true, "would": true, "there": true, "what": true, "about": true,
	"when": true, "also": true, "into": true, "such": true, "than": true,
	"its": true, "may": true, "these": true, "other": true, "some": true,
	"more": true, "between": true, "through": true, "under": true,
	"over": true, "each": true, "both": true, "any": true, "most": true,
	"used": true, "use": true, "using": true,
}
