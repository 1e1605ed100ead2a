// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the alignment engine:
// concepts with multilingual definitions, evidence candidates from the
// policy and sentiment corpora, alignment scores, and Knowledge Cells.
package types

import "sort"

// Definition is one language's definition of a concept.
type Definition struct {
	// Term is the term in this language.
	Term string `json:"term" yaml:"term"`

	// Summary is the definition text.
	Summary string `json:"summary" yaml:"summary"`

	// URL points at the source page for the definition.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source names the upstream corpus (e.g. "wikipedia").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Concept is the unit of alignment: a canonical term with its
// multilingual definitions, produced by the terminology layer and
// read-only to this engine.
type Concept struct {
	// ID is the stable concept identifier: the Wikidata QID when the
	// term resolved, otherwise a generated fallback id.
	ID string `json:"concept_id" yaml:"concept_id"`

	// PrimaryTerm is the canonical (English) term string.
	PrimaryTerm string `json:"primary_term" yaml:"primary_term"`

	// Definitions maps ISO language codes to definitions.
	Definitions map[string]Definition `json:"definitions" yaml:"definitions"`

	// RelatedTerms are synonyms and variants supplied upstream,
	// consumed by the keyword strategy.
	RelatedTerms []string `json:"related_terms,omitempty" yaml:"related_terms,omitempty"`

	// UpdatedAt is the RFC 3339 timestamp of the last upstream change,
	// used for incremental runs. Empty when the store does not track it.
	UpdatedAt string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// PrimaryDefinition returns the English definition summary, falling back
// to any available language when English is missing. Returns "" for a
// concept with no definitions.
func (c Concept) PrimaryDefinition() string {
	if d, ok := c.Definitions["en"]; ok && d.Summary != "" {
		return d.Summary
	}
	langs := make([]string, 0, len(c.Definitions))
	for lang := range c.Definitions {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if d := c.Definitions[lang]; d.Summary != "" {
			return d.Summary
		}
	}
	return ""
}

// TermVariants returns the term strings in every language plus the
// upstream related terms, excluding the primary term itself. Languages
// are visited in sorted order so the result is stable across runs.
func (c Concept) TermVariants() []string {
	langs := make([]string, 0, len(c.Definitions))
	for lang := range c.Definitions {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	seen := map[string]bool{c.PrimaryTerm: true}
	var variants []string
	for _, lang := range langs {
		d := c.Definitions[lang]
		if d.Term != "" && !seen[d.Term] {
			seen[d.Term] = true
			variants = append(variants, d.Term)
		}
	}
	for _, t := range c.RelatedTerms {
		if t != "" && !seen[t] {
			seen[t] = true
			variants = append(variants, t)
		}
	}
	return variants
}
