// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/meshintel/align-engine/pkg/types"
)

// translationRecord is the per-language shape stored in terms.translations.
type translationRecord struct {
	Term    string `json:"term"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}

// ListConcepts returns every completed term as a Concept. Terms whose
// translations column is malformed are returned with empty definitions
// rather than dropped; a malformed single record must not fail the run.
func (s *Store) ListConcepts(ctx context.Context) ([]types.Concept, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, term, wikidata_qid, translations, related_terms, updated_at
		 FROM terms WHERE status = 'completed' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	var concepts []types.Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, err
		}
		concepts = append(concepts, c)
	}
	return concepts, rows.Err()
}

// GetConcept returns a single concept by its id (QID or fallback id).
func (s *Store) GetConcept(ctx context.Context, id string) (types.Concept, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, term, wikidata_qid, translations, related_terms, updated_at FROM terms`)
	if err != nil {
		return types.Concept{}, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return types.Concept{}, err
		}
		if c.ID == id {
			return c, nil
		}
	}
	if err := rows.Err(); err != nil {
		return types.Concept{}, err
	}
	return types.Concept{}, fmt.Errorf("concept %s not found", id)
}

func scanConcept(rows *sql.Rows) (types.Concept, error) {
	var (
		rowID        int64
		term         string
		qid          sql.NullString
		translations sql.NullString
		related      sql.NullString
		updatedAt    sql.NullString
	)
	if err := rows.Scan(&rowID, &term, &qid, &translations, &related, &updatedAt); err != nil {
		return types.Concept{}, fmt.Errorf("scanning term row: %w", err)
	}

	c := types.Concept{
		PrimaryTerm: term,
		Definitions: map[string]types.Definition{},
	}
	if qid.Valid && qid.String != "" {
		c.ID = qid.String
	} else {
		c.ID = FallbackConceptID(term)
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.String
	}

	if translations.Valid && translations.String != "" {
		var recs map[string]translationRecord
		if err := json.Unmarshal([]byte(translations.String), &recs); err == nil {
			for lang, r := range recs {
				if r.Summary == "" {
					continue
				}
				t := r.Term
				if t == "" {
					t = term
				}
				src := r.Source
				if src == "" {
					src = "wikipedia"
				}
				c.Definitions[lang] = types.Definition{
					Term:    t,
					Summary: r.Summary,
					URL:     r.URL,
					Source:  src,
				}
			}
		}
	}

	if related.Valid && related.String != "" {
		// Silently ignore malformed related_terms; the keyword
		// strategy still has the language variants.
		json.Unmarshal([]byte(related.String), &c.RelatedTerms)
	}

	return c, nil
}

// FallbackConceptID derives a stable concept id for terms without a
// Wikidata QID. SHA-1 name-based UUIDs keep the id consistent across
// runs for the same term.
func FallbackConceptID(term string) string {
	return "term-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(term)).String()
}
