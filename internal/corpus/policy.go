// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/meshintel/align-engine/pkg/types"
)

// maxLikeVariants bounds the number of LIKE clauses per query.
const maxLikeVariants = 10

// QueryParagraphs returns policy paragraphs whose text mentions the
// term or one of its variants, joined with report metadata. The LIKE
// prefilter keeps the candidate pool small; the strategies do the real
// relevance judgment. An empty result is a valid outcome, not an error.
func (s *Store) QueryParagraphs(ctx context.Context, term string, variants []string, limit int) ([]types.PolicyParagraph, error) {
	if limit <= 0 {
		limit = 100
	}

	where, args := likeClause("pp.paragraph_text", term, variants)
	query := fmt.Sprintf(
		`SELECT pp.id, pp.report_id, pp.paragraph_text, pp.topic, pp.section_title,
			pr.source, pr.title, pr.report_date
		FROM policy_paragraphs pp
		JOIN policy_reports pr ON pp.report_id = pr.id
		WHERE %s
		ORDER BY pr.report_date DESC, pp.id
		LIMIT ?`, where)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying policy paragraphs: %w", err)
	}
	defer rows.Close()

	var paragraphs []types.PolicyParagraph
	for rows.Next() {
		var (
			p            types.PolicyParagraph
			topic        sql.NullString
			sectionTitle sql.NullString
			reportTitle  sql.NullString
			reportDate   sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.ReportID, &p.Text, &topic, &sectionTitle,
			&p.Source, &reportTitle, &reportDate); err != nil {
			return nil, fmt.Errorf("scanning paragraph row: %w", err)
		}
		p.Topic = topic.String
		p.SectionTitle = sectionTitle.String
		p.ReportTitle = reportTitle.String
		p.ReportDate = reportDate.String
		paragraphs = append(paragraphs, p)
	}
	return paragraphs, rows.Err()
}

// NewPolicyTextsSince returns the text of paragraphs ingested after the
// given timestamp (RFC 3339). Incremental runs use this to decide which
// concepts' candidate pools changed.
func (s *Store) NewPolicyTextsSince(ctx context.Context, since string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paragraph_text FROM policy_paragraphs WHERE ingested_at > ?`, since)
	if err != nil {
		return nil, fmt.Errorf("querying new paragraphs: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning paragraph text: %w", err)
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// likeClause builds "(col LIKE ? OR col LIKE ? ...)" over the term and
// its variants, case-insensitively via LOWER().
func likeClause(col, term string, variants []string) (string, []any) {
	terms := append([]string{term}, variants...)
	if len(terms) > maxLikeVariants {
		terms = terms[:maxLikeVariants]
	}

	var (
		parts []string
		args  []any
	)
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE ?", col))
		args = append(args, "%"+strings.ToLower(t)+"%")
	}
	if len(parts) == 0 {
		// A blank term matches nothing rather than everything.
		return "1=0", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
