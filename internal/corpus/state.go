// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MarkAligned records that a concept's cell was exported at the given
// time. Re-running alignment for the concept overwrites the record.
func (s *Store) MarkAligned(ctx context.Context, conceptID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alignment_state (concept_id, aligned_at) VALUES (?, ?)
		 ON CONFLICT(concept_id) DO UPDATE SET aligned_at = excluded.aligned_at`,
		conceptID, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("marking concept %s aligned: %w", conceptID, err)
	}
	return nil
}

// LastAligned returns when the concept was last aligned, or the zero
// time if it never was.
func (s *Store) LastAligned(ctx context.Context, conceptID string) (time.Time, error) {
	var at string
	err := s.db.QueryRowContext(ctx,
		`SELECT aligned_at FROM alignment_state WHERE concept_id = ?`, conceptID).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("looking up alignment state: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing aligned_at %q: %w", at, err)
	}
	return parsed, nil
}
