// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cell

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/meshintel/align-engine/pkg/types"
)

// Sink receives assembled cells. Implementations are not required to be
// safe for concurrent use; the orchestrator serializes emission.
type Sink interface {
	Emit(c types.KnowledgeCell) error
	Close() error
}

// JSONLSink writes one cell per line. JSONL is the primary dataset
// format; every field survives the round trip.
type JSONLSink struct {
	w   io.Writer
	c   io.Closer
	enc *json.Encoder
}

// NewJSONLSink wraps w. If w is also an io.Closer, Close closes it.
func NewJSONLSink(w io.Writer) *JSONLSink {
	s := &JSONLSink{w: w, enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *JSONLSink) Emit(c types.KnowledgeCell) error {
	if err := s.enc.Encode(c); err != nil {
		return fmt.Errorf("encoding cell %s: %w", c.ConceptID, err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}

// csvHeader is the flattened per-cell summary row. Evidence texts stay
// in the JSONL export; CSV carries the reviewable aggregate view.
var csvHeader = []string{
	"concept_id", "primary_term", "languages",
	"policy_evidence_count", "sentiment_evidence_count",
	"avg_policy_score", "avg_sentiment_score", "overall_score",
	"created_at", "run_id",
}

// CSVSink writes one summary row per cell. The writer starts with a
// UTF-8 BOM so spreadsheet tools detect the encoding of non-Latin terms.
type CSVSink struct {
	w      *csv.Writer
	c      io.Closer
	wroteH bool
}

func NewCSVSink(w io.Writer) (*CSVSink, error) {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return nil, fmt.Errorf("writing BOM: %w", err)
	}
	s := &CSVSink{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s, nil
}

// NewCSVAppendSink writes rows to an export that already carries a BOM
// and header, so neither is repeated. Incremental runs use it to extend
// a prior export in place.
func NewCSVAppendSink(w io.Writer) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(w), wroteH: true}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *CSVSink) Emit(c types.KnowledgeCell) error {
	if !s.wroteH {
		if err := s.w.Write(csvHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		s.wroteH = true
	}
	q := c.Metadata.Quality
	row := []string{
		c.ConceptID,
		c.PrimaryTerm,
		strconv.Itoa(q.LanguageCoverage),
		strconv.Itoa(q.PolicyEvidenceCount),
		strconv.Itoa(q.SentimentEvidenceCount),
		strconv.FormatFloat(q.AvgPolicyScore, 'f', 4, 64),
		strconv.FormatFloat(q.AvgSentimentScore, 'f', 4, 64),
		strconv.FormatFloat(q.OverallScore, 'f', 4, 64),
		c.Metadata.CreatedAt,
		c.Metadata.RunID,
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("writing row for %s: %w", c.ConceptID, err)
	}
	return nil
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
