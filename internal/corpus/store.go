// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus reads the three source corpora (terminology, policy
// paragraphs, sentiment-annotated news) from the shared SQLite database
// and tracks per-concept alignment state for incremental runs.
//
// The corpora are read-only from the engine's perspective; the only
// table this package writes is alignment_state.
package corpus

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the corpus SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the corpus database and creates any missing tables.
// Creating the schema makes a fresh database usable by stubs and tests;
// in production the upstream layers have already populated it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening corpus database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS terms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			term TEXT NOT NULL,
			wikidata_qid TEXT,
			translations TEXT,
			related_terms TEXT,
			status TEXT DEFAULT 'completed',
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS policy_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			title TEXT,
			report_date TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS policy_paragraphs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id INTEGER NOT NULL REFERENCES policy_reports(id),
			paragraph_text TEXT NOT NULL,
			topic TEXT,
			section_title TEXT,
			ingested_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_paragraphs_report ON policy_paragraphs(report_id)`,
		`CREATE TABLE IF NOT EXISTS news_articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			summary TEXT,
			source TEXT,
			url TEXT,
			published_date TEXT,
			crawled_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_published ON news_articles(published_date)`,
		`CREATE TABLE IF NOT EXISTS sentiment_annotations (
			article_id INTEGER PRIMARY KEY REFERENCES news_articles(id),
			sentiment_label TEXT,
			confidence_score REAL,
			annotator TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS alignment_state (
			concept_id TEXT PRIMARY KEY,
			aligned_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Stats holds per-corpus record counts.
type Stats struct {
	Terms             int `json:"terms" yaml:"terms"`
	PolicyReports     int `json:"policy_reports" yaml:"policy_reports"`
	PolicyParagraphs  int `json:"policy_paragraphs" yaml:"policy_paragraphs"`
	NewsArticles      int `json:"news_articles" yaml:"news_articles"`
	AnnotatedArticles int `json:"annotated_articles" yaml:"annotated_articles"`
	AlignedConcepts   int `json:"aligned_concepts" yaml:"aligned_concepts"`
}

// CountStats returns record counts for each corpus.
func (s *Store) CountStats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT count(*) FROM terms`, &st.Terms},
		{`SELECT count(*) FROM policy_reports`, &st.PolicyReports},
		{`SELECT count(*) FROM policy_paragraphs`, &st.PolicyParagraphs},
		{`SELECT count(*) FROM news_articles`, &st.NewsArticles},
		{`SELECT count(*) FROM sentiment_annotations`, &st.AnnotatedArticles},
		{`SELECT count(*) FROM alignment_state`, &st.AlignedConcepts},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("counting corpus rows: %w", err)
		}
	}
	return st, nil
}
