// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meshintel/align-engine/pkg/types"
)

// QueryArticles returns news articles mentioning the term or a variant
// in their title or summary, published on or after cutoff. The recency
// window is applied here so downstream strategies never see stale
// articles. Articles without a sentiment annotation are still returned;
// their sentiment fields are empty.
func (s *Store) QueryArticles(ctx context.Context, term string, variants []string, cutoff time.Time, limit int) ([]types.NewsArticle, error) {
	if limit <= 0 {
		limit = 100
	}

	where, args := likeClause("na.title || ' ' || COALESCE(na.summary, '')", term, variants)
	query := fmt.Sprintf(
		`SELECT na.id, na.title, na.summary, na.source, na.url, na.published_date,
			sa.sentiment_label, sa.confidence_score
		FROM news_articles na
		LEFT JOIN sentiment_annotations sa ON na.id = sa.article_id
		WHERE %s AND na.published_date >= ?
		ORDER BY na.published_date DESC
		LIMIT ?`, where)
	args = append(args, cutoff.Format("2006-01-02"), limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying news articles: %w", err)
	}
	defer rows.Close()

	var articles []types.NewsArticle
	for rows.Next() {
		var (
			a          types.NewsArticle
			summary    sql.NullString
			source     sql.NullString
			url        sql.NullString
			published  sql.NullString
			label      sql.NullString
			confidence sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.Title, &summary, &source, &url, &published,
			&label, &confidence); err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		a.Summary = summary.String
		a.Source = source.String
		a.URL = url.String
		a.PublishedDate = published.String
		a.SentimentLabel = label.String
		a.SentimentConfidence = confidence.Float64
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// NewArticleTextsSince returns title+summary of articles crawled after
// the given timestamp (RFC 3339), for incremental pool-change detection.
func (s *Store) NewArticleTextsSince(ctx context.Context, since string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title || ' ' || COALESCE(summary, '') FROM news_articles WHERE crawled_at > ?`, since)
	if err != nil {
		return nil, fmt.Errorf("querying new articles: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning article text: %w", err)
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}
