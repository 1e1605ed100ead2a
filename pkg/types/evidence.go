// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Pool identifies which evidence corpus a candidate came from.
type Pool string

const (
	PoolPolicy    Pool = "policy"
	PoolSentiment Pool = "sentiment"
)

// PolicyParagraph is an evidence candidate from the policy corpus:
// one paragraph of a central-bank report. Immutable input to alignment.
type PolicyParagraph struct {
	// ID is the paragraph's database id.
	ID int64 `json:"paragraph_id" yaml:"paragraph_id"`

	// ReportID identifies the source report.
	ReportID int64 `json:"report_id" yaml:"report_id"`

	// Text is the paragraph content.
	Text string `json:"text" yaml:"text"`

	// Source is the issuing institution (e.g. "pboc", "fed").
	Source string `json:"source" yaml:"source"`

	// Topic is the detected topic label, if any.
	Topic string `json:"topic,omitempty" yaml:"topic,omitempty"`

	// SectionTitle is the section heading within the report.
	SectionTitle string `json:"section_title,omitempty" yaml:"section_title,omitempty"`

	// ReportTitle and ReportDate describe the source report.
	ReportTitle string `json:"report_title,omitempty" yaml:"report_title,omitempty"`
	ReportDate  string `json:"report_date,omitempty" yaml:"report_date,omitempty"`
}

// NewsArticle is an evidence candidate from the sentiment corpus:
// a news article with an optional sentiment annotation.
type NewsArticle struct {
	// ID is the article's database id.
	ID int64 `json:"article_id" yaml:"article_id"`

	// Title and Summary carry the article text used for alignment.
	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Source is the news outlet.
	Source string `json:"source" yaml:"source"`

	// URL is the article link.
	URL string `json:"url" yaml:"url"`

	// PublishedDate is the publication date (YYYY-MM-DD).
	PublishedDate string `json:"published_date" yaml:"published_date"`

	// SentimentLabel is the annotation ("bullish", "bearish",
	// "neutral"), empty when the article was never annotated.
	SentimentLabel string `json:"sentiment_label,omitempty" yaml:"sentiment_label,omitempty"`

	// SentimentConfidence is the annotator's confidence in [0,1].
	SentimentConfidence float64 `json:"sentiment_confidence,omitempty" yaml:"sentiment_confidence,omitempty"`
}

// AlignmentText returns the text a strategy should judge for this
// article: the title, extended with the summary when one exists.
func (a NewsArticle) AlignmentText() string {
	if a.Summary == "" {
		return a.Title
	}
	return a.Title + " " + a.Summary
}
