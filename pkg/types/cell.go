// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AlignmentScores records the per-strategy scores and the ensemble
// result for one retained evidence item. A nil pointer means the
// strategy did not produce a score for this candidate (disabled or
// failed for this concept), as opposed to scoring it 0.
type AlignmentScores struct {
	LLM    *float64 `json:"llm,omitempty" yaml:"llm,omitempty"`
	Vector *float64 `json:"vector,omitempty" yaml:"vector,omitempty"`
	Rule   *float64 `json:"rule,omitempty" yaml:"rule,omitempty"`

	// Final is the weighted ensemble score in [0,1].
	Final float64 `json:"final" yaml:"final"`
}

// AlignmentResult is the post-ensemble verdict for one candidate.
type AlignmentResult struct {
	// CandidateID is the database id of the judged candidate.
	CandidateID int64 `json:"candidate_id" yaml:"candidate_id"`

	// PerStrategy maps strategy name to that strategy's raw score.
	// Strategies that failed for this concept are absent.
	PerStrategy map[string]float64 `json:"per_strategy" yaml:"per_strategy"`

	// FinalScore is deterministic given PerStrategy and the configured
	// weights; no randomness enters at combination time.
	FinalScore float64 `json:"final_score" yaml:"final_score"`

	// Method names the combination algorithm.
	Method string `json:"method" yaml:"method"`
}

// Scores converts PerStrategy into the exported AlignmentScores shape.
func (r AlignmentResult) Scores() AlignmentScores {
	s := AlignmentScores{Final: r.FinalScore}
	if v, ok := r.PerStrategy[StrategyLLM]; ok {
		s.LLM = &v
	}
	if v, ok := r.PerStrategy[StrategyVector]; ok {
		s.Vector = &v
	}
	if v, ok := r.PerStrategy[StrategyRule]; ok {
		s.Rule = &v
	}
	return s
}

// Canonical strategy names, used as weight map keys and score labels.
const (
	StrategyLLM    = "llm"
	StrategyVector = "vector"
	StrategyRule   = "rule"

	// MethodHybridEnsemble is the Method value for combined results.
	MethodHybridEnsemble = "hybrid_ensemble"
)

// ReportMetadata describes the report a policy evidence item came from.
type ReportMetadata struct {
	Title   string `json:"title" yaml:"title"`
	Date    string `json:"date" yaml:"date"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
}

// PolicyEvidence is a retained policy paragraph within a Knowledge Cell.
type PolicyEvidence struct {
	Source         string          `json:"source" yaml:"source"`
	ParagraphID    int64           `json:"paragraph_id" yaml:"paragraph_id"`
	Text           string          `json:"text" yaml:"text"`
	Topic          string          `json:"topic,omitempty" yaml:"topic,omitempty"`
	Scores         AlignmentScores `json:"alignment_scores" yaml:"alignment_scores"`
	Method         string          `json:"alignment_method" yaml:"alignment_method"`
	ReportMetadata ReportMetadata  `json:"report_metadata" yaml:"report_metadata"`
}

// SentimentInfo carries the sentiment annotation for a retained article.
type SentimentInfo struct {
	Label      string  `json:"label" yaml:"label"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Annotator  string  `json:"annotator,omitempty" yaml:"annotator,omitempty"`
}

// SentimentEvidence is a retained news article within a Knowledge Cell.
type SentimentEvidence struct {
	ArticleID     int64           `json:"article_id" yaml:"article_id"`
	Title         string          `json:"title" yaml:"title"`
	Source        string          `json:"source" yaml:"source"`
	URL           string          `json:"url" yaml:"url"`
	PublishedDate string          `json:"published_date" yaml:"published_date"`
	Sentiment     SentimentInfo   `json:"sentiment" yaml:"sentiment"`
	Scores        AlignmentScores `json:"alignment_scores" yaml:"alignment_scores"`
}

// QualityMetrics are derived aggregates over a cell's retained evidence.
// All fields are computed by the assembler, never hand-edited.
type QualityMetrics struct {
	// OverallScore is a weighted blend of the average evidence scores
	// and normalized language coverage, monotonic in each input.
	OverallScore float64 `json:"overall_score" yaml:"overall_score"`

	// LanguageCoverage is the number of languages with a definition.
	LanguageCoverage int `json:"language_coverage" yaml:"language_coverage"`

	PolicyEvidenceCount    int `json:"policy_evidence_count" yaml:"policy_evidence_count"`
	SentimentEvidenceCount int `json:"sentiment_evidence_count" yaml:"sentiment_evidence_count"`

	// Averages are over retained (post-threshold) evidence only.
	AvgPolicyScore    float64 `json:"avg_policy_score" yaml:"avg_policy_score"`
	AvgSentimentScore float64 `json:"avg_sentiment_score" yaml:"avg_sentiment_score"`
}

// CellMetadata records how and when a Knowledge Cell was produced.
type CellMetadata struct {
	CreatedAt     string         `json:"created_at" yaml:"created_at"`
	EngineVersion string         `json:"engine_version" yaml:"engine_version"`
	RunID         string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Quality       QualityMetrics `json:"quality_metrics" yaml:"quality_metrics"`
}

// KnowledgeCell is the terminal aggregate: one concept with its
// definitions, retained evidence, and quality metrics. Cells are
// immutable once exported; re-running alignment for a concept replaces
// its cell wholesale.
type KnowledgeCell struct {
	ConceptID   string                `json:"concept_id" yaml:"concept_id"`
	PrimaryTerm string                `json:"primary_term" yaml:"primary_term"`
	Definitions map[string]Definition `json:"definitions" yaml:"definitions"`

	// PolicyEvidence is sorted descending by final score, capped by
	// configuration.
	PolicyEvidence []PolicyEvidence `json:"policy_evidence" yaml:"policy_evidence"`

	// SentimentEvidence is sorted descending by final score, capped,
	// and restricted to the configured recency window.
	SentimentEvidence []SentimentEvidence `json:"sentiment_evidence" yaml:"sentiment_evidence"`

	Metadata CellMetadata `json:"metadata" yaml:"metadata"`
}
