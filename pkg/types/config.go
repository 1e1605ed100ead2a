// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// AIConfig holds shared settings for strategies that call a hosted
// model API.
type AIConfig struct {
	// Provider selects the API dialect (currently "anthropic").
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key. Usually supplied via .secrets/.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout is the per-call HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// StrategyConfig holds the settings shared by every alignment strategy.
type StrategyConfig struct {
	// Enabled controls whether the strategy participates in runs.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Weight is this strategy's share in the ensemble (non-negative).
	Weight float64 `json:"weight" yaml:"weight" mapstructure:"weight"`
}

// LLMConfig configures the LLM judge strategy.
type LLMConfig struct {
	StrategyConfig `yaml:",inline" mapstructure:",squash"`
	AIConfig       `yaml:",inline" mapstructure:",squash"`

	// BatchSize is the number of candidates per reasoning call (default 10).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// RequestsPerSecond is the process-wide request budget shared by
	// all concurrent workers (default 2).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// VectorConfig configures the vector-similarity strategy.
type VectorConfig struct {
	StrategyConfig `yaml:",inline" mapstructure:",squash"`

	// MaxChars truncates texts before embedding (default 500).
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars"`
}

// KeywordConfig configures the rule/keyword strategy.
type KeywordConfig struct {
	StrategyConfig `yaml:",inline" mapstructure:",squash"`

	// Fuzzy enables inflection-variant matching (default true).
	Fuzzy bool `json:"fuzzy" yaml:"fuzzy" mapstructure:"fuzzy"`
}

// EnsembleConfig configures the score combiner.
type EnsembleConfig struct {
	// MinFinalScore is the sole admission gate for evidence (default 0.65).
	MinFinalScore float64 `json:"min_final_score" yaml:"min_final_score" mapstructure:"min_final_score"`

	// AgreementBonus is added when all produced scores are mutually
	// within AgreementDelta of each other (default 0.05).
	AgreementBonus float64 `json:"agreement_bonus" yaml:"agreement_bonus" mapstructure:"agreement_bonus"`

	// AgreementDelta is the maximum pairwise spread that still counts
	// as agreement (default 0.15).
	AgreementDelta float64 `json:"agreement_delta" yaml:"agreement_delta" mapstructure:"agreement_delta"`

	// ApplySingle applies the bonus when only one strategy produced a
	// score. Vacuous agreement overstates confidence, so the default
	// is false.
	ApplySingle bool `json:"apply_single" yaml:"apply_single" mapstructure:"apply_single"`
}

// EmbeddingConfig configures the embedding service client.
type EmbeddingConfig struct {
	// Provider selects the backend: "ollama" (local HTTP) or "voyage".
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the backend's default endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Model is the embedding model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates hosted backends. Usually via .secrets/.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout is the per-call HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// QualityConfig weighs the components of a cell's overall score.
type QualityConfig struct {
	PolicyWeight    float64 `json:"policy_weight" yaml:"policy_weight" mapstructure:"policy_weight"`
	SentimentWeight float64 `json:"sentiment_weight" yaml:"sentiment_weight" mapstructure:"sentiment_weight"`
	LanguageWeight  float64 `json:"language_weight" yaml:"language_weight" mapstructure:"language_weight"`

	// ExpectedLanguages normalizes language coverage (default 8).
	ExpectedLanguages int `json:"expected_languages" yaml:"expected_languages" mapstructure:"expected_languages"`
}

// OutputConfig configures where and how cells are written.
type OutputConfig struct {
	// Dir is the dataset output directory (default "dataset").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Format selects the primary export: "jsonl" or "csv" (default jsonl).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every setting the alignment engine consumes.
type Config struct {
	// CorpusDB is the path to the shared corpus SQLite database.
	CorpusDB string `json:"corpus_db" yaml:"corpus_db" mapstructure:"corpus_db"`

	LLM     LLMConfig     `json:"llm" yaml:"llm" mapstructure:"llm"`
	Vector  VectorConfig  `json:"vector" yaml:"vector" mapstructure:"vector"`
	Keyword KeywordConfig `json:"keyword" yaml:"keyword" mapstructure:"keyword"`

	Ensemble  EnsembleConfig  `json:"ensemble" yaml:"ensemble" mapstructure:"ensemble"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Quality   QualityConfig   `json:"quality" yaml:"quality" mapstructure:"quality"`
	Output    OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`

	// MaxPolicyEvidence / MaxSentimentEvidence cap each cell's
	// evidence lists (defaults 15 and 30).
	MaxPolicyEvidence    int `json:"max_policy_evidence" yaml:"max_policy_evidence" mapstructure:"max_policy_evidence"`
	MaxSentimentEvidence int `json:"max_sentiment_evidence" yaml:"max_sentiment_evidence" mapstructure:"max_sentiment_evidence"`

	// SentimentWindowDays limits sentiment candidates by recency
	// (default 90).
	SentimentWindowDays int `json:"sentiment_window_days" yaml:"sentiment_window_days" mapstructure:"sentiment_window_days"`

	// CandidateLimit bounds the prefiltered candidate pool per concept
	// and corpus (default 100).
	CandidateLimit int `json:"candidate_limit" yaml:"candidate_limit" mapstructure:"candidate_limit"`

	// Workers is the concept worker pool size (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the engine defaults; file and flag values
// override individual fields.
func DefaultConfig() Config {
	return Config{
		CorpusDB: "corpus.db",
		LLM: LLMConfig{
			StrategyConfig: StrategyConfig{Enabled: false, Weight: 0.5},
			AIConfig: AIConfig{
				Provider:   "anthropic",
				Model:      "claude-sonnet-4-5-20250929",
				MaxRetries: 3,
				Timeout:    60 * time.Second,
			},
			BatchSize:         10,
			RequestsPerSecond: 2,
		},
		Vector: VectorConfig{
			StrategyConfig: StrategyConfig{Enabled: true, Weight: 0.3},
			MaxChars:       500,
		},
		Keyword: KeywordConfig{
			StrategyConfig: StrategyConfig{Enabled: true, Weight: 0.2},
			Fuzzy:          true,
		},
		Ensemble: EnsembleConfig{
			MinFinalScore:  0.65,
			AgreementBonus: 0.05,
			AgreementDelta: 0.15,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			Timeout:  60 * time.Second,
		},
		Quality: QualityConfig{
			PolicyWeight:      0.4,
			SentimentWeight:   0.4,
			LanguageWeight:    0.2,
			ExpectedLanguages: 8,
		},
		Output:               OutputConfig{Dir: "dataset", Format: "jsonl"},
		MaxPolicyEvidence:    15,
		MaxSentimentEvidence: 30,
		SentimentWindowDays:  90,
		CandidateLimit:       100,
		Workers:              4,
	}
}

// Validate rejects configurations the engine must not start with.
// Validation failures are fatal at startup; no partial run begins.
func (c Config) Validate() error {
	if c.CorpusDB == "" {
		return fmt.Errorf("corpus_db is required")
	}
	if !c.LLM.Enabled && !c.Vector.Enabled && !c.Keyword.Enabled {
		return fmt.Errorf("all strategies are disabled: enable at least one of llm, vector, keyword")
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"llm.weight", c.LLM.Weight},
		{"vector.weight", c.Vector.Weight},
		{"keyword.weight", c.Keyword.Weight},
		{"quality.policy_weight", c.Quality.PolicyWeight},
		{"quality.sentiment_weight", c.Quality.SentimentWeight},
		{"quality.language_weight", c.Quality.LanguageWeight},
	} {
		if w.value < 0 {
			return fmt.Errorf("%s is negative (%f)", w.name, w.value)
		}
	}
	if c.Ensemble.MinFinalScore < 0 || c.Ensemble.MinFinalScore > 1 {
		return fmt.Errorf("ensemble.min_final_score %f out of range [0,1]", c.Ensemble.MinFinalScore)
	}
	if c.Ensemble.AgreementBonus < 0 || c.Ensemble.AgreementDelta < 0 {
		return fmt.Errorf("ensemble agreement parameters must be non-negative")
	}
	if c.LLM.Enabled && c.LLM.Provider != "anthropic" {
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Vector.Enabled {
		switch c.Embedding.Provider {
		case "ollama", "voyage":
		default:
			return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
		}
	}
	if c.MaxPolicyEvidence <= 0 || c.MaxSentimentEvidence <= 0 {
		return fmt.Errorf("evidence caps must be positive")
	}
	if c.SentimentWindowDays <= 0 {
		return fmt.Errorf("sentiment_window_days must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	switch c.Output.Format {
	case "jsonl", "csv":
	default:
		return fmt.Errorf("unsupported output format %q: use jsonl or csv", c.Output.Format)
	}
	return nil
}

// Weights returns the configured weight for each enabled strategy.
func (c Config) Weights() map[string]float64 {
	w := make(map[string]float64, 3)
	if c.LLM.Enabled {
		w[StrategyLLM] = c.LLM.Weight
	}
	if c.Vector.Enabled {
		w[StrategyVector] = c.Vector.Weight
	}
	if c.Keyword.Enabled {
		w[StrategyRule] = c.Keyword.Weight
	}
	return w
}
