// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"all strategies disabled",
			func(c *Config) {
				c.LLM.Enabled = false
				c.Vector.Enabled = false
				c.Keyword.Enabled = false
			},
			"all strategies are disabled",
		},
		{
			"negative weight",
			func(c *Config) { c.Vector.Weight = -0.1 },
			"vector.weight is negative",
		},
		{
			"threshold above one",
			func(c *Config) { c.Ensemble.MinFinalScore = 1.5 },
			"out of range",
		},
		{
			"unknown embedding provider",
			func(c *Config) { c.Embedding.Provider = "bedrock" },
			"unknown embedding provider",
		},
		{
			"unknown llm provider",
			func(c *Config) {
				c.LLM.Enabled = true
				c.LLM.Provider = "openai"
			},
			"unknown llm provider",
		},
		{
			"zero evidence cap",
			func(c *Config) { c.MaxPolicyEvidence = 0 },
			"evidence caps",
		},
		{
			"bad output format",
			func(c *Config) { c.Output.Format = "parquet" },
			"unsupported output format",
		},
		{
			"no workers",
			func(c *Config) { c.Workers = 0 },
			"workers",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWeights_EnabledOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Enabled = false

	w := cfg.Weights()
	assert.NotContains(t, w, StrategyLLM)
	assert.Equal(t, 0.3, w[StrategyVector])
	assert.Equal(t, 0.2, w[StrategyRule])
}
