// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/align-engine/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config merges defaults, the config file, and environment overrides, and
prints the result. Secrets loaded from .secrets/ are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := types.DefaultConfig()
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("parsing configuration: %w", err)
		}

		if cfg.LLM.APIKey != "" {
			cfg.LLM.APIKey = "(redacted)"
		}
		if cfg.Embedding.APIKey != "" {
			cfg.Embedding.APIKey = "(redacted)"
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling configuration: %w", err)
		}
		os.Stdout.Write(data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
