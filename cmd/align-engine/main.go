// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the align-engine CLI.
// align-engine reads concepts and evidence corpora from the shared
// SQLite database, aligns them, and exports Knowledge Cells.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/align-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the align-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "align-engine",
	Short: "Semantic alignment engine for multilingual economic concepts",
	Long: `align-engine scores policy paragraphs and sentiment-annotated news
articles against multilingual economic concepts. Three strategies (LLM
judge, vector similarity, keyword matching) are combined by a weighted
ensemble; retained evidence is assembled into Knowledge Cells and
exported as a JSONL or CSV dataset.

Subcommands: run performs alignment, export re-serializes a dataset,
report rebuilds the quality report, and corpus shows corpus statistics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./align-engine.yaml or ~/.config/align-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("align-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "align-engine"))
		}
	}

	viper.SetEnvPrefix("ALIGN_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
