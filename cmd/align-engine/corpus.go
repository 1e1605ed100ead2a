// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/align-engine/internal/corpus"
	"github.com/meshintel/align-engine/pkg/types"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Show corpus database statistics",
	Long: `Corpus prints counts of concepts, policy paragraphs, news articles, and
sentiment annotations in the shared corpus database, plus how many
concepts have been aligned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := types.DefaultConfig()
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("parsing configuration: %w", err)
		}

		store, err := corpus.Open(cfg.CorpusDB)
		if err != nil {
			return fmt.Errorf("opening corpus database: %w", err)
		}
		defer store.Close()

		stats, err := store.CountStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting: %w", err)
		}

		fmt.Fprintf(os.Stdout, "Corpus: %s\n", cfg.CorpusDB)
		fmt.Fprintf(os.Stdout, "  Concepts (completed):  %d\n", stats.Terms)
		fmt.Fprintf(os.Stdout, "  Policy reports:        %d\n", stats.PolicyReports)
		fmt.Fprintf(os.Stdout, "  Policy paragraphs:     %d\n", stats.PolicyParagraphs)
		fmt.Fprintf(os.Stdout, "  News articles:         %d\n", stats.NewsArticles)
		fmt.Fprintf(os.Stdout, "  Annotated articles:    %d\n", stats.AnnotatedArticles)
		fmt.Fprintf(os.Stdout, "  Concepts aligned:      %d\n", stats.AlignedConcepts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(corpusCmd)
}
