// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/meshintel/align-engine/internal/align"
	"github.com/meshintel/align-engine/internal/cell"
	"github.com/meshintel/align-engine/internal/corpus"
	"github.com/meshintel/align-engine/internal/embed"
	"github.com/meshintel/align-engine/internal/strategy"
	"github.com/meshintel/align-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Align concepts against policy and sentiment corpora",
	Long: `Run aligns every completed concept in the corpus database against the
policy paragraph pool and the recent news article pool, then exports the
resulting Knowledge Cells.

With --since, only concepts added or whose candidate pools changed after
the given RFC 3339 timestamp are re-aligned. With --watch, the engine
stays resident and re-runs incremental alignment whenever the corpus
database changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		store, err := corpus.Open(cfg.CorpusDB)
		if err != nil {
			return fmt.Errorf("opening corpus database: %w", err)
		}
		defer store.Close()

		strategies, err := buildStrategies(cfg)
		if err != nil {
			return err
		}

		watch, _ := cmd.Flags().GetBool("watch")
		sinceStr, _ := cmd.Flags().GetString("since")

		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		sink, outPath, err := openSink(cfg, watch || sinceStr != "")
		if err != nil {
			return err
		}
		defer sink.Close()

		reporter := cell.NewReporter()
		engine := align.NewEngine(align.EngineOpts{
			Config:     cfg,
			Terms:      store,
			Policy:     store,
			Sentiment:  store,
			State:      store,
			Strategies: strategies,
			Sink:       sink,
			Reporter:   reporter,
			Log:        os.Stderr,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var summary align.RunSummary
		switch {
		case watch:
			err = engine.Watch(ctx, store, cfg.CorpusDB)
			if err == context.Canceled {
				err = nil
			}
		case sinceStr != "":
			var since time.Time
			since, err = time.Parse(time.RFC3339, sinceStr)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			summary, err = engine.RunSince(ctx, store, since)
		default:
			summary, err = engine.Run(ctx)
		}
		if err != nil {
			return err
		}

		if !watch {
			fmt.Fprintf(os.Stderr, "Exported %d cells to %s (%d failed)\n",
				summary.Succeeded, outPath, summary.Failed)
		}

		reportPath := filepath.Join(cfg.Output.Dir, "quality_report.md")
		if err := os.WriteFile(reportPath, []byte(reporter.Summarize(10).Markdown()), 0o644); err != nil {
			return fmt.Errorf("writing quality report: %w", err)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("since", "", "incremental mode: realign concepts touched after this RFC 3339 timestamp")
	runCmd.Flags().Bool("watch", false, "stay resident and realign on corpus changes")
	runCmd.Flags().Int("workers", 0, "concept worker pool size (overrides config)")
	runCmd.Flags().String("output", "", "output directory (overrides config)")
	runCmd.Flags().String("format", "", "output format: jsonl or csv (overrides config)")

	rootCmd.AddCommand(runCmd)
}

// loadConfig merges defaults, the config file, environment, and flags,
// then validates. Validation failures abort before any work starts.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("parsing configuration: %w", err)
	}

	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Workers = workers
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Output.Dir = out
	}
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.Output.Format = format
	}

	cfg.LLM.APIKey = secretDefault("anthropic-api-key", cfg.LLM.APIKey)
	cfg.Embedding.APIKey = secretDefault("voyage-api-key", cfg.Embedding.APIKey)

	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildStrategies constructs the enabled strategy set. The LLM judge's
// rate limiter is created once here so every worker shares it.
func buildStrategies(cfg types.Config) ([]strategy.Strategy, error) {
	var strategies []strategy.Strategy

	if cfg.LLM.Enabled {
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("llm strategy enabled but no API key: add .secrets/anthropic-api-key or set llm.api_key")
		}
		var limiter *rate.Limiter
		if cfg.LLM.RequestsPerSecond > 0 {
			limiter = rate.NewLimiter(rate.Limit(cfg.LLM.RequestsPerSecond), 1)
		}
		strategies = append(strategies, strategy.NewJudge(cfg.LLM, limiter, os.Stderr))
	}
	if cfg.Vector.Enabled {
		embedder, err := embed.New(cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("building embedder: %w", err)
		}
		strategies = append(strategies, strategy.NewVector(cfg.Vector, embedder))
	}
	if cfg.Keyword.Enabled {
		strategies = append(strategies, strategy.NewKeyword(cfg.Keyword))
	}
	return strategies, nil
}

// openSink creates the configured primary export sink. A full run
// truncates any prior export; an incremental run appends, so cells
// previously exported for untouched concepts survive.
func openSink(cfg types.Config, incremental bool) (cell.Sink, string, error) {
	switch cfg.Output.Format {
	case "csv":
		path := filepath.Join(cfg.Output.Dir, "knowledge_cells.csv")
		if incremental {
			if info, err := os.Stat(path); err == nil && info.Size() > 0 {
				f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return nil, "", fmt.Errorf("opening %s for append: %w", path, err)
				}
				return cell.NewCSVAppendSink(f), path, nil
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, "", fmt.Errorf("creating %s: %w", path, err)
		}
		sink, err := cell.NewCSVSink(f)
		if err != nil {
			f.Close()
			return nil, "", err
		}
		return sink, path, nil
	default:
		path := filepath.Join(cfg.Output.Dir, "knowledge_cells.jsonl")
		mode := os.O_TRUNC
		if incremental {
			mode = os.O_APPEND
		}
		f, err := os.OpenFile(path, mode|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, "", fmt.Errorf("opening %s: %w", path, err)
		}
		return cell.NewJSONLSink(f), path, nil
	}
}
