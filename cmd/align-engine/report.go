// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/align-engine/internal/cell"
)

var reportCmd = &cobra.Command{
	Use:   "report <cells.jsonl>",
	Short: "Rebuild the quality report from an exported dataset",
	Long: `Report folds an existing knowledge_cells.jsonl dataset into the run-level
quality summary and prints it as Markdown, without re-running alignment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("top")

		cells, err := readCells(args[0])
		if err != nil {
			return err
		}

		reporter := cell.NewReporter()
		for _, c := range cells {
			reporter.Observe(c)
		}
		fmt.Fprint(os.Stdout, reporter.Summarize(n).Markdown())
		return nil
	},
}

func init() {
	reportCmd.Flags().Int("top", 10, "number of top/bottom cells to list")

	rootCmd.AddCommand(reportCmd)
}
