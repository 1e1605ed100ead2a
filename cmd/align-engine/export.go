// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/align-engine/internal/cell"
	"github.com/meshintel/align-engine/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export <cells.jsonl>",
	Short: "Re-export a JSONL dataset as a CSV summary",
	Long: `Export reads an existing knowledge_cells.jsonl dataset and writes the
flattened CSV summary next to it, without re-running alignment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, _ := cmd.Flags().GetString("out")
		if outPath == "" {
			outPath = "knowledge_cells.csv"
		}

		cells, err := readCells(args[0])
		if err != nil {
			return err
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		sink, err := cell.NewCSVSink(f)
		if err != nil {
			f.Close()
			return err
		}
		for _, c := range cells {
			if err := sink.Emit(c); err != nil {
				sink.Close()
				return err
			}
		}
		if err := sink.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d cells to %s\n", len(cells), outPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "", "output CSV path (default: knowledge_cells.csv)")

	rootCmd.AddCommand(exportCmd)
}

// readCells loads a JSONL dataset. A malformed line aborts with its
// line number rather than silently dropping cells.
func readCells(path string) ([]types.KnowledgeCell, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var cells []types.KnowledgeCell
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var c types.KnowledgeCell
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		cells = append(cells, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return cells, nil
}
