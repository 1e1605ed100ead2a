// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/align-engine/pkg/types"
)

func sinkConfig(t *testing.T, format string) types.Config {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Format = format
	return cfg
}

func cellFixture(id string) types.KnowledgeCell {
	return types.KnowledgeCell{
		ConceptID:   id,
		PrimaryTerm: "inflation",
		Metadata: types.CellMetadata{
			CreatedAt: "2026-08-28T00:00:00Z",
			RunID:     "run-" + id,
		},
	}
}

func TestOpenSink_FullRunTruncatesPriorExport(t *testing.T) {
	cfg := sinkConfig(t, "jsonl")

	sink, path, err := openSink(cfg, false)
	require.NoError(t, err)
	require.NoError(t, sink.Emit(cellFixture("q1")))
	require.NoError(t, sink.Close())

	sink, _, err = openSink(cfg, false)
	require.NoError(t, err)
	require.NoError(t, sink.Emit(cellFixture("q2")))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"concept_id":"q2"`)
}

func TestOpenSink_IncrementalRunAppendsJSONL(t *testing.T) {
	cfg := sinkConfig(t, "jsonl")

	sink, path, err := openSink(cfg, false)
	require.NoError(t, err)
	require.NoError(t, sink.Emit(cellFixture("q1")))
	require.NoError(t, sink.Close())

	// An incremental run must extend the export, not restart it.
	sink, _, err = openSink(cfg, true)
	require.NoError(t, err)
	require.NoError(t, sink.Emit(cellFixture("q2")))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var ids []string
	for _, line := range lines {
		var c types.KnowledgeCell
		require.NoError(t, json.Unmarshal([]byte(line), &c))
		ids = append(ids, c.ConceptID)
	}
	assert.Equal(t, []string{"q1", "q2"}, ids)
}

func TestOpenSink_IncrementalRunWithNoWorkKeepsExport(t *testing.T) {
	cfg := sinkConfig(t, "jsonl")

	sink, path, err := openSink(cfg, false)
	require.NoError(t, err)
	require.NoError(t, sink.Emit(cellFixture("q1")))
	require.NoError(t, sink.Close())

	before, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, before.Size())

	// No touched concepts: the sink opens and closes without emitting.
	sink, _, err = openSink(cfg, true)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Size(), after.Size())
}

func TestOpenSink_IncrementalCSVDoesNotRepeatHeader(t *testing.T) {
	cfg := sinkConfig(t, "csv")

	sink, path, err := openSink(cfg, false)
	require.NoError(t, err)
	require.NoError(t, sink.Emit(cellFixture("q1")))
	require.NoError(t, sink.Close())

	sink, _, err = openSink(cfg, true)
	require.NoError(t, err)
	require.NoError(t, sink.Emit(cellFixture("q2")))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	bom := []byte{0xEF, 0xBB, 0xBF}
	assert.True(t, bytes.HasPrefix(data, bom))
	assert.Equal(t, 1, bytes.Count(data, bom))
	assert.Equal(t, 1, bytes.Count(data, []byte("concept_id")))

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, bom))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "q1", records[1][0])
	assert.Equal(t, "q2", records[2][0])
}

func TestOpenSink_IncrementalCSVWithoutPriorExportStartsFresh(t *testing.T) {
	cfg := sinkConfig(t, "csv")

	sink, path, err := openSink(cfg, true)
	require.NoError(t, err)
	require.NoError(t, sink.Emit(cellFixture("q1")))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, 1, bytes.Count(data, []byte("concept_id")))
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "knowledge_cells.csv"), path)
}
