// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cell

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/align-engine/pkg/types"
)

func TestJSONLSink_OneCellPerLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONLSink(&buf)

	require.NoError(t, s.Emit(cellWithScore("a", 0.9, 1)))
	require.NoError(t, s.Emit(cellWithScore("b", 0.5, 0)))
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var c types.KnowledgeCell
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &c))
	assert.Equal(t, "a", c.ConceptID)
	assert.InDelta(t, 0.9, c.Metadata.Quality.OverallScore, 1e-9)
}

func TestCSVSink_BOMAndHeader(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewCSVSink(&buf)
	require.NoError(t, err)

	require.NoError(t, s.Emit(cellWithScore("a", 0.9, 1)))
	require.NoError(t, s.Close())

	out := buf.Bytes()
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, out[:3], "UTF-8 BOM for spreadsheet imports")

	lines := strings.Split(strings.TrimSpace(string(out[3:])), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "concept_id,primary_term"))
	assert.Contains(t, lines[1], "a,term-a")
	assert.Contains(t, lines[1], "0.9000")
}

func TestCSVSink_NonLatinTerms(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewCSVSink(&buf)
	require.NoError(t, err)

	c := cellWithScore("q1", 0.8, 1)
	c.PrimaryTerm = "通货膨胀"
	require.NoError(t, s.Emit(c))
	require.NoError(t, s.Close())

	assert.Contains(t, buf.String(), "通货膨胀")
}

func TestCSVAppendSink_NoBOMOrHeader(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewCSVSink(&buf)
	require.NoError(t, err)
	require.NoError(t, s.Emit(cellWithScore("a", 0.9, 1)))
	require.NoError(t, s.Close())

	appender := NewCSVAppendSink(&buf)
	require.NoError(t, appender.Emit(cellWithScore("b", 0.5, 0)))
	require.NoError(t, appender.Close())

	data := buf.Bytes()
	assert.Equal(t, 1, bytes.Count(data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, 1, bytes.Count(data, []byte("concept_id")))

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "a,"))
	assert.True(t, strings.HasPrefix(lines[2], "b,"))
}
