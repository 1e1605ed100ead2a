// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package align

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/align-engine/internal/strategy"
	"github.com/meshintel/align-engine/pkg/types"
)

type fakeDelta struct {
	policyTexts  []string
	articleTexts []string
}

func (f *fakeDelta) NewPolicyTextsSince(ctx context.Context, since string) ([]string, error) {
	return f.policyTexts, nil
}

func (f *fakeDelta) NewArticleTextsSince(ctx context.Context, since string) ([]string, error) {
	return f.articleTexts, nil
}

func TestRunSince_UsesDeltaTexts(t *testing.T) {
	stale := conceptFixture("q1", "inflation")
	stale.UpdatedAt = "2026-01-01T00:00:00Z"
	src := &fakeSources{concepts: []types.Concept{stale}}
	sink := &memorySink{}

	e := NewEngine(EngineOpts{
		Config:     engineConfig(),
		Terms:      src,
		Policy:     src,
		Sentiment:  src,
		Strategies: []strategy.Strategy{fixedStrategy{name: types.StrategyRule, value: 0.9}},
		Sink:       sink,
	})

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// No upstream change, no mention in new texts: nothing to do.
	summary, err := e.RunSince(context.Background(), &fakeDelta{}, since)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)

	// A new paragraph mentions the term: the concept is realigned.
	delta := &fakeDelta{policyTexts: []string{"Inflation expectations shifted."}}
	summary, err = e.RunSince(context.Background(), delta, since)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
}

func TestWatch_RerunsOnDatabaseChange(t *testing.T) {
	oldDebounce := watchDebounce
	watchDebounce = 50 * time.Millisecond
	defer func() { watchDebounce = oldDebounce }()

	dbPath := filepath.Join(t.TempDir(), "corpus.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("seed"), 0o644))

	concept := conceptFixture("q1", "inflation")
	concept.UpdatedAt = time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	src := &fakeSources{concepts: []types.Concept{concept}}
	sink := &memorySink{}

	e := NewEngine(EngineOpts{
		Config:     engineConfig(),
		Terms:      src,
		Policy:     src,
		Sentiment:  src,
		Strategies: []strategy.Strategy{fixedStrategy{name: types.StrategyRule, value: 0.9}},
		Sink:       sink,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Watch(ctx, &fakeDelta{}, dbPath) }()

	// Give the watcher time to register, then touch the database.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(dbPath, []byte("changed"), 0o644))

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.cells) >= 1
	}, 5*time.Second, 20*time.Millisecond, "watch should trigger an incremental run")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
