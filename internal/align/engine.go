// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package align orchestrates alignment runs: it walks each concept
// through retrieval, strategy fan-out, score combination, filtering,
// and cell assembly, with a bounded worker pool across concepts.
package align

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meshintel/align-engine/internal/cell"
	"github.com/meshintel/align-engine/internal/strategy"
	"github.com/meshintel/align-engine/pkg/types"
)

// EngineVersion is stamped into each cell's metadata.
const EngineVersion = "1.2.0"

// Stage names for per-concept progress. A concept moves through these
// in order; failed is terminal and reachable from any stage.
const (
	StagePending    = "pending"
	StageRetrieving = "retrieving"
	StageScoring    = "scoring"
	StageCombining  = "combining"
	StageFiltering  = "filtering"
	StageAssembled  = "assembled"
	StageExported   = "exported"
	StageFailed     = "failed"
)

// TermSource lists the concepts to align.
type TermSource interface {
	ListConcepts(ctx context.Context) ([]types.Concept, error)
}

// PolicySource retrieves policy paragraph candidates for a concept.
type PolicySource interface {
	QueryParagraphs(ctx context.Context, term string, variants []string, limit int) ([]types.PolicyParagraph, error)
}

// SentimentSource retrieves news article candidates for a concept.
type SentimentSource interface {
	QueryArticles(ctx context.Context, term string, variants []string, cutoff time.Time, limit int) ([]types.NewsArticle, error)
}

// StateStore records per-concept alignment completion times, used by
// incremental runs.
type StateStore interface {
	MarkAligned(ctx context.Context, conceptID string, at time.Time) error
	LastAligned(ctx context.Context, conceptID string) (time.Time, error)
}

// RunRecord is the per-concept outcome of a run.
type RunRecord struct {
	ConceptID string
	Term      string
	Stage     string
	Err       error

	// PoolErrors distinguishes an unreachable candidate pool from an
	// empty one: a pool that errored contributes a reason here, while
	// an empty pool contributes nothing and the cell simply carries
	// zero evidence from it.
	PoolErrors map[types.Pool]error
}

// RunSummary aggregates a completed run.
type RunSummary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration

	// FailureReasons maps concept id to the terminal error.
	FailureReasons map[string]string
}

// Engine runs alignment over a set of concepts.
type Engine struct {
	cfg        types.Config
	terms      TermSource
	policy     PolicySource
	sentiment  SentimentSource
	state      StateStore
	strategies []strategy.Strategy
	combiner   *strategy.Combiner
	sink       cell.Sink
	reporter   *cell.Reporter
	logw       io.Writer
	now        func() time.Time
}

// EngineOpts wires an engine's collaborators. Terms, Policy, Sentiment
// and Sink are required; State may be nil when completion tracking is
// not wanted (tests, dry runs).
type EngineOpts struct {
	Config     types.Config
	Terms      TermSource
	Policy     PolicySource
	Sentiment  SentimentSource
	State      StateStore
	Strategies []strategy.Strategy
	Sink       cell.Sink
	Reporter   *cell.Reporter
	Log        io.Writer
	Now        func() time.Time
}

func NewEngine(opts EngineOpts) *Engine {
	logw := opts.Log
	if logw == nil {
		logw = io.Discard
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = cell.NewReporter()
	}
	return &Engine{
		cfg:        opts.Config,
		terms:      opts.Terms,
		policy:     opts.Policy,
		sentiment:  opts.Sentiment,
		state:      opts.State,
		strategies: opts.Strategies,
		combiner:   strategy.NewCombiner(opts.Config.Ensemble, opts.Config.Weights(), logw),
		sink:       opts.Sink,
		reporter:   reporter,
		logw:       logw,
		now:        now,
	}
}

// Run aligns every concept from the term source. Concepts are processed
// by a bounded worker pool; emission is serialized through a single
// emitter goroutine so the sink never sees concurrent writes. On
// cancellation, in-flight concepts finish and are emitted while
// not-yet-started concepts are skipped.
func (e *Engine) Run(ctx context.Context) (RunSummary, error) {
	concepts, err := e.terms.ListConcepts(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("listing concepts: %w", err)
	}
	return e.runConcepts(ctx, concepts)
}

func (e *Engine) runConcepts(ctx context.Context, concepts []types.Concept) (RunSummary, error) {
	runID := uuid.NewString()
	start := e.now()
	summary := RunSummary{
		RunID:          runID,
		Total:          len(concepts),
		FailureReasons: make(map[string]string),
	}
	fmt.Fprintf(e.logw, "run %s: aligning %d concepts with %d workers\n", runID, len(concepts), e.cfg.Workers)

	type emitted struct {
		record RunRecord
		cell   *types.KnowledgeCell
	}

	work := make(chan types.Concept)
	results := make(chan emitted)

	// Workers run each concept under a non-cancelable context: once a
	// concept is dispatched its retrieval and strategy calls finish even
	// if the run is aborted. Cancellation only stops the feeder below.
	// Per-call HTTP timeouts bound how long a drain can take.
	workCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for concept := range work {
				c, record := e.processConcept(workCtx, concept, runID)
				results <- emitted{record: record, cell: c}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, concept := range concepts {
			select {
			case <-ctx.Done():
				return
			case work <- concept:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Emission runs on this goroutine only. The work context survives
	// cancellation so finished concepts still reach the sink and the
	// state store.
	for r := range results {
		if r.record.Stage == StageFailed {
			summary.Failed++
			summary.FailureReasons[r.record.ConceptID] = r.record.Err.Error()
			fmt.Fprintf(e.logw, "run %s: concept %s (%s) failed: %v\n",
				runID, r.record.ConceptID, r.record.Term, r.record.Err)
			continue
		}
		if err := e.sink.Emit(*r.cell); err != nil {
			summary.Failed++
			summary.FailureReasons[r.record.ConceptID] = err.Error()
			fmt.Fprintf(e.logw, "run %s: emitting cell for %s: %v\n", runID, r.record.ConceptID, err)
			continue
		}
		e.reporter.Observe(*r.cell)
		if e.state != nil {
			if err := e.state.MarkAligned(workCtx, r.record.ConceptID, e.now()); err != nil {
				fmt.Fprintf(e.logw, "run %s: recording completion for %s: %v\n", runID, r.record.ConceptID, err)
			}
		}
		summary.Succeeded++
		for pool, perr := range r.record.PoolErrors {
			fmt.Fprintf(e.logw, "run %s: concept %s: %s pool unavailable: %v\n",
				runID, r.record.ConceptID, pool, perr)
		}
	}

	summary.Elapsed = e.now().Sub(start)
	fmt.Fprintf(e.logw, "run %s: done: %d succeeded, %d failed in %s\n",
		runID, summary.Succeeded, summary.Failed, summary.Elapsed.Round(time.Millisecond))
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// processConcept walks one concept through the full pipeline. It never
// panics the worker; every failure path lands in the returned record.
func (e *Engine) processConcept(ctx context.Context, concept types.Concept, runID string) (*types.KnowledgeCell, RunRecord) {
	record := RunRecord{
		ConceptID:  concept.ID,
		Term:       concept.PrimaryTerm,
		Stage:      StagePending,
		PoolErrors: make(map[types.Pool]error),
	}

	record.Stage = StageRetrieving
	variants := concept.TermVariants()
	cutoff := e.now().AddDate(0, 0, -e.cfg.SentimentWindowDays)

	paragraphs, perr := e.policy.QueryParagraphs(ctx, concept.PrimaryTerm, variants, e.cfg.CandidateLimit)
	if perr != nil {
		record.PoolErrors[types.PoolPolicy] = perr
	}
	articles, serr := e.sentiment.QueryArticles(ctx, concept.PrimaryTerm, variants, cutoff, e.cfg.CandidateLimit)
	if serr != nil {
		record.PoolErrors[types.PoolSentiment] = serr
	}
	if perr != nil && serr != nil {
		record.Stage = StageFailed
		record.Err = fmt.Errorf("all candidate pools unavailable: policy: %v; sentiment: %v", perr, serr)
		return nil, record
	}

	policyCandidates := make([]strategy.Candidate, len(paragraphs))
	paragraphByID := make(map[int64]types.PolicyParagraph, len(paragraphs))
	for i, p := range paragraphs {
		policyCandidates[i] = strategy.Candidate{ID: p.ID, Text: p.Text}
		paragraphByID[p.ID] = p
	}
	sentimentCandidates := make([]strategy.Candidate, len(articles))
	articleByID := make(map[int64]types.NewsArticle, len(articles))
	for i, a := range articles {
		sentimentCandidates[i] = strategy.Candidate{ID: a.ID, Text: a.AlignmentText()}
		articleByID[a.ID] = a
	}

	query := strategy.Query{
		Term:         concept.PrimaryTerm,
		Definition:   concept.PrimaryDefinition(),
		RelatedTerms: variants,
	}

	record.Stage = StageScoring
	policyOutcomes := e.fanOut(ctx, query, policyCandidates)
	sentimentOutcomes := e.fanOut(ctx, query, sentimentCandidates)

	produced := 0
	for _, o := range append(append([]strategy.Outcome{}, policyOutcomes...), sentimentOutcomes...) {
		if o.OK() {
			produced++
		} else {
			fmt.Fprintf(e.logw, "concept %s: strategy %s disabled for this term: %s\n",
				concept.ID, o.Strategy, o.FailReason)
		}
	}
	if (len(policyCandidates) > 0 || len(sentimentCandidates) > 0) && produced == 0 {
		record.Stage = StageFailed
		record.Err = fmt.Errorf("no strategy produced scores")
		return nil, record
	}

	record.Stage = StageCombining
	policyResults := e.combiner.Results(policyCandidates, policyOutcomes)
	sentimentResults := e.combiner.Results(sentimentCandidates, sentimentOutcomes)

	record.Stage = StageFiltering
	policyResults = e.combiner.Admit(policyResults)
	sentimentResults = e.combiner.Admit(sentimentResults)

	record.Stage = StageAssembled
	c := cell.Assemble(cell.AssembleInput{
		Concept:          concept,
		PolicyResults:    policyResults,
		SentimentResults: sentimentResults,
		Paragraphs:       paragraphByID,
		Articles:         articleByID,
		Caps:             cell.Caps{Policy: e.cfg.MaxPolicyEvidence, Sentiment: e.cfg.MaxSentimentEvidence},
		Quality:          e.cfg.Quality,
		RunID:            runID,
		EngineVersion:    EngineVersion,
		Now:              e.now(),
	})
	record.Stage = StageExported
	return &c, record
}

// fanOut runs all strategies concurrently over one candidate pool and
// waits for every outcome. Strategies are read-only over their inputs,
// so they need no coordination beyond the final gather.
func (e *Engine) fanOut(ctx context.Context, q strategy.Query, candidates []strategy.Candidate) []strategy.Outcome {
	if len(candidates) == 0 {
		return nil
	}
	outcomes := make(chan strategy.Outcome, len(e.strategies))
	var wg sync.WaitGroup
	for _, s := range e.strategies {
		wg.Add(1)
		go func(s strategy.Strategy) {
			defer wg.Done()
			outcomes <- s.Score(ctx, q, candidates)
		}(s)
	}
	wg.Wait()
	close(outcomes)

	gathered := make([]strategy.Outcome, 0, len(e.strategies))
	for o := range outcomes {
		gathered = append(gathered, o)
	}
	return gathered
}
