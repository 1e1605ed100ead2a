// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"text/template"
	"time"

	"golang.org/x/time/rate"

	"github.com/meshintel/align-engine/pkg/types"
)

// judgePromptTmpl is the prompt sent to the Claude API for each batch of
// candidate texts. The model rates how related each text is to the
// concept and returns a JSON array of per-index scores.
var judgePromptTmpl = template.Must(template.New("judge").Parse(`You are an economic policy analyst. Rate how semantically related each numbered text is to the concept below.

Concept: {{.Term}}
{{- if .Definition}}
Definition: {{.Definition}}
{{- end}}
{{- if .RelatedTerms}}
Related terms: {{.RelatedTerms}}
{{- end}}

Scoring rubric:
- 0.9-1.0: the text is directly about this concept
- 0.7-0.9: the text substantially discusses this concept or its immediate effects
- 0.5-0.7: the text touches on this concept among other topics
- 0.3-0.5: the text is loosely related through shared context
- 0.0-0.3: the text is unrelated

Texts:
{{range .Texts}}[{{.Index}}] {{.Text}}
{{end}}
Respond with ONLY a JSON array, one element per text: [{"index": 0, "score": 0.85, "reason": "..."}]. Every index must appear exactly once.`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Judge scores candidates by asking a Claude model to rate semantic
// relatedness in batches. All Judge instances created for one run share
// a rate limiter so the global requests-per-second ceiling holds across
// concurrently processed concepts.
type Judge struct {
	cfg      types.LLMConfig
	client   *http.Client
	limiter  *rate.Limiter
	logw     io.Writer
	endpoint string
}

// NewJudge builds an LLM judge. The limiter must be shared across all
// judges in a run; pass nil to run unthrottled.
func NewJudge(cfg types.LLMConfig, limiter *rate.Limiter, logw io.Writer) *Judge {
	if logw == nil {
		logw = io.Discard
	}
	return &Judge{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  limiter,
		logw:     logw,
		endpoint: claudeAPIURL,
	}
}

func (j *Judge) Name() string { return types.StrategyLLM }

// Score rates candidates in batches. A batch that exhausts its retries
// fails the whole strategy for this concept; partial per-batch results
// are discarded so the ensemble sees either full coverage or none.
func (j *Judge) Score(ctx context.Context, q Query, candidates []Candidate) Outcome {
	if len(candidates) == 0 {
		return Ok(types.StrategyLLM, nil)
	}

	batchSize := j.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	scores := make([]Score, len(candidates))
	for i, cand := range candidates {
		scores[i] = Score{CandidateID: cand.ID, Note: "not rated"}
	}

	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		ratings, err := j.rateBatchWithRetry(ctx, q, batch)
		if err != nil {
			return Failed(types.StrategyLLM, fmt.Sprintf("batch %d-%d: %v", start, end-1, err))
		}

		for _, r := range ratings {
			if r.Index < 0 || r.Index >= len(batch) {
				fmt.Fprintf(j.logw, "judge: term %q batch %d: index %d out of range, skipping\n", q.Term, start, r.Index)
				continue
			}
			v := r.Score
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			scores[start+r.Index].Value = v
			scores[start+r.Index].Note = ""
			if r.Reason != "" {
				fmt.Fprintf(j.logw, "judge: term %q candidate %d score %.2f: %s\n",
					q.Term, batch[r.Index].ID, v, r.Reason)
			}
		}
	}

	return Ok(types.StrategyLLM, scores)
}

// judgeRating is one element of the model's JSON array response.
type judgeRating struct {
	Index  int     `json:"index"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// rateBatchWithRetry calls the API with exponential backoff.
func (j *Judge) rateBatchWithRetry(ctx context.Context, q Query, batch []Candidate) ([]judgeRating, error) {
	maxRetries := j.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		ratings, err := j.rateBatch(ctx, q, batch)
		if err == nil {
			return ratings, nil
		}
		lastErr = err
		fmt.Fprintf(j.logw, "judge: term %q attempt %d/%d failed: %v\n", q.Term, attempt+1, maxRetries+1, err)
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries+1, lastErr)
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
	Error   *claudeError    `json:"error"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (j *Judge) rateBatch(ctx context.Context, q Query, batch []Candidate) ([]judgeRating, error) {
	if j.limiter != nil {
		if err := j.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	prompt, err := renderJudgePrompt(q, batch)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     j.cfg.Model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", j.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("decoding Claude response: %w", err)
	}
	if cResp.Error != nil {
		return nil, fmt.Errorf("Claude API error: %s: %s", cResp.Error.Type, cResp.Error.Message)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		return parseRatings(block.Text)
	}
	return nil, fmt.Errorf("no text content in Claude API response")
}

// parseRatings extracts the JSON array from the model's reply. Models
// occasionally wrap the array in markdown fences or prose, so the
// parser locates the outermost brackets before unmarshaling.
func parseRatings(text string) ([]judgeRating, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response: %.80s", text)
	}

	var ratings []judgeRating
	if err := json.Unmarshal([]byte(text[start:end+1]), &ratings); err != nil {
		return nil, fmt.Errorf("parsing ratings JSON: %w", err)
	}
	return ratings, nil
}

type judgePromptText struct {
	Index int
	Text  string
}

func renderJudgePrompt(q Query, batch []Candidate) (string, error) {
	texts := make([]judgePromptText, len(batch))
	for i, cand := range batch {
		texts[i] = judgePromptText{Index: i, Text: truncateRunes(cand.Text, 1500)}
	}
	var buf bytes.Buffer
	err := judgePromptTmpl.Execute(&buf, struct {
		Term         string
		Definition   string
		RelatedTerms string
		Texts        []judgePromptText
	}{
		Term:         q.Term,
		Definition:   truncateRunes(q.Definition, 600),
		RelatedTerms: strings.Join(q.RelatedTerms, ", "),
		Texts:        texts,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
