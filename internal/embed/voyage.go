// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meshintel/align-engine/internal/httputil"
	"github.com/meshintel/align-engine/pkg/types"
)

const defaultVoyageURL = "https://api.voyageai.com/v1/embeddings"

// Voyage embeds text through the hosted Voyage AI API.
type Voyage struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewVoyage builds a Voyage client from configuration.
func NewVoyage(cfg types.EmbeddingConfig) *Voyage {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultVoyageURL
	}
	model := cfg.Model
	if model == "" {
		model = "voyage-3-lite"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Voyage{
		endpoint: endpoint,
		model:    model,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type voyageRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type voyageResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates an embedding for a single text.
func (v *Voyage) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := v.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in a single API call, retrying on rate limits.
func (v *Voyage) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(voyageRequest{Input: texts, Model: v.model})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := httputil.DoWithRetry(ctx, v.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling voyage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("voyage api error (status %d): %s", resp.StatusCode, string(b))
	}

	var vr voyageResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(vr.Data) != len(texts) {
		return nil, fmt.Errorf("voyage returned %d embeddings for %d inputs", len(vr.Data), len(texts))
	}

	vectors := make([][]float32, len(vr.Data))
	for i, d := range vr.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
