package embedworker

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// HTTPBackend calls an embedding service over plain net/http. The
// teacher's pkg/clients/embedding/client.go wraps go-resty for this;
// no SPEC_FULL.md component calls for resty's retry/backoff
// conveniences (neither this backend nor embedworker.Pool retries a
// failed request), so the
// request/response shapes are kept but the transport is the standard
// library client, matching the thin-wrapper style of
// pkg/clients/base.
type HTTPBackend struct {
	BaseURL    string
	Model      string
	Dimension  int
	httpClient *http.Client
}

// NewHTTPBackend builds a backend pointed at baseURL, requesting
// embeddings for the given model/dimension.
func NewHTTPBackend(baseURL, model string, dimension int) *HTTPBackend {
	return &HTTPBackend{
		BaseURL:   baseURL,
		Model:     model,
		Dimension: dimension,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (h *HTTPBackend) Init(ctx context.Context) (InitDonePayload, error) {
	return InitDonePayload{Backend: "http", ModelID: h.Model, Dimension: h.Dimension}, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingDatum struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Data []embeddingDatum `json:"data"`
}

func (h *HTTPBackend) EmbedChunks(ctx context.Context, payload EmbedChunksPayload) (EmbedChunksResultPayload, error) {
	texts := make([]string, len(payload.Chunks))
	for i, c := range payload.Chunks {
		texts[i] = c.Text
	}
	reqBody, err := sonic.Marshal(embeddingRequest{Model: h.Model, Input: texts})
	if err != nil {
		return EmbedChunksResultPayload{}, fmt.Errorf("encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/v1/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return EmbedChunksResultPayload{}, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return EmbedChunksResultPayload{}, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return EmbedChunksResultPayload{}, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var decoded embeddingResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return EmbedChunksResultPayload{}, fmt.Errorf("decode embedding response: %w", err)
	}

	embeddings := make([]EmbeddingResult, len(decoded.Data))
	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(payload.Chunks) {
			continue
		}
		embeddings[d.Index] = EmbeddingResult{ChunkID: payload.Chunks[d.Index].ID, Vector: d.Embedding}
	}

	return EmbedChunksResultPayload{
		Embeddings: embeddings,
		Backend:    "http",
		ModelID:    h.Model,
		Dimension:  h.Dimension,
	}, nil
}
