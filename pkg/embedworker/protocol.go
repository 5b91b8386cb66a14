// Package embedworker implements the §6 embedding worker protocol and
// the worker-pool dispatch contract from §5: requests are correlated
// by monotonically increasing integer ids, responses resolve the
// matching pending request, and disposal rejects everything
// outstanding with a cancellation error. Grounded on the teacher's
// pkg/clients/embedding/client.go for the wire shapes (model id,
// dimension, batch request/response) and on
// other_examples/straga-Mimir_lite's embed_queue.go for the
// pull-trigger + cancel pool shape.
package embedworker

// MessageType enumerates the envelope's `type` field.
type MessageType string

const (
	TypeInit              MessageType = "init"
	TypeInitDone          MessageType = "init-done"
	TypeEmbedChunks       MessageType = "embed-chunks"
	TypeEmbedChunksResult MessageType = "embed-chunks-result"
	TypeError             MessageType = "error"
)

// Envelope is the outer message shape: {type, requestId, payload}.
type Envelope struct {
	Type      MessageType `json:"type"`
	RequestID int64       `json:"requestId"`
	Payload   any         `json:"payload,omitempty"`
}

// InitDonePayload is the payload of an init-done response.
type InitDonePayload struct {
	Backend   string `json:"backend"`
	ModelID   string `json:"modelId"`
	Dimension int    `json:"dimension"`
}

// ChunkInput is one chunk to embed.
type ChunkInput struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// EmbedChunksPayload is the request payload for embed-chunks.
type EmbedChunksPayload struct {
	Chunks    []ChunkInput `json:"chunks"`
	BatchSize int          `json:"batchSize"`
}

// EmbeddingResult is one embedded chunk in an embed-chunks-result.
type EmbeddingResult struct {
	ChunkID string    `json:"chunkId"`
	Vector  []float32 `json:"vector"`
}

// EmbedChunksResultPayload is the response payload for embed-chunks.
type EmbedChunksResultPayload struct {
	Embeddings []EmbeddingResult `json:"embeddings"`
	Backend    string            `json:"backend"`
	ModelID    string            `json:"modelId"`
	Dimension  int               `json:"dimension"`
}

// ErrorPayload carries a worker-side failure.
type ErrorPayload struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Cause   string `json:"cause,omitempty"`
}
