package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hsn0918/codegraph/internal/core"
	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/hsn0918/codegraph/pkg/embedworker"
	"github.com/hsn0918/codegraph/pkg/store"
)

// fakeStore is an in-memory store.Store double so httpapi's routing and
// payload shaping can be exercised without a real Postgres connection.
type fakeStore struct {
	graphs map[string]codegraph.GraphPayload
}

func newFakeStore() *fakeStore { return &fakeStore{graphs: map[string]codegraph.GraphPayload{}} }

func (f *fakeStore) EnsureInitialized(ctx context.Context) error { return nil }

func (f *fakeStore) Reload(ctx context.Context, functions []codegraph.Function, fingerprint string, dimension int) (*store.ReloadResult, bool, error) {
	return nil, false, nil
}

func (f *fakeStore) Write(ctx context.Context, req store.WriteRequest) error {
	f.graphs[req.Fingerprint] = codegraph.GraphPayload{}
	return nil
}

func (f *fakeStore) LoadGraphByFingerprint(ctx context.Context, fingerprint string) (codegraph.GraphPayload, bool, error) {
	g, ok := f.graphs[fingerprint]
	return g, ok, nil
}

func (f *fakeStore) GetKV(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeStore) SetKV(ctx context.Context, key, value string) error { return nil }
func (f *fakeStore) Close()                                             {}

type fakeBackend struct{ dimension int }

func (b *fakeBackend) Init(ctx context.Context) (embedworker.InitDonePayload, error) {
	return embedworker.InitDonePayload{Backend: "fake", Dimension: b.dimension}, nil
}

func (b *fakeBackend) EmbedChunks(ctx context.Context, p embedworker.EmbedChunksPayload) (embedworker.EmbedChunksResultPayload, error) {
	results := make([]embedworker.EmbeddingResult, len(p.Chunks))
	for i, c := range p.Chunks {
		vec := make([]float32, b.dimension)
		vec[i%b.dimension] = 1
		results[i] = embedworker.EmbeddingResult{ChunkID: c.ID, Vector: vec}
	}
	return embedworker.EmbedChunksResultPayload{Embeddings: results, Dimension: b.dimension}, nil
}

// fakeBlobStore is an in-memory blobstore.Store double, the fixture
// archive's equivalent of fakeStore.
type fakeBlobStore struct {
	objects map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore { return &fakeBlobStore{objects: map[string][]byte{}} }

func (b *fakeBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.objects[key] = raw
	return nil
}

func (b *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	raw, ok := b.objects[key]
	if !ok {
		return nil, codegraph.ErrStorageUnavailable
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (b *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(b.objects, key)
	return nil
}

func (b *fakeBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := b.objects[key]
	return ok, nil
}

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	pool := embedworker.New(&fakeBackend{dimension: 4})
	c, err := core.New(st, pool, nil, nil)
	require.NoError(t, err)
	return NewServer(c, st, nil, nil, core.RunOptions{Dimension: 4})
}

func TestHandleCreateGraphRoundTrips(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	body := createGraphRequest{
		Parser: codegraph.ParserPayload{
			Functions: []codegraph.Function{
				{FnID: "a", Name: "a", FilePath: "a.go", Lang: "go", Source: "func a() {}\n", EndLine: 1},
				{FnID: "b", Name: "b", FilePath: "a.go", Lang: "go", Source: "func b() {}\n", EndLine: 1},
			},
		},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/graphs", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got codegraph.GraphPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Nodes, 2)
}

func TestHandleGetGraphNotFound(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/v1/graphs/unknown-fingerprint", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetGraphHitsStore(t *testing.T) {
	fs := newFakeStore()
	fs.graphs["fp-1"] = codegraph.GraphPayload{
		Nodes: []codegraph.GraphNode{{FnID: "a", Centrality: map[string]float64{}}},
	}
	srv := newTestServer(t, fs)

	req := httptest.NewRequest(http.MethodGet, "/v1/graphs/fp-1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got codegraph.GraphPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Nodes, 1)
}

func TestHandleBenchmarkRequiresKnownFingerprint(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/v1/graphs/unknown/benchmark", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleBenchmarkRunsAgainstSuppliedEmbeddings(t *testing.T) {
	fs := newFakeStore()
	fs.graphs["fp-1"] = codegraph.GraphPayload{}
	srv := newTestServer(t, fs)

	body := benchmarkRequest{
		FunctionEmbeddings: []codegraph.FunctionEmbedding{
			{FnID: "a", Representative: []float32{1, 0, 0, 0}},
			{FnID: "b", Representative: []float32{1, 0, 0, 0}},
		},
		Variants: nil,
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/graphs/fp-1/benchmark", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got codegraph.BenchmarkReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
}

func TestHandleGetFixtureNotConfiguredReturns503(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/v1/fixtures/corpus-1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlePutFixtureThenGetFixtureRoundTrips(t *testing.T) {
	st := newFakeStore()
	pool := embedworker.New(&fakeBackend{dimension: 4})
	c, err := core.New(st, pool, nil, nil)
	require.NoError(t, err)
	srv := NewServer(c, st, nil, newFakeBlobStore(), core.RunOptions{Dimension: 4})

	payload := []byte(`{"functionEmbeddings":[]}`)
	putReq := httptest.NewRequest(http.MethodPut, "/v1/fixtures/corpus-1", bytes.NewReader(payload))
	putRec := httptest.NewRecorder()
	srv.ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusNoContent, putRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/v1/fixtures/corpus-1", nil)
	getRec := httptest.NewRecorder()
	srv.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	require.Equal(t, payload, getRec.Body.Bytes())
}

func TestHandleGetFixtureUnknownKeyNotFound(t *testing.T) {
	srv := NewServer(nil, newFakeStore(), nil, newFakeBlobStore(), core.RunOptions{Dimension: 4})

	req := httptest.NewRequest(http.MethodGet, "/v1/fixtures/missing", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
