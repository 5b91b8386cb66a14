// Package core implements internal/core.Core, the single asynchronous
// entry point described in spec §5: every call completes one
// outstanding request (validate → reload-or-recompute → C2/C3 → C4 →
// C5 → C6 → merge call edges → C10 dispatch → serialize) before
// returning. Constructed via go.uber.org/fx providers (see module.go)
// so the storage client, cache client, and embedding-worker handle are
// process-wide singletons by default but test-injectable, per §5's
// "Shared resources" note and §9's design note on typed handles.
package core

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hsn0918/codegraph/pkg/aggregate"
	"github.com/hsn0918/codegraph/pkg/analysis"
	"github.com/hsn0918/codegraph/pkg/bundle"
	"github.com/hsn0918/codegraph/pkg/cache"
	"github.com/hsn0918/codegraph/pkg/candidates"
	"github.com/hsn0918/codegraph/pkg/chunker"
	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/hsn0918/codegraph/pkg/embedworker"
	"github.com/hsn0918/codegraph/pkg/fingerprint"
	"github.com/hsn0918/codegraph/pkg/graphbuild"
	"github.com/hsn0918/codegraph/pkg/logger"
	"github.com/hsn0918/codegraph/pkg/payload"
	"github.com/hsn0918/codegraph/pkg/store"
)

// cachedRun is the local (in-process) representative of a prior run's
// reload result, sitting in front of the store's reload path —
// the hottest path when a caller re-submits the same function set
// within one process lifetime (incremental re-analysis, CLI re-runs).
type cachedRun struct {
	edges     []codegraph.SimilarityEdge
	dimension int
}

// Core is the orchestration entry point. Zero value is not usable —
// construct with New.
type Core struct {
	store          store.Store
	graphCache     *cache.GraphCache // optional; Run writes each result here, nil skips that write
	embedder       *embedworker.Pool
	analysisWorker analysis.Worker // optional; nil always falls back to inline
	local          *lru.Cache[string, cachedRun]

	mu        sync.Mutex
	runCancel context.CancelFunc
}

// New constructs a Core from its (possibly test-injected) collaborators.
func New(st store.Store, embedder *embedworker.Pool, graphCache *cache.GraphCache, analysisWorker analysis.Worker) (*Core, error) {
	local, err := lru.New[string, cachedRun](128)
	if err != nil {
		return nil, fmt.Errorf("core: local cache init: %w", err)
	}
	return &Core{
		store:          st,
		graphCache:     graphCache,
		embedder:       embedder,
		analysisWorker: analysisWorker,
		local:          local,
	}, nil
}

// Cancel aborts the currently outstanding Run, if any, implementing
// §5's cancellation contract: outstanding embedding/storage requests
// are aborted and the fingerprint is released without a partial write.
func (c *Core) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runCancel != nil {
		c.runCancel()
	}
}

// beginRun installs the cancel func for the run about to start. §5
// models the API surface as single-outstanding-request, so this does
// not attempt to disambiguate overlapping Run calls — it only needs to
// let Cancel reach whichever run is currently in flight.
func (c *Core) beginRun(ctx context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.runCancel = cancel
	c.mu.Unlock()
	return runCtx, func() {
		c.mu.Lock()
		c.runCancel = nil
		c.mu.Unlock()
		cancel()
	}
}

// Run is the one documented façade. It validates and merges the two
// input payload shapes, reuses a prior run's persisted result when the
// fingerprint and chunk set match, and otherwise recomputes the
// similarity graph end to end, dispatches analysis, and returns the
// serialized GraphPayload.
func (c *Core) Run(ctx context.Context, parserPayload codegraph.ParserPayload, embeddingsPayload codegraph.EmbeddingsPayload, opts RunOptions) (*codegraph.GraphPayload, *codegraph.BenchmarkReport, error) {
	runCtx, done := c.beginRun(ctx)
	defer done()

	merged, issues := payload.ValidateAndMerge(parserPayload, embeddingsPayload, opts.Payload)
	for _, issue := range issues {
		logger.WarnDropped("payload validation issue", "path", issue.Path, "message", issue.Message)
	}

	fp := fingerprint.Compute(merged.Functions)

	edges, err := c.resolveEdges(runCtx, merged, fp, opts)
	if err != nil {
		return nil, nil, err
	}

	graphPayload := graphbuild.Merge(merged.Functions, edges, merged.CallEdges)
	graphPayload = analysis.Dispatch(runCtx, c.analysisWorker, graphPayload, opts.Analysis)

	if c.graphCache != nil {
		if err := c.graphCache.Set(runCtx, fp, graphPayload); err != nil {
			logger.ErrorUnavailable("graph cache set failed", "fingerprint", fp, "error", err)
		}
	}

	return &graphPayload, nil, nil
}

// resolveEdges implements the reload-or-recompute half of Run: local
// LRU, then the store's fingerprint reload contract (§4.7), then a
// full C2–C6 recompute if neither hits — unless the embeddings payload
// already carried precomputed similarity edges, in which case those
// are trusted as-is (capped for consistency) and persistence is
// skipped, since no new embeddings were produced this run.
func (c *Core) resolveEdges(ctx context.Context, merged codegraph.MergedPayload, fp string, opts RunOptions) ([]codegraph.SimilarityEdge, error) {
	if len(merged.SimilarityEdges) > 0 {
		return graphbuild.CapNeighbors(merged.SimilarityEdges, opts.Graph), nil
	}

	if cached, ok := c.local.Get(fp); ok && cached.dimension == opts.Dimension {
		return cached.edges, nil
	}

	if c.store != nil {
		result, hit, err := c.store.Reload(ctx, merged.Functions, fp, opts.Dimension)
		if err != nil {
			logger.ErrorUnavailable("store reload failed, recomputing", "fingerprint", fp, "error", err)
		} else if hit {
			c.local.Add(fp, cachedRun{edges: result.Edges, dimension: result.Dimension})
			return result.Edges, nil
		}
	}

	return c.recompute(ctx, merged, fp, opts)
}

// recompute runs C2 (chunk) → embedding worker → C3 (aggregate) → C4
// (candidates) → C5 (bundle) → C6 (cap neighbors), then persists the
// result. A storage write failure is logged and swallowed — per §7,
// StorageUnavailable means persistence becomes a no-op for this run,
// not that the computed graph is discarded. An embedding worker
// failure propagates and aborts the run, per §7's WorkerFailure rule.
func (c *Core) recompute(ctx context.Context, merged codegraph.MergedPayload, fp string, opts RunOptions) ([]codegraph.SimilarityEdge, error) {
	chunksByFn := make(map[string][]codegraph.Chunk, len(merged.Functions))
	var allChunks []codegraph.Chunk
	for _, fn := range merged.Functions {
		chunks, err := chunker.Chunk(fn, opts.Chunker)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %v", codegraph.ErrInvalidPayload, fn.FnID, err)
		}
		chunksByFn[fn.FnID] = chunks
		allChunks = append(allChunks, chunks...)
	}

	vectorsByChunkID, allEmbeddings, err := c.embedAll(ctx, allChunks)
	if err != nil {
		return nil, err
	}

	functionEmbeddings := aggregate.Build(merged.Functions, chunksByFn, vectorsByChunkID, opts.Dimension)
	candLists := candidates.Generate(functionEmbeddings, opts.Candidates)
	bundleResult := bundle.Score(functionEmbeddings, candLists, opts.Bundle)
	cappedEdges := graphbuild.CapNeighbors(bundleResult.Edges, opts.Graph)

	if c.store != nil {
		req := store.WriteRequest{
			Files:       deriveFileRecords(merged.Functions),
			Functions:   merged.Functions,
			Chunks:      allChunks,
			Embeddings:  allEmbeddings,
			Edges:       cappedEdges,
			Dimension:   opts.Dimension,
			Model:       opts.Model,
			Backend:     opts.Backend,
			Fingerprint: fp,
		}
		if err := c.store.Write(ctx, req); err != nil {
			logger.ErrorUnavailable("store write failed, run result not persisted", "fingerprint", fp, "error", err)
		}
	}

	c.local.Add(fp, cachedRun{edges: cappedEdges, dimension: opts.Dimension})
	return cappedEdges, nil
}

func (c *Core) embedAll(ctx context.Context, chunks []codegraph.Chunk) (map[string][]float32, []codegraph.Embedding, error) {
	if len(chunks) == 0 {
		return map[string][]float32{}, nil, nil
	}
	if c.embedder == nil {
		return nil, nil, fmt.Errorf("%w: no embedding worker configured", codegraph.ErrWorkerFailure)
	}

	inputs := make([]embedworker.ChunkInput, len(chunks))
	for i, ch := range chunks {
		inputs[i] = embedworker.ChunkInput{ID: ch.ChunkID, Text: ch.Text}
	}

	result, err := c.embedder.EmbedChunks(ctx, embedworker.EmbedChunksPayload{Chunks: inputs, BatchSize: len(inputs)})
	if err != nil {
		return nil, nil, err
	}

	vectors := make(map[string][]float32, len(result.Embeddings))
	embeddings := make([]codegraph.Embedding, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		vectors[e.ChunkID] = e.Vector
		embeddings = append(embeddings, codegraph.Embedding{ChunkID: e.ChunkID, Vector: e.Vector})
	}
	return vectors, embeddings, nil
}

func deriveFileRecords(functions []codegraph.Function) []store.FileRecord {
	seen := make(map[string]bool, len(functions))
	var files []store.FileRecord
	for _, fn := range functions {
		if seen[fn.FilePath] {
			continue
		}
		seen[fn.FilePath] = true
		files = append(files, store.FileRecord{FileID: fn.FilePath, Path: fn.FilePath, Lang: fn.Lang})
	}
	return files
}
