// Package aggregate folds a function's chunk embeddings into a
// single unit-norm representative, per spec §4.3. Grounded on the
// teacher's embedding-averaging step in
// pkg/chunking/semantic.go (mergeBySemantics' use of cosineSimilarity
// over averaged vectors), built on pkg/vecmath.
package aggregate

import (
	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/hsn0918/codegraph/pkg/logger"
	"github.com/hsn0918/codegraph/pkg/vecmath"
)

// Representative sums every chunk vector whose length equals
// dimension, divides by the count, and L2-normalizes. It returns nil
// if no chunk vector has the expected dimension.
func Representative(vectors [][]float32, dimension int) []float32 {
	sum := make([]float32, dimension)
	count := 0
	for _, v := range vectors {
		if len(v) != dimension {
			continue
		}
		for i, x := range v {
			sum[i] += x
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= float32(count)
	}
	return vecmath.Normalize(sum)
}

// Build constructs FunctionEmbeddings for every function, given a
// lookup of chunk vectors keyed by chunk id. Functions with zero
// valid chunk vectors are dropped, matching the FunctionEmbedding
// invariant in spec §3.
func Build(functions []codegraph.Function, chunksByFn map[string][]codegraph.Chunk, vectorsByChunkID map[string][]float32, dimension int) []codegraph.FunctionEmbedding {
	out := make([]codegraph.FunctionEmbedding, 0, len(functions))
	for _, fn := range functions {
		chunks := chunksByFn[fn.FnID]
		vectors := make([][]float32, 0, len(chunks))
		valid := make([][]float32, 0, len(chunks))
		for _, c := range chunks {
			v := vectorsByChunkID[c.ChunkID]
			vectors = append(vectors, v)
			if len(v) == dimension {
				valid = append(valid, v)
			} else if v != nil {
				logger.WarnDropped("chunk vector dropped: dimension mismatch", "chunkId", c.ChunkID, "got", len(v), "want", dimension)
			}
		}
		rep := Representative(valid, dimension)
		if rep == nil {
			continue
		}
		out = append(out, codegraph.FunctionEmbedding{
			FnID:           fn.FnID,
			Function:       fn,
			Chunks:         chunks,
			ChunkVectors:   vectors,
			Representative: rep,
			ChunkCount:     len(chunks),
		})
	}
	return out
}
