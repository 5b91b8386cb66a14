// Package store implements C7's persistence half: a relational schema
// mirroring the entity model (files, functions, chunks, embeddings,
// sim_edges, kv), backed by Postgres + pgvector, with the reload and
// write contracts from spec §4.7. Grounded on the teacher's
// internal/adapters/postgres.go (PostgresVectorDB: pgx connection,
// pgvector.NewVector embedding encoding, CREATE TABLE IF NOT EXISTS
// bootstrap idiom).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// SchemaVersion is the version this module writes and requires on
// load. The core refuses to operate against an unknown newer version,
// per spec §6.
const SchemaVersion = "1"

// ReloadResult is what the Reload contract returns on a cache hit.
type ReloadResult struct {
	Embeddings []codegraph.Embedding
	Edges      []codegraph.SimilarityEdge
	Dimension  int
}

// WriteRequest is the unit of work for a successful recompute,
// persisted in the §4.7 order inside one transaction.
type WriteRequest struct {
	Files       []FileRecord
	Functions   []codegraph.Function
	Chunks      []codegraph.Chunk
	Embeddings  []codegraph.Embedding
	Edges       []codegraph.SimilarityEdge
	Dimension   int
	Model       string
	Backend     string
	Fingerprint string
}

// FileRecord is a row of the files table.
type FileRecord struct {
	FileID string
	Path   string
	Lang   string
}

// Store is the storage engine interface the core depends on. It is
// intentionally narrow — §5 calls for a typed handle injectable in
// tests rather than a hidden singleton.
type Store interface {
	EnsureInitialized(ctx context.Context) error
	// Reload returns (result, true, nil) on a cache hit, or
	// (nil, false, nil) when the contract in §4.7 is not satisfied —
	// callers must recompute. It never returns an error for a normal
	// cache miss.
	Reload(ctx context.Context, functions []codegraph.Function, fingerprint string, dimension int) (*ReloadResult, bool, error)
	Write(ctx context.Context, req WriteRequest) error
	// LoadGraphByFingerprint serves a lookup-only query: unlike Reload
	// (which validates a caller-supplied current function set against
	// the §4.7 contract), this answers "what did we last persist for
	// this fingerprint" with no function list to check against — the
	// shape the HTTP query endpoint needs (§4.16's GET /v1/graphs/{fingerprint}).
	LoadGraphByFingerprint(ctx context.Context, fingerprint string) (codegraph.GraphPayload, bool, error)
	GetKV(ctx context.Context, key string) (string, bool, error)
	SetKV(ctx context.Context, key, value string) error
	Close()
}

// PostgresStore implements Store over pgx/v5 + pgvector-go, matching
// the teacher's direct-SQL style rather than an ORM.
type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects and returns a store sized for the given
// embedding dimension (the embeddings.vec column type is parameterized
// by dimension, as in the teacher's NewPostgresVectorDB).
func NewPostgresStore(ctx context.Context, dsn string, dimension int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", codegraph.ErrStorageUnavailable, err)
	}
	s := &PostgresStore{pool: pool, dimension: dimension}
	return s, nil
}

func (s *PostgresStore) EnsureInitialized(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		`CREATE TABLE IF NOT EXISTS files (
			file_id TEXT PRIMARY KEY,
			path TEXT UNIQUE NOT NULL,
			lang TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS functions (
			fn_id TEXT PRIMARY KEY,
			file_id TEXT NOT NULL REFERENCES files(file_id),
			name TEXT NOT NULL,
			fq_name TEXT,
			start_off INT NOT NULL,
			end_off INT NOT NULL,
			loc INT,
			doc TEXT,
			metrics_json JSONB
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id TEXT PRIMARY KEY,
			fn_id TEXT NOT NULL REFERENCES functions(fn_id),
			start_off INT NOT NULL,
			end_off INT NOT NULL,
			tok_count INT NOT NULL
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embeddings (
			chunk_id TEXT PRIMARY KEY REFERENCES chunks(chunk_id),
			vec vector(%d),
			dim INT NOT NULL,
			quant TEXT,
			backend TEXT,
			model TEXT
		);`, s.dimension),
		`CREATE TABLE IF NOT EXISTS sim_edges (
			a_fn_id TEXT NOT NULL,
			b_fn_id TEXT NOT NULL,
			sim DOUBLE PRECISION NOT NULL,
			method TEXT,
			PRIMARY KEY (a_fn_id, b_fn_id)
		);`,
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: schema init: %v", codegraph.ErrStorageUnavailable, err)
		}
	}

	version, ok, err := s.GetKV(ctx, "schema.version")
	if err != nil {
		return err
	}
	if !ok {
		return s.SetKV(ctx, "schema.version", SchemaVersion)
	}
	if version != SchemaVersion {
		return fmt.Errorf("%w: unknown schema version %q (expected %q)", codegraph.ErrStorageUnavailable, version, SchemaVersion)
	}
	return nil
}

// Reload implements the §4.7 contract: a hit requires exact
// fingerprint equality, a persisted vector for every chunk row stored
// for the given functions, and matching dimension. Chunks are not
// re-derived from the functions' current sources; the check covers the
// stored chunk rows only.
func (s *PostgresStore) Reload(ctx context.Context, functions []codegraph.Function, fingerprint string, dimension int) (*ReloadResult, bool, error) {
	stored, ok, err := s.GetKV(ctx, "embeddings.fingerprint")
	if err != nil {
		return nil, false, err
	}
	if !ok || stored != fingerprint {
		return nil, false, nil
	}

	fnIDs := make([]string, len(functions))
	for i, fn := range functions {
		fnIDs[i] = fn.FnID
	}

	rows, err := s.pool.Query(ctx, `SELECT e.chunk_id, dim, vec FROM embeddings e JOIN chunks c ON c.chunk_id = e.chunk_id WHERE c.fn_id = ANY($1)`, fnIDs)
	if err != nil {
		return nil, false, fmt.Errorf("%w: reload query: %v", codegraph.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var embeddings []codegraph.Embedding
	for rows.Next() {
		var chunkID string
		var dim int
		var vec pgvector.Vector
		if err := rows.Scan(&chunkID, &dim, &vec); err != nil {
			return nil, false, fmt.Errorf("%w: reload scan: %v", codegraph.ErrStorageUnavailable, err)
		}
		if dim != dimension {
			return nil, false, nil
		}
		embeddings = append(embeddings, codegraph.Embedding{ChunkID: chunkID, Vector: vec.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("%w: reload rows: %v", codegraph.ErrStorageUnavailable, err)
	}

	// Every chunk stored for the requested functions must have a persisted vector.
	have := make(map[string]bool, len(embeddings))
	for _, e := range embeddings {
		have[e.ChunkID] = true
	}
	chunkRows, err := s.pool.Query(ctx, `SELECT chunk_id FROM chunks WHERE fn_id = ANY($1)`, fnIDs)
	if err != nil {
		return nil, false, fmt.Errorf("%w: reload chunk check: %v", codegraph.ErrStorageUnavailable, err)
	}
	defer chunkRows.Close()
	for chunkRows.Next() {
		var chunkID string
		if err := chunkRows.Scan(&chunkID); err != nil {
			return nil, false, fmt.Errorf("%w: reload chunk scan: %v", codegraph.ErrStorageUnavailable, err)
		}
		if !have[chunkID] {
			return nil, false, nil
		}
	}

	edgeRows, err := s.pool.Query(ctx, `SELECT a_fn_id, b_fn_id, sim, method FROM sim_edges WHERE a_fn_id = ANY($1) OR b_fn_id = ANY($1)`, fnIDs)
	if err != nil {
		return nil, false, fmt.Errorf("%w: reload edges: %v", codegraph.ErrStorageUnavailable, err)
	}
	defer edgeRows.Close()
	var edges []codegraph.SimilarityEdge
	for edgeRows.Next() {
		var e codegraph.SimilarityEdge
		if err := edgeRows.Scan(&e.Source, &e.Target, &e.Similarity, &e.Method); err != nil {
			return nil, false, fmt.Errorf("%w: reload edge scan: %v", codegraph.ErrStorageUnavailable, err)
		}
		edges = append(edges, e)
	}

	return &ReloadResult{Embeddings: embeddings, Edges: edges, Dimension: dimension}, true, nil
}

// Write persists a successful recompute in the §4.7 order, batched
// under one transaction so readers observe only the pre- or
// post-batch state.
func (s *PostgresStore) Write(ctx context.Context, req WriteRequest) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", codegraph.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	affectedFiles := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		affectedFiles = append(affectedFiles, f.FileID)
		if _, err := tx.Exec(ctx, `INSERT INTO files (file_id, path, lang) VALUES ($1,$2,$3)
			ON CONFLICT (file_id) DO UPDATE SET path = EXCLUDED.path, lang = EXCLUDED.lang`, f.FileID, f.Path, f.Lang); err != nil {
			return fmt.Errorf("%w: write files: %v", codegraph.ErrStorageUnavailable, err)
		}
	}

	if len(affectedFiles) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM functions WHERE file_id = ANY($1)`, affectedFiles); err != nil {
			return fmt.Errorf("%w: delete prior functions: %v", codegraph.ErrStorageUnavailable, err)
		}
	}
	for _, fn := range req.Functions {
		if _, err := tx.Exec(ctx, `INSERT INTO functions (fn_id, file_id, name, fq_name, start_off, end_off, loc)
			VALUES ($1,$2,$3,$3,$4,$5,$6)`,
			fn.FnID, fileIDFor(req.Files, fn.FilePath), fn.Name, fn.Start, fn.End, fn.EndLine-fn.StartLine); err != nil {
			return fmt.Errorf("%w: write functions: %v", codegraph.ErrStorageUnavailable, err)
		}
	}

	for _, c := range req.Chunks {
		if _, err := tx.Exec(ctx, `INSERT INTO chunks (chunk_id, fn_id, start_off, end_off, tok_count)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (chunk_id) DO UPDATE SET start_off=EXCLUDED.start_off, end_off=EXCLUDED.end_off, tok_count=EXCLUDED.tok_count`,
			c.ChunkID, c.FnID, c.Start, c.End, c.TokenCount); err != nil {
			return fmt.Errorf("%w: write chunks: %v", codegraph.ErrStorageUnavailable, err)
		}
	}

	for _, e := range req.Embeddings {
		vec := pgvector.NewVector(e.Vector)
		if _, err := tx.Exec(ctx, `INSERT INTO embeddings (chunk_id, vec, dim, backend, model)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (chunk_id) DO UPDATE SET vec=EXCLUDED.vec, dim=EXCLUDED.dim, backend=EXCLUDED.backend, model=EXCLUDED.model`,
			e.ChunkID, vec, req.Dimension, req.Backend, req.Model); err != nil {
			return fmt.Errorf("%w: write embeddings: %v", codegraph.ErrStorageUnavailable, err)
		}
	}

	for _, e := range req.Edges {
		a, b, sim := e.Source, e.Target, e.Similarity
		if a > b {
			a, b = b, a
		}
		if _, err := tx.Exec(ctx, `INSERT INTO sim_edges (a_fn_id, b_fn_id, sim, method)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (a_fn_id, b_fn_id) DO UPDATE SET sim=EXCLUDED.sim, method=EXCLUDED.method`,
			a, b, sim, e.Method); err != nil {
			return fmt.Errorf("%w: write sim_edges: %v", codegraph.ErrStorageUnavailable, err)
		}
	}

	if _, err := tx.Exec(ctx, `INSERT INTO kv (key, value) VALUES ('embeddings.fingerprint', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, req.Fingerprint); err != nil {
		return fmt.Errorf("%w: write fingerprint kv: %v", codegraph.ErrStorageUnavailable, err)
	}

	metadata := fmt.Sprintf(`{"backend":%q,"modelId":%q,"dimension":%d,"chunkCount":%d,"embeddingCount":%d,"edgeCount":%d}`,
		req.Backend, req.Model, req.Dimension, len(req.Chunks), len(req.Embeddings), len(req.Edges))
	if _, err := tx.Exec(ctx, `INSERT INTO kv (key, value) VALUES ('embeddings.metadata', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, metadata); err != nil {
		return fmt.Errorf("%w: write metadata kv: %v", codegraph.ErrStorageUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", codegraph.ErrStorageUnavailable, err)
	}
	return nil
}

// LoadGraphByFingerprint answers a bare fingerprint lookup: it trusts
// the stored fingerprint KV without re-validating any caller-supplied
// function set, then reassembles nodes from the functions table and
// edges from sim_edges.
func (s *PostgresStore) LoadGraphByFingerprint(ctx context.Context, fingerprint string) (codegraph.GraphPayload, bool, error) {
	stored, ok, err := s.GetKV(ctx, "embeddings.fingerprint")
	if err != nil {
		return codegraph.GraphPayload{}, false, err
	}
	if !ok || stored != fingerprint {
		return codegraph.GraphPayload{}, false, nil
	}

	var nodes []codegraph.GraphNode
	fnRows, err := s.pool.Query(ctx, `SELECT fn_id FROM functions`)
	if err != nil {
		return codegraph.GraphPayload{}, false, fmt.Errorf("%w: load nodes: %v", codegraph.ErrStorageUnavailable, err)
	}
	defer fnRows.Close()
	for fnRows.Next() {
		var fnID string
		if err := fnRows.Scan(&fnID); err != nil {
			return codegraph.GraphPayload{}, false, fmt.Errorf("%w: scan node: %v", codegraph.ErrStorageUnavailable, err)
		}
		nodes = append(nodes, codegraph.GraphNode{FnID: fnID, Centrality: map[string]float64{}})
	}

	var edges []codegraph.GraphEdge
	edgeRows, err := s.pool.Query(ctx, `SELECT a_fn_id, b_fn_id, sim FROM sim_edges`)
	if err != nil {
		return codegraph.GraphPayload{}, false, fmt.Errorf("%w: load edges: %v", codegraph.ErrStorageUnavailable, err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e codegraph.GraphEdge
		if err := edgeRows.Scan(&e.Source, &e.Target, &e.Similarity); err != nil {
			return codegraph.GraphPayload{}, false, fmt.Errorf("%w: scan edge: %v", codegraph.ErrStorageUnavailable, err)
		}
		e.Type = codegraph.EdgeTypeSimilarity
		e.Undirected = true
		edges = append(edges, e)
	}

	return codegraph.GraphPayload{Nodes: nodes, Edges: edges}, true, nil
}

func fileIDFor(files []FileRecord, path string) string {
	for _, f := range files {
		if f.Path == path {
			return f.FileID
		}
	}
	return ""
}

func (s *PostgresStore) GetKV(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: get kv: %v", codegraph.ErrStorageUnavailable, err)
	}
	return value, true, nil
}

func (s *PostgresStore) SetKV(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO kv (key, value) VALUES ($1,$2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return fmt.Errorf("%w: set kv: %v", codegraph.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
