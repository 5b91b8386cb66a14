// Package httpapi provides the thin HTTP surface §1 implies by
// "Downstream consumers render, query, and cache the graph" — a
// go-chi/chi/v5 router (the router the retrieval pack's
// allinbits-labs/gno_cdn uses, grounded on its server.go) fronting
// internal/core.Core, replacing the teacher's connect-rpc/protobuf
// stack (see DESIGN.md for why).
package httpapi

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hsn0918/codegraph/internal/core"
	"github.com/hsn0918/codegraph/pkg/bench"
	"github.com/hsn0918/codegraph/pkg/blobstore"
	"github.com/hsn0918/codegraph/pkg/cache"
	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/hsn0918/codegraph/pkg/logger"
	"github.com/hsn0918/codegraph/pkg/store"
)

// Server wires internal/core.Core and pkg/store/pkg/cache behind a
// chi router, the same Server-wraps-router shape as gno_cdn's Server.
type Server struct {
	router *chi.Mux
	core   *core.Core
	store  store.Store
	cache  *cache.GraphCache
	blobs  blobstore.Store
	opts   core.RunOptions
}

// NewServer builds the router and registers the §4.16 routes. blobs
// may be nil — the fixture-archive routes then answer 503.
func NewServer(c *core.Core, st store.Store, gc *cache.GraphCache, blobs blobstore.Store, opts core.RunOptions) *Server {
	s := &Server{router: chi.NewRouter(), core: c, store: st, cache: gc, blobs: blobs, opts: opts}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Post("/v1/graphs", s.handleCreateGraph)
	s.router.Get("/v1/graphs/{fingerprint}", s.handleGetGraph)
	s.router.Post("/v1/graphs/{fingerprint}/benchmark", s.handleBenchmark)
	s.router.Put("/v1/fixtures/{key}", s.handlePutFixture)
	s.router.Get("/v1/fixtures/{key}", s.handleGetFixture)

	return s
}

// ServeHTTP satisfies http.Handler so *Server can be dropped straight
// into an http.Server, same as gno_cdn's router embedding.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type createGraphRequest struct {
	Parser     codegraph.ParserPayload     `json:"parser"`
	Embeddings codegraph.EmbeddingsPayload `json:"embeddings"`
}

// handleCreateGraph runs Core.Run and persists/caches its result,
// §4.16's "POST /v1/graphs — runs Core.Run, persists, returns the
// serialized GraphPayload".
func (s *Server) handleCreateGraph(w http.ResponseWriter, r *http.Request) {
	var req createGraphRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decode request body: "+err.Error())
		return
	}

	graphPayload, _, err := s.core.Run(r.Context(), req.Parser, req.Embeddings, s.opts)
	if err != nil {
		logger.ErrorUnavailable("create graph failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, graphPayload)
}

// handleGetGraph serves a cached graph from Redis, falling back to a
// lookup-only Postgres reload keyed purely by fingerprint — §4.16's
// "GET /v1/graphs/{fingerprint}".
func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	ctx := r.Context()

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, fp); err == nil && ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	if s.store == nil {
		writeError(w, http.StatusNotFound, "graph not found: "+fp)
		return
	}

	graphPayload, hit, err := s.store.LoadGraphByFingerprint(ctx, fp)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if !hit {
		writeError(w, http.StatusNotFound, "graph not found: "+fp)
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, fp, graphPayload); err != nil {
			logger.ErrorUnavailable("graph cache set failed on reload", "fingerprint", fp, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, graphPayload)
}

type benchmarkRequest struct {
	FunctionEmbeddings []codegraph.FunctionEmbedding `json:"functionEmbeddings"`
	Variants           []bench.Variant               `json:"variants"`
}

// handleBenchmark runs C9 against a caller-supplied set of
// FunctionEmbeddings (the same shape the CLI's benchmark-similarity
// subcommand consumes from its --input fixture) and returns the
// report. Registered as POST because neither Reload nor LoadGraphByFingerprint
// surface the chunk-level vectors a benchmark replay needs, so the
// embeddings travel in the request body instead (see DESIGN.md). The
// fingerprint in the path must still match the persisted run so a
// benchmark can't silently compare against an unrelated corpus.
func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	fp := chi.URLParam(r, "fingerprint")
	ctx := r.Context()

	if s.store != nil {
		if _, hit, err := s.store.LoadGraphByFingerprint(ctx, fp); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		} else if !hit {
			writeError(w, http.StatusNotFound, "graph not found: "+fp)
			return
		}
	}

	var req benchmarkRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decode request body: "+err.Error())
		return
	}

	report, err := bench.Run(ctx, req.FunctionEmbeddings, s.opts.Bundle, req.Variants)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handlePutFixture archives a benchmark corpus or oversized
// parser-payload fixture under key, §4.16's fixture-archive surface
// for pkg/blobstore (C16): large inputs too big for a Postgres row,
// uploaded once and later fed to benchmark-similarity or a create-graph
// run by reference instead of by inlining them in every request body.
func (s *Server) handlePutFixture(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "fixture archive not configured")
		return
	}
	key := chi.URLParam(r, "key")
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.blobs.Put(r.Context(), key, r.Body, r.ContentLength, contentType); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetFixture streams back a previously archived fixture.
func (s *Server) handleGetFixture(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, "fixture archive not configured")
		return
	}
	key := chi.URLParam(r, "key")
	obj, err := s.blobs.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "fixture not found: "+key)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, obj)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	raw, err := sonic.Marshal(codegraph.ValidationIssue{Path: "request", Message: message})
	if err != nil {
		return
	}
	_, _ = w.Write(raw)
}
