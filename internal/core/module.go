package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/hsn0918/codegraph/pkg/blobstore"
	"github.com/hsn0918/codegraph/pkg/cache"
	"github.com/hsn0918/codegraph/pkg/config"
	"github.com/hsn0918/codegraph/pkg/embedworker"
	"github.com/hsn0918/codegraph/pkg/logger"
	"github.com/hsn0918/codegraph/pkg/store"
)

// Module provides the Core and its collaborators for fx-based wiring,
// the same Module/fx.Provide/fx.Invoke shape as the teacher's
// internal/server/modules.go InfrastructureModule.
var Module = fx.Module("core",
	fx.Provide(
		NewStore,
		NewGraphCache,
		NewBlobStore,
		NewEmbedderPool,
		NewCore,
	),
)

// NewBlobStore connects the fixture-archive object store described by
// cfg.MinIO, the same bucket-ensure idiom as NewStore. Used by
// internal/httpapi's fixture-archive routes (C16) to hold benchmark
// corpora and oversized parser-payload fixtures.
func NewBlobStore(cfg *config.Config) (blobstore.Store, error) {
	bs, err := blobstore.New(context.Background(), blobstore.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("core: blobstore init: %w", err)
	}
	return bs, nil
}

// NewStore opens the Postgres-backed store and registers OnStop
// cleanup, mirroring the teacher's NewVectorDatabase provider.
func NewStore(lc fx.Lifecycle, cfg *config.Config) (store.Store, error) {
	ctx := context.Background()
	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN, cfg.Database.Dimension)
	if err != nil {
		return nil, fmt.Errorf("core: store init: %w", err)
	}
	if err := st.EnsureInitialized(ctx); err != nil {
		return nil, fmt.Errorf("core: store schema init: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			st.Close()
			return nil
		},
	})
	return st, nil
}

// NewGraphCache connects the rueidis-backed graph cache, same
// lifecycle-registration idiom as NewStore.
func NewGraphCache(lc fx.Lifecycle, cfg *config.Config) (*cache.GraphCache, error) {
	gc, err := cache.New(cache.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("core: cache init: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			gc.Close()
			return nil
		},
	})
	return gc, nil
}

// NewEmbedderPool wraps the configured embedding backend in a Pool,
// closing it on OnStop so pending requests are rejected cleanly.
func NewEmbedderPool(lc fx.Lifecycle, cfg *config.Config) *embedworker.Pool {
	backend := embedworker.NewHTTPBackend(cfg.Embedder.BaseURL, cfg.Embedder.Model, cfg.Database.Dimension)
	pool := embedworker.New(backend)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool
}

// NewCore assembles the orchestration core. The analysis worker is
// left nil here — no pack example wires a remote analysis backend, so
// Dispatch always falls back to inline computation (see pkg/analysis)
// until a concrete worker is configured.
func NewCore(st store.Store, embedder *embedworker.Pool, graphCache *cache.GraphCache) (*Core, error) {
	c, err := New(st, embedder, graphCache, nil)
	if err != nil {
		return nil, err
	}
	logger.Get().Info("core initialized")
	return c, nil
}
