package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/fx"

	"github.com/hsn0918/codegraph/internal/core"
	"github.com/hsn0918/codegraph/pkg/config"
	"github.com/hsn0918/codegraph/pkg/logger"
)

// Module provides the Server and the http.Server wrapping it, plus the
// OnStart/OnStop lifecycle hook — the same
// NewHTTPHandler/StartHTTPServer split as the teacher's
// internal/server/modules.go.
var Module = fx.Module("httpapi",
	fx.Provide(
		newRunOptions,
		NewServer,
		newHTTPServer,
	),
	fx.Invoke(startHTTPServer),
)

// newRunOptions derives internal/core.RunOptions from the loaded
// config, the shape every request handled by this server runs with
// unless a future request-level override is added.
func newRunOptions(cfg *config.Config) core.RunOptions {
	return core.RunOptions{
		Dimension: cfg.Database.Dimension,
		Model:     cfg.Embedder.Model,
		Backend:   cfg.Embedder.BaseURL,
	}
}

func newHTTPServer(srv *Server, cfg *config.Config) *http.Server {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Get().Info("http server configured", "address", addr)
	return &http.Server{
		Addr:    addr,
		Handler: srv,
	}
}

// startHTTPServer registers the OnStart/OnStop hooks, mirroring the
// teacher's StartHTTPServer: a startup failure triggers a clean
// application shutdown rather than a hung process.
func startHTTPServer(httpServer *http.Server, lc fx.Lifecycle, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Get().Info("starting http server", "addr", httpServer.Addr)
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Get().Error("http server failed", "error", err)
					if shutdownErr := shutdowner.Shutdown(); shutdownErr != nil {
						logger.Get().Error("application shutdown failed", "error", shutdownErr)
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Get().Info("stopping http server")
			return httpServer.Shutdown(ctx)
		},
	})
}
