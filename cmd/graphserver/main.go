// Command graphserver runs the HTTP surface described in §4.16: an
// fx application wiring internal/core's orchestration and persistence
// providers to internal/httpapi's chi router, the same
// fx.New(...modules, fx.NopLogger)/app.Start/app.Done/app.Stop shape
// as the teacher's cmd/server/main.go.
package main

import (
	"context"
	"os"

	"go.uber.org/fx"

	"github.com/hsn0918/codegraph/internal/core"
	"github.com/hsn0918/codegraph/internal/httpapi"
	"github.com/hsn0918/codegraph/pkg/config"
	"github.com/hsn0918/codegraph/pkg/logger"
)

func main() {
	app := fx.New(
		fx.Provide(func() (*config.Config, error) {
			return config.LoadConfig("")
		}),
		core.Module,
		httpapi.Module,
		fx.NopLogger,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		logger.Get().Error("application startup failed", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		logger.Get().Error("application shutdown failed", "error", err)
	}
}
