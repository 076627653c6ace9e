// Command auditworker receives auth events pushed by Pub/Sub and archives them.
package main

import (
	"context"
	"log/slog"
	"os"

	"wallet/config"
	"wallet/internal/delivery"
	"wallet/internal/delivery/worker"
	"wallet/internal/delivery/worker/handler"
	"wallet/internal/infra/audit"
	logs "wallet/internal/infra/log"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			audit.NewArchive,
			handler.NewPushHandler,
			worker.NewServer,
		),
		fx.Invoke(serveWorker),
	).Run()
}

// serveWorker runs the push server and stops the app if it cannot listen.
func serveWorker(ctx context.Context, server delivery.Delivery, logger *slog.Logger, shutdowner fx.Shutdowner) {
	go func() {
		err := server.Serve(ctx)
		if err == nil {
			return
		}
		logger.Error("Audit worker stopped", slog.Any("error", err))
		if shutdownErr := shutdowner.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
			logger.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
			os.Exit(1)
		}
	}()
}
