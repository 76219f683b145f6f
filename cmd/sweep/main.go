// Command sweep runs the daily maintenance pass: lapsed memberships are
// deactivated and reservations stuck in pending_payment past the configured
// age are rejected with refunds. Intended to be run from cron.
package main

import (
	"context"
	"log/slog"
	"time"

	"alumni-reserve/cmd/bootstrap"
	"alumni-reserve/internal/handler/middleware"
	"alumni-reserve/internal/pkg/config"
	"alumni-reserve/internal/usecase/commands"

	"go.uber.org/fx"
)

const sweepTimeout = 10 * time.Minute

func runSweep(lc fx.Lifecycle, shutdowner fx.Shutdowner, sweep commands.SweepCommands, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
				defer cancel()

				start := time.Now()
				result, err := sweep.Run(ctx)
				if err != nil {
					logger.Error("sweep failed", "error", err, "duration", time.Since(start))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				logger.Info("sweep completed",
					"memberships_expired", result.MembershipsExpired,
					"reservations_rejected", result.ReservationsRejected,
					"duration", time.Since(start))
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.SweepModule,
		fx.Provide(
			func(cfg config.Config) *slog.Logger {
				logger := middleware.NewLogger(cfg.Log)
				return logger.GetSlogLogger()
			},
		),
		fx.Invoke(
			runSweep,
		),
	)

	// Run blocks until the sweep goroutine calls Shutdown and propagates
	// its exit code.
	app.Run()
}
