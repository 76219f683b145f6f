package components

import (
	"alumni-reserve/internal/domain/reservation"
	"alumni-reserve/internal/pkg/clock"
	"alumni-reserve/internal/pkg/config"
	"alumni-reserve/internal/usecase/commands"
	"alumni-reserve/internal/usecase/queries"
	"alumni-reserve/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		reservation.NewFactory,
		queries.NewReservationQueries,
		commands.NewReservationCommands,
		NewSweepCommands,
	),
)

func NewSweepCommands(uw shared.UnitOfWork, clk clock.Clock, cfg config.Config) commands.SweepCommands {
	return commands.NewSweepCommands(uw, clk, cfg.Sweep)
}
