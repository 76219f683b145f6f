package components

import (
	"alumni-reserve/internal/infra/db"
	"alumni-reserve/internal/infra/readstore"
	"alumni-reserve/internal/infra/uow"
	"alumni-reserve/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

// Write-side repositories are built lazily inside the unit of work per
// transaction; only the UoW itself and the read stores need wiring here.
var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewReservationReadStore,
			fx.As(new(queries.ReservationReadStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
