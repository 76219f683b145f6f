package components

import (
	"alumni-reserve/internal/handler"
	"alumni-reserve/internal/handler/api"
	"alumni-reserve/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewReservationHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
