package gateway

import "go.uber.org/fx"

var Module = fx.Module("gateway.module",
	fx.Provide(NewService),
)
