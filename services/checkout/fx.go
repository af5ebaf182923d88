package checkout

import (
	"rentdesk-billing/pkg/minio"

	"go.uber.org/fx"
)

var Module = fx.Module("checkout.module",
	fx.Provide(
		NewService,
		func(s *minio.Storage) SlipStore { return s },
	),
)
