package notification

import "go.uber.org/fx"

var Module = fx.Module("notification.module",
	fx.Provide(NewService),
)

var WorkerModule = fx.Module("notification.worker",
	Module,
	fx.Provide(NewMailer, NewWorker),
	fx.Invoke(RegisterHandlers),
)
