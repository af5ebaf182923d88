package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"rentdesk-billing/pkg/config"
	"rentdesk-billing/pkg/db"
	"rentdesk-billing/pkg/logger"
	"rentdesk-billing/pkg/task"
	"rentdesk-billing/services/notification"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		task.Client,
		task.Server,
		notification.WorkerModule,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
