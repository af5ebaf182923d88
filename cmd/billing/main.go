package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"rentdesk-billing/internal/httpapi"
	"rentdesk-billing/internal/payment"
	"rentdesk-billing/pkg/config"
	"rentdesk-billing/pkg/db"
	"rentdesk-billing/pkg/health"
	"rentdesk-billing/pkg/logger"
	"rentdesk-billing/pkg/minio"
	"rentdesk-billing/pkg/redis"
	"rentdesk-billing/pkg/sequence"
	"rentdesk-billing/pkg/server"
	"rentdesk-billing/pkg/task"
	"rentdesk-billing/services/account"
	"rentdesk-billing/services/catalog"
	"rentdesk-billing/services/checkout"
	"rentdesk-billing/services/entitlement"
	"rentdesk-billing/services/gateway"
	"rentdesk-billing/services/notification"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		sequence.Module,
		minio.Client,
		health.Module,
		fx.Provide(provideSnowflakeNode),
		payment.Module,
		account.Module,
		gateway.Module,
		entitlement.Module,
		catalog.Module,
		notification.Module,
		checkout.Module,
		httpapi.Module,
		server.ProvideHTTPServer,
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

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
