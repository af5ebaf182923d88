package httpapi

import (
	"rentdesk-billing/pkg/config"
	"rentdesk-billing/pkg/health"
	"rentdesk-billing/pkg/middleware"
	"rentdesk-billing/services/account"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(
		NewHandler,
		ProvideEngine,
		func(s *account.Service) AccountResolver { return &adminResolver{accounts: s} },
	),
)

// adminResolver resolves the single platform admin. A multi-admin
// deployment would swap this for a session-based resolver.
type adminResolver struct {
	accounts *account.Service
}

func (r *adminResolver) AdminID(c *gin.Context) (string, error) {
	admin, err := r.accounts.Admin(c.Request.Context())
	if err != nil {
		return "", err
	}
	return admin.ID, nil
}

type EngineParams struct {
	fx.In
	Config  *config.Config
	Handler *Handler
	Health  health.HealthService
}

func ProvideEngine(p EngineParams) *gin.Engine {
	if p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error())

	r.GET("/healthz", p.Health.Liveness)
	r.GET("/readyz", p.Health.Readiness)

	api := r.Group("/api")

	sub := api.Group("/payment-subscription")
	sub.POST("/checkout", p.Handler.Checkout)
	sub.GET("/verify", p.Handler.Verify)
	sub.GET("/failed", p.Handler.Failed)
	sub.POST("/webhook/:gateway", p.Handler.Webhook)

	admin := api.Group("/admin")
	admin.GET("/packages", p.Handler.ListPackages)
	admin.POST("/packages", p.Handler.SavePackage)
	admin.GET("/packages/:id", p.Handler.GetPackage)
	admin.DELETE("/packages/:id", p.Handler.DeletePackage)
	admin.POST("/packages/assign", p.Handler.AssignPackage)
	admin.GET("/gateways", p.Handler.ListGateways)
	admin.PUT("/gateways/:id/currency", p.Handler.UpsertGatewayCurrency)
	admin.GET("/banks", p.Handler.ListBanks)

	return r
}
