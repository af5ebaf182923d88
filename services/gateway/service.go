package gateway

import (
	"context"
	"strings"
	"time"

	"rentdesk-billing/pkg/errutil"
	"rentdesk-billing/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db           *gorm.DB
	node         *snowflake.Node
	gatewayRepo  repository.Repository[Gateway]
	currencyRepo repository.Repository[GatewayCurrency]
	bankRepo     repository.Repository[Bank]
	systemRepo   repository.Repository[Currency]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:           p.DB,
		node:         p.Node,
		gatewayRepo:  repository.ProvideStore[Gateway](p.DB),
		currencyRepo: repository.ProvideStore[GatewayCurrency](p.DB),
		bankRepo:     repository.ProvideStore[Bank](p.DB),
		systemRepo:   repository.ProvideStore[Currency](p.DB),
	}
}

type GatewayWithCurrency struct {
	Gateway  *Gateway         `json:"gateway"`
	Currency *GatewayCurrency `json:"currency,omitempty"`
}

// ListGateways returns the admin's gateways with their currency bindings,
// feeding the currency settings screen.
func (s *Service) ListGateways(ctx context.Context, ownerUserID string) ([]*GatewayWithCurrency, error) {
	gateways, err := s.gatewayRepo.Find(ctx, &Gateway{OwnerUserID: ownerUserID})
	if err != nil {
		zap.L().Error("failed to list gateways", zap.Error(err))
		return nil, errutil.Internal("failed to list gateways", err)
	}

	out := make([]*GatewayWithCurrency, 0, len(gateways))
	for _, g := range gateways {
		currency, err := s.currencyRepo.FindOne(ctx, &GatewayCurrency{GatewayID: g.ID})
		if err != nil {
			zap.L().Error("failed to get gateway currency", zap.String("gateway_id", g.ID), zap.Error(err))
			return nil, errutil.Internal("failed to list gateways", err)
		}
		out = append(out, &GatewayWithCurrency{Gateway: g, Currency: currency})
	}

	return out, nil
}

// ActiveGateway resolves the admin's enabled gateway by slug.
func (s *Service) ActiveGateway(ctx context.Context, ownerUserID, slug string) (*Gateway, error) {
	g, err := s.gatewayRepo.FindOne(ctx, &Gateway{
		OwnerUserID: ownerUserID,
		Slug:        strings.ToLower(slug),
		Status:      Active,
	})
	if err != nil {
		zap.L().Error("failed query gateway by slug", zap.String("slug", slug), zap.Error(err))
		return nil, errutil.Internal("failed to get gateway", err)
	}

	if g == nil {
		return nil, errutil.NotFound("Gateway not found", nil)
	}

	return g, nil
}

// CurrencyFor returns the currency binding of a gateway.
func (s *Service) CurrencyFor(ctx context.Context, gatewayID string) (*GatewayCurrency, error) {
	gc, err := s.currencyRepo.FindOne(ctx, &GatewayCurrency{GatewayID: gatewayID})
	if err != nil {
		zap.L().Error("failed query gateway currency", zap.String("gateway_id", gatewayID), zap.Error(err))
		return nil, errutil.Internal("failed to get gateway currency", err)
	}

	if gc == nil {
		return nil, errutil.NotFound("Gateway currency not found", nil)
	}

	return gc, nil
}

type UpsertCurrencyRequest struct {
	GatewayID      string          `json:"gateway_id"`
	Currency       string          `json:"currency"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
}

// UpsertCurrency creates or updates the currency binding of a gateway.
func (s *Service) UpsertCurrency(ctx context.Context, req UpsertCurrencyRequest) (*GatewayCurrency, error) {
	if req.Currency == "" {
		return nil, errutil.ValidationFailed("The currency is required", nil)
	}

	if req.ConversionRate.LessThanOrEqual(decimal.Zero) {
		return nil, errutil.ValidationFailed("The conversion rate must be greater than zero", nil)
	}

	g, err := s.gatewayRepo.FindOne(ctx, &Gateway{ID: req.GatewayID})
	if err != nil {
		zap.L().Error("failed query gateway", zap.Error(err))
		return nil, errutil.Internal("failed to get gateway", err)
	}

	if g == nil {
		return nil, errutil.NotFound("Gateway not found", nil)
	}

	existing, err := s.currencyRepo.FindOne(ctx, &GatewayCurrency{GatewayID: req.GatewayID})
	if err != nil {
		zap.L().Error("failed query gateway currency", zap.Error(err))
		return nil, errutil.Internal("failed to get gateway currency", err)
	}

	code := strings.ToUpper(req.Currency)

	if existing == nil {
		gc := &GatewayCurrency{
			ID:             s.node.Generate().String(),
			GatewayID:      req.GatewayID,
			Currency:       code,
			ConversionRate: req.ConversionRate,
		}
		if err := s.currencyRepo.Create(ctx, gc); err != nil {
			zap.L().Error("failed to create gateway currency", zap.Error(err))
			return nil, errutil.Internal("failed to save gateway currency", err)
		}
		return gc, nil
	}

	existing.Currency = code
	existing.ConversionRate = req.ConversionRate
	existing.UpdatedAt = time.Now()
	if err := s.currencyRepo.Update(ctx, existing.ID, existing); err != nil {
		zap.L().Error("failed to update gateway currency", zap.Error(err))
		return nil, errutil.Internal("failed to save gateway currency", err)
	}

	return existing, nil
}

// ListBanks returns the active transfer destinations of the bank gateway.
func (s *Service) ListBanks(ctx context.Context, ownerUserID string) ([]*Bank, error) {
	banks, err := s.bankRepo.Find(ctx, &Bank{OwnerUserID: ownerUserID, Status: Active})
	if err != nil {
		zap.L().Error("failed to list banks", zap.Error(err))
		return nil, errutil.Internal("failed to list banks", err)
	}

	return banks, nil
}

// Bank resolves one transfer destination owned by the admin.
func (s *Service) Bank(ctx context.Context, ownerUserID, gatewayID, bankID string) (*Bank, error) {
	bank, err := s.bankRepo.FindOne(ctx, &Bank{
		ID:          bankID,
		OwnerUserID: ownerUserID,
		GatewayID:   gatewayID,
	})
	if err != nil {
		zap.L().Error("failed query bank", zap.String("bank_id", bankID), zap.Error(err))
		return nil, errutil.Internal("failed to get bank", err)
	}

	if bank == nil {
		return nil, errutil.ValidationFailed("The selected bank is invalid", nil)
	}

	return bank, nil
}

// SystemCurrency returns the currency the platform prices packages in.
func (s *Service) SystemCurrency(ctx context.Context) (*Currency, error) {
	c, err := s.systemRepo.FindOne(ctx, &Currency{IsCurrent: true})
	if err != nil {
		zap.L().Error("failed query system currency", zap.Error(err))
		return nil, errutil.Internal("failed to get system currency", err)
	}

	if c == nil {
		return nil, errutil.NotFound("System currency not configured", nil)
	}

	return c, nil
}
