package catalog

import (
	"context"
	"fmt"
	"time"

	"rentdesk-billing/internal/payment"
	"rentdesk-billing/pkg/db/option"
	"rentdesk-billing/pkg/db/pagination"
	"rentdesk-billing/pkg/errutil"
	"rentdesk-billing/pkg/money"
	"rentdesk-billing/pkg/repository"
	"rentdesk-billing/services/account"
	"rentdesk-billing/services/entitlement"
	"rentdesk-billing/services/gateway"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	registry    *payment.Registry
	accounts    *account.Service
	gateways    *gateway.Service
	entitlement *entitlement.Service
	repo        repository.Repository[Package]
	priceRepo   repository.Repository[SubscriptionPrice]
}

type ServiceParams struct {
	fx.In
	DB          *gorm.DB
	Node        *snowflake.Node
	Registry    *payment.Registry
	Accounts    *account.Service
	Gateways    *gateway.Service
	Entitlement *entitlement.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:          p.DB,
		node:        p.Node,
		registry:    p.Registry,
		accounts:    p.Accounts,
		gateways:    p.Gateways,
		entitlement: p.Entitlement,
		repo:        repository.ProvideStore[Package](p.DB),
		priceRepo:   repository.ProvideStore[SubscriptionPrice](p.DB),
	}
}

type ListRequest struct {
	Limit  int
	Cursor string
}

// PackageRow is the admin table projection with formatted price columns.
type PackageRow struct {
	*Package
	MonthlyPriceLabel string `json:"monthly_price_label"`
	YearlyPriceLabel  string `json:"yearly_price_label"`
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]*PackageRow, error) {
	currency, err := s.gateways.SystemCurrency(ctx)
	if err != nil {
		return nil, err
	}

	opts := []option.QueryOption{
		option.ApplyPagination(pagination.Pagination{
			Limit:  req.Limit,
			Cursor: req.Cursor,
		}),
	}

	packages, err := s.repo.Find(ctx, &Package{}, opts...)
	if err != nil {
		zap.L().Error("failed to list packages", zap.Error(err))
		return nil, errutil.Internal("failed to list packages", err)
	}

	out := make([]*PackageRow, 0, len(packages))
	for _, p := range packages {
		out = append(out, &PackageRow{
			Package:           p,
			MonthlyPriceLabel: money.Format(p.MonthlyPrice, currency.Code),
			YearlyPriceLabel:  money.Format(p.YearlyPrice, currency.Code),
		})
	}

	return out, nil
}

type PackageDetail struct {
	*Package
	Prices []*SubscriptionPrice `json:"prices"`
}

func (s *Service) Get(ctx context.Context, packageID string) (*PackageDetail, error) {
	pkg, err := s.repo.FindOne(ctx, &Package{ID: packageID})
	if err != nil {
		zap.L().Error("failed query package", zap.Error(err))
		return nil, errutil.Internal("failed to get package", err)
	}

	if pkg == nil {
		return nil, errutil.NotFound("Package not found", nil)
	}

	prices, err := s.priceRepo.Find(ctx, &SubscriptionPrice{PackageID: packageID})
	if err != nil {
		zap.L().Error("failed query subscription prices", zap.Error(err))
		return nil, errutil.Internal("failed to get package", err)
	}

	return &PackageDetail{Package: pkg, Prices: prices}, nil
}

type SaveRequest struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Type            PackageType     `json:"type"`
	MonthlyPrice    decimal.Decimal `json:"monthly_price"`
	YearlyPrice     decimal.Decimal `json:"yearly_price"`
	PerMonthlyPrice decimal.Decimal `json:"per_monthly_price"`
	PerYearlyPrice  decimal.Decimal `json:"per_yearly_price"`
	MaxProperty     *int64          `json:"max_property"`
	MaxUnit         *int64          `json:"max_unit"`
	MaxTenant       *int64          `json:"max_tenant"`
	MaxMaintainer   *int64          `json:"max_maintainer"`
	MaxInvoice      *int64          `json:"max_invoice"`
	MaxAutoInvoice  *int64          `json:"max_auto_invoice"`
	Others          []byte          `json:"others"`
	NoticeSupport   bool            `json:"notice_support"`
	TicketSupport   bool            `json:"ticket_support"`
	Status          Status          `json:"status"`
	IsTrial         bool            `json:"is_trial"`
	IsDefault       bool            `json:"is_default"`
}

// limit treats nil as unlimited.
func limit(v *int64) int64 {
	if v == nil {
		return Unlimited
	}
	return *v
}

// Save creates or updates a package. On update the new limits cascade into
// every owner entitlement referencing the package, and provider-side price
// objects are refreshed for each enabled online gateway.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*Package, error) {
	if req.Name == "" {
		return nil, errutil.ValidationFailed("The name is required", nil)
	}

	slugName := slug.Make(req.Name)

	existing, err := s.repo.FindOne(ctx, &Package{Slug: slugName})
	if err != nil {
		zap.L().Error("failed query package by slug", zap.Error(err))
		return nil, errutil.Internal("failed to save package", err)
	}

	if existing != nil && existing.ID != req.ID {
		return nil, errutil.ValidationFailed("Name Already Exist", nil)
	}

	pkg := &Package{
		ID:              req.ID,
		Name:            req.Name,
		Slug:            slugName,
		Description:     req.Description,
		Type:            req.Type,
		MonthlyPrice:    money.Round(req.MonthlyPrice),
		YearlyPrice:     money.Round(req.YearlyPrice),
		PerMonthlyPrice: money.Round(req.PerMonthlyPrice),
		PerYearlyPrice:  money.Round(req.PerYearlyPrice),
		MaxProperty:     limit(req.MaxProperty),
		MaxUnit:         limit(req.MaxUnit),
		MaxTenant:       limit(req.MaxTenant),
		MaxMaintainer:   limit(req.MaxMaintainer),
		MaxInvoice:      limit(req.MaxInvoice),
		MaxAutoInvoice:  limit(req.MaxAutoInvoice),
		Others:          datatypes.JSON(req.Others),
		NoticeSupport:   req.NoticeSupport,
		TicketSupport:   req.TicketSupport,
		Status:          req.Status,
		IsTrial:         req.IsTrial,
		IsDefault:       req.IsDefault,
	}

	if pkg.Status == "" {
		pkg.Status = Active
	}

	isCreate := pkg.ID == ""
	if isCreate {
		pkg.ID = s.node.Generate().String()
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)

		if isCreate {
			if err := repo.Create(ctx, pkg); err != nil {
				return fmt.Errorf("failed to create package: %w", err)
			}
		} else {
			pkg.UpdatedAt = time.Now()
			// Column map: zero-valued limits and cleared flags must persist,
			// struct updates would skip them.
			if err := repo.Update(ctx, pkg.ID, map[string]interface{}{
				"name":              pkg.Name,
				"slug":              pkg.Slug,
				"description":       pkg.Description,
				"type":              pkg.Type,
				"monthly_price":     pkg.MonthlyPrice,
				"yearly_price":      pkg.YearlyPrice,
				"per_monthly_price": pkg.PerMonthlyPrice,
				"per_yearly_price":  pkg.PerYearlyPrice,
				"max_property":      pkg.MaxProperty,
				"max_unit":          pkg.MaxUnit,
				"max_tenant":        pkg.MaxTenant,
				"max_maintainer":    pkg.MaxMaintainer,
				"max_invoice":       pkg.MaxInvoice,
				"max_auto_invoice":  pkg.MaxAutoInvoice,
				"others":            pkg.Others,
				"notice_support":    pkg.NoticeSupport,
				"ticket_support":    pkg.TicketSupport,
				"status":            pkg.Status,
				"is_trial":          pkg.IsTrial,
				"is_default":        pkg.IsDefault,
				"updated_at":        pkg.UpdatedAt,
			}); err != nil {
				return fmt.Errorf("failed to update package: %w", err)
			}

			if err := s.entitlement.RefreshLimits(ctx, tx, pkg.ID, entitlement.Grant{
				MaxProperty:    pkg.MaxProperty,
				MaxUnit:        pkg.MaxUnit,
				MaxTenant:      pkg.MaxTenant,
				MaxMaintainer:  pkg.MaxMaintainer,
				MaxInvoice:     pkg.MaxInvoice,
				MaxAutoInvoice: pkg.MaxAutoInvoice,
			}); err != nil {
				return fmt.Errorf("failed to refresh entitlement limits: %w", err)
			}
		}

		return nil
	}); err != nil {
		zap.L().Error("failed to save package", zap.Error(err))
		return nil, errutil.Internal("failed to save package", err)
	}

	if err := s.syncProviderPrices(ctx, pkg); err != nil {
		// The package itself is saved; provider sync failures surface to the
		// admin so the save can be retried.
		return nil, err
	}

	return pkg, nil
}

// syncProviderPrices pushes the package prices to every enabled online
// gateway and upserts the SubscriptionPrice binding. Gateways no longer
// enabled lose their binding.
func (s *Service) syncProviderPrices(ctx context.Context, pkg *Package) error {
	admin, err := s.accounts.Admin(ctx)
	if err != nil {
		return err
	}

	gws, err := s.gateways.ListGateways(ctx, admin.ID)
	if err != nil {
		return err
	}

	enabled := make(map[string]bool)

	for _, gw := range gws {
		adapter, err := s.registry.Get(gw.Gateway.Slug)
		if err != nil || adapter.Manual() {
			continue
		}

		if gw.Gateway.Status != gateway.Active || gw.Currency == nil {
			continue
		}

		enabled[gw.Gateway.ID] = true

		resp, err := adapter.SaveProduct(ctx, payment.ProductRequest{
			PackageID:    pkg.ID,
			Name:         pkg.Name,
			Currency:     gw.Currency.Currency,
			MonthlyPrice: money.Convert(pkg.MonthlyPrice, gw.Currency.ConversionRate),
			YearlyPrice:  money.Convert(pkg.YearlyPrice, gw.Currency.ConversionRate),
		})
		if err != nil {
			zap.L().Error("failed to sync provider price",
				zap.String("package_id", pkg.ID),
				zap.String("gateway", gw.Gateway.Slug),
				zap.Error(err))
			return err
		}

		existing, err := s.priceRepo.FindOne(ctx, &SubscriptionPrice{
			PackageID: pkg.ID,
			GatewayID: gw.Gateway.ID,
		})
		if err != nil {
			return errutil.Internal("failed to save subscription price", err)
		}

		if existing == nil {
			sp := &SubscriptionPrice{
				ID:              s.node.Generate().String(),
				PackageID:       pkg.ID,
				GatewayID:       gw.Gateway.ID,
				GatewaySlug:     gw.Gateway.Slug,
				GatewayCurrency: gw.Currency.Currency,
				ProductID:       resp.ProductID,
				MonthlyPriceID:  resp.MonthlyPriceID,
				YearlyPriceID:   resp.YearlyPriceID,
			}
			if err := s.priceRepo.Create(ctx, sp); err != nil {
				return errutil.Internal("failed to save subscription price", err)
			}
			continue
		}

		if err := s.priceRepo.Update(ctx, existing.ID, map[string]interface{}{
			"gateway_currency": gw.Currency.Currency,
			"product_id":       resp.ProductID,
			"monthly_price_id": resp.MonthlyPriceID,
			"yearly_price_id":  resp.YearlyPriceID,
			"updated_at":       time.Now(),
		}); err != nil {
			return errutil.Internal("failed to save subscription price", err)
		}
	}

	// Drop bindings of gateways that are disabled or manual now.
	prices, err := s.priceRepo.Find(ctx, &SubscriptionPrice{PackageID: pkg.ID})
	if err != nil {
		return errutil.Internal("failed to save subscription price", err)
	}

	for _, sp := range prices {
		if enabled[sp.GatewayID] {
			continue
		}
		if err := s.db.WithContext(ctx).Delete(&SubscriptionPrice{}, "id = ?", sp.ID).Error; err != nil {
			return errutil.Internal("failed to save subscription price", err)
		}
	}

	return nil
}

// Delete removes a package. The last active package can never be deleted,
// and deleting the trial package promotes one remaining active package so a
// trial always exists.
func (s *Service) Delete(ctx context.Context, packageID string) error {
	pkg, err := s.repo.FindOne(ctx, &Package{ID: packageID})
	if err != nil {
		zap.L().Error("failed query package", zap.Error(err))
		return errutil.Internal("failed to delete package", err)
	}

	if pkg == nil {
		return errutil.NotFound("Package not found", nil)
	}

	activeCount, err := s.repo.Count(ctx, &Package{Status: Active})
	if err != nil {
		zap.L().Error("failed count active packages", zap.Error(err))
		return errutil.Internal("failed to delete package", err)
	}

	if activeCount <= 1 {
		return errutil.UnprocessableEntity("Trial package can not be deleted", nil)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Delete(&Package{}, "id = ?", packageID).Error; err != nil {
			return fmt.Errorf("failed to delete package: %w", err)
		}

		if err := tx.WithContext(ctx).Delete(&SubscriptionPrice{}, "package_id = ?", packageID).Error; err != nil {
			return fmt.Errorf("failed to delete subscription prices: %w", err)
		}

		if !pkg.IsTrial {
			return nil
		}

		var next Package
		if err := tx.WithContext(ctx).
			Where("status = ?", Active).
			Order("created_at asc").
			First(&next).Error; err != nil {
			return fmt.Errorf("failed to pick trial successor: %w", err)
		}

		if err := tx.WithContext(ctx).
			Model(&Package{}).
			Where("id = ?", next.ID).
			Updates(map[string]interface{}{
				"is_trial":   true,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("failed to promote trial package: %w", err)
		}

		return nil
	}); err != nil {
		zap.L().Error("failed to delete package", zap.String("package_id", packageID), zap.Error(err))
		return errutil.Internal("failed to delete package", err)
	}

	return nil
}
