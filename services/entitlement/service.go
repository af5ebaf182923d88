package entitlement

import (
	"context"
	"time"

	"rentdesk-billing/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Grant carries everything needed to entitle an owner to a package. The
// limit fields are copied from the package at grant time.
type Grant struct {
	UserID         string
	PackageID      string
	OrderID        string
	DurationDays   int
	MaxProperty    int64
	MaxUnit        int64
	MaxTenant      int64
	MaxMaintainer  int64
	MaxInvoice     int64
	MaxAutoInvoice int64
}

// Applier upserts the owner's entitlement row. Apply runs inside the
// caller's transaction so the grant commits together with the order update.
type Applier interface {
	Apply(ctx context.Context, tx *gorm.DB, grant Grant) (*OwnerPackage, error)
}

var Module = fx.Module("entitlement.module",
	fx.Provide(NewService),
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
	}
}

func (s *Service) Apply(ctx context.Context, tx *gorm.DB, grant Grant) (*OwnerPackage, error) {
	repo := repository.ProvideStore[OwnerPackage](s.db).WithTrx(tx)

	existing, err := repo.FindOne(ctx, &OwnerPackage{UserID: grant.UserID})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	end := now.AddDate(0, 0, grant.DurationDays)

	if existing == nil {
		op := &OwnerPackage{
			ID:             s.node.Generate().String(),
			UserID:         grant.UserID,
			PackageID:      grant.PackageID,
			OrderID:        grant.OrderID,
			MaxProperty:    grant.MaxProperty,
			MaxUnit:        grant.MaxUnit,
			MaxTenant:      grant.MaxTenant,
			MaxMaintainer:  grant.MaxMaintainer,
			MaxInvoice:     grant.MaxInvoice,
			MaxAutoInvoice: grant.MaxAutoInvoice,
			StartDate:      now,
			EndDate:        end,
			Status:         Active,
		}
		if err := repo.Create(ctx, op); err != nil {
			return nil, err
		}
		return op, nil
	}

	existing.PackageID = grant.PackageID
	existing.OrderID = grant.OrderID
	existing.MaxProperty = grant.MaxProperty
	existing.MaxUnit = grant.MaxUnit
	existing.MaxTenant = grant.MaxTenant
	existing.MaxMaintainer = grant.MaxMaintainer
	existing.MaxInvoice = grant.MaxInvoice
	existing.MaxAutoInvoice = grant.MaxAutoInvoice
	existing.StartDate = now
	existing.EndDate = end
	existing.Status = Active
	existing.UpdatedAt = now

	// Column map so a limit of zero overwrites the previous grant.
	if err := repo.Update(ctx, existing.ID, map[string]interface{}{
		"package_id":       grant.PackageID,
		"order_id":         grant.OrderID,
		"max_property":     grant.MaxProperty,
		"max_unit":         grant.MaxUnit,
		"max_tenant":       grant.MaxTenant,
		"max_maintainer":   grant.MaxMaintainer,
		"max_invoice":      grant.MaxInvoice,
		"max_auto_invoice": grant.MaxAutoInvoice,
		"start_date":       now,
		"end_date":         end,
		"status":           Active,
		"updated_at":       now,
	}); err != nil {
		return nil, err
	}

	return existing, nil
}

// RefreshLimits cascades changed package limits into every entitlement that
// references the package. Runs inside the caller's transaction.
func (s *Service) RefreshLimits(ctx context.Context, tx *gorm.DB, packageID string, grant Grant) error {
	return tx.WithContext(ctx).
		Model(&OwnerPackage{}).
		Where("package_id = ?", packageID).
		Updates(map[string]interface{}{
			"max_property":     grant.MaxProperty,
			"max_unit":         grant.MaxUnit,
			"max_tenant":       grant.MaxTenant,
			"max_maintainer":   grant.MaxMaintainer,
			"max_invoice":      grant.MaxInvoice,
			"max_auto_invoice": grant.MaxAutoInvoice,
			"updated_at":       time.Now(),
		}).Error
}
