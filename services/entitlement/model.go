package entitlement

import "time"

type Status string

var (
	Active   Status = "active"
	Inactive Status = "inactive"
)

// OwnerPackage is the entitlement an owner holds after paying for a package.
// Limit columns are snapshots taken when the grant is applied and are
// refreshed in place when the package limits change.
type OwnerPackage struct {
	ID             string    `gorm:"column:id;primaryKey"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
	UserID         string    `gorm:"column:user_id"`
	PackageID      string    `gorm:"column:package_id"`
	OrderID        string    `gorm:"column:order_id"`
	MaxProperty    int64     `gorm:"column:max_property"`
	MaxUnit        int64     `gorm:"column:max_unit"`
	MaxTenant      int64     `gorm:"column:max_tenant"`
	MaxMaintainer  int64     `gorm:"column:max_maintainer"`
	MaxInvoice     int64     `gorm:"column:max_invoice"`
	MaxAutoInvoice int64     `gorm:"column:max_auto_invoice"`
	StartDate      time.Time `gorm:"column:start_date"`
	EndDate        time.Time `gorm:"column:end_date"`
	Status         Status    `gorm:"column:status"`
}

func (OwnerPackage) TableName() string {
	return "owner_packages"
}
