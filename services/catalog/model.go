package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PackageType string

var (
	TypeDefault  PackageType = "default"
	TypeProperty PackageType = "property"
	TypeUnit     PackageType = "unit"
	TypeTenant   PackageType = "tenant"
)

func (t PackageType) String() string {
	switch t {
	case TypeDefault, TypeProperty, TypeUnit, TypeTenant:
		return string(t)
	default:
		return ""
	}
}

type Status string

var (
	Active   Status = "active"
	Inactive Status = "inactive"
)

// Unlimited is the sentinel for limit columns without a cap.
const Unlimited int64 = -1

// Package is a subscription plan. Per-unit prices apply when the package
// type charges per property/unit/tenant on top of the base price.
type Package struct {
	ID              string          `gorm:"column:id;primaryKey"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
	Name            string          `gorm:"column:name"`
	Slug            string          `gorm:"column:slug"`
	Description     string          `gorm:"column:description"`
	Type            PackageType     `gorm:"column:type"`
	MonthlyPrice    decimal.Decimal `gorm:"column:monthly_price;type:numeric(12,2)"`
	YearlyPrice     decimal.Decimal `gorm:"column:yearly_price;type:numeric(12,2)"`
	PerMonthlyPrice decimal.Decimal `gorm:"column:per_monthly_price;type:numeric(12,2)"`
	PerYearlyPrice  decimal.Decimal `gorm:"column:per_yearly_price;type:numeric(12,2)"`
	MaxProperty     int64           `gorm:"column:max_property"`
	MaxUnit         int64           `gorm:"column:max_unit"`
	MaxTenant       int64           `gorm:"column:max_tenant"`
	MaxMaintainer   int64           `gorm:"column:max_maintainer"`
	MaxInvoice      int64           `gorm:"column:max_invoice"`
	MaxAutoInvoice  int64           `gorm:"column:max_auto_invoice"`
	Others          datatypes.JSON  `gorm:"column:others"`
	NoticeSupport   bool            `gorm:"column:notice_support"`
	TicketSupport   bool            `gorm:"column:ticket_support"`
	Status          Status          `gorm:"column:status"`
	IsTrial         bool            `gorm:"column:is_trial"`
	IsDefault       bool            `gorm:"column:is_default"`
}

func (Package) TableName() string {
	return "packages"
}

// SubscriptionPrice holds the provider-side price object ids of a package
// for one online gateway.
type SubscriptionPrice struct {
	ID              string    `gorm:"column:id;primaryKey"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
	PackageID       string    `gorm:"column:package_id"`
	GatewayID       string    `gorm:"column:gateway_id"`
	GatewaySlug     string    `gorm:"column:gateway_slug"`
	GatewayCurrency string    `gorm:"column:gateway_currency"`
	ProductID       string    `gorm:"column:product_id"`
	MonthlyPriceID  string    `gorm:"column:monthly_price_id"`
	YearlyPriceID   string    `gorm:"column:yearly_price_id"`
}

func (SubscriptionPrice) TableName() string {
	return "subscription_prices"
}
