package gateway

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

var (
	Active   Status = "active"
	Inactive Status = "inactive"
)

func (s Status) String() string {
	switch s {
	case Active, Inactive:
		return string(s)
	default:
		return ""
	}
}

// Gateway is a payment method enabled by the platform admin. Slug is one of
// bank, cash, stripe, paypal, mercadopago.
type Gateway struct {
	ID          string    `gorm:"column:id;primaryKey"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
	OwnerUserID string    `gorm:"column:owner_user_id"`
	Slug        string    `gorm:"column:slug"`
	Title       string    `gorm:"column:title"`
	Status      Status    `gorm:"column:status"`
}

func (Gateway) TableName() string {
	return "gateways"
}

// GatewayCurrency binds a gateway to the currency it charges in, with the
// conversion rate from the system currency.
type GatewayCurrency struct {
	ID             string          `gorm:"column:id;primaryKey"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
	GatewayID      string          `gorm:"column:gateway_id"`
	Currency       string          `gorm:"column:currency"`
	ConversionRate decimal.Decimal `gorm:"column:conversion_rate;type:numeric(12,6)"`
}

func (GatewayCurrency) TableName() string {
	return "gateway_currencies"
}

// Bank is a destination account for manual bank-transfer payments.
type Bank struct {
	ID            string    `gorm:"column:id;primaryKey"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
	OwnerUserID   string    `gorm:"column:owner_user_id"`
	GatewayID     string    `gorm:"column:gateway_id"`
	Name          string    `gorm:"column:name"`
	AccountNumber string    `gorm:"column:account_number"`
	Status        Status    `gorm:"column:status"`
}

func (Bank) TableName() string {
	return "banks"
}

// Currency is the system currency registry. Exactly one row carries
// IsCurrent at any time.
type Currency struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	Code      string    `gorm:"column:code"`
	Symbol    string    `gorm:"column:symbol"`
	IsCurrent bool      `gorm:"column:is_current"`
}

func (Currency) TableName() string {
	return "currencies"
}
