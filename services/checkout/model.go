package checkout

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

var (
	Pending   PaymentStatus = "pending"
	Paid      PaymentStatus = "paid"
	Cancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) String() string {
	switch s {
	case Pending, Paid, Cancelled:
		return string(s)
	default:
		return ""
	}
}

type DurationType string

var (
	Monthly DurationType = "monthly"
	Yearly  DurationType = "yearly"
)

// Days returns the entitlement length of the duration. Fixed-length, not
// calendar-aware.
func (d DurationType) Days() int {
	if d == Monthly {
		return 30
	}
	return 365
}

// SubscriptionOrder is the billing record of one checkout. Price, currency
// and conversion-rate columns are snapshots taken at order creation; later
// package or gateway edits never change them. Orders are never deleted.
type SubscriptionOrder struct {
	ID                string          `gorm:"column:id;primaryKey"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
	OrderCode         string          `gorm:"column:order_code"`
	UserID            string          `gorm:"column:user_id"`
	PackageID         string          `gorm:"column:package_id"`
	PackageType       string          `gorm:"column:package_type"`
	Quantity          int             `gorm:"column:quantity"`
	DurationType      DurationType    `gorm:"column:duration_type"`
	SystemCurrency    string          `gorm:"column:system_currency"`
	GatewayID         string          `gorm:"column:gateway_id"`
	GatewaySlug       string          `gorm:"column:gateway_slug"`
	GatewayCurrency   string          `gorm:"column:gateway_currency"`
	ConversionRate    decimal.Decimal `gorm:"column:conversion_rate;type:numeric(12,6)"`
	Amount            decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Subtotal          decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
	Total             decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`
	TransactionAmount decimal.Decimal `gorm:"column:transaction_amount;type:numeric(12,2)"`
	PaymentStatus     PaymentStatus   `gorm:"column:payment_status"`
	PaymentID         string          `gorm:"column:payment_id"`
	TransactionID     string          `gorm:"column:transaction_id"`
	BankID            string          `gorm:"column:bank_id"`
	BankName          string          `gorm:"column:bank_name"`
	BankAccountNumber string          `gorm:"column:bank_account_number"`
	DepositBy         string          `gorm:"column:deposit_by"`
	DepositSlipID     string          `gorm:"column:deposit_slip_id"`
	Others            datatypes.JSON  `gorm:"column:others"`
}

func (SubscriptionOrder) TableName() string {
	return "subscription_orders"
}
