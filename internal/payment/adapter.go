package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Providers charge in minor units.
var centFactor = decimal.NewFromInt(100)

// Status of a confirmed payment as reported by the provider.
type Status string

var (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

type InitiateRequest struct {
	OrderID     string
	OrderCode   string
	Description string
	Amount      decimal.Decimal
	Currency    string
	CallbackURL string
	CancelURL   string
}

type InitiateResponse struct {
	// PaymentID is the provider-side identifier of the pending payment.
	// Empty for providers that only deliver it on the callback.
	PaymentID   string
	RedirectURL string
}

type ConfirmRequest struct {
	OrderID   string
	PaymentID string
	PayerID   string
}

type ConfirmResponse struct {
	Status        Status
	TransactionID string
	Raw           map[string]interface{}
}

type ProductRequest struct {
	PackageID    string
	Name         string
	Currency     string
	MonthlyPrice decimal.Decimal
	YearlyPrice  decimal.Decimal
}

type ProductResponse struct {
	ProductID      string
	MonthlyPriceID string
	YearlyPriceID  string
}

// Adapter abstracts one payment gateway. Manual adapters (bank, cash) never
// reach the network; online adapters wrap the provider SDK.
type Adapter interface {
	Slug() string
	Manual() bool
	InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
	ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error)
	SaveProduct(ctx context.Context, req ProductRequest) (*ProductResponse, error)
}
