package payment

import "context"

// ManualAdapter covers gateways settled outside the system (bank transfer,
// cash). Initiation succeeds with no redirect and confirmation is a no-op:
// manual orders stay pending until the admin approves the deposit.
type ManualAdapter struct {
	slug string
}

func NewBankAdapter() *ManualAdapter {
	return &ManualAdapter{slug: "bank"}
}

func NewCashAdapter() *ManualAdapter {
	return &ManualAdapter{slug: "cash"}
}

func (a *ManualAdapter) Slug() string {
	return a.slug
}

func (a *ManualAdapter) Manual() bool {
	return true
}

func (a *ManualAdapter) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	return &InitiateResponse{}, nil
}

func (a *ManualAdapter) ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	return &ConfirmResponse{Status: StatusPending}, nil
}

func (a *ManualAdapter) SaveProduct(ctx context.Context, req ProductRequest) (*ProductResponse, error) {
	return &ProductResponse{}, nil
}
