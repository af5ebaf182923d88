package payment

import (
	"context"
	"strconv"

	"rentdesk-billing/pkg/config"
	"rentdesk-billing/pkg/errutil"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"go.uber.org/zap"
)

// MercadopagoAdapter creates a checkout preference on initiation. The
// provider delivers the payment id only on the success callback, so
// InitiatePayment returns an empty PaymentID.
type MercadopagoAdapter struct {
	preferences preference.Client
	payments    mppayment.Client
}

func NewMercadopagoAdapter(cfg *config.Config) (*MercadopagoAdapter, error) {
	mpCfg, err := mpconfig.New(cfg.Payment.Mercadopago.AccessToken)
	if err != nil {
		return nil, err
	}

	return &MercadopagoAdapter{
		preferences: preference.NewClient(mpCfg),
		payments:    mppayment.NewClient(mpCfg),
	}, nil
}

func (a *MercadopagoAdapter) Slug() string {
	return "mercadopago"
}

func (a *MercadopagoAdapter) Manual() bool {
	return false
}

func (a *MercadopagoAdapter) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	amount, _ := req.Amount.Float64()

	resp, err := a.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{{
			ID:         req.OrderID,
			Title:      req.Description,
			Quantity:   1,
			UnitPrice:  amount,
			CurrencyID: req.Currency,
		}},
		ExternalReference: req.OrderID,
		BackURLs: &preference.BackURLsRequest{
			Success: req.CallbackURL,
			Failure: req.CancelURL,
			Pending: req.CancelURL,
		},
		AutoReturn: "approved",
	})
	if err != nil {
		zap.L().Error("mercadopago preference failed", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, errutil.BadGateway("Unable to reach MercadoPago", err)
	}

	return &InitiateResponse{RedirectURL: resp.InitPoint}, nil
}

func (a *MercadopagoAdapter) ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	id, err := strconv.Atoi(req.PaymentID)
	if err != nil {
		return nil, errutil.BadRequest("Invalid payment id", err)
	}

	p, err := a.payments.Get(ctx, id)
	if err != nil {
		zap.L().Error("mercadopago payment lookup failed", zap.String("payment_id", req.PaymentID), zap.Error(err))
		return nil, errutil.BadGateway("Unable to reach MercadoPago", err)
	}

	resp := &ConfirmResponse{
		Status: StatusFailed,
		Raw: map[string]interface{}{
			"payment_id": p.ID,
			"status":     p.Status,
		},
	}

	if p.Status == "approved" {
		resp.Status = StatusSuccess
		resp.TransactionID = strconv.Itoa(p.ID)
	}

	return resp, nil
}

// SaveProduct is a no-op: checkout preferences carry the order total
// directly.
func (a *MercadopagoAdapter) SaveProduct(ctx context.Context, req ProductRequest) (*ProductResponse, error) {
	return &ProductResponse{}, nil
}
