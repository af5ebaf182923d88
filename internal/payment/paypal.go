package payment

import (
	"context"

	"rentdesk-billing/pkg/config"
	"rentdesk-billing/pkg/errutil"

	"github.com/plutov/paypal/v4"
	"go.uber.org/zap"
)

type PaypalAdapter struct {
	client *paypal.Client
}

func NewPaypalAdapter(cfg *config.Config) (*PaypalAdapter, error) {
	base := paypal.APIBaseSandBox
	if cfg.Payment.Paypal.Live {
		base = paypal.APIBaseLive
	}

	c, err := paypal.NewClient(cfg.Payment.Paypal.ClientID, cfg.Payment.Paypal.Secret, base)
	if err != nil {
		return nil, err
	}

	return &PaypalAdapter{client: c}, nil
}

func (a *PaypalAdapter) Slug() string {
	return "paypal"
}

func (a *PaypalAdapter) Manual() bool {
	return false
}

func (a *PaypalAdapter) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	order, err := a.client.CreateOrder(ctx, paypal.OrderIntentCapture,
		[]paypal.PurchaseUnitRequest{{
			ReferenceID: req.OrderID,
			Description: req.Description,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: req.Currency,
				Value:    req.Amount.StringFixed(2),
			},
		}},
		nil,
		&paypal.ApplicationContext{
			ReturnURL: req.CallbackURL,
			CancelURL: req.CancelURL,
		},
	)
	if err != nil {
		zap.L().Error("paypal create order failed", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, errutil.BadGateway("Unable to reach PayPal", err)
	}

	resp := &InitiateResponse{PaymentID: order.ID}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			resp.RedirectURL = link.Href
			break
		}
	}

	return resp, nil
}

func (a *PaypalAdapter) ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	capture, err := a.client.CaptureOrder(ctx, req.PaymentID, paypal.CaptureOrderRequest{})
	if err != nil {
		zap.L().Error("paypal capture failed", zap.String("payment_id", req.PaymentID), zap.Error(err))
		return nil, errutil.BadGateway("Unable to reach PayPal", err)
	}

	resp := &ConfirmResponse{
		Status: StatusFailed,
		Raw: map[string]interface{}{
			"order_id": capture.ID,
			"status":   capture.Status,
		},
	}

	if capture.Status == "COMPLETED" {
		resp.Status = StatusSuccess
		resp.TransactionID = capture.ID
	}

	return resp, nil
}

// SaveProduct is a no-op: PayPal checkout charges the order total directly,
// no provider-side price objects are kept.
func (a *PaypalAdapter) SaveProduct(ctx context.Context, req ProductRequest) (*ProductResponse, error) {
	return &ProductResponse{}, nil
}
