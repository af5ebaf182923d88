package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"rentdesk-billing/pkg/config"
	"rentdesk-billing/pkg/errutil"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

type StripeAdapter struct {
	sc            *client.API
	webhookSecret string
}

func NewStripeAdapter(cfg *config.Config) *StripeAdapter {
	sc := &client.API{}
	sc.Init(cfg.Payment.Stripe.SecretKey, nil)
	return &StripeAdapter{
		sc:            sc,
		webhookSecret: cfg.Payment.Stripe.WebhookSecret,
	}
}

func (a *StripeAdapter) Slug() string {
	return "stripe"
}

func (a *StripeAdapter) Manual() bool {
	return false
}

func (a *StripeAdapter) InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.Amount.Mul(centFactor).IntPart()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Description),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(fmt.Sprintf("%s&payment_id={CHECKOUT_SESSION_ID}", req.CallbackURL)),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata: map[string]string{
			"order_id":   req.OrderID,
			"order_code": req.OrderCode,
		},
	}

	sess, err := a.sc.CheckoutSessions.New(params)
	if err != nil {
		zap.L().Error("stripe checkout session failed", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, errutil.BadGateway("Unable to reach Stripe", err)
	}

	return &InitiateResponse{
		PaymentID:   sess.ID,
		RedirectURL: sess.URL,
	}, nil
}

func (a *StripeAdapter) ConfirmPayment(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	sess, err := a.sc.CheckoutSessions.Get(req.PaymentID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		zap.L().Error("stripe session lookup failed", zap.String("payment_id", req.PaymentID), zap.Error(err))
		return nil, errutil.BadGateway("Unable to reach Stripe", err)
	}

	resp := &ConfirmResponse{
		Status: StatusFailed,
		Raw: map[string]interface{}{
			"session_id":     sess.ID,
			"payment_status": string(sess.PaymentStatus),
		},
	}

	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		resp.Status = StatusSuccess
		if sess.PaymentIntent != nil {
			resp.TransactionID = sess.PaymentIntent.ID
		}
	}

	return resp, nil
}

func (a *StripeAdapter) SaveProduct(ctx context.Context, req ProductRequest) (*ProductResponse, error) {
	prod, err := a.sc.Products.New(&stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Name:   stripe.String(req.Name),
	})
	if err != nil {
		return nil, errutil.BadGateway("Unable to save Stripe product", err)
	}

	monthly, err := a.sc.Prices.New(&stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		Product:    stripe.String(prod.ID),
		Currency:   stripe.String(req.Currency),
		UnitAmount: stripe.Int64(req.MonthlyPrice.Mul(centFactor).IntPart()),
		Recurring:  &stripe.PriceRecurringParams{Interval: stripe.String("month")},
	})
	if err != nil {
		return nil, errutil.BadGateway("Unable to save Stripe price", err)
	}

	yearly, err := a.sc.Prices.New(&stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		Product:    stripe.String(prod.ID),
		Currency:   stripe.String(req.Currency),
		UnitAmount: stripe.Int64(req.YearlyPrice.Mul(centFactor).IntPart()),
		Recurring:  &stripe.PriceRecurringParams{Interval: stripe.String("year")},
	})
	if err != nil {
		return nil, errutil.BadGateway("Unable to save Stripe price", err)
	}

	return &ProductResponse{
		ProductID:      prod.ID,
		MonthlyPriceID: monthly.ID,
		YearlyPriceID:  yearly.ID,
	}, nil
}

// WebhookSession verifies a webhook payload signature and, for completed
// checkout sessions, returns the order id carried in the session metadata
// together with the session id.
func (a *StripeAdapter) WebhookSession(payload []byte, signature string) (orderID, sessionID string, err error) {
	event, err := webhook.ConstructEvent(payload, signature, a.webhookSecret)
	if err != nil {
		return "", "", errutil.BadRequest("Invalid webhook signature", err)
	}

	if event.Type != "checkout.session.completed" {
		return "", "", nil
	}

	var obj struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return "", "", errutil.BadRequest("Invalid webhook payload", err)
	}

	return obj.Metadata["order_id"], obj.ID, nil
}
