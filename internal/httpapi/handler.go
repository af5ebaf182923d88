package httpapi

import (
	"io"
	"strconv"

	"rentdesk-billing/internal/payment"
	"rentdesk-billing/pkg/errutil"
	"rentdesk-billing/services/catalog"
	"rentdesk-billing/services/checkout"
	"rentdesk-billing/services/gateway"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Handler struct {
	checkout *checkout.Service
	catalog  *catalog.Service
	gateways *gateway.Service
	accounts AccountResolver
	stripe   *payment.StripeAdapter
}

// AccountResolver identifies the admin account whose billing entities the
// admin endpoints operate on.
type AccountResolver interface {
	AdminID(c *gin.Context) (string, error)
}

type HandlerParams struct {
	fx.In
	Checkout *checkout.Service
	Catalog  *catalog.Service
	Gateways *gateway.Service
	Accounts AccountResolver
	Stripe   *payment.StripeAdapter
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		checkout: p.Checkout,
		catalog:  p.Catalog,
		gateways: p.Gateways,
		accounts: p.Accounts,
		stripe:   p.Stripe,
	}
}

type checkoutForm struct {
	UserID       string `form:"user_id" json:"user_id"`
	PackageID    string `form:"package_id" json:"package_id"`
	DurationType string `form:"duration_type" json:"duration_type"`
	Quantity     int    `form:"quantity" json:"quantity"`
	Gateway      string `form:"gateway" json:"gateway"`
	Currency     string `form:"currency" json:"currency"`
	BankID       string `form:"bank_id" json:"bank_id"`
	DepositBy    string `form:"deposit_by" json:"deposit_by"`
}

func (h *Handler) Checkout(c *gin.Context) {
	var form checkoutForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, errutil.BadRequest("Invalid checkout request", err))
		return
	}

	req := checkout.CheckoutRequest{
		UserID:       form.UserID,
		PackageID:    form.PackageID,
		DurationType: form.DurationType,
		Quantity:     form.Quantity,
		Gateway:      form.Gateway,
		Currency:     form.Currency,
		BankID:       form.BankID,
		DepositBy:    form.DepositBy,
	}

	if file, err := c.FormFile("bank_slip"); err == nil && file != nil {
		f, err := file.Open()
		if err != nil {
			fail(c, errutil.BadRequest("Invalid bank slip upload", err))
			return
		}
		defer f.Close()

		req.Slip = &checkout.SlipUpload{
			Filename:    file.Filename,
			Size:        file.Size,
			ContentType: file.Header.Get("Content-Type"),
			Reader:      f,
		}
	}

	resp, err := h.checkout.Checkout(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	data := gin.H{"order": resp.Order}
	if resp.RedirectURL != "" {
		data["redirect_url"] = resp.RedirectURL
	}

	respond(c, resp.Message, data)
}

func (h *Handler) Verify(c *gin.Context) {
	resp, err := h.checkout.Verify(c.Request.Context(), checkout.VerifyRequest{
		OrderID:   c.Query("id"),
		PayerID:   c.Query("PayerID"),
		PaymentID: c.Query("payment_id"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, resp.Message, gin.H{"order": resp.Order})
}

func (h *Handler) Failed(c *gin.Context) {
	resp := h.checkout.Failed(c.Request.Context())
	respond(c, resp.Message, nil)
}

// Webhook finalises orders from provider events. Only Stripe events carry a
// verifiable signature; other gateways are acknowledged without action.
func (h *Handler) Webhook(c *gin.Context) {
	slug := c.Param("gateway")
	if slug != "stripe" {
		respond(c, "ignored", nil)
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, errutil.BadRequest("Invalid webhook payload", err))
		return
	}

	orderID, sessionID, err := h.stripe.WebhookSession(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		fail(c, err)
		return
	}

	if orderID == "" {
		respond(c, "ignored", nil)
		return
	}

	if _, err := h.checkout.Verify(c.Request.Context(), checkout.VerifyRequest{
		OrderID:   orderID,
		PaymentID: sessionID,
	}); err != nil {
		zap.L().Warn("webhook verification failed", zap.String("order_id", orderID), zap.Error(err))
		fail(c, err)
		return
	}

	respond(c, "ok", nil)
}

func (h *Handler) ListPackages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, err := h.catalog.List(c.Request.Context(), catalog.ListRequest{
		Limit:  limit,
		Cursor: c.Query("cursor"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, "", gin.H{"packages": rows})
}

func (h *Handler) GetPackage(c *gin.Context) {
	detail, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, "", gin.H{"package": detail})
}

func (h *Handler) SavePackage(c *gin.Context) {
	var req catalog.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errutil.BadRequest("Invalid package payload", err))
		return
	}

	pkg, err := h.catalog.Save(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, "Package saved", gin.H{"package": pkg})
}

func (h *Handler) DeletePackage(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	respond(c, "Package deleted", nil)
}

type assignForm struct {
	UserID       string `json:"user_id"`
	PackageID    string `json:"package_id"`
	DurationType string `json:"duration_type"`
}

func (h *Handler) AssignPackage(c *gin.Context) {
	var form assignForm
	if err := c.ShouldBindJSON(&form); err != nil {
		fail(c, errutil.BadRequest("Invalid assign payload", err))
		return
	}

	order, err := h.checkout.AssignPackage(c.Request.Context(), checkout.AssignRequest{
		UserID:       form.UserID,
		PackageID:    form.PackageID,
		DurationType: form.DurationType,
	})
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, "Package assigned", gin.H{"order": order})
}

func (h *Handler) ListGateways(c *gin.Context) {
	adminID, err := h.accounts.AdminID(c)
	if err != nil {
		fail(c, err)
		return
	}

	gws, err := h.gateways.ListGateways(c.Request.Context(), adminID)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, "", gin.H{"gateways": gws})
}

func (h *Handler) UpsertGatewayCurrency(c *gin.Context) {
	var req gateway.UpsertCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errutil.BadRequest("Invalid currency payload", err))
		return
	}

	req.GatewayID = c.Param("id")

	gc, err := h.gateways.UpsertCurrency(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, "Currency saved", gin.H{"currency": gc})
}

func (h *Handler) ListBanks(c *gin.Context) {
	adminID, err := h.accounts.AdminID(c)
	if err != nil {
		fail(c, err)
		return
	}

	banks, err := h.gateways.ListBanks(c.Request.Context(), adminID)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, "", gin.H{"banks": banks})
}
