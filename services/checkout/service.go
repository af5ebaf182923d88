package checkout

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"rentdesk-billing/internal/payment"
	"rentdesk-billing/pkg/config"
	"rentdesk-billing/pkg/db/option"
	"rentdesk-billing/pkg/errutil"
	"rentdesk-billing/pkg/money"
	"rentdesk-billing/pkg/repository"
	"rentdesk-billing/pkg/sequence"
	"rentdesk-billing/services/account"
	"rentdesk-billing/services/catalog"
	"rentdesk-billing/services/entitlement"
	"rentdesk-billing/services/gateway"
	"rentdesk-billing/services/notification"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgAwaitingApproval = "Your order has been received and is awaiting approval."
	msgOrderPaid        = "Your order has been paid!"
	msgPaymentFailed    = "Payment Failed!"
)

// SlipStore persists proof-of-deposit uploads for bank transfers.
type SlipStore interface {
	SaveDepositSlip(ctx context.Context, orderCode, filename string, r io.Reader, size int64, contentType string) (string, error)
	RemoveDepositSlip(ctx context.Context, key string) error
}

type Service struct {
	db            *gorm.DB
	node          *snowflake.Node
	config        *config.Config
	seq           sequence.Generator
	registry      *payment.Registry
	accounts      *account.Service
	gateways      *gateway.Service
	entitlement   *entitlement.Service
	notifications *notification.Service
	slips         SlipStore
	repo          repository.Repository[SubscriptionOrder]
	pkgRepo       repository.Repository[catalog.Package]
}

type ServiceParams struct {
	fx.In
	DB            *gorm.DB
	Node          *snowflake.Node
	Config        *config.Config
	Seq           sequence.Generator
	Registry      *payment.Registry
	Accounts      *account.Service
	Gateways      *gateway.Service
	Entitlement   *entitlement.Service
	Notifications *notification.Service
	Slips         SlipStore
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:            p.DB,
		node:          p.Node,
		config:        p.Config,
		seq:           p.Seq,
		registry:      p.Registry,
		accounts:      p.Accounts,
		gateways:      p.Gateways,
		entitlement:   p.Entitlement,
		notifications: p.Notifications,
		slips:         p.Slips,
		repo:          repository.ProvideStore[SubscriptionOrder](p.DB),
		pkgRepo:       repository.ProvideStore[catalog.Package](p.DB),
	}
}

// SlipUpload is the multipart deposit-slip file of a bank transfer.
type SlipUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

type CheckoutRequest struct {
	UserID       string
	PackageID    string
	DurationType string
	Quantity     int
	Gateway      string
	Currency     string
	BankID       string
	DepositBy    string
	Slip         *SlipUpload
}

type CheckoutResponse struct {
	Message     string             `json:"message"`
	RedirectURL string             `json:"redirect_url,omitempty"`
	Order       *SubscriptionOrder `json:"order"`
}

// Checkout places a subscription order. Manual gateways (bank, cash) leave
// the order pending approval; online gateways answer with a redirect URL.
// The order row and the provider initiation commit or roll back together.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	admin, err := s.accounts.Admin(ctx)
	if err != nil {
		return nil, err
	}

	buyer, err := s.accounts.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	pkg, err := s.pkgRepo.FindOne(ctx, &catalog.Package{ID: req.PackageID})
	if err != nil {
		zap.L().Error("failed query package", zap.Error(err))
		return nil, errutil.Internal("failed to get package", err)
	}

	if pkg == nil {
		return nil, errutil.NotFound("Package not found", nil)
	}

	gw, err := s.gateways.ActiveGateway(ctx, admin.ID, req.Gateway)
	if err != nil {
		return nil, err
	}

	gc, err := s.gateways.CurrencyFor(ctx, gw.ID)
	if err != nil {
		return nil, err
	}

	if req.Currency != "" && !strings.EqualFold(req.Currency, gc.Currency) {
		return nil, errutil.ValidationFailed("The selected currency is not available for this gateway", nil)
	}

	systemCurrency, err := s.gateways.SystemCurrency(ctx)
	if err != nil {
		return nil, err
	}

	adapter, err := s.registry.Get(gw.Slug)
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	duration := Yearly
	if strings.ToLower(req.DurationType) == string(Monthly) {
		duration = Monthly
	}

	base := pkg.YearlyPrice
	perUnit := pkg.PerYearlyPrice
	if duration == Monthly {
		base = pkg.MonthlyPrice
		perUnit = pkg.PerMonthlyPrice
	}

	total := money.Total(base, perUnit, quantity)
	txnAmount := money.Convert(total, gc.ConversionRate)

	orderCode, err := s.seq.NextOrderCode(ctx)
	if err != nil {
		zap.L().Error("failed to generate order code", zap.Error(err))
		return nil, errutil.Internal("failed to place order", err)
	}

	order := &SubscriptionOrder{
		ID:                s.node.Generate().String(),
		OrderCode:         orderCode,
		UserID:            buyer.ID,
		PackageID:         pkg.ID,
		PackageType:       pkg.Type.String(),
		Quantity:          quantity,
		DurationType:      duration,
		SystemCurrency:    systemCurrency.Code,
		GatewayID:         gw.ID,
		GatewaySlug:       gw.Slug,
		GatewayCurrency:   gc.Currency,
		ConversionRate:    gc.ConversionRate,
		Amount:            money.Round(base),
		Subtotal:          total,
		Total:             total,
		TransactionAmount: txnAmount,
		PaymentStatus:     Pending,
	}

	if gw.Slug == "bank" {
		bank, err := s.gateways.Bank(ctx, admin.ID, gw.ID, req.BankID)
		if err != nil {
			return nil, err
		}

		if req.Slip == nil || req.Slip.Reader == nil {
			return nil, errutil.ValidationFailed("The bank slip is required", nil)
		}

		slipID, err := s.slips.SaveDepositSlip(ctx, orderCode, req.Slip.Filename, req.Slip.Reader, req.Slip.Size, req.Slip.ContentType)
		if err != nil {
			zap.L().Error("failed to store deposit slip", zap.Error(err))
			return nil, errutil.Internal("failed to store bank slip", err)
		}

		order.BankID = bank.ID
		order.BankName = bank.Name
		order.BankAccountNumber = bank.AccountNumber
		order.DepositBy = req.DepositBy
		order.DepositSlipID = slipID
	}

	resp := &CheckoutResponse{Order: order}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)

		if err := repo.Create(ctx, order); err != nil {
			return errutil.Internal("failed to place order", err)
		}

		if adapter.Manual() {
			resp.Message = msgAwaitingApproval
			return nil
		}

		initCtx, cancel := context.WithTimeout(ctx, s.config.Payment.Timeout)
		defer cancel()

		init, err := adapter.InitiatePayment(initCtx, payment.InitiateRequest{
			OrderID:     order.ID,
			OrderCode:   order.OrderCode,
			Description: fmt.Sprintf("%s subscription (%s)", pkg.Name, duration),
			Amount:      txnAmount,
			Currency:    gc.Currency,
			CallbackURL: s.verifyURL(order.ID),
			CancelURL:   s.failedURL(),
		})
		if err != nil {
			return err
		}

		if init.PaymentID != "" {
			order.PaymentID = init.PaymentID
			if err := repo.Update(ctx, order.ID, map[string]interface{}{
				"payment_id": init.PaymentID,
				"updated_at": time.Now(),
			}); err != nil {
				return errutil.Internal("failed to place order", err)
			}
		}

		resp.RedirectURL = init.RedirectURL
		return nil
	}); err != nil {
		zap.L().Error("checkout failed",
			zap.String("order_code", orderCode),
			zap.String("gateway", gw.Slug),
			zap.Error(err))
		// The slip upload is not transactional; remove it so a rolled-back
		// order leaves no orphaned object behind.
		if order.DepositSlipID != "" {
			if rmErr := s.slips.RemoveDepositSlip(ctx, order.DepositSlipID); rmErr != nil {
				zap.L().Warn("failed to remove deposit slip of rolled-back order",
					zap.String("slip_id", order.DepositSlipID),
					zap.Error(rmErr))
			}
		}
		return nil, err
	}

	return resp, nil
}

type VerifyRequest struct {
	OrderID   string
	PayerID   string
	PaymentID string
}

type VerifyResponse struct {
	Message string             `json:"message"`
	Order   *SubscriptionOrder `json:"order"`
}

// Verify confirms a pending payment with the gateway and finalises the
// order. Already-paid orders answer success without touching the gateway,
// so callbacks and webhooks can race safely. Confirmation happens outside
// any transaction; only the finalisation writes run in one.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	order, err := s.repo.FindOne(ctx, &SubscriptionOrder{ID: req.OrderID})
	if err != nil {
		zap.L().Error("failed query order", zap.Error(err))
		return nil, errutil.Internal("failed to get order", err)
	}

	if order == nil {
		return nil, errutil.NotFound("Order not found", nil)
	}

	if order.PaymentStatus == Paid {
		return &VerifyResponse{Message: msgOrderPaid, Order: order}, nil
	}

	// MercadoPago hands out the payment id on the success callback only.
	if order.GatewaySlug == "mercadopago" && req.PaymentID != "" && order.PaymentID == "" {
		order.PaymentID = req.PaymentID
		if err := s.repo.Update(ctx, order.ID, map[string]interface{}{
			"payment_id": req.PaymentID,
			"updated_at": time.Now(),
		}); err != nil {
			zap.L().Error("failed to persist payment id", zap.Error(err))
			return nil, errutil.Internal("failed to update order", err)
		}
	}

	adapter, err := s.registry.Get(order.GatewaySlug)
	if err != nil {
		return nil, err
	}

	confirmCtx, cancel := context.WithTimeout(ctx, s.config.Payment.Timeout)
	defer cancel()

	confirm, err := adapter.ConfirmPayment(confirmCtx, payment.ConfirmRequest{
		OrderID:   order.ID,
		PaymentID: order.PaymentID,
		PayerID:   req.PayerID,
	})
	if err != nil || confirm.Status != payment.StatusSuccess {
		zap.L().Warn("payment confirmation did not succeed",
			zap.String("order_id", order.ID),
			zap.String("gateway", order.GatewaySlug),
			zap.Error(err))
		return nil, errutil.UnprocessableEntity(msgPaymentFailed, err)
	}

	if err := s.finalize(ctx, order); err != nil {
		return nil, err
	}

	s.notifyPaid(ctx, order)

	return &VerifyResponse{Message: msgOrderPaid, Order: order}, nil
}

// finalize marks the order paid and applies the entitlement in one
// transaction. The paid re-check under a row lock keeps concurrent verify
// calls from granting twice.
func (s *Service) finalize(ctx context.Context, order *SubscriptionOrder) error {
	pkg, err := s.pkgRepo.FindOne(ctx, &catalog.Package{ID: order.PackageID})
	if err != nil {
		zap.L().Error("failed query package", zap.Error(err))
		return errutil.Internal("failed to finalize order", err)
	}

	if pkg == nil {
		return errutil.NotFound("Package not found", nil)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)

		current, err := repo.FindOne(ctx, &SubscriptionOrder{ID: order.ID}, option.WithLockingUpdate())
		if err != nil {
			return fmt.Errorf("failed to reload order: %w", err)
		}

		if current == nil {
			return fmt.Errorf("order %s vanished during finalization", order.ID)
		}

		if current.PaymentStatus == Paid {
			order.PaymentStatus = Paid
			order.TransactionID = current.TransactionID
			return nil
		}

		transactionID := strings.ReplaceAll(uuid.NewString(), "-", "")

		if err := repo.Update(ctx, order.ID, map[string]interface{}{
			"payment_status": Paid,
			"transaction_id": transactionID,
			"updated_at":     time.Now(),
		}); err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}

		if _, err := s.entitlement.Apply(ctx, tx, entitlement.Grant{
			UserID:         order.UserID,
			PackageID:      pkg.ID,
			OrderID:        order.ID,
			DurationDays:   order.DurationType.Days(),
			MaxProperty:    pkg.MaxProperty,
			MaxUnit:        pkg.MaxUnit,
			MaxTenant:      pkg.MaxTenant,
			MaxMaintainer:  pkg.MaxMaintainer,
			MaxInvoice:     pkg.MaxInvoice,
			MaxAutoInvoice: pkg.MaxAutoInvoice,
		}); err != nil {
			return fmt.Errorf("failed to apply entitlement: %w", err)
		}

		order.PaymentStatus = Paid
		order.TransactionID = transactionID
		return nil
	}); err != nil {
		zap.L().Error("failed to finalize order", zap.String("order_id", order.ID), zap.Error(err))
		return errutil.Internal("failed to finalize order", err)
	}

	return nil
}

// notifyPaid enqueues the confirmation mail after the paid state committed.
func (s *Service) notifyPaid(ctx context.Context, order *SubscriptionOrder) {
	admin, err := s.accounts.Admin(ctx)
	if err != nil {
		return
	}

	buyer, err := s.accounts.Get(ctx, order.UserID)
	if err != nil {
		return
	}

	s.notifications.SubscriptionPaid(ctx, notification.SubscriptionPaidPayload{
		OwnerUserID: admin.ID,
		Email:       buyer.Email,
		Vars: notification.PaymentVars{
			Amount:   money.Format(order.Amount, order.SystemCurrency),
			Status:   order.PaymentStatus.String(),
			Duration: strconv.Itoa(order.DurationType.Days()),
			Gateway:  order.GatewaySlug,
		},
	})
}

type FailedResponse struct {
	Message string `json:"message"`
}

// Failed is the landing response of cancelled or rejected redirects.
func (s *Service) Failed(ctx context.Context) *FailedResponse {
	return &FailedResponse{Message: msgPaymentFailed}
}

type AssignRequest struct {
	UserID       string
	PackageID    string
	DurationType string
}

// AssignPackage grants a package to an owner directly, recording an
// already-paid order at the base price with no per-unit component.
func (s *Service) AssignPackage(ctx context.Context, req AssignRequest) (*SubscriptionOrder, error) {
	buyer, err := s.accounts.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	pkg, err := s.pkgRepo.FindOne(ctx, &catalog.Package{ID: req.PackageID})
	if err != nil {
		zap.L().Error("failed query package", zap.Error(err))
		return nil, errutil.Internal("failed to get package", err)
	}

	if pkg == nil {
		return nil, errutil.NotFound("Package not found", nil)
	}

	systemCurrency, err := s.gateways.SystemCurrency(ctx)
	if err != nil {
		return nil, err
	}

	duration := Yearly
	if strings.ToLower(req.DurationType) == string(Monthly) {
		duration = Monthly
	}

	base := pkg.YearlyPrice
	if duration == Monthly {
		base = pkg.MonthlyPrice
	}

	orderCode, err := s.seq.NextOrderCode(ctx)
	if err != nil {
		zap.L().Error("failed to generate order code", zap.Error(err))
		return nil, errutil.Internal("failed to assign package", err)
	}

	total := money.Round(base)

	order := &SubscriptionOrder{
		ID:                s.node.Generate().String(),
		OrderCode:         orderCode,
		UserID:            buyer.ID,
		PackageID:         pkg.ID,
		PackageType:       pkg.Type.String(),
		Quantity:          1,
		DurationType:      duration,
		SystemCurrency:    systemCurrency.Code,
		GatewayCurrency:   systemCurrency.Code,
		ConversionRate:    decimal.NewFromInt(1),
		Amount:            total,
		Subtotal:          total,
		Total:             total,
		TransactionAmount: total,
		PaymentStatus:     Paid,
		TransactionID:     strings.ReplaceAll(uuid.NewString(), "-", ""),
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTrx(tx).Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if _, err := s.entitlement.Apply(ctx, tx, entitlement.Grant{
			UserID:         order.UserID,
			PackageID:      pkg.ID,
			OrderID:        order.ID,
			DurationDays:   duration.Days(),
			MaxProperty:    pkg.MaxProperty,
			MaxUnit:        pkg.MaxUnit,
			MaxTenant:      pkg.MaxTenant,
			MaxMaintainer:  pkg.MaxMaintainer,
			MaxInvoice:     pkg.MaxInvoice,
			MaxAutoInvoice: pkg.MaxAutoInvoice,
		}); err != nil {
			return fmt.Errorf("failed to apply entitlement: %w", err)
		}

		return nil
	}); err != nil {
		zap.L().Error("failed to assign package", zap.String("package_id", pkg.ID), zap.Error(err))
		return nil, errutil.Internal("failed to assign package", err)
	}

	s.notifyPaid(ctx, order)

	return order, nil
}

func (s *Service) verifyURL(orderID string) string {
	return fmt.Sprintf("%s/api/payment-subscription/verify?id=%s", s.config.Payment.CallbackBaseURL, orderID)
}

func (s *Service) failedURL() string {
	return fmt.Sprintf("%s/api/payment-subscription/failed", s.config.Payment.CallbackBaseURL)
}
