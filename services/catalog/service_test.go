package catalog

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rentdesk-billing/internal/payment"
	"rentdesk-billing/services/account"
	"rentdesk-billing/services/entitlement"
	"rentdesk-billing/services/gateway"
	"rentdesk-billing/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type recordingAdapter struct {
	slug  string
	calls []payment.ProductRequest
	resp  payment.ProductResponse
}

func (a *recordingAdapter) Slug() string { return a.slug }
func (a *recordingAdapter) Manual() bool { return false }
func (a *recordingAdapter) InitiatePayment(context.Context, payment.InitiateRequest) (*payment.InitiateResponse, error) {
	return &payment.InitiateResponse{}, nil
}
func (a *recordingAdapter) ConfirmPayment(context.Context, payment.ConfirmRequest) (*payment.ConfirmResponse, error) {
	return &payment.ConfirmResponse{Status: payment.StatusPending}, nil
}
func (a *recordingAdapter) SaveProduct(ctx context.Context, req payment.ProductRequest) (*payment.ProductResponse, error) {
	a.calls = append(a.calls, req)
	resp := a.resp
	return &resp, nil
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	stripe *recordingAdapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t,
		&account.User{},
		&Package{},
		&SubscriptionPrice{},
		&gateway.Gateway{},
		&gateway.GatewayCurrency{},
		&gateway.Bank{},
		&gateway.Currency{},
		&entitlement.OwnerPackage{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	stripe := &recordingAdapter{
		slug: "stripe",
		resp: payment.ProductResponse{ProductID: "prod_1", MonthlyPriceID: "price_m", YearlyPriceID: "price_y"},
	}
	registry := payment.NewRegistry(payment.NewBankAdapter(), payment.NewCashAdapter(), stripe)

	accounts := account.NewService(account.ServiceParams{DB: db})
	gateways := gateway.NewService(gateway.ServiceParams{DB: db, Node: node})
	entitlements := entitlement.NewService(entitlement.ServiceParams{DB: db, Node: node})

	svc := NewService(ServiceParams{
		DB:          db,
		Node:        node,
		Registry:    registry,
		Accounts:    accounts,
		Gateways:    gateways,
		Entitlement: entitlements,
	})

	require.NoError(t, db.Create(&account.User{ID: "admin-1", Role: account.RoleAdmin, Email: "admin@test"}).Error)
	require.NoError(t, db.Create(&gateway.Currency{ID: "cur-1", Code: "USD", IsCurrent: true}).Error)

	return &fixture{db: db, svc: svc, stripe: stripe}
}

func (f *fixture) seedStripeGateway(t *testing.T, rate decimal.Decimal) *gateway.Gateway {
	t.Helper()

	gw := &gateway.Gateway{ID: "gw-stripe", OwnerUserID: "admin-1", Slug: "stripe", Status: gateway.Active}
	require.NoError(t, f.db.Create(gw).Error)
	require.NoError(t, f.db.Create(&gateway.GatewayCurrency{
		ID: "gc-stripe", GatewayID: gw.ID, Currency: "USD", ConversionRate: rate,
	}).Error)

	return gw
}

func int64ptr(v int64) *int64 { return &v }

func TestSaveCreatesPackage(t *testing.T) {
	f := newFixture(t)

	pkg, err := f.svc.Save(context.Background(), SaveRequest{
		Name:         "Starter Plan",
		Type:         TypeProperty,
		MonthlyPrice: decimal.RequireFromString("19.999"),
		YearlyPrice:  decimal.NewFromInt(199),
		MaxProperty:  int64ptr(5),
	})
	require.NoError(t, err)
	require.NotEmpty(t, pkg.ID)
	require.Equal(t, "starter-plan", pkg.Slug)
	require.Equal(t, "20.00", pkg.MonthlyPrice.StringFixed(2))
	require.Equal(t, int64(5), pkg.MaxProperty)
	require.Equal(t, Unlimited, pkg.MaxUnit)
	require.Equal(t, Active, pkg.Status)
}

func TestSaveDuplicateSlug(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Save(context.Background(), SaveRequest{Name: "Starter Plan"})
	require.NoError(t, err)

	_, err = f.svc.Save(context.Background(), SaveRequest{Name: "Starter Plan"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Name Already Exist")
}

func TestSaveUpdateKeepsSlugOfSamePackage(t *testing.T) {
	f := newFixture(t)

	pkg, err := f.svc.Save(context.Background(), SaveRequest{Name: "Starter Plan"})
	require.NoError(t, err)

	updated, err := f.svc.Save(context.Background(), SaveRequest{
		ID:   pkg.ID,
		Name: "Starter Plan",
	})
	require.NoError(t, err)
	require.Equal(t, pkg.ID, updated.ID)
}

func TestSaveCascadesLimitsIntoEntitlements(t *testing.T) {
	f := newFixture(t)

	pkg, err := f.svc.Save(context.Background(), SaveRequest{
		Name:        "Starter Plan",
		MaxProperty: int64ptr(5),
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Create(&entitlement.OwnerPackage{
		ID: "op-1", UserID: "owner-1", PackageID: pkg.ID, MaxProperty: 5,
	}).Error)

	_, err = f.svc.Save(context.Background(), SaveRequest{
		ID:          pkg.ID,
		Name:        "Starter Plan",
		MaxProperty: int64ptr(20),
	})
	require.NoError(t, err)

	var op entitlement.OwnerPackage
	require.NoError(t, f.db.First(&op, "id = ?", "op-1").Error)
	require.Equal(t, int64(20), op.MaxProperty)
}

func TestSaveZeroLimitAndClearedFlagsPersist(t *testing.T) {
	f := newFixture(t)

	pkg, err := f.svc.Save(context.Background(), SaveRequest{
		Name:          "Starter Plan",
		MaxProperty:   int64ptr(10),
		IsTrial:       true,
		NoticeSupport: true,
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Create(&entitlement.OwnerPackage{
		ID: "op-1", UserID: "owner-1", PackageID: pkg.ID, MaxProperty: 10,
	}).Error)

	// a limit of zero is a real cap, distinct from the unlimited sentinel
	_, err = f.svc.Save(context.Background(), SaveRequest{
		ID:          pkg.ID,
		Name:        "Starter Plan",
		MaxProperty: int64ptr(0),
	})
	require.NoError(t, err)

	var reloaded Package
	require.NoError(t, f.db.First(&reloaded, "id = ?", pkg.ID).Error)
	require.Equal(t, int64(0), reloaded.MaxProperty)
	require.False(t, reloaded.IsTrial)
	require.False(t, reloaded.NoticeSupport)

	var op entitlement.OwnerPackage
	require.NoError(t, f.db.First(&op, "id = ?", "op-1").Error)
	require.Equal(t, int64(0), op.MaxProperty)
}

func TestSaveSyncsProviderPrices(t *testing.T) {
	f := newFixture(t)
	gw := f.seedStripeGateway(t, decimal.NewFromInt(1))

	pkg, err := f.svc.Save(context.Background(), SaveRequest{
		Name:         "Starter Plan",
		MonthlyPrice: decimal.NewFromInt(20),
		YearlyPrice:  decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	require.Len(t, f.stripe.calls, 1)
	require.Equal(t, "20.00", f.stripe.calls[0].MonthlyPrice.StringFixed(2))

	var sp SubscriptionPrice
	require.NoError(t, f.db.First(&sp, "package_id = ? AND gateway_id = ?", pkg.ID, gw.ID).Error)
	require.Equal(t, "prod_1", sp.ProductID)
	require.Equal(t, "price_m", sp.MonthlyPriceID)
	require.Equal(t, "price_y", sp.YearlyPriceID)

	// saving again updates the binding instead of duplicating it
	_, err = f.svc.Save(context.Background(), SaveRequest{ID: pkg.ID, Name: "Starter Plan"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&SubscriptionPrice{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// a blank provider price id overwrites the stored one, no stale ids
	f.stripe.resp = payment.ProductResponse{ProductID: "prod_1"}
	_, err = f.svc.Save(context.Background(), SaveRequest{ID: pkg.ID, Name: "Starter Plan"})
	require.NoError(t, err)

	var updated SubscriptionPrice
	require.NoError(t, f.db.First(&updated, "package_id = ? AND gateway_id = ?", pkg.ID, gw.ID).Error)
	require.Empty(t, updated.MonthlyPriceID)
	require.Empty(t, updated.YearlyPriceID)
}

func TestSaveDropsBindingOfDisabledGateway(t *testing.T) {
	f := newFixture(t)
	gw := f.seedStripeGateway(t, decimal.NewFromInt(1))

	pkg, err := f.svc.Save(context.Background(), SaveRequest{Name: "Starter Plan"})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&gateway.Gateway{}).
		Where("id = ?", gw.ID).
		Update("status", gateway.Inactive).Error)

	_, err = f.svc.Save(context.Background(), SaveRequest{ID: pkg.ID, Name: "Starter Plan"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&SubscriptionPrice{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeleteLastActivePackageRefused(t *testing.T) {
	f := newFixture(t)

	pkg, err := f.svc.Save(context.Background(), SaveRequest{Name: "Only Plan", IsTrial: true})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), pkg.ID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Trial package can not be deleted")

	var count int64
	require.NoError(t, f.db.Model(&Package{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestDeleteTrialPromotesSuccessor(t *testing.T) {
	f := newFixture(t)

	trial, err := f.svc.Save(context.Background(), SaveRequest{Name: "Trial Plan", IsTrial: true})
	require.NoError(t, err)

	other, err := f.svc.Save(context.Background(), SaveRequest{Name: "Paid Plan"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), trial.ID))

	var promoted Package
	require.NoError(t, f.db.First(&promoted, "id = ?", other.ID).Error)
	require.True(t, promoted.IsTrial)
}

func TestDeleteNonTrialKeepsTrialFlag(t *testing.T) {
	f := newFixture(t)

	trial, err := f.svc.Save(context.Background(), SaveRequest{Name: "Trial Plan", IsTrial: true})
	require.NoError(t, err)

	other, err := f.svc.Save(context.Background(), SaveRequest{Name: "Paid Plan"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), other.ID))

	var kept Package
	require.NoError(t, f.db.First(&kept, "id = ?", trial.ID).Error)
	require.True(t, kept.IsTrial)
}

func TestListFormatsPrices(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Save(context.Background(), SaveRequest{
		Name:         "Starter Plan",
		MonthlyPrice: decimal.NewFromInt(49),
		YearlyPrice:  decimal.NewFromInt(490),
	})
	require.NoError(t, err)

	rows, err := f.svc.List(context.Background(), ListRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "USD 49.00", rows[0].MonthlyPriceLabel)
	require.Equal(t, "USD 490.00", rows[0].YearlyPriceLabel)
}

func TestGetNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Package not found")
}
