package gateway

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rentdesk-billing/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &Gateway{}, &GatewayCurrency{}, &Bank{}, &Currency{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node}), db
}

func TestActiveGatewayBySlug(t *testing.T) {
	svc, db := newService(t)

	require.NoError(t, db.Create(&Gateway{
		ID: "gw-1", OwnerUserID: "admin-1", Slug: "stripe", Status: Active,
	}).Error)

	gw, err := svc.ActiveGateway(context.Background(), "admin-1", "Stripe")
	require.NoError(t, err)
	require.Equal(t, "gw-1", gw.ID)

	_, err = svc.ActiveGateway(context.Background(), "admin-1", "paypal")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Gateway not found")
}

func TestUpsertCurrencyCreatesThenUpdates(t *testing.T) {
	svc, db := newService(t)

	require.NoError(t, db.Create(&Gateway{ID: "gw-1", Slug: "stripe", Status: Active}).Error)

	gc, err := svc.UpsertCurrency(context.Background(), UpsertCurrencyRequest{
		GatewayID:      "gw-1",
		Currency:       "usd",
		ConversionRate: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, "USD", gc.Currency)

	gc, err = svc.UpsertCurrency(context.Background(), UpsertCurrencyRequest{
		GatewayID:      "gw-1",
		Currency:       "eur",
		ConversionRate: decimal.RequireFromString("0.9"),
	})
	require.NoError(t, err)
	require.Equal(t, "EUR", gc.Currency)

	var count int64
	require.NoError(t, db.Model(&GatewayCurrency{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUpsertCurrencyValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.UpsertCurrency(context.Background(), UpsertCurrencyRequest{
		GatewayID:      "gw-1",
		ConversionRate: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "The currency is required")

	_, err = svc.UpsertCurrency(context.Background(), UpsertCurrencyRequest{
		GatewayID: "gw-1",
		Currency:  "USD",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "greater than zero")

	_, err = svc.UpsertCurrency(context.Background(), UpsertCurrencyRequest{
		GatewayID:      "missing",
		Currency:       "USD",
		ConversionRate: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Gateway not found")
}

func TestListGatewaysWithCurrencies(t *testing.T) {
	svc, db := newService(t)

	require.NoError(t, db.Create(&Gateway{ID: "gw-1", OwnerUserID: "admin-1", Slug: "stripe", Status: Active}).Error)
	require.NoError(t, db.Create(&Gateway{ID: "gw-2", OwnerUserID: "admin-1", Slug: "cash", Status: Active}).Error)
	require.NoError(t, db.Create(&GatewayCurrency{
		ID: "gc-1", GatewayID: "gw-1", Currency: "USD", ConversionRate: decimal.NewFromInt(1),
	}).Error)

	out, err := svc.ListGateways(context.Background(), "admin-1")
	require.NoError(t, err)
	require.Len(t, out, 2)

	byID := map[string]*GatewayWithCurrency{}
	for _, g := range out {
		byID[g.Gateway.ID] = g
	}
	require.NotNil(t, byID["gw-1"].Currency)
	require.Nil(t, byID["gw-2"].Currency)
}

func TestBankLookup(t *testing.T) {
	svc, db := newService(t)

	require.NoError(t, db.Create(&Bank{
		ID: "bank-1", OwnerUserID: "admin-1", GatewayID: "gw-1",
		Name: "First Bank", AccountNumber: "123", Status: Active,
	}).Error)

	bank, err := svc.Bank(context.Background(), "admin-1", "gw-1", "bank-1")
	require.NoError(t, err)
	require.Equal(t, "First Bank", bank.Name)

	_, err = svc.Bank(context.Background(), "admin-1", "gw-1", "other")
	require.Error(t, err)
	require.Contains(t, err.Error(), "The selected bank is invalid")
}

func TestSystemCurrency(t *testing.T) {
	svc, db := newService(t)

	_, err := svc.SystemCurrency(context.Background())
	require.Error(t, err)

	require.NoError(t, db.Create(&Currency{ID: "cur-1", Code: "USD", IsCurrent: true}).Error)

	c, err := svc.SystemCurrency(context.Background())
	require.NoError(t, err)
	require.Equal(t, "USD", c.Code)
}
