package entitlement

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
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

	db := testutil.NewTestDB(t, &OwnerPackage{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node}), db
}

func TestApplyCreatesGrant(t *testing.T) {
	svc, db := newService(t)

	var op *OwnerPackage
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		op, err = svc.Apply(context.Background(), tx, Grant{
			UserID:       "owner-1",
			PackageID:    "pkg-1",
			OrderID:      "order-1",
			DurationDays: 30,
			MaxProperty:  10,
			MaxUnit:      100,
		})
		return err
	})
	require.NoError(t, err)
	require.Equal(t, Active, op.Status)
	require.Equal(t, int64(10), op.MaxProperty)

	days := op.EndDate.Sub(op.StartDate).Hours() / 24
	require.InDelta(t, 30, days, 0.01)
}

func TestApplyRefreshesExistingGrant(t *testing.T) {
	svc, db := newService(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Apply(context.Background(), tx, Grant{
			UserID: "owner-1", PackageID: "pkg-1", OrderID: "order-1", DurationDays: 30, MaxProperty: 10,
		})
		return err
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Apply(context.Background(), tx, Grant{
			UserID: "owner-1", PackageID: "pkg-2", OrderID: "order-2", DurationDays: 365, MaxProperty: 50,
		})
		return err
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&OwnerPackage{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	var op OwnerPackage
	require.NoError(t, db.First(&op, "user_id = ?", "owner-1").Error)
	require.Equal(t, "pkg-2", op.PackageID)
	require.Equal(t, "order-2", op.OrderID)
	require.Equal(t, int64(50), op.MaxProperty)

	days := op.EndDate.Sub(op.StartDate).Hours() / 24
	require.InDelta(t, 365, days, 0.01)
}

func TestApplyZeroLimitOverwritesExistingGrant(t *testing.T) {
	svc, db := newService(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Apply(context.Background(), tx, Grant{
			UserID: "owner-1", PackageID: "pkg-1", OrderID: "order-1", DurationDays: 30, MaxProperty: 10, MaxUnit: 100,
		})
		return err
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Apply(context.Background(), tx, Grant{
			UserID: "owner-1", PackageID: "pkg-2", OrderID: "order-2", DurationDays: 30, MaxProperty: 0, MaxUnit: 50,
		})
		return err
	})
	require.NoError(t, err)

	var op OwnerPackage
	require.NoError(t, db.First(&op, "user_id = ?", "owner-1").Error)
	require.Equal(t, int64(0), op.MaxProperty)
	require.Equal(t, int64(50), op.MaxUnit)
}

func TestRefreshLimits(t *testing.T) {
	svc, db := newService(t)

	require.NoError(t, db.Create(&OwnerPackage{
		ID: "op-1", UserID: "owner-1", PackageID: "pkg-1", MaxProperty: 10,
	}).Error)
	require.NoError(t, db.Create(&OwnerPackage{
		ID: "op-2", UserID: "owner-2", PackageID: "pkg-1", MaxProperty: 10,
	}).Error)
	require.NoError(t, db.Create(&OwnerPackage{
		ID: "op-3", UserID: "owner-3", PackageID: "pkg-2", MaxProperty: 10,
	}).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.RefreshLimits(context.Background(), tx, "pkg-1", Grant{MaxProperty: 99})
	})
	require.NoError(t, err)

	var ops []OwnerPackage
	require.NoError(t, db.Order("id").Find(&ops).Error)
	require.Equal(t, int64(99), ops[0].MaxProperty)
	require.Equal(t, int64(99), ops[1].MaxProperty)
	require.Equal(t, int64(10), ops[2].MaxProperty)
}
