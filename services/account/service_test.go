package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentdesk-billing/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestAdminLookup(t *testing.T) {
	db := testutil.NewTestDB(t, &User{})
	svc := NewService(ServiceParams{DB: db})

	_, err := svc.Admin(context.Background())
	require.Error(t, err)

	require.NoError(t, db.Create(&User{ID: "u-1", Role: RoleOwner, Email: "owner@test"}).Error)
	require.NoError(t, db.Create(&User{ID: "u-2", Role: RoleAdmin, Email: "admin@test"}).Error)

	admin, err := svc.Admin(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u-2", admin.ID)
}

func TestGetUser(t *testing.T) {
	db := testutil.NewTestDB(t, &User{})
	svc := NewService(ServiceParams{DB: db})

	require.NoError(t, db.Create(&User{ID: "u-1", Role: RoleOwner}).Error)

	user, err := svc.Get(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, RoleOwner, user.Role)

	_, err = svc.Get(context.Background(), "missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "user not found")
}
