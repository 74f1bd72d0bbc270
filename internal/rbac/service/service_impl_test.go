package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/rbac/domain"
	"github.com/fintutto/zugang/internal/rbac/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Permission{},
		&domain.Role{},
		&domain.RolePermission{},
		&domain.Grant{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  repository.Provide(),
	})
	return svc, fakeClock
}

func TestCreatePermission(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreatePermission(ctx, domain.CreatePermissionRequest{
		Name:        "payments.create",
		Description: "create payment orders",
	})
	require.NoError(t, err)
	assert.Equal(t, "payments.create", created.Name)

	_, err = svc.CreatePermission(ctx, domain.CreatePermissionRequest{Name: "payments.create"})
	assert.ErrorIs(t, err, domain.ErrPermissionExists)

	_, err = svc.CreatePermission(ctx, domain.CreatePermissionRequest{Name: "noseparator"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCreateRoleRejectsUnknownPermission(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, domain.CreateRoleRequest{
		OrgID:       "100",
		Name:        "accounting",
		Permissions: []string{"payments.create"},
	})
	assert.ErrorIs(t, err, domain.ErrPermissionNotFound)
}

func TestCreateRoleAndListRoles(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, domain.CreatePermissionRequest{Name: "payments.create"})
	require.NoError(t, err)
	_, err = svc.CreatePermission(ctx, domain.CreatePermissionRequest{Name: "payments.view"})
	require.NoError(t, err)

	role, err := svc.CreateRole(ctx, domain.CreateRoleRequest{
		OrgID:       "100",
		Name:        "accounting",
		Permissions: []string{"payments.create", "payments.view", "payments.create"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"payments.create", "payments.view"}, role.Permissions)

	roles, err := svc.ListRoles(ctx, "100")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "accounting", roles[0].Name)
	assert.ElementsMatch(t, []string{"payments.create", "payments.view"}, roles[0].Permissions)
}

func TestSetRolePermissionsReplacesSet(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, name := range []string{"payments.create", "payments.view", "reports.view"} {
		_, err := svc.CreatePermission(ctx, domain.CreatePermissionRequest{Name: name})
		require.NoError(t, err)
	}
	role, err := svc.CreateRole(ctx, domain.CreateRoleRequest{
		OrgID:       "100",
		Name:        "accounting",
		Permissions: []string{"payments.create", "payments.view"},
	})
	require.NoError(t, err)

	updated, err := svc.SetRolePermissions(ctx, domain.SetRolePermissionsRequest{
		OrgID:       "100",
		RoleID:      role.ID,
		Permissions: []string{"reports.view"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reports.view"}, updated.Permissions)

	roles, err := svc.ListRoles(ctx, "100")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, []string{"reports.view"}, roles[0].Permissions)
}

func TestGrantRole(t *testing.T) {
	svc, fakeClock := newService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, domain.CreatePermissionRequest{Name: "payments.create"})
	require.NoError(t, err)
	role, err := svc.CreateRole(ctx, domain.CreateRoleRequest{
		OrgID:       "100",
		Name:        "accounting",
		Permissions: []string{"payments.create"},
	})
	require.NoError(t, err)

	grant, err := svc.GrantRole(ctx, domain.GrantRoleRequest{
		OrgID:  "100",
		UserID: "200",
		RoleID: role.ID,
	})
	require.NoError(t, err)
	assert.False(t, grant.Expired)
	assert.Nil(t, grant.ExpiresAt)

	// An expiry already in the past is rejected outright.
	yesterday := fakeClock.Now().Add(-24 * time.Hour)
	_, err = svc.GrantRole(ctx, domain.GrantRoleRequest{
		OrgID:     "100",
		UserID:    "200",
		RoleID:    role.ID,
		ExpiresAt: &yesterday,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidExpiry)

	_, err = svc.GrantRole(ctx, domain.GrantRoleRequest{
		OrgID:  "100",
		UserID: "200",
		RoleID: "999",
	})
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
}

func TestRevokeGrantKeepsRow(t *testing.T) {
	svc, fakeClock := newService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, domain.CreatePermissionRequest{Name: "payments.create"})
	require.NoError(t, err)
	role, err := svc.CreateRole(ctx, domain.CreateRoleRequest{
		OrgID:       "100",
		Name:        "accounting",
		Permissions: []string{"payments.create"},
	})
	require.NoError(t, err)
	grant, err := svc.GrantRole(ctx, domain.GrantRoleRequest{
		OrgID:  "100",
		UserID: "200",
		RoleID: role.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeGrant(ctx, grant.ID))

	// An expiry equal to the revocation instant is still valid at that
	// instant; the grant reads as expired one tick later.
	fakeClock.Advance(time.Second)
	grants, err := svc.ListGrants(ctx, "100", "200")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.True(t, grants[0].Expired)
	require.NotNil(t, grants[0].ExpiresAt)

	assert.ErrorIs(t, svc.RevokeGrant(ctx, "424242"), domain.ErrGrantNotFound)
}
