package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/identity/domain"
	"github.com/fintutto/zugang/internal/identity/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestCreateUser(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{
		Email:       "  Anna.Mueller@Example.DE ",
		DisplayName: "Anna Müller",
	})
	require.NoError(t, err)
	assert.Equal(t, "anna.mueller@example.de", created.Email)
	assert.Equal(t, domain.RoleMember, created.Role)
	assert.True(t, created.Active)

	_, err = svc.Create(ctx, domain.CreateRequest{Email: "anna.mueller@example.de"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)

	_, err = svc.Create(ctx, domain.CreateRequest{Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Create(ctx, domain.CreateRequest{Email: "b@example.de", Role: "superuser"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestSetRole(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Email: "ops@example.de"})
	require.NoError(t, err)

	updated, err := svc.SetRole(ctx, domain.SetRoleRequest{ID: created.ID, Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	_, err = svc.SetRole(ctx, domain.SetRoleRequest{ID: created.ID, Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.SetRole(ctx, domain.SetRoleRequest{ID: "999999", Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetBillingCustomer(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Email: "billing@example.de"})
	require.NoError(t, err)

	updated, err := svc.SetBillingCustomer(ctx, domain.SetBillingCustomerRequest{
		ID:                created.ID,
		BillingCustomerID: "cus_123",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.BillingCustomerID)
	assert.Equal(t, "cus_123", *updated.BillingCustomerID)

	// Clearing the link removes the billing coupling entirely.
	updated, err = svc.SetBillingCustomer(ctx, domain.SetBillingCustomerRequest{ID: created.ID})
	require.NoError(t, err)
	assert.Nil(t, updated.BillingCustomerID)
}

func TestDeactivate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Email: "leaver@example.de"})
	require.NoError(t, err)

	updated, err := svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestListFilters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Email: "a@example.de", Role: domain.RoleAdmin})
	require.NoError(t, err)
	member, err := svc.Create(ctx, domain.CreateRequest{Email: "b@example.de"})
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, member.ID)
	require.NoError(t, err)

	admins, err := svc.List(ctx, domain.ListRequest{Role: domain.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "a@example.de", admins[0].Email)

	active := true
	activeUsers, err := svc.List(ctx, domain.ListRequest{Active: &active})
	require.NoError(t, err)
	require.Len(t, activeUsers, 1)
	assert.Equal(t, "a@example.de", activeUsers[0].Email)
}
