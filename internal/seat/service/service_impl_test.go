package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/seat/domain"
	"github.com/fintutto/zugang/internal/seat/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Allocation{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, conn
}

func TestAllocate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	seat, err := svc.Allocate(ctx, domain.AllocateRequest{
		UserID:   "200",
		AppID:    "  Vermietify ",
		SeatType: domain.SeatTypeLandlord,
	})
	require.NoError(t, err)
	assert.Equal(t, "vermietify", seat.AppID)
	assert.Equal(t, domain.SeatTypeLandlord, seat.SeatType)
	assert.True(t, seat.IsActive)

	_, err = svc.Allocate(ctx, domain.AllocateRequest{
		UserID:   "200",
		AppID:    "vermietify",
		SeatType: "guest",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSeatType)

	_, err = svc.Allocate(ctx, domain.AllocateRequest{
		UserID:   "not-a-number",
		AppID:    "vermietify",
		SeatType: domain.SeatTypeTenant,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestDeactivateRemovesActiveSeat(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()

	seat, err := svc.Allocate(ctx, domain.AllocateRequest{
		UserID:   "200",
		AppID:    "hausmeisterpro",
		SeatType: domain.SeatTypeCaretaker,
	})
	require.NoError(t, err)

	userID, err := snowflake.ParseString("200")
	require.NoError(t, err)
	active, err := repository.Provide().HasActive(ctx, conn, userID, "hausmeisterpro")
	require.NoError(t, err)
	assert.True(t, active)

	updated, err := svc.Deactivate(ctx, seat.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	active, err = repository.Provide().HasActive(ctx, conn, userID, "hausmeisterpro")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = svc.Deactivate(ctx, "313131")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListFiltersByAppAndState(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Allocate(ctx, domain.AllocateRequest{
		UserID:   "200",
		AppID:    "vermietify",
		SeatType: domain.SeatTypeLandlord,
	})
	require.NoError(t, err)
	_, err = svc.Allocate(ctx, domain.AllocateRequest{
		UserID:   "200",
		AppID:    "hausmeisterpro",
		SeatType: domain.SeatTypeCaretaker,
	})
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, first.ID)
	require.NoError(t, err)

	seats, err := svc.List(ctx, domain.ListRequest{UserID: "200", AppID: "hausmeisterpro"})
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, "hausmeisterpro", seats[0].AppID)

	active := true
	seats, err = svc.List(ctx, domain.ListRequest{UserID: "200", Active: &active})
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, "hausmeisterpro", seats[0].AppID)
}
