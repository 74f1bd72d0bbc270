package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/seat/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("seat.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Allocate(ctx context.Context, req domain.AllocateRequest) (*domain.Response, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, domain.ErrInvalidUser
	}
	appID := strings.ToLower(strings.TrimSpace(req.AppID))
	if appID == "" {
		return nil, domain.ErrInvalidApp
	}
	seatType := strings.TrimSpace(req.SeatType)
	switch seatType {
	case domain.SeatTypeTenant, domain.SeatTypeLandlord, domain.SeatTypeCaretaker, domain.SeatTypeManagement:
	default:
		return nil, domain.ErrInvalidSeatType
	}

	now := s.clock.Now()
	record := &domain.Allocation{
		ID:              s.genID.Generate(),
		ReceivingUserID: userID,
		AppID:           appID,
		SeatType:        seatType,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, s.db, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) (*domain.Response, error) {
	allocationID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	record, err := s.repo.FindByID(ctx, s.db, allocationID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	record.IsActive = false
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func toResponse(a *domain.Allocation) domain.Response {
	return domain.Response{
		ID:        a.ID.String(),
		UserID:    a.ReceivingUserID.String(),
		AppID:     a.AppID,
		SeatType:  a.SeatType,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
