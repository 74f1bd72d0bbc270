package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/identity/domain"
	"github.com/fintutto/zugang/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("identity.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = domain.RoleMember
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return nil, domain.ErrInvalidRole
	}

	now := s.clock.Now()
	record := &domain.User{
		ID:          s.genID.Generate(),
		Email:       email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        role,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Metadata != nil {
		record.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Create(ctx, s.db, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	record, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListRequest{
		Email:  strings.TrimSpace(req.Email),
		Role:   strings.TrimSpace(req.Role),
		Active: req.Active,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) SetRole(ctx context.Context, req domain.SetRoleRequest) (*domain.Response, error) {
	role := strings.TrimSpace(req.Role)
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return nil, domain.ErrInvalidRole
	}

	record, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	record.Role = role
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, record); err != nil {
		return nil, err
	}

	s.log.Info("user role changed",
		zap.String("user_id", record.ID.String()),
		zap.String("role", role),
	)

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) SetBillingCustomer(ctx context.Context, req domain.SetBillingCustomerRequest) (*domain.Response, error) {
	customerID := strings.TrimSpace(req.BillingCustomerID)

	record, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if customerID == "" {
		record.BillingCustomerID = nil
	} else {
		record.BillingCustomerID = &customerID
	}
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) (*domain.Response, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	record.Active = false
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.User, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	record, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func toResponse(u *domain.User) domain.Response {
	resp := domain.Response{
		ID:                u.ID.String(),
		Email:             u.Email,
		DisplayName:       u.DisplayName,
		Role:              u.Role,
		BillingCustomerID: u.BillingCustomerID,
		Active:            u.Active,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
	if u.Metadata != nil {
		resp.Metadata = map[string]any(u.Metadata)
	}
	return resp
}
