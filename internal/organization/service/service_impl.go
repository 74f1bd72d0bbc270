package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/organization/domain"
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
		log:   p.Log.Named("organization.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	founderID, err := snowflake.ParseString(strings.TrimSpace(req.FoundingUserID))
	if err != nil {
		return nil, domain.ErrInvalidUser
	}

	now := s.clock.Now()
	org := &domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, org); err != nil {
			return err
		}
		return s.repo.AddMember(ctx, tx, &domain.Membership{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    founderID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	resp := toResponse(org)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(org)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) Rename(ctx context.Context, req domain.RenameRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	org, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	org.Name = name
	org.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, org); err != nil {
		return nil, err
	}

	resp := toResponse(org)
	return &resp, nil
}

func (s *Service) Archive(ctx context.Context, id string) error {
	org, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Archive(ctx, s.db, org.ID)
}

func (s *Service) AddMember(ctx context.Context, req domain.AddMemberRequest) error {
	orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrgID))
	if err != nil {
		return domain.ErrInvalidID
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		return domain.ErrInvalidUser
	}

	exists, err := s.repo.IsMember(ctx, s.db, orgID, userID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyMember
	}

	return s.repo.AddMember(ctx, s.db, &domain.Membership{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    userID,
		CreatedAt: s.clock.Now(),
	})
}

func (s *Service) ListMembers(ctx context.Context, orgID string) ([]domain.MemberResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(orgID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	items, err := s.repo.ListMembers(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.MemberResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.MemberResponse{
			UserID:    item.UserID.String(),
			CreatedAt: item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Organization, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	org, err := s.repo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func toResponse(org *domain.Organization) domain.Response {
	return domain.Response{
		ID:        org.ID.String(),
		Name:      org.Name,
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}
