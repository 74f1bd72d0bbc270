package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/rbac/domain"
	"github.com/fintutto/zugang/pkg/db"
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
		log:   p.Log.Named("rbac.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreatePermission(ctx context.Context, req domain.CreatePermissionRequest) (*domain.PermissionResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || !strings.Contains(name, ".") {
		return nil, domain.ErrInvalidName
	}

	record := &domain.Permission{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.CreatePermission(ctx, s.db, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrPermissionExists
		}
		return nil, err
	}

	resp := toPermissionResponse(record)
	return &resp, nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]domain.PermissionResponse, error) {
	items, err := s.repo.ListPermissions(ctx, s.db)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.PermissionResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toPermissionResponse(&item))
	}
	return resp, nil
}

func (s *Service) CreateRole(ctx context.Context, req domain.CreateRoleRequest) (*domain.RoleResponse, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrgID))
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	permissionIDs, names, err := s.resolvePermissions(ctx, req.Permissions)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	role := &domain.Role{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateRole(ctx, s.db, role, permissionIDs); err != nil {
		return nil, err
	}

	return &domain.RoleResponse{
		ID:          role.ID.String(),
		OrgID:       role.OrgID.String(),
		Name:        role.Name,
		Permissions: names,
		CreatedAt:   role.CreatedAt,
	}, nil
}

func (s *Service) ListRoles(ctx context.Context, orgID string) ([]domain.RoleResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(orgID))
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.ListRoles(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.RoleResponse, 0, len(items))
	for _, item := range items {
		names, err := s.repo.PermissionNamesForRole(ctx, s.db, item.ID)
		if err != nil {
			return nil, err
		}
		resp = append(resp, domain.RoleResponse{
			ID:          item.ID.String(),
			OrgID:       item.OrgID.String(),
			Name:        item.Name,
			Permissions: names,
			CreatedAt:   item.CreatedAt,
		})
	}
	return resp, nil
}

func (s *Service) SetRolePermissions(ctx context.Context, req domain.SetRolePermissionsRequest) (*domain.RoleResponse, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrgID))
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}
	roleID, err := snowflake.ParseString(strings.TrimSpace(req.RoleID))
	if err != nil {
		return nil, domain.ErrInvalidRole
	}

	role, err := s.repo.FindRoleByID(ctx, s.db, orgID, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrRoleNotFound
	}

	permissionIDs, names, err := s.resolvePermissions(ctx, req.Permissions)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceRolePermissions(ctx, s.db, role.ID, permissionIDs); err != nil {
		return nil, err
	}

	return &domain.RoleResponse{
		ID:          role.ID.String(),
		OrgID:       role.OrgID.String(),
		Name:        role.Name,
		Permissions: names,
		CreatedAt:   role.CreatedAt,
	}, nil
}

func (s *Service) GrantRole(ctx context.Context, req domain.GrantRoleRequest) (*domain.GrantResponse, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrgID))
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, domain.ErrInvalidUser
	}
	roleID, err := snowflake.ParseString(strings.TrimSpace(req.RoleID))
	if err != nil {
		return nil, domain.ErrInvalidRole
	}

	now := s.clock.Now()
	if req.ExpiresAt != nil && req.ExpiresAt.Before(now) {
		return nil, domain.ErrInvalidExpiry
	}

	role, err := s.repo.FindRoleByID(ctx, s.db, orgID, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrRoleNotFound
	}

	grant := &domain.Grant{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    userID,
		RoleID:    roleID,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: now,
	}
	if err := s.repo.CreateGrant(ctx, s.db, grant); err != nil {
		return nil, err
	}

	resp := s.toGrantResponse(grant)
	return &resp, nil
}

func (s *Service) ListGrants(ctx context.Context, orgID, userID string) ([]domain.GrantResponse, error) {
	oid, err := snowflake.ParseString(strings.TrimSpace(orgID))
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}
	uid, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListGrants(ctx, s.db, oid, uid)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.GrantResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toGrantResponse(&item))
	}
	return resp, nil
}

// RevokeGrant expires the grant immediately. The row stays for audit.
func (s *Service) RevokeGrant(ctx context.Context, grantID string) error {
	id, err := snowflake.ParseString(strings.TrimSpace(grantID))
	if err != nil {
		return domain.ErrInvalidGrant
	}

	grant, err := s.repo.FindGrantByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if grant == nil {
		return domain.ErrGrantNotFound
	}

	now := s.clock.Now()
	grant.ExpiresAt = &now
	return s.repo.UpdateGrant(ctx, s.db, grant)
}

// resolvePermissions maps names to catalog IDs; every name must exist.
func (s *Service) resolvePermissions(ctx context.Context, names []string) ([]snowflake.ID, []string, error) {
	ids := make([]snowflake.ID, 0, len(names))
	resolved := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		permission, err := s.repo.FindPermissionByName(ctx, s.db, name)
		if err != nil {
			return nil, nil, err
		}
		if permission == nil {
			s.log.Warn("role references unknown permission", zap.String("permission", name))
			return nil, nil, domain.ErrPermissionNotFound
		}
		ids = append(ids, permission.ID)
		resolved = append(resolved, permission.Name)
	}
	return ids, resolved, nil
}

func (s *Service) toGrantResponse(g *domain.Grant) domain.GrantResponse {
	return domain.GrantResponse{
		ID:        g.ID.String(),
		OrgID:     g.OrgID.String(),
		UserID:    g.UserID.String(),
		RoleID:    g.RoleID.String(),
		ExpiresAt: g.ExpiresAt,
		Expired:   !g.ActiveAt(s.clock.Now()),
		CreatedAt: g.CreatedAt,
	}
}

func toPermissionResponse(p *domain.Permission) domain.PermissionResponse {
	return domain.PermissionResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}
