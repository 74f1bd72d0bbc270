package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	CreatePermission(ctx context.Context, req CreatePermissionRequest) (*PermissionResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)

	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	ListRoles(ctx context.Context, orgID string) ([]RoleResponse, error)
	SetRolePermissions(ctx context.Context, req SetRolePermissionsRequest) (*RoleResponse, error)

	GrantRole(ctx context.Context, req GrantRoleRequest) (*GrantResponse, error)
	ListGrants(ctx context.Context, orgID, userID string) ([]GrantResponse, error)
	RevokeGrant(ctx context.Context, grantID string) error
}

type CreatePermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CreateRoleRequest struct {
	OrgID       string   `json:"organization_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type SetRolePermissionsRequest struct {
	OrgID       string   `json:"organization_id"`
	RoleID      string   `json:"role_id"`
	Permissions []string `json:"permissions"`
}

type GrantRoleRequest struct {
	OrgID     string     `json:"organization_id"`
	UserID    string     `json:"user_id"`
	RoleID    string     `json:"role_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type PermissionResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type RoleResponse struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"organization_id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

type GrantResponse struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"organization_id"`
	UserID    string     `json:"user_id"`
	RoleID    string     `json:"role_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
	CreatedAt time.Time  `json:"created_at"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidGrant        = errors.New("invalid_grant")
	ErrInvalidExpiry       = errors.New("invalid_expiry")
	ErrPermissionExists    = errors.New("permission_exists")
	ErrPermissionNotFound  = errors.New("permission_not_found")
	ErrRoleNotFound        = errors.New("role_not_found")
	ErrGrantNotFound       = errors.New("grant_not_found")
)
