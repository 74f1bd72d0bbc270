package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	Rename(ctx context.Context, req RenameRequest) (*Response, error)
	Archive(ctx context.Context, id string) error
	AddMember(ctx context.Context, req AddMemberRequest) error
	ListMembers(ctx context.Context, orgID string) ([]MemberResponse, error)
}

type CreateRequest struct {
	Name           string `json:"name"`
	FoundingUserID string `json:"founding_user_id"`
}

type RenameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AddMemberRequest struct {
	OrgID  string `json:"organization_id"`
	UserID string `json:"user_id"`
}

type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MemberResponse struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidUser   = errors.New("invalid_user")
	ErrNotFound      = errors.New("organization_not_found")
	ErrAlreadyMember = errors.New("already_member")
)
