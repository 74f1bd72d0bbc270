package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	SetRole(ctx context.Context, req SetRoleRequest) (*Response, error)
	SetBillingCustomer(ctx context.Context, req SetBillingCustomerRequest) (*Response, error)
	Deactivate(ctx context.Context, id string) (*Response, error)
}

type CreateRequest struct {
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	Role        string         `json:"role,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type ListRequest struct {
	Email  string
	Role   string
	Active *bool
}

type SetRoleRequest struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type SetBillingCustomerRequest struct {
	ID                string `json:"id"`
	BillingCustomerID string `json:"billing_customer_id"`
}

type Response struct {
	ID                string         `json:"id"`
	Email             string         `json:"email"`
	DisplayName       string         `json:"display_name,omitempty"`
	Role              string         `json:"role"`
	BillingCustomerID *string        `json:"billing_customer_id,omitempty"`
	Active            bool           `json:"active"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidRole  = errors.New("invalid_role")
	ErrInvalidID    = errors.New("invalid_id")
	ErrEmailExists  = errors.New("email_exists")
	ErrNotFound     = errors.New("user_not_found")
)
