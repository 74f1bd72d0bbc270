package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Allocate(ctx context.Context, req AllocateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Deactivate(ctx context.Context, id string) (*Response, error)
}

type AllocateRequest struct {
	UserID   string `json:"user_id"`
	AppID    string `json:"app_id"`
	SeatType string `json:"seat_type"`
}

type ListRequest struct {
	UserID string
	AppID  string
	Active *bool
}

type Response struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AppID     string    `json:"app_id"`
	SeatType  string    `json:"seat_type"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidApp      = errors.New("invalid_app")
	ErrInvalidSeatType = errors.New("invalid_seat_type")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("seat_not_found")
)
