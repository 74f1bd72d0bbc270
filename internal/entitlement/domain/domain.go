// Package domain defines the resolver's request/response contract and the
// error taxonomy shared with the HTTP layer.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/plan"
)

// Decision reasons carried back to callers so the UI can render an upgrade
// or contact-admin prompt instead of a bare denial.
const (
	ReasonAdmin              = "admin"
	ReasonGranted            = "granted"
	ReasonNoRoles            = "no_roles"
	ReasonNotGranted         = "not_granted"
	ReasonPermissionNotFound = "permission_not_found"
	ReasonSeatRequired       = "seat_required"
	ReasonUserInactive       = "user_inactive"
)

var (
	ErrInvalidUser       = errors.New("invalid_user_id")
	ErrInvalidApp        = errors.New("invalid_app_id")
	ErrInvalidPermission = errors.New("invalid_permission")
	ErrInvalidFeature    = errors.New("invalid_feature")
	ErrInvalidLimitKey   = errors.New("invalid_limit_key")
	ErrInvalidOrg        = errors.New("invalid_organization_id")
	ErrInvalidCount      = errors.New("invalid_current_count")
	ErrUserNotFound      = errors.New("user_not_found")

	// ErrUpstreamUnavailable means the entity store or billing provider
	// could not be reached. Callers must surface it as "could not check",
	// never as "forbidden".
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")

	// ErrConfiguration means a static table (plan table, permission catalog,
	// app registry) is missing something the request references. It implies
	// a deployment mismatch and is logged louder than a denial.
	ErrConfiguration = errors.New("configuration_error")
)

// Entitlement is the resolved access state for one user/application pair.
type Entitlement struct {
	HasAccess          bool
	Tier               string
	Limits             map[string]plan.Limit
	SubscriptionStatus string
	Reason             string
}

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool
	Reason  string
}

// FeatureDecision reports tier membership of a feature key. RequiredTier is
// the cheapest tier containing the feature, nil when no tier does.
type FeatureDecision struct {
	HasFeature   bool
	RequiredTier *string
}

// QuotaDecision reports headroom under one numeric limit. Remaining is zero
// when the limit is reached and meaningless when the limit is unlimited.
type QuotaDecision struct {
	Allowed   bool
	Limit     plan.Limit
	Remaining int64
}

type ResolveAppAccessRequest struct {
	UserID snowflake.ID
	AppID  string
}

type PermissionCheckRequest struct {
	UserID     snowflake.ID
	OrgID      snowflake.ID
	Permission string
	// ResourceID is accepted for forward compatibility. It may only ever
	// narrow a decision, never widen one; today it is not consulted.
	ResourceID string
}

type FeatureCheckRequest struct {
	Tier    string
	Feature string
}

type QuotaCheckRequest struct {
	UserID       snowflake.ID
	AppID        string
	LimitKey     string
	CurrentCount int64
}

type Service interface {
	ResolveAppAccess(ctx context.Context, req ResolveAppAccessRequest) (*Entitlement, error)
	HasPermission(ctx context.Context, req PermissionCheckRequest) (*Decision, error)
	HasFeature(req FeatureCheckRequest) (*FeatureDecision, error)
	CheckQuota(ctx context.Context, req QuotaCheckRequest) (*QuotaDecision, error)
}
