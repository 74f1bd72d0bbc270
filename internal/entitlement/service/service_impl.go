package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/fintutto/zugang/internal/audit/domain"
	billingdomain "github.com/fintutto/zugang/internal/billing/domain"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/entitlement/domain"
	identitydomain "github.com/fintutto/zugang/internal/identity/domain"
	"github.com/fintutto/zugang/internal/observability/metrics"
	"github.com/fintutto/zugang/internal/plan"
	rbacdomain "github.com/fintutto/zugang/internal/rbac/domain"
	seatdomain "github.com/fintutto/zugang/internal/seat/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Plans   *plan.Table
	Billing billingdomain.Provider
	Users   identitydomain.Repository
	RBAC    rbacdomain.Repository
	Seats   seatdomain.Repository
	Metrics *metrics.Metrics
	Audit   auditdomain.Recorder
}

// Service evaluates entitlements. It is a read-only decision function: all
// state lives in the entity store and the billing provider, so every method
// is safe to call concurrently.
type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	plans   *plan.Table
	billing billingdomain.Provider
	users   identitydomain.Repository
	rbac    rbacdomain.Repository
	seats   seatdomain.Repository
	metrics *metrics.Metrics
	audit   auditdomain.Recorder
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("entitlement.service"),
		clock:   p.Clock,
		plans:   p.Plans,
		billing: p.Billing,
		users:   p.Users,
		rbac:    p.RBAC,
		seats:   p.Seats,
		metrics: p.Metrics,
		audit:   p.Audit,
	}
}

func (s *Service) ResolveAppAccess(ctx context.Context, req domain.ResolveAppAccessRequest) (*domain.Entitlement, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}
	appID := strings.ToLower(strings.TrimSpace(req.AppID))
	if appID == "" {
		return nil, domain.ErrInvalidApp
	}

	appSpec, ok := s.plans.App(appID)
	if !ok {
		s.configError("resolve", "unknown application", zap.String("app_id", appID))
		return nil, fmt.Errorf("%w: app %s not in plan table", domain.ErrConfiguration, appID)
	}

	user, err := s.loadUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() {
		s.metrics.RecordDecision("resolve", "allow", domain.ReasonAdmin)
		return &domain.Entitlement{
			HasAccess: true,
			Tier:      s.plans.AdminTier(),
			Limits:    s.plans.AdminLimits(),
			Reason:    domain.ReasonAdmin,
		}, nil
	}

	if !user.Active {
		s.metrics.RecordDecision("resolve", "deny", domain.ReasonUserInactive)
		s.recordDenial(ctx, auditdomain.AccessDecision{
			UserID:    user.ID,
			AppID:     appID,
			Operation: "resolve_app_access",
			Outcome:   auditdomain.OutcomeDenied,
			Reason:    domain.ReasonUserInactive,
		})
		return &domain.Entitlement{
			HasAccess: false,
			Tier:      plan.TierFree,
			Limits:    s.plans.Limits(plan.TierFree),
			Reason:    domain.ReasonUserInactive,
		}, nil
	}

	tier, status, err := s.resolveTier(ctx, user, appID)
	if err != nil {
		return nil, err
	}

	ent := &domain.Entitlement{
		Tier:               tier,
		Limits:             s.plans.Limits(tier),
		SubscriptionStatus: status,
		Reason:             tier,
	}
	ent.HasAccess = s.plans.HasFeature(tier, appSpec.MinimumFeature)

	if ent.HasAccess && appSpec.SeatGated {
		seated, err := s.seats.HasActive(ctx, s.db, user.ID, appID)
		if err != nil {
			s.metrics.RecordUpstreamError("entity_store")
			return nil, fmt.Errorf("%w: seat lookup: %v", domain.ErrUpstreamUnavailable, err)
		}
		if !seated {
			ent.HasAccess = false
			ent.Reason = domain.ReasonSeatRequired
		}
	}

	if ent.HasAccess {
		s.metrics.RecordDecision("resolve", "allow", ent.Reason)
	} else {
		s.metrics.RecordDecision("resolve", "deny", ent.Reason)
		s.recordDenial(ctx, auditdomain.AccessDecision{
			UserID:    user.ID,
			AppID:     appID,
			Operation: "resolve_app_access",
			Outcome:   auditdomain.OutcomeDenied,
			Reason:    ent.Reason,
		})
	}
	return ent, nil
}

// resolveTier determines the paid tier for the user, falling back to free on
// a missing billing customer, an absent subscription, unrecognized tier
// metadata, or a subscription no longer in good standing.
func (s *Service) resolveTier(ctx context.Context, user *identitydomain.User, appID string) (tier, status string, err error) {
	if user.BillingCustomerID == nil || strings.TrimSpace(*user.BillingCustomerID) == "" {
		return plan.TierFree, "", nil
	}

	subs, err := s.billing.ListSubscriptions(ctx, *user.BillingCustomerID, appID)
	if err != nil {
		s.metrics.RecordUpstreamError("billing")
		s.log.Error("billing provider lookup failed",
			zap.String("user_id", user.ID.String()),
			zap.String("app_id", appID),
			zap.Error(err),
		)
		return "", "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if len(subs) == 0 {
		return plan.TierFree, "", nil
	}

	// Take the first match; the provider's ordering is its own tie-break.
	sub := subs[0]
	status = string(sub.Status)
	if !sub.InGoodStanding() {
		return plan.TierFree, status, nil
	}
	return s.plans.Normalize(sub.Product.Tier()), status, nil
}

func (s *Service) HasPermission(ctx context.Context, req domain.PermissionCheckRequest) (*domain.Decision, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrg
	}
	permission := strings.TrimSpace(req.Permission)
	if permission == "" {
		return nil, domain.ErrInvalidPermission
	}

	user, err := s.loadUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() {
		s.metrics.RecordDecision("permission", "allow", domain.ReasonAdmin)
		return &domain.Decision{Allowed: true, Reason: domain.ReasonAdmin}, nil
	}

	grants, err := s.rbac.ListGrants(ctx, s.db, req.OrgID, user.ID)
	if err != nil {
		s.metrics.RecordUpstreamError("entity_store")
		return nil, fmt.Errorf("%w: grant lookup: %v", domain.ErrUpstreamUnavailable, err)
	}

	// Expiry is evaluated at call time; an expiry exactly equal to now is
	// still valid at that instant.
	now := s.clock.Now()
	roleIDs := make([]snowflake.ID, 0, len(grants))
	for _, grant := range grants {
		if grant.ActiveAt(now) {
			roleIDs = append(roleIDs, grant.RoleID)
		}
	}
	if len(roleIDs) == 0 {
		return s.deny(ctx, req, domain.ReasonNoRoles), nil
	}

	catalogEntry, err := s.rbac.FindPermissionByName(ctx, s.db, permission)
	if err != nil {
		s.metrics.RecordUpstreamError("entity_store")
		return nil, fmt.Errorf("%w: permission lookup: %v", domain.ErrUpstreamUnavailable, err)
	}
	if catalogEntry == nil {
		// A configuration error, not an authorization decision.
		s.configError("permission", "permission missing from catalog",
			zap.String("permission", permission),
			zap.String("org_id", req.OrgID.String()),
		)
		s.audit.Record(ctx, auditdomain.AccessDecision{
			OrgID:      req.OrgID,
			UserID:     req.UserID,
			Permission: permission,
			Operation:  "has_permission",
			Outcome:    auditdomain.OutcomeConfigError,
			Reason:     domain.ReasonPermissionNotFound,
		})
		s.metrics.RecordDecision("permission", "deny", domain.ReasonPermissionNotFound)
		return &domain.Decision{Allowed: false, Reason: domain.ReasonPermissionNotFound}, nil
	}

	permissionIDs, err := s.rbac.PermissionIDsForRoles(ctx, s.db, roleIDs)
	if err != nil {
		s.metrics.RecordUpstreamError("entity_store")
		return nil, fmt.Errorf("%w: role permission lookup: %v", domain.ErrUpstreamUnavailable, err)
	}
	for _, id := range permissionIDs {
		if id == catalogEntry.ID {
			s.metrics.RecordDecision("permission", "allow", domain.ReasonGranted)
			return &domain.Decision{Allowed: true, Reason: domain.ReasonGranted}, nil
		}
	}
	return s.deny(ctx, req, domain.ReasonNotGranted), nil
}

func (s *Service) HasFeature(req domain.FeatureCheckRequest) (*domain.FeatureDecision, error) {
	feature := strings.TrimSpace(req.Feature)
	if feature == "" {
		return nil, domain.ErrInvalidFeature
	}

	tier := s.plans.Normalize(req.Tier)
	decision := &domain.FeatureDecision{
		HasFeature: s.plans.HasFeature(tier, feature),
	}
	if required, ok := s.plans.CheapestTierWith(feature); ok {
		decision.RequiredTier = &required
	}
	return decision, nil
}

func (s *Service) CheckQuota(ctx context.Context, req domain.QuotaCheckRequest) (*domain.QuotaDecision, error) {
	if strings.TrimSpace(req.LimitKey) == "" {
		return nil, domain.ErrInvalidLimitKey
	}
	if req.CurrentCount < 0 {
		return nil, domain.ErrInvalidCount
	}

	ent, err := s.ResolveAppAccess(ctx, domain.ResolveAppAccessRequest{
		UserID: req.UserID,
		AppID:  req.AppID,
	})
	if err != nil {
		return nil, err
	}

	limit, ok := ent.Limits[req.LimitKey]
	if !ok {
		s.configError("quota", "limit key missing from plan table",
			zap.String("limit_key", req.LimitKey),
			zap.String("tier", ent.Tier),
		)
		return nil, fmt.Errorf("%w: limit key %s not in tier %s", domain.ErrConfiguration, req.LimitKey, ent.Tier)
	}

	decision := &domain.QuotaDecision{
		Allowed: limit.Allows(req.CurrentCount),
		Limit:   limit,
	}
	if !limit.Unlimited && limit.Value > req.CurrentCount {
		decision.Remaining = limit.Value - req.CurrentCount
	}
	if decision.Allowed {
		s.metrics.RecordDecision("quota", "allow", req.LimitKey)
	} else {
		s.metrics.RecordDecision("quota", "deny", req.LimitKey)
	}
	return decision, nil
}

func (s *Service) loadUser(ctx context.Context, id snowflake.ID) (*identitydomain.User, error) {
	user, err := s.users.FindByID(ctx, s.db, id)
	if err != nil {
		s.metrics.RecordUpstreamError("entity_store")
		return nil, fmt.Errorf("%w: user lookup: %v", domain.ErrUpstreamUnavailable, err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) deny(ctx context.Context, req domain.PermissionCheckRequest, reason string) *domain.Decision {
	s.metrics.RecordDecision("permission", "deny", reason)
	s.recordDenial(ctx, auditdomain.AccessDecision{
		OrgID:      req.OrgID,
		UserID:     req.UserID,
		Permission: req.Permission,
		Operation:  "has_permission",
		Outcome:    auditdomain.OutcomeDenied,
		Reason:     reason,
	})
	return &domain.Decision{Allowed: false, Reason: reason}
}

func (s *Service) recordDenial(ctx context.Context, decision auditdomain.AccessDecision) {
	s.audit.Record(ctx, decision)
}

func (s *Service) configError(operation, msg string, fields ...zap.Field) {
	s.metrics.RecordConfigurationError()
	s.log.Warn(msg, append(fields, zap.String("operation", operation))...)
}
