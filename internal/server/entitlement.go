package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/authcontext"
	entitlementdomain "github.com/fintutto/zugang/internal/entitlement/domain"
	identitydomain "github.com/fintutto/zugang/internal/identity/domain"
	"github.com/fintutto/zugang/internal/plan"
	"github.com/gin-gonic/gin"
)

type resolveAppAccessRequest struct {
	AppID  string `json:"app_id"`
	UserID string `json:"user_id,omitempty"`
}

type permissionCheckRequest struct {
	Permission string `json:"permission"`
	OrgID      string `json:"organization_id"`
	ResourceID string `json:"resource_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
}

type featureCheckRequest struct {
	Tier    string `json:"tier,omitempty"`
	Feature string `json:"feature"`
}

type quotaCheckRequest struct {
	AppID        string `json:"app_id"`
	LimitKey     string `json:"limit_key"`
	CurrentCount int64  `json:"current_count"`
	UserID       string `json:"user_id,omitempty"`
}

func (s *Server) ResolveAppAccess(c *gin.Context) {
	var req resolveAppAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, ok := s.subjectUserID(c, req.UserID)
	if !ok {
		return
	}

	ent, err := s.entitlementSvc.ResolveAppAccess(c.Request.Context(), entitlementdomain.ResolveAppAccessRequest{
		UserID: userID,
		AppID:  req.AppID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body := gin.H{
		"has_access": ent.HasAccess,
		"tier":       ent.Tier,
		"limits":     limitsJSON(ent.Limits),
		"reason":     ent.Reason,
	}
	if ent.SubscriptionStatus != "" {
		body["subscription_status"] = ent.SubscriptionStatus
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) CheckPermission(c *gin.Context) {
	var req permissionCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, ok := s.subjectUserID(c, req.UserID)
	if !ok {
		return
	}

	orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrgID))
	if err != nil {
		AbortWithError(c, newValidationError("organization_id", "invalid_organization_id", "invalid organization id"))
		return
	}

	decision, err := s.entitlementSvc.HasPermission(c.Request.Context(), entitlementdomain.PermissionCheckRequest{
		UserID:     userID,
		OrgID:      orgID,
		Permission: req.Permission,
		ResourceID: req.ResourceID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"has_permission": decision.Allowed,
		"reason":         decision.Reason,
	})
}

func (s *Server) CheckFeature(c *gin.Context) {
	var req featureCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	decision, err := s.entitlementSvc.HasFeature(entitlementdomain.FeatureCheckRequest{
		Tier:    req.Tier,
		Feature: req.Feature,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body := gin.H{"has_feature": decision.HasFeature}
	if decision.RequiredTier != nil {
		body["required_tier"] = *decision.RequiredTier
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) CheckQuota(c *gin.Context) {
	var req quotaCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, ok := s.subjectUserID(c, req.UserID)
	if !ok {
		return
	}

	decision, err := s.entitlementSvc.CheckQuota(c.Request.Context(), entitlementdomain.QuotaCheckRequest{
		UserID:       userID,
		AppID:        req.AppID,
		LimitKey:     req.LimitKey,
		CurrentCount: req.CurrentCount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allowed":   decision.Allowed,
		"limit":     limitJSON(decision.Limit),
		"remaining": decision.Remaining,
	})
}

// subjectUserID resolves whose entitlements are being checked. Callers check
// themselves; only admins may check another user.
func (s *Server) subjectUserID(c *gin.Context, override string) (snowflake.ID, bool) {
	id, ok := authcontext.IdentityFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return 0, false
	}

	override = strings.TrimSpace(override)
	if override == "" {
		return id.UserID, true
	}

	target, err := snowflake.ParseString(override)
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user id"))
		return 0, false
	}
	if target != id.UserID && id.Role != identitydomain.RoleAdmin {
		AbortWithError(c, ErrForbidden)
		return 0, false
	}
	return target, true
}

func limitsJSON(limits map[string]plan.Limit) map[string]any {
	out := make(map[string]any, len(limits))
	for key, limit := range limits {
		out[key] = limitJSON(limit)
	}
	return out
}

func limitJSON(limit plan.Limit) any {
	if limit.Unlimited {
		return "unlimited"
	}
	return limit.Value
}
