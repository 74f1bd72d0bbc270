package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/config"
	entitlementdomain "github.com/fintutto/zugang/internal/entitlement/domain"
	identitydomain "github.com/fintutto/zugang/internal/identity/domain"
	"github.com/fintutto/zugang/internal/plan"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeEntitlementService struct {
	entitlement *entitlementdomain.Entitlement
	decision    *entitlementdomain.Decision
	feature     *entitlementdomain.FeatureDecision
	quota       *entitlementdomain.QuotaDecision
	err         error

	lastResolve    entitlementdomain.ResolveAppAccessRequest
	lastPermission entitlementdomain.PermissionCheckRequest
}

func (f *fakeEntitlementService) ResolveAppAccess(ctx context.Context, req entitlementdomain.ResolveAppAccessRequest) (*entitlementdomain.Entitlement, error) {
	f.lastResolve = req
	_ = ctx
	return f.entitlement, f.err
}

func (f *fakeEntitlementService) HasPermission(ctx context.Context, req entitlementdomain.PermissionCheckRequest) (*entitlementdomain.Decision, error) {
	f.lastPermission = req
	_ = ctx
	return f.decision, f.err
}

func (f *fakeEntitlementService) HasFeature(req entitlementdomain.FeatureCheckRequest) (*entitlementdomain.FeatureDecision, error) {
	_ = req
	return f.feature, f.err
}

func (f *fakeEntitlementService) CheckQuota(ctx context.Context, req entitlementdomain.QuotaCheckRequest) (*entitlementdomain.QuotaDecision, error) {
	_ = ctx
	_ = req
	return f.quota, f.err
}

type fakeUserRepo struct {
	users map[snowflake.ID]*identitydomain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, db *gorm.DB, user *identitydomain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*identitydomain.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*identitydomain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) List(ctx context.Context, db *gorm.DB, filter identitydomain.ListRequest) ([]identitydomain.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, db *gorm.DB, user *identitydomain.User) error {
	f.users[user.ID] = user
	return nil
}

const (
	testMemberID = snowflake.ID(1001)
	testAdminID  = snowflake.ID(1002)
)

func newTestServer(entSvc entitlementdomain.Service) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	repo := &fakeUserRepo{users: map[snowflake.ID]*identitydomain.User{
		testMemberID: {ID: testMemberID, Email: "member@example.de", Role: identitydomain.RoleMember, Active: true},
		testAdminID:  {ID: testAdminID, Email: "admin@example.de", Role: identitydomain.RoleAdmin, Active: true},
	}}

	srv := &Server{
		cfg:            config.Config{AppName: "zugang", AuthJWTSecret: "test-secret"},
		log:            zap.NewNop(),
		clock:          clock.NewSystemClock(),
		users:          repo,
		entitlementSvc: entSvc,
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	api := router.Group("/api", srv.AuthRequired())
	api.POST("/entitlements/resolve", srv.ResolveRateLimit(), srv.ResolveAppAccess)
	api.POST("/permissions/check", srv.CheckPermission)
	api.POST("/features/check", srv.CheckFeature)
	api.POST("/quotas/check", srv.ResolveRateLimit(), srv.CheckQuota)
	router.GET("/admin/ping", srv.AuthRequired(), srv.AdminRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return srv, router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func tokenFor(t *testing.T, srv *Server, userID snowflake.ID) string {
	t.Helper()
	token, err := srv.mintToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestResolveEndpointRequiresAuth(t *testing.T) {
	_, router := newTestServer(&fakeEntitlementService{})

	resp := doJSON(t, router, http.MethodPost, "/api/entitlements/resolve", "", `{"app_id":"mieterapp"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}

	resp = doJSON(t, router, http.MethodPost, "/api/entitlements/resolve", "not-a-jwt", `{"app_id":"mieterapp"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for malformed token, got %d", resp.Code)
	}
}

func TestResolveEndpointEncodesLimits(t *testing.T) {
	entSvc := &fakeEntitlementService{
		entitlement: &entitlementdomain.Entitlement{
			HasAccess: true,
			Tier:      plan.TierPro,
			Limits: map[string]plan.Limit{
				"objects":   {Value: 100},
				"api_calls": {Unlimited: true},
			},
			SubscriptionStatus: "active",
			Reason:             plan.TierPro,
		},
	}
	srv, router := newTestServer(entSvc)

	resp := doJSON(t, router, http.MethodPost, "/api/entitlements/resolve",
		tokenFor(t, srv, testMemberID), `{"app_id":"mieterapp"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if entSvc.lastResolve.UserID != testMemberID {
		t.Fatalf("expected resolve for caller %d, got %d", testMemberID, entSvc.lastResolve.UserID)
	}

	var body struct {
		HasAccess          bool           `json:"has_access"`
		Tier               string         `json:"tier"`
		Limits             map[string]any `json:"limits"`
		SubscriptionStatus string         `json:"subscription_status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.HasAccess || body.Tier != plan.TierPro {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Limits["api_calls"] != "unlimited" {
		t.Fatalf("expected unlimited marker, got %v", body.Limits["api_calls"])
	}
	if body.Limits["objects"] != float64(100) {
		t.Fatalf("expected numeric limit, got %v", body.Limits["objects"])
	}
	if body.SubscriptionStatus != "active" {
		t.Fatalf("expected subscription status, got %q", body.SubscriptionStatus)
	}
}

func TestResolveEndpointUpstreamUnavailable(t *testing.T) {
	entSvc := &fakeEntitlementService{
		err: fmt.Errorf("%w: billing down", entitlementdomain.ErrUpstreamUnavailable),
	}
	srv, router := newTestServer(entSvc)

	resp := doJSON(t, router, http.MethodPost, "/api/entitlements/resolve",
		tokenFor(t, srv, testMemberID), `{"app_id":"mieterapp"}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The failure must not read as a denial.
	if body.Error.Type != "upstream_unavailable" {
		t.Fatalf("expected upstream_unavailable, got %q", body.Error.Type)
	}
}

func TestPermissionEndpointSubjectOverride(t *testing.T) {
	entSvc := &fakeEntitlementService{
		decision: &entitlementdomain.Decision{Allowed: true, Reason: "granted"},
	}
	srv, router := newTestServer(entSvc)

	// A member may not check another user's permissions.
	resp := doJSON(t, router, http.MethodPost, "/api/permissions/check",
		tokenFor(t, srv, testMemberID),
		fmt.Sprintf(`{"permission":"payments.create","organization_id":"100","user_id":"%d"}`, testAdminID))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}

	// An admin may.
	resp = doJSON(t, router, http.MethodPost, "/api/permissions/check",
		tokenFor(t, srv, testAdminID),
		fmt.Sprintf(`{"permission":"payments.create","organization_id":"100","user_id":"%d"}`, testMemberID))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if entSvc.lastPermission.UserID != testMemberID {
		t.Fatalf("expected check for user %d, got %d", testMemberID, entSvc.lastPermission.UserID)
	}
}

func TestPermissionEndpointRejectsBadOrgID(t *testing.T) {
	srv, router := newTestServer(&fakeEntitlementService{})

	resp := doJSON(t, router, http.MethodPost, "/api/permissions/check",
		tokenFor(t, srv, testMemberID), `{"permission":"payments.create","organization_id":"not-a-number"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestFeatureEndpointReportsRequiredTier(t *testing.T) {
	starter := plan.TierStarter
	entSvc := &fakeEntitlementService{
		feature: &entitlementdomain.FeatureDecision{HasFeature: false, RequiredTier: &starter},
	}
	srv, router := newTestServer(entSvc)

	resp := doJSON(t, router, http.MethodPost, "/api/features/check",
		tokenFor(t, srv, testMemberID), `{"tier":"free","feature":"payments.basic"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body struct {
		HasFeature   bool   `json:"has_feature"`
		RequiredTier string `json:"required_tier"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.HasFeature || body.RequiredTier != plan.TierStarter {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestQuotaEndpoint(t *testing.T) {
	entSvc := &fakeEntitlementService{
		quota: &entitlementdomain.QuotaDecision{
			Allowed:   true,
			Limit:     plan.Limit{Value: 10},
			Remaining: 7,
		},
	}
	srv, router := newTestServer(entSvc)

	resp := doJSON(t, router, http.MethodPost, "/api/quotas/check",
		tokenFor(t, srv, testMemberID), `{"app_id":"mieterapp","limit_key":"objects","current_count":3}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var body struct {
		Allowed   bool  `json:"allowed"`
		Remaining int64 `json:"remaining"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Allowed || body.Remaining != 7 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAdminRoutesRejectMembers(t *testing.T) {
	srv, router := newTestServer(&fakeEntitlementService{})

	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, srv, testMemberID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, srv, testAdminID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestInactiveUserIsUnauthorized(t *testing.T) {
	srv, router := newTestServer(&fakeEntitlementService{})
	repo := srv.users.(*fakeUserRepo)
	repo.users[testMemberID].Active = false

	resp := doJSON(t, router, http.MethodPost, "/api/entitlements/resolve",
		tokenFor(t, srv, testMemberID), `{"app_id":"mieterapp"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}
