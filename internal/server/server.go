package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/audit"
	"github.com/fintutto/zugang/internal/billing"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/config"
	"github.com/fintutto/zugang/internal/entitlement"
	entitlementdomain "github.com/fintutto/zugang/internal/entitlement/domain"
	"github.com/fintutto/zugang/internal/identity"
	identitydomain "github.com/fintutto/zugang/internal/identity/domain"
	"github.com/fintutto/zugang/internal/observability"
	obsmiddleware "github.com/fintutto/zugang/internal/observability/logger"
	obsmetrics "github.com/fintutto/zugang/internal/observability/metrics"
	obstracing "github.com/fintutto/zugang/internal/observability/tracing"
	"github.com/fintutto/zugang/internal/organization"
	organizationdomain "github.com/fintutto/zugang/internal/organization/domain"
	"github.com/fintutto/zugang/internal/plan"
	"github.com/fintutto/zugang/internal/ratelimit"
	"github.com/fintutto/zugang/internal/rbac"
	rbacdomain "github.com/fintutto/zugang/internal/rbac/domain"
	"github.com/fintutto/zugang/internal/seat"
	seatdomain "github.com/fintutto/zugang/internal/seat/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	plan.Module,
	billing.Module,
	audit.Module,
	identity.Module,
	organization.Module,
	rbac.Module,
	seat.Module,
	entitlement.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	clock           clock.Clock
	genID           *snowflake.Node
	users           identitydomain.Repository
	identitySvc     identitydomain.Service
	organizationSvc organizationdomain.Service
	rbacSvc         rbacdomain.Service
	seatSvc         seatdomain.Service
	entitlementSvc  entitlementdomain.Service
	limiter         *ratelimit.ResolveLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	Clock           clock.Clock
	GenID           *snowflake.Node
	Users           identitydomain.Repository
	IdentitySvc     identitydomain.Service
	OrganizationSvc organizationdomain.Service
	RBACSvc         rbacdomain.Service
	SeatSvc         seatdomain.Service
	EntitlementSvc  entitlementdomain.Service
	Limiter         *ratelimit.ResolveLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("http.server"),
		clock:           p.Clock,
		genID:           p.GenID,
		users:           p.Users,
		identitySvc:     p.IdentitySvc,
		organizationSvc: p.OrganizationSvc,
		rbacSvc:         p.RBACSvc,
		seatSvc:         p.SeatSvc,
		entitlementSvc:  p.EntitlementSvc,
		limiter:         p.Limiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerDevRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.POST("/entitlements/resolve", s.ResolveRateLimit(), s.ResolveAppAccess)
	api.POST("/permissions/check", s.CheckPermission)
	api.POST("/features/check", s.CheckFeature)
	api.POST("/quotas/check", s.ResolveRateLimit(), s.CheckQuota)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AuthRequired(), s.AdminRequired())

	admin.POST("/users", s.CreateUser)
	admin.GET("/users", s.ListUsers)
	admin.GET("/users/:id", s.GetUser)
	admin.POST("/users/:id/role", s.SetUserRole)
	admin.POST("/users/:id/billing-customer", s.SetUserBillingCustomer)
	admin.POST("/users/:id/deactivate", s.DeactivateUser)

	admin.POST("/organizations", s.CreateOrganization)
	admin.GET("/organizations", s.ListOrganizations)
	admin.GET("/organizations/:id", s.GetOrganization)
	admin.POST("/organizations/:id/rename", s.RenameOrganization)
	admin.POST("/organizations/:id/archive", s.ArchiveOrganization)
	admin.POST("/organizations/:id/members", s.AddOrganizationMember)
	admin.GET("/organizations/:id/members", s.ListOrganizationMembers)

	admin.POST("/permissions", s.CreatePermission)
	admin.GET("/permissions", s.ListPermissions)
	admin.POST("/roles", s.CreateRole)
	admin.GET("/roles", s.ListRoles)
	admin.PUT("/roles/:id/permissions", s.SetRolePermissions)
	admin.POST("/grants", s.GrantRole)
	admin.GET("/grants", s.ListGrants)
	admin.POST("/grants/:id/revoke", s.RevokeGrant)

	admin.POST("/seats", s.AllocateSeat)
	admin.GET("/seats", s.ListSeats)
	admin.POST("/seats/:id/deactivate", s.DeactivateSeat)
}

func (s *Server) registerDevRoutes() {
	if s.cfg.IsProduction() {
		return
	}
	s.engine.POST("/dev/token", s.MintDevToken)
}
