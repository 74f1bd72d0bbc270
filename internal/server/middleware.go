package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/authcontext"
	identitydomain "github.com/fintutto/zugang/internal/identity/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const HeaderOrg = "X-Org-ID"

// AuthRequired validates the bearer token, loads the user and stores the
// caller identity in the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.parseBearer(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.users.FindByID(c.Request.Context(), s.db, userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if user == nil || !user.Active {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := authcontext.WithIdentity(c.Request.Context(), authcontext.Identity{
			UserID: user.ID,
			Role:   user.Role,
		})
		if orgID := strings.TrimSpace(c.GetHeader(HeaderOrg)); orgID != "" {
			if parsed, err := snowflake.ParseString(orgID); err == nil {
				ctx = authcontext.WithOrgID(ctx, parsed)
			}
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminRequired gates management endpoints. AuthRequired must run first.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := authcontext.IdentityFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if id.Role != identitydomain.RoleAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// ResolveRateLimit throttles resolve traffic per organization, falling back
// to the caller when no org header is present. Limiter outages fail open; an
// unavailable limiter must never block an entitlement decision.
func (s *Server) ResolveRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(HeaderOrg))
		if key == "" {
			if id, ok := authcontext.IdentityFromContext(c.Request.Context()); ok {
				key = id.UserID.String()
			}
		}
		if key == "" {
			c.Next()
			return
		}

		allowed, err := s.limiter.AllowOrg(c.Request.Context(), key)
		if err != nil {
			s.log.Warn("rate limiter unavailable, failing open", zap.Error(err))
			s.obsMetrics.RecordRateLimit("resolve", true)
			c.Next()
			return
		}
		s.obsMetrics.RecordRateLimit("resolve", allowed)
		if !allowed {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func (s *Server) parseBearer(c *gin.Context) (snowflake.ID, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return 0, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" || s.cfg.AuthJWTSecret == "" {
		return 0, false
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.AuthJWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, false
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(claims.Subject))
	if err != nil {
		return 0, false
	}
	return userID, true
}

func (s *Server) mintToken(userID snowflake.ID, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    s.cfg.AppName,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.AuthJWTSecret))
}
