package server

import (
	"net/http"
	"strings"

	"github.com/fintutto/zugang/internal/rbac/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreatePermission(c *gin.Context) {
	var req domain.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	permission, err := s.rbacSvc.CreatePermission(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permission": permission})
}

func (s *Server) ListPermissions(c *gin.Context) {
	permissions, err := s.rbacSvc.ListPermissions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": permissions})
}

func (s *Server) CreateRole(c *gin.Context) {
	var req domain.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role, err := s.rbacSvc.CreateRole(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (s *Server) ListRoles(c *gin.Context) {
	orgID := strings.TrimSpace(c.Query("organization_id"))
	if orgID == "" {
		AbortWithError(c, newValidationError("organization_id", "invalid_organization", "invalid organization id"))
		return
	}

	roles, err := s.rbacSvc.ListRoles(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (s *Server) SetRolePermissions(c *gin.Context) {
	var req domain.SetRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RoleID = c.Param("id")

	role, err := s.rbacSvc.SetRolePermissions(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (s *Server) GrantRole(c *gin.Context) {
	var req domain.GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	grant, err := s.rbacSvc.GrantRole(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"grant": grant})
}

func (s *Server) ListGrants(c *gin.Context) {
	orgID := strings.TrimSpace(c.Query("organization_id"))
	userID := strings.TrimSpace(c.Query("user_id"))
	if orgID == "" || userID == "" {
		AbortWithError(c, newValidationError("organization_id", "invalid_organization", "organization_id and user_id are required"))
		return
	}

	grants, err := s.rbacSvc.ListGrants(c.Request.Context(), orgID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

func (s *Server) RevokeGrant(c *gin.Context) {
	if err := s.rbacSvc.RevokeGrant(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}
