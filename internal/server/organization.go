package server

import (
	"net/http"

	"github.com/fintutto/zugang/internal/organization/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateOrganization(c *gin.Context) {
	var req domain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.organizationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organization": org})
}

func (s *Server) ListOrganizations(c *gin.Context) {
	orgs, err := s.organizationSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

func (s *Server) GetOrganization(c *gin.Context) {
	org, err := s.organizationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if org == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organization": org})
}

func (s *Server) RenameOrganization(c *gin.Context) {
	var req domain.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	org, err := s.organizationSvc.Rename(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organization": org})
}

func (s *Server) ArchiveOrganization(c *gin.Context) {
	if err := s.organizationSvc.Archive(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

func (s *Server) AddOrganizationMember(c *gin.Context) {
	var req domain.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = c.Param("id")

	if err := s.organizationSvc.AddMember(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

func (s *Server) ListOrganizationMembers(c *gin.Context) {
	members, err := s.organizationSvc.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}
