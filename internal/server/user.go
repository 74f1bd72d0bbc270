package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fintutto/zugang/internal/identity/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateUser(c *gin.Context) {
	var req domain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.identitySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) ListUsers(c *gin.Context) {
	filter := domain.ListRequest{
		Email: strings.TrimSpace(c.Query("email")),
		Role:  strings.TrimSpace(c.Query("role")),
	}
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			AbortWithError(c, newValidationError("active", "invalid_active", "invalid value"))
			return
		}
		filter.Active = &active
	}

	users, err := s.identitySvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) GetUser(c *gin.Context) {
	user, err := s.identitySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) SetUserRole(c *gin.Context) {
	var req domain.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	user, err := s.identitySvc.SetRole(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) SetUserBillingCustomer(c *gin.Context) {
	var req domain.SetBillingCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	user, err := s.identitySvc.SetBillingCustomer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) DeactivateUser(c *gin.Context) {
	user, err := s.identitySvc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
