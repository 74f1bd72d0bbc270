package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/fintutto/zugang/internal/seat/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) AllocateSeat(c *gin.Context) {
	var req domain.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	seat, err := s.seatSvc.Allocate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"seat": seat})
}

func (s *Server) ListSeats(c *gin.Context) {
	filter := domain.ListRequest{
		UserID: strings.TrimSpace(c.Query("user_id")),
		AppID:  strings.TrimSpace(c.Query("app_id")),
	}
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			AbortWithError(c, newValidationError("active", "invalid_active", "invalid value"))
			return
		}
		filter.Active = &active
	}

	seats, err := s.seatSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"seats": seats})
}

func (s *Server) DeactivateSeat(c *gin.Context) {
	seat, err := s.seatSvc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"seat": seat})
}
