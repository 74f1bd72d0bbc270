package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const devTokenTTL = 24 * time.Hour

type mintDevTokenRequest struct {
	UserID string `json:"user_id"`
}

// MintDevToken issues a signed token for local development. The route is not
// registered in production.
func (s *Server) MintDevToken(c *gin.Context) {
	var req mintDevTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user id"))
		return
	}

	user, err := s.users.FindByID(c.Request.Context(), s.db, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if user == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	token, err := s.mintToken(userID, devTokenTTL)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64(devTokenTTL / time.Second),
	})
}
