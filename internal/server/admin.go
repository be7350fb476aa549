package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/membership/internal/auth/domain"
)

// ListUsers returns active users, optionally filtered by ?role=.
func (s *Server) ListUsers(c *gin.Context) {
	var (
		users []authdomain.UserInfo
		err   error
	)

	if role := strings.TrimSpace(c.Query("role")); role != "" {
		users, err = s.authsvc.ListUsersByRole(c.Request.Context(), authdomain.Role(role))
	} else {
		users, err = s.authsvc.ListActiveUsers(c.Request.Context())
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if users == nil {
		users = []authdomain.UserInfo{}
	}

	c.JSON(http.StatusOK, users)
}
