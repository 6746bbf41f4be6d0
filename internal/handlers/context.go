package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tenderhq/tenderdesk/internal/middleware"
)

// currentUserID extracts the authenticated user id set by the auth middleware.
// The empty string means the request was not authenticated.
func currentUserID(c *gin.Context) string {
	value, ok := c.Get(middleware.CtxUserIDKey)
	if !ok {
		return ""
	}
	userID, _ := value.(string)
	return userID
}
