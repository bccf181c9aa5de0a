package handler

import (
	"github.com/gin-gonic/gin"

	"docassist/internal/transport/http/middleware"
)

// getUserIDFromContext reads the authenticated user id; ok is false when the
// request carried no valid token.
func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}

// currentUserID is the optional-auth variant: anonymous requests map to user 0.
func currentUserID(c *gin.Context) uint {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return 0
	}
	return userID
}
