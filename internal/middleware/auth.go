package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskmanager/internal/constants"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
)

// RequireAuth checks if the user is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !loadSessionUser(c) {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePageAuth is RequireAuth for HTML pages: anonymous visitors are
// redirected to the login page instead of receiving JSON.
func RequirePageAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !loadSessionUser(c) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// loadSessionUser copies the session user id into the gin context
func loadSessionUser(c *gin.Context) bool {
	session := sessions.Default(c)
	userID := session.Get(constants.ContextKeyUserID)
	if userID == nil {
		return false
	}

	c.Set(constants.ContextKeyUserID, userID)
	if _, ok := GetUserID(c); !ok {
		// Unusable value, e.g. left over from an older session format.
		c.Set(constants.ContextKeyUserID, nil)
		return false
	}
	return true
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
