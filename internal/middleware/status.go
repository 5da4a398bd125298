package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/devflow/backend/internal/service"
)

// UserStatus blocks banned and suspended users from privileged actions.
// Suspension expiry is evaluated lazily by the moderation service on each
// pass through this gate.
func UserStatus(moderation *service.ModerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get("user_id")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}
		userID, ok := raw.(int)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		if err := moderation.CheckUserStatus(c.Request.Context(), userID); err != nil {
			var svcErr *service.Error
			if errors.As(err, &svcErr) && svcErr.Kind == service.KindForbidden {
				body := gin.H{"error": svcErr.Message}
				if svcErr.Details != nil {
					body["details"] = svcErr.Details
				}
				c.AbortWithStatusJSON(http.StatusForbidden, body)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check user status"})
			return
		}

		c.Next()
	}
}
