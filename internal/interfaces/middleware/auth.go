package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/matchdesk/cms/pkg/auth"
)

const headerAuthorization = "Authorization"

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":   "Unauthorized",
		"message": message,
		"code":    "UNAUTHORIZED",
		"data":    nil,
	})
	c.Abort()
}

// RequireAuth is a middleware that validates JWT tokens
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get token from Authorization header
		authHeader := c.GetHeader(headerAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "No authorization token provided")
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		// Set user session in context
		c.Set(auth.ContextKeyUser, claims.User)
		c.Next()
	}
}

// RequirePageAdmin checks that the user may manage CMS pages
func RequirePageAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userInterface, exists := c.Get(auth.ContextKeyUser)
		if !exists {
			abortUnauthorized(c, "User not authenticated")
			return
		}

		user, ok := userInterface.(auth.UserSession)
		if !ok || !user.CanManagePages() {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Only page administrators can access this resource",
				"code":    "FORBIDDEN",
				"data":    nil,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
