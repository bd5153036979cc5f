package middleware

import (
	"strings"
	"ticketdesk/internal/models"
	"ticketdesk/internal/services"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(401, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]

		// Verify token and get session
		session, err := authService.GetSession(token)
		if err != nil {
			c.JSON(401, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Set user in context (store as pointer)
		c.Set("user", &session.User)
		c.Set("user_id", session.UserID)
		c.Set("session", session)

		c.Next()
	}
}

// RequireAdmin gates routes that only admin accounts may reach. It assumes
// AuthMiddleware already ran.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			c.JSON(401, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !user.(*models.User).IsAdmin {
			c.JSON(403, gin.H{"error": "Forbidden: admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
