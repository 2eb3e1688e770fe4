package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/models"
	"reviewhub/internal/service"
)

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// It checks for the presence and validity of a JWT token in the Authorization header.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		// Set user info in context for handlers to use
		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Set("isSuperuser", claims.IsSuperuser)

		c.Next()
	}
}

// RequireAdmin allows only admins and superusers through. It assumes
// AuthMiddleware already ran on this route.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if actor == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		if actor.Role != models.RoleAdmin && !actor.IsSuperuser {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ActorFromContext rebuilds the authenticated principal from the
// values AuthMiddleware stored. Returns nil when unauthenticated.
func ActorFromContext(c *gin.Context) *service.Actor {
	userID, exists := c.Get("userID")
	if !exists {
		return nil
	}

	actor := &service.Actor{ID: userID.(string)}
	if role, ok := c.Get("role"); ok {
		actor.Role = models.Role(role.(string))
	}
	if super, ok := c.Get("isSuperuser"); ok {
		actor.IsSuperuser = super.(bool)
	}
	return actor
}
