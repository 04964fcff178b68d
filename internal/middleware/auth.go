package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taxrecon/internal/service"
)

const (
	ContextKeySubject = "subject"
	ContextKeyEmail   = "email"
)

// AuthMiddleware returns Gin middleware that validates bearer JWT tokens and
// injects the caller identity.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// GetSubject extracts the token subject from the Gin context.
func GetSubject(c *gin.Context) string {
	return c.GetString(ContextKeySubject)
}
