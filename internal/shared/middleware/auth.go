package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autoblog-backend/pkg/jwt"
)

// BearerToken extracts the token from the Authorization header, empty when
// the header is missing or malformed.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Auth verifies the session token and injects the caller's identity into
// the request context.
func Auth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.JSON(401, gin.H{"error": "missing or malformed authorization header"})
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			c.JSON(401, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(401, gin.H{"error": "invalid user ID in token"})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Set("email", claims.Email)
		c.Set("name", claims.Name)
		c.Set("adminClaim", claims.Admin)
		c.Set("token", token)

		c.Next()
	}
}
