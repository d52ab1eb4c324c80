package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autoblog-backend/internal/domains/session"
	"autoblog-backend/internal/infrastructure/identity"
)

// AdminGuard runs the access-guard decision for the authenticated caller.
// It must sit behind Auth, which has already resolved the token. The admin
// flag is the two-source OR of the static allow-list and the token claim.
func AdminGuard(isAdminEmail func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDValue, exists := c.Get("userID")
		userID, ok := userIDValue.(uuid.UUID)
		if !exists || !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authentication required",
			})
			c.Abort()
			return
		}

		email := c.GetString("email")
		sess := session.Session{
			User:    &identity.User{ID: userID, Email: email, Name: c.GetString("name")},
			Loading: false,
			IsAdmin: isAdminEmail(email) || c.GetBool("adminClaim"),
		}

		switch session.Evaluate(sess) {
		case session.StateGranted:
			c.Next()
		default:
			c.JSON(http.StatusForbidden, gin.H{
				"success":  false,
				"error":    "admin privilege required",
				"redirect": session.SignInPath,
			})
			c.Abort()
		}
	}
}
