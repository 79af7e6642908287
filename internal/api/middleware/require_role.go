package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/mockmate/internal/utils"
)

func normRole(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// RequireRole admits requests whose token carries one of the allowed
// app_metadata roles. It must run after JWTAuth.
func RequireRole(allowed ...string) gin.HandlerFunc {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		if a = normRole(a); a != "" {
			allow[a] = true
		}
	}

	return func(c *gin.Context) {
		if role := normRole(c.GetString("role")); role == "" || !allow[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "forbidden",
			})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc { return RequireRole("admin") }
