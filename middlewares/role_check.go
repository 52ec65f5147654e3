package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-reservations/utils"
)

// RequireRoles lets the request through when the caller's role is one of
// roles. Admin is always allowed.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles)+1)
	allowed["admin"] = struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		role, _ := userRole.(string)
		if _, ok := allowed[role]; !ok {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%s access not allowed", role))
			c.Abort()
			return
		}
		c.Next()
	}
}
