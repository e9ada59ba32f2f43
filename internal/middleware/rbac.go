package middleware

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"hazard-service/internal/models"
)

// RequireRole lets the request through when the caller has one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[c.GetString(ContextUserRole)] {
			Respond(c, NewForbiddenError("Insufficient role"))
			return
		}
		c.Next()
	}
}

// CapabilityResolver computes a user's effective capabilities
type CapabilityResolver interface {
	Capabilities(ctx context.Context, userID string) (models.Capabilities, error)
}

// RequireCapability checks that one of the caller's groups grants section.
// Admins and any of bypassRoles pass without a lookup.
func RequireCapability(resolver CapabilityResolver, section string, bypassRoles ...string) gin.HandlerFunc {
	bypass := map[string]bool{models.RoleAdmin: true}
	for _, r := range bypassRoles {
		bypass[r] = true
	}
	return func(c *gin.Context) {
		if bypass[c.GetString(ContextUserRole)] {
			c.Next()
			return
		}

		caps, err := resolver.Capabilities(c.Request.Context(), c.GetString(ContextUserID))
		if err != nil {
			Respond(c, err)
			return
		}
		if !caps.Has(section) {
			Respond(c, NewForbiddenError(fmt.Sprintf("No access to %s", section)))
			return
		}
		c.Next()
	}
}
