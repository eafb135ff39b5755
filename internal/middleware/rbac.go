package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

// RBAC enforces role-based access control for routes. Ownership checks that
// depend on the target resource are left to the services.
func RBAC(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, r := range allowed {
		allowedRoles[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Authentication required"))
			c.Abort()
			return
		}
		if _, ok := allowedRoles[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "Access denied for role "+string(claims.Role)))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff admits faculty, coordinators and admins.
func RequireStaff() gin.HandlerFunc {
	return RBAC(models.RoleFaculty, models.RoleCoordinator, models.RoleAdmin)
}
