package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ratacueva-backend/internal/models"
	"ratacueva-backend/internal/services"
)

// Authenticate validates the bearer token and stores the caller's identity in
// the request context
func Authenticate(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthorized",
				"message": "Se requiere autenticación.",
			})
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthorized",
				"message": "Token inválido o expirado.",
			})
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("userRole", claims.Role)
		c.Set("userName", claims.Name)
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allowed set. Must run
// after Authenticate.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(c *gin.Context) {
		role, exists := c.Get("userRole")
		if !exists || !allowed[role.(models.Role)] {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "forbidden",
				"message": "No tienes permiso para realizar esta acción.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff is shorthand for employee-or-admin routes
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(models.RoleEmployee, models.RoleAdmin)
}
