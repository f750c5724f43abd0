// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/factory-backend/internal/config"
	"github.com/your-org/factory-backend/internal/pkg/auth"
)

// AuthMiddleware creates JWT authentication middleware
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// Store company information in context
		c.Set("company_id", claims.CompanyID)
		c.Set("company_email", claims.Email)
		c.Set("token_claims", claims)

		c.Next()
	}
}

// TickAuthMiddleware guards the internal tick endpoint with a shared secret.
// Meant for the external scheduler, not for player clients.
func TickAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader("X-Tick-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.Security.TickSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid tick secret",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCompanyIDFromContext extracts the company ID from gin context
func GetCompanyIDFromContext(c *gin.Context) (uint, bool) {
	companyID, exists := c.Get("company_id")
	if !exists {
		return 0, false
	}
	return companyID.(uint), true
}

// GetCompanyEmailFromContext extracts the company email from gin context
func GetCompanyEmailFromContext(c *gin.Context) (string, bool) {
	email, exists := c.Get("company_email")
	if !exists {
		return "", false
	}
	return email.(string), true
}
