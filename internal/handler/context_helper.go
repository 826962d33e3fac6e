package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/commission-api/internal/middleware"
	"github.com/atelier-labs/commission-api/internal/models"
)

// claimsFromContext returns the authenticated caller's claims, or nil when
// the route is reachable without the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	if claims, ok := value.(*models.JWTClaims); ok {
		return claims
	}
	return nil
}
