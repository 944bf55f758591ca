package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	"payorch.backend/pkg/jwt"
)

// TenantContextKey is the gin.Context key holding the request's entities.TenantContext.
const TenantContextKey = "tenantContext"

// TenantContextMiddleware reconstructs TenantContext for inbound payment
// traffic. EnhancedAuthenticationService is not reimplemented: the upstream
// gateway has already authenticated the caller, so this middleware only
// rebuilds TenantContext from what the gateway forwards — the X-Tenant-Id
// header, and, when present, a gateway-issued bearer token whose signature
// we verify and whose claims take priority over the plain headers.
func TenantContextMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := entities.TenantContext{
			BusinessUnitID: c.GetHeader("X-Business-Unit-Id"),
			CustomerID:     c.GetHeader("X-Customer-Id"),
		}

		if authHeader := c.GetHeader(AuthorizationHeader); strings.HasPrefix(authHeader, BearerPrefix) {
			tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
			claims, err := jwtService.ValidateTenantToken(tokenString)
			if err != nil {
				status := http.StatusUnauthorized
				msg := "invalid tenant token"
				if err == jwt.ErrExpiredToken {
					msg = "tenant token has expired"
				}
				c.AbortWithStatusJSON(status, gin.H{"error": msg})
				return
			}
			tc.TenantID = claims.TenantID
			if claims.BusinessUnitID != "" {
				tc.BusinessUnitID = claims.BusinessUnitID
			}
			if claims.CustomerID != "" {
				tc.CustomerID = claims.CustomerID
			}
		}

		if tc.TenantID == uuid.Nil {
			if raw := c.GetHeader("X-Tenant-Id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid X-Tenant-Id header"})
					return
				}
				tc.TenantID = id
			}
		}

		if tc.TenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant identity required"})
			return
		}

		c.Set(TenantContextKey, tc)
		c.Next()
	}
}

// GetTenantContext retrieves the TenantContext established by TenantContextMiddleware.
func GetTenantContext(c *gin.Context) (entities.TenantContext, bool) {
	v, exists := c.Get(TenantContextKey)
	if !exists {
		return entities.TenantContext{}, false
	}
	tc, ok := v.(entities.TenantContext)
	return tc, ok
}
