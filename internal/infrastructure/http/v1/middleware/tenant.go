package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/tenant"
)

const HeaderTenantID = "X-Tenant-ID"

// TenantClaims are the token claims this service cares about. Authentication
// itself is owned by an external identity service; this core only verifies
// the signature and extracts the tenant the caller belongs to.
type TenantClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// TenantResolver resolves the caller's tenant and stores it in the request
// context. Resolution order:
//
//  1. Bearer token signed with the shared secret, tenant_id claim
//  2. X-Tenant-ID header, accepted only when allowHeader is set (dev mode)
//
// Requests without a resolvable tenant are rejected before reaching any
// handler; every store operation requires a tenant scope.
func TenantResolver(secret []byte, allowHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := resolveTenant(c, secret, allowHeader)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := tenant.WithTenantID(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("tenant_id", tenantID)

		c.Next()
	}
}

func resolveTenant(c *gin.Context, secret []byte, allowHeader bool) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", apperror.NewUnauthorized("invalid authorization header format")
		}

		claims := &TenantClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return "", apperror.NewUnauthorized("invalid token")
		}
		if claims.TenantID == "" {
			return "", apperror.NewUnauthorized("token carries no tenant")
		}
		return claims.TenantID, nil
	}

	if allowHeader {
		if tid := c.GetHeader(HeaderTenantID); tid != "" {
			return tid, nil
		}
	}

	return "", apperror.NewUnauthorized("missing authorization")
}
