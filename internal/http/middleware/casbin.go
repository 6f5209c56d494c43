package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/buzoku/domain"
	"go.uber.org/zap"
)

// CasbinMW checks the caller's roles against the casbin policy for the
// request path and method
type CasbinMW struct {
	policies domain.PolicyService
	audit    domain.AuditLogger
	logger   *zap.Logger
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(policies domain.PolicyService, audit domain.AuditLogger, logger *zap.Logger) *CasbinMW {
	return &CasbinMW{policies: policies, audit: audit, logger: logger}
}

// Enforce allows the request when any of the caller's roles is permitted.
// It must run after AuthMW.WithJWT.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		roles := CurrentRoles(c)
		if !ok || len(roles) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID or role not found in token"})
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method

		for _, role := range roles {
			allowed, err := mw.policies.CheckPermission(role, path, method)
			if err != nil {
				mw.logger.Error("authorization check failed", zap.String("role", role), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
				return
			}
			if allowed {
				c.Next()
				return
			}
		}

		ev := domain.NewAuditEvent(domain.AccessDeniedEvent, userID).
			WithError(domain.ErrInsufficientRole).
			WithMetadata("path", path).
			WithMetadata("method", method)
		if err := mw.audit.LogEvent(c.Request.Context(), ev); err != nil {
			mw.logger.Warn("audit log failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
	}
}
