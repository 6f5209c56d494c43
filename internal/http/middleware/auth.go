package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/buzoku/domain"
)

const (
	userIDKey    = "user_id"
	userRolesKey = "user_roles"
)

// AuthMW validates bearer access tokens
type AuthMW struct {
	tokenSvc domain.TokenService
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(tokenSvc domain.TokenService) *AuthMW {
	return &AuthMW{tokenSvc: tokenSvc}
}

// WithJWT rejects requests without a valid access token and stores the
// caller's id and roles on the gin context
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := mw.tokenSvc.ValidateAccessToken(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, domain.ErrTokenExpired) {
				msg = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		roles := claims.Roles
		if len(roles) == 0 {
			roles = []string{string(domain.RoleClient)}
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(userRolesKey, roles)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by WithJWT
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentRoles returns the authenticated user's roles set by WithJWT
func CurrentRoles(c *gin.Context) []string {
	roles, _ := c.Get(userRolesKey)
	out, _ := roles.([]string)
	return out
}
