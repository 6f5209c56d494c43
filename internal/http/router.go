package httpx

import (
	"github.com/gin-gonic/gin"
	"github.com/you/buzoku/internal/http/handlers"
	"github.com/you/buzoku/internal/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth          *handlers.AuthHandlers
	Users         *handlers.UserHandlers
	Notifications *handlers.NotificationHandlers
	Policies      *handlers.PolicyHandlers
	Health        *handlers.HealthHandlers
}

func BuildRouter(h Handlers, jwtmw *middleware.AuthMW, cb *middleware.CasbinMW, limiter *middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)

	auth := r.Group("/auth", limiter.Handler())
	auth.POST("/otp/issue", h.Auth.IssuePhoneOTP)
	auth.POST("/otp/verify", h.Auth.VerifyPhoneOTP)
	auth.POST("/otp/email/issue", h.Auth.IssueEmailOTP)
	auth.POST("/otp/email/verify", h.Auth.VerifyEmailOTP)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	v := r.Group("/", jwtmw.WithJWT(), cb.Enforce())
	v.POST("/auth/reset-password", h.Auth.ResetPassword)
	v.GET("/users/me", h.Users.Me)
	v.GET("/notifications/me", h.Notifications.Get)
	v.PATCH("/notifications/me", h.Notifications.Update)

	adm := r.Group("/admin", jwtmw.WithJWT(), cb.Enforce())
	adm.GET("/policies", h.Policies.List)
	adm.POST("/policies", h.Policies.Add)
	adm.DELETE("/policies", h.Policies.Remove)
	adm.POST("/users/:id/block", h.Users.Block)

	return r
}
