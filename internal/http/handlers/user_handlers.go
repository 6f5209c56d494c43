package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/buzoku/domain"
	"github.com/you/buzoku/internal/http/middleware"
	"go.uber.org/zap"
)

// UserHandlers serves the profile and admin user endpoints
type UserHandlers struct {
	authSvc domain.AuthService
	logger  *zap.Logger
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(authSvc domain.AuthService, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{authSvc: authSvc, logger: logger}
}

// PublicUser is the user projection returned to clients
type PublicUser struct {
	ID               uint              `json:"id"`
	Phone            string            `json:"phoneE164,omitempty"`
	Email            string            `json:"email,omitempty"`
	Roles            []string          `json:"roles"`
	Status           string            `json:"status"`
	PhoneVerifiedAt  *time.Time        `json:"phoneVerifiedAt,omitempty"`
	EmailVerifiedAt  *time.Time        `json:"emailVerifiedAt,omitempty"`
	LastLoginAt      *time.Time        `json:"lastLoginAt,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	RegistrationType string            `json:"registrationType"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func toPublicUser(u *domain.User) PublicUser {
	return PublicUser{
		ID:               u.ID,
		Phone:            u.Phone,
		Email:            u.Email,
		Roles:            u.RoleNames(),
		Status:           string(u.Status),
		PhoneVerifiedAt:  u.PhoneVerifiedAt,
		EmailVerifiedAt:  u.EmailVerifiedAt,
		LastLoginAt:      u.LastLoginAt,
		Metadata:         u.Metadata,
		RegistrationType: string(u.RegistrationType),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// Me returns the authenticated user's profile
func (h *UserHandlers) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	user, err := h.authSvc.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, toPublicUser(user))
}

// Block handles POST /admin/users/:id/block
func (h *UserHandlers) Block(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.authSvc.Block(c.Request.Context(), uint(id)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"success": true})
}
