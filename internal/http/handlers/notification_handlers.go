package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/buzoku/domain"
	"github.com/you/buzoku/internal/http/middleware"
	"go.uber.org/zap"
)

// NotificationHandlers serves the caller's notification preferences
type NotificationHandlers struct {
	svc    domain.NotificationService
	logger *zap.Logger
}

// NewNotificationHandlers creates new notification handlers
func NewNotificationHandlers(svc domain.NotificationService, logger *zap.Logger) *NotificationHandlers {
	return &NotificationHandlers{svc: svc, logger: logger}
}

// UpdateNotificationsRequest is a partial preferences update
type UpdateNotificationsRequest struct {
	OffersAndPromotions *bool `json:"offersAndPromotions"`
	OrdersStatus        *bool `json:"ordersStatus"`
}

// Get handles GET /notifications/me
func (h *NotificationHandlers) Get(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	prefs, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, prefs)
}

// Update handles PATCH /notifications/me
func (h *NotificationHandlers) Update(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	var req UpdateNotificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	prefs, err := h.svc.Update(c.Request.Context(), userID, domain.NotificationUpdate{
		OffersAndPromotions: req.OffersAndPromotions,
		OrdersStatus:        req.OrdersStatus,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, prefs)
}
