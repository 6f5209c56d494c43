package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/buzoku/domain"
	"go.uber.org/zap"
)

// PolicyHandlers manages casbin policies
type PolicyHandlers struct {
	svc    domain.PolicyService
	logger *zap.Logger
}

// NewPolicyHandlers creates new policy handlers
func NewPolicyHandlers(svc domain.PolicyService, logger *zap.Logger) *PolicyHandlers {
	return &PolicyHandlers{svc: svc, logger: logger}
}

// PolicyRequest is one sub, obj, act rule
type PolicyRequest struct {
	Sub string `json:"sub" binding:"required"`
	Obj string `json:"obj" binding:"required"`
	Act string `json:"act" binding:"required"`
}

// List handles GET /admin/policies
func (h *PolicyHandlers) List(c *gin.Context) {
	respond(c, http.StatusOK, h.svc.GetPolicies())
}

// Add handles POST /admin/policies
func (h *PolicyHandlers) Add(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		bindError(c, err)
		return
	}
	if err := h.svc.AddPolicy(r.Sub, r.Obj, r.Act); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove handles DELETE /admin/policies
func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r PolicyRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		bindError(c, err)
		return
	}
	if err := h.svc.RemovePolicy(r.Sub, r.Obj, r.Act); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
