package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/you/buzoku/domain"
	"github.com/you/buzoku/internal/http/middleware"
	"go.uber.org/zap"
)

// AuthHandlers serves the OTP, password and token endpoints
type AuthHandlers struct {
	authSvc domain.AuthService
	logger  *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc, logger: logger}
}

// PhoneOTPIssueRequest represents a phone OTP request
type PhoneOTPIssueRequest struct {
	PhoneE164 string `json:"phoneE164" binding:"required,e164"`
}

// PhoneOTPVerifyRequest represents a phone OTP verification
type PhoneOTPVerifyRequest struct {
	PhoneE164 string `json:"phoneE164" binding:"required,e164"`
	Code      string `json:"code" binding:"required,numeric,len=4"`
}

// EmailOTPIssueRequest represents an email OTP request
type EmailOTPIssueRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// EmailOTPVerifyRequest represents an email OTP verification
type EmailOTPVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,numeric,len=4"`
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	PhoneE164 string `json:"phoneE164" binding:"required,e164"`
	Password  string `json:"password" binding:"required,min=8"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// LoginRequest represents login request
type LoginRequest struct {
	PhoneE164 string `json:"phoneE164" binding:"required,e164"`
	Password  string `json:"password" binding:"required,min=8"`
}

// RefreshRequest carries a refresh token for rotation or logout
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ResetPasswordRequest represents a password change by the signed-in user
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

func issueResponse(issue *domain.OTPIssue) gin.H {
	return gin.H{"success": true, "ttl": issue.TTLSeconds}
}

// IssuePhoneOTP handles POST /auth/otp/issue
func (h *AuthHandlers) IssuePhoneOTP(c *gin.Context) {
	var req PhoneOTPIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	issue, err := h.authSvc.IssuePhoneOTP(c.Request.Context(), req.PhoneE164)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, issueResponse(issue))
}

// VerifyPhoneOTP handles POST /auth/otp/verify
func (h *AuthHandlers) VerifyPhoneOTP(c *gin.Context) {
	var req PhoneOTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := h.authSvc.VerifyPhoneOTP(c.Request.Context(), req.PhoneE164, req.Code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, tokens)
}

// IssueEmailOTP handles POST /auth/otp/email/issue
func (h *AuthHandlers) IssueEmailOTP(c *gin.Context) {
	var req EmailOTPIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	issue, err := h.authSvc.IssueEmailOTP(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, issueResponse(issue))
}

// VerifyEmailOTP handles POST /auth/otp/email/verify
func (h *AuthHandlers) VerifyEmailOTP(c *gin.Context) {
	var req EmailOTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := h.authSvc.VerifyEmailOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, tokens)
}

// Register handles user registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), domain.RegisterInput{
		Phone:    req.PhoneE164,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"otp":     result.OTP,
	})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := h.authSvc.Login(c.Request.Context(), req.PhoneE164, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, tokens)
}

// Refresh rotates the token pair
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, tokens)
}

// Logout revokes the refresh token's session. A token that does not
// validate yields success=false rather than an error status.
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.authSvc.Logout(c.Request.Context(), req.RefreshToken)
	switch {
	case err == nil:
		respond(c, http.StatusOK, gin.H{"success": true})
	case errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenMalformed):
		respond(c, http.StatusOK, gin.H{"success": false})
	default:
		respondError(c, h.logger, err)
	}
}

// ResetPassword sets a new password for the authenticated user
func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.authSvc.ResetPassword(c.Request.Context(), userID, req.Password)
	if errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"success": true, "message": "Password updated successfully."})
}
