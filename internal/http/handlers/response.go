package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/you/buzoku/domain"
	"github.com/you/buzoku/internal/services"
	"go.uber.org/zap"
)

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// statusFor maps domain errors to HTTP status codes and client messages.
// Unknown errors map to 500 with a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidOTPFormat),
		errors.Is(err, domain.ErrPasswordRequired),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, services.ErrInvalidPolicy):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrOTPNotFound):
		return http.StatusBadRequest, "OTP expired or not found"
	case errors.Is(err, domain.ErrOTPRateLimited):
		return http.StatusTooManyRequests, domain.ErrOTPRateLimited.Error()
	case errors.Is(err, domain.ErrOTPMaxAttempts):
		return http.StatusTooManyRequests, domain.ErrOTPMaxAttempts.Error()
	case errors.Is(err, domain.ErrOTPInvalid),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrRefreshTokenRevoked),
		errors.Is(err, domain.ErrRefreshTokenNotFound),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrUserInactive),
		errors.Is(err, domain.ErrPhoneNotVerified),
		errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrUserAlreadyRegistered):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrOTPDeliveryFailed):
		return http.StatusBadGateway, domain.ErrOTPDeliveryFailed.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// respondError writes the error envelope for err. Server errors are logged
// and their details withheld from the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, msg := statusFor(err)

	var retry *domain.RetryAfterError
	if errors.As(err, &retry) && retry.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.RetryAfter.Seconds()))))
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": msg})
}
