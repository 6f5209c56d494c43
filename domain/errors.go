package domain

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors
var (
	ErrInvalidPhone     = errors.New("phone must be in E.164 format (eg. +15551234567)")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidOTPFormat = errors.New("code must be a 4-digit number")
	ErrPasswordRequired = errors.New("new password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

// Authentication errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserAlreadyRegistered = errors.New("user already registered, use login or reset password")
	ErrUserInactive          = errors.New("user is not active")
	ErrPhoneNotVerified      = errors.New("phone number not verified")
)

// OTP errors
var (
	ErrOTPNotFound       = errors.New("otp expired or not found")
	ErrOTPInvalid        = errors.New("invalid otp code")
	ErrOTPMaxAttempts    = errors.New("maximum otp attempts exceeded")
	ErrOTPRateLimited    = errors.New("exceeded max otp requests, try later")
	ErrOTPDeliveryFailed = errors.New("failed to send otp")
)

// Token errors
var (
	ErrTokenInvalid         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenMalformed       = errors.New("malformed token")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked or mismatched")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

// Cache errors
var (
	ErrCacheMiss = errors.New("cache miss")
)

// Authorization errors
var (
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrInsufficientRole = errors.New("insufficient role permissions")
)

// RetryAfterError decorates a throttling error with the time left in the window
type RetryAfterError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%v (retry in %ds)", e.Err, int64(e.RetryAfter.Seconds()))
}

func (e *RetryAfterError) Unwrap() error { return e.Err }
