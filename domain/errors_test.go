package domain

import (
	"errors"
	"testing"
)

func allDomainErrors() []error {
	return []error{
		ErrInvalidPhone, ErrInvalidEmail, ErrInvalidOTPFormat, ErrPasswordRequired, ErrPasswordTooShort,
		ErrUserNotFound, ErrInvalidCredentials, ErrUserAlreadyRegistered, ErrUserInactive, ErrPhoneNotVerified,
		ErrOTPNotFound, ErrOTPInvalid, ErrOTPMaxAttempts, ErrOTPRateLimited, ErrOTPDeliveryFailed,
		ErrTokenInvalid, ErrTokenExpired, ErrTokenMalformed, ErrRefreshTokenRevoked, ErrRefreshTokenNotFound,
		ErrCacheMiss, ErrUnauthorized, ErrInsufficientRole,
	}
}

func TestErrorHandlingBestPractices(t *testing.T) {
	t.Run("all errors have lowercase messages without trailing punctuation", func(t *testing.T) {
		for _, err := range allDomainErrors() {
			msg := err.Error()
			if msg == "" {
				t.Errorf("domain error should have non-empty message: %v", err)
				continue
			}
			if msg[0] >= 'A' && msg[0] <= 'Z' {
				t.Errorf("error message should start with lowercase letter: %s", msg)
			}
			if last := msg[len(msg)-1]; last == '.' || last == '!' {
				t.Errorf("error message should not end with punctuation: %s", msg)
			}
		}
	})

	t.Run("errors are distinct", func(t *testing.T) {
		seen := make(map[string]bool)
		for _, err := range allDomainErrors() {
			if seen[err.Error()] {
				t.Errorf("duplicate error message found: %s", err)
			}
			seen[err.Error()] = true
		}
	})
}

func TestErrorWrapping(t *testing.T) {
	tests := []struct {
		err    error
		target error
		should bool
	}{
		{ErrUserNotFound, ErrUserNotFound, true},
		{ErrUserNotFound, ErrInvalidCredentials, false},
		{ErrOTPNotFound, ErrOTPInvalid, false},
		{&RetryAfterError{Err: ErrOTPRateLimited}, ErrOTPRateLimited, true},
	}

	for _, tc := range tests {
		if errors.Is(tc.err, tc.target) != tc.should {
			t.Errorf("errors.Is(%v, %v) should be %t", tc.err, tc.target, tc.should)
		}
	}
}
