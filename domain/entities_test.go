package domain

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestUser_HasRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []Role
		check    Role
		expected bool
	}{
		{"client holds client", []Role{RoleClient}, RoleClient, true},
		{"client is not admin", []Role{RoleClient}, RoleAdmin, false},
		{"multi-role vendor", []Role{RoleClient, RoleVendor}, RoleVendor, true},
		{"no roles", nil, RoleClient, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Roles: tt.roles}
			if got := u.HasRole(tt.check); got != tt.expected {
				t.Errorf("HasRole(%s) = %v, want %v", tt.check, got, tt.expected)
			}
		})
	}
}

func TestUser_RoleNames(t *testing.T) {
	tests := []struct {
		name     string
		roles    []Role
		expected []string
	}{
		{"defaults to client", nil, []string{"client"}},
		{"keeps order", []Role{RoleAdmin, RoleClient}, []string{"admin", "client"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Roles: tt.roles}
			if got := u.RoleNames(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("RoleNames() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAuditEvent_Builders(t *testing.T) {
	cc := &ClientContext{IPAddress: "10.0.0.1", UserAgent: "curl/8", RequestID: "req-1"}
	ev := NewAuditEvent(UserLoginFailureEvent, 7).
		WithPhone("+15551234567").
		WithClientContext(cc).
		WithMetadata("reason", "password").
		WithError(ErrInvalidCredentials)

	if ev.Success {
		t.Error("event with error should not be successful")
	}
	if ev.ErrorMsg != ErrInvalidCredentials.Error() {
		t.Errorf("ErrorMsg = %q", ev.ErrorMsg)
	}
	if ev.IPAddress != "10.0.0.1" || ev.RequestID != "req-1" {
		t.Errorf("client context not copied: %+v", ev)
	}
	if ev.Metadata["reason"] != "password" {
		t.Errorf("metadata not set: %v", ev.Metadata)
	}
	if time.Since(ev.Timestamp) > time.Minute {
		t.Errorf("timestamp should be recent, got %v", ev.Timestamp)
	}
}

func TestClientContext_RoundTrip(t *testing.T) {
	ctx := WithClientContext(context.Background(), &ClientContext{RequestID: "abc"})
	if cc := ClientContextFrom(ctx); cc == nil || cc.RequestID != "abc" {
		t.Errorf("ClientContextFrom() = %+v", cc)
	}
	if cc := ClientContextFrom(context.Background()); cc != nil {
		t.Errorf("expected nil client context, got %+v", cc)
	}
}

func TestRetryAfterError(t *testing.T) {
	err := &RetryAfterError{Err: ErrOTPRateLimited, RetryAfter: 90 * time.Second}

	if !errors.Is(err, ErrOTPRateLimited) {
		t.Error("RetryAfterError should unwrap to the throttling error")
	}
	var ra *RetryAfterError
	if !errors.As(err, &ra) || ra.RetryAfter != 90*time.Second {
		t.Errorf("errors.As failed: %+v", ra)
	}
	if want := "exceeded max otp requests, try later (retry in 90s)"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
