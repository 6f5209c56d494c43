package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/you/buzoku/domain"
	"github.com/you/buzoku/internal/mocks"
)

// Shows the override pattern: leave defaults in place, swap in a Func
// field only where a test needs different behavior.
func TestMockUsageExample(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*mocks.MockUserRepository)
		wantError error
	}{
		{
			name:      "default lookup is not found",
			setup:     func(*mocks.MockUserRepository) {},
			wantError: domain.ErrUserNotFound,
		},
		{
			name: "override returns a user",
			setup: func(repo *mocks.MockUserRepository) {
				repo.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.User, error) {
					return &domain.User{ID: 9, Phone: phone}, nil
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockUserRepository()
			tt.setup(repo)

			_, err := repo.FindByPhone(context.Background(), "+15551234567")
			if !errors.Is(err, tt.wantError) {
				t.Errorf("expected %v, got %v", tt.wantError, err)
			}
		})
	}
}

func TestMockTokenService_RoundTrip(t *testing.T) {
	svc := mocks.NewMockTokenService()
	refresh, _ := svc.GenerateRefreshToken(3, []string{"client", "vendor"})

	claims, err := svc.ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != 3 || len(claims.Roles) != 2 {
		t.Errorf("unexpected claims %+v", claims)
	}
	if _, err := svc.ValidateAccessToken(refresh); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("refresh token must not validate as access, got %v", err)
	}
}

func TestMockCasbinEnforcer_Matching(t *testing.T) {
	e := mocks.NewMockCasbinEnforcer()

	tests := []struct {
		sub, obj, act string
		allowed       bool
	}{
		{"role_admin", "/admin/users/1/block", "POST", true},
		{"role_client", "/notifications/me", "PATCH", true},
		{"role_client", "/admin/policies", "GET", false},
	}
	for _, tt := range tests {
		if ok, _ := e.Enforce(tt.sub, tt.obj, tt.act); ok != tt.allowed {
			t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.sub, tt.obj, tt.act, ok, tt.allowed)
		}
	}
}
