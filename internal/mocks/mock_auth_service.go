package mocks

import (
	"context"
	"time"

	"github.com/you/buzoku/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	IssuePhoneOTPFunc  func(ctx context.Context, phone string) (*domain.OTPIssue, error)
	IssueEmailOTPFunc  func(ctx context.Context, email string) (*domain.OTPIssue, error)
	VerifyPhoneOTPFunc func(ctx context.Context, phone, code string) (*domain.AuthTokens, error)
	VerifyEmailOTPFunc func(ctx context.Context, email, code string) (*domain.AuthTokens, error)
	RegisterFunc       func(ctx context.Context, in domain.RegisterInput) (*domain.RegisterResult, error)
	LoginFunc          func(ctx context.Context, phone, password string) (*domain.AuthTokens, error)
	RefreshFunc        func(ctx context.Context, refreshToken string) (*domain.AuthTokens, error)
	LogoutFunc         func(ctx context.Context, refreshToken string) error
	RevokeFunc         func(ctx context.Context, userID uint) error
	ResetPasswordFunc  func(ctx context.Context, userID uint, newPassword string) error
	ProfileFunc        func(ctx context.Context, userID uint) (*domain.User, error)
	BlockFunc          func(ctx context.Context, userID uint) error
}

var _ domain.AuthService = (*MockAuthService)(nil)

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func mockTokens() *domain.AuthTokens {
	return &domain.AuthTokens{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}
}

func (m *MockAuthService) IssuePhoneOTP(ctx context.Context, phone string) (*domain.OTPIssue, error) {
	if m.IssuePhoneOTPFunc != nil {
		return m.IssuePhoneOTPFunc(ctx, phone)
	}
	return &domain.OTPIssue{Identity: phone, Channel: domain.ChannelSMS, TTLSeconds: 300, ExpiresAt: time.Now().Add(5 * time.Minute)}, nil
}

func (m *MockAuthService) IssueEmailOTP(ctx context.Context, email string) (*domain.OTPIssue, error) {
	if m.IssueEmailOTPFunc != nil {
		return m.IssueEmailOTPFunc(ctx, email)
	}
	return &domain.OTPIssue{Identity: email, Channel: domain.ChannelEmail, TTLSeconds: 300, ExpiresAt: time.Now().Add(5 * time.Minute)}, nil
}

func (m *MockAuthService) VerifyPhoneOTP(ctx context.Context, phone, code string) (*domain.AuthTokens, error) {
	if m.VerifyPhoneOTPFunc != nil {
		return m.VerifyPhoneOTPFunc(ctx, phone, code)
	}
	return mockTokens(), nil
}

func (m *MockAuthService) VerifyEmailOTP(ctx context.Context, email, code string) (*domain.AuthTokens, error) {
	if m.VerifyEmailOTPFunc != nil {
		return m.VerifyEmailOTPFunc(ctx, email, code)
	}
	return mockTokens(), nil
}

func (m *MockAuthService) Register(ctx context.Context, in domain.RegisterInput) (*domain.RegisterResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	return &domain.RegisterResult{
		UserID:  1,
		Created: true,
		Message: "Registered. Please verify phone before login.",
		OTP:     domain.OTPDelivery{Sent: true, TTL: 300},
	}, nil
}

func (m *MockAuthService) Login(ctx context.Context, phone, password string) (*domain.AuthTokens, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, phone, password)
	}
	return mockTokens(), nil
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthTokens, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return mockTokens(), nil
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshToken)
	}
	return nil
}

func (m *MockAuthService) Revoke(ctx context.Context, userID uint) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, userID)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, userID uint, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, userID, newPassword)
	}
	return nil
}

func (m *MockAuthService) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, userID)
	}
	return &domain.User{ID: userID, Phone: "+15551234567", Roles: []domain.Role{domain.RoleClient}, Status: domain.StatusActive}, nil
}

func (m *MockAuthService) Block(ctx context.Context, userID uint) error {
	if m.BlockFunc != nil {
		return m.BlockFunc(ctx, userID)
	}
	return nil
}
