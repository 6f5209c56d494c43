package mocks

import (
	"context"
	"time"

	"github.com/you/buzoku/domain"
)

// MockOTPService implements domain.OTPService interface for testing
type MockOTPService struct {
	IssueFunc   func(ctx context.Context, channel domain.OTPChannel, identity string) (*domain.OTPIssue, error)
	ConsumeFunc func(ctx context.Context, identity, code string) error

	Issued []string
}

var _ domain.OTPService = (*MockOTPService)(nil)

// NewMockOTPService creates a new MockOTPService with default behaviors
func NewMockOTPService() *MockOTPService {
	return &MockOTPService{}
}

func (m *MockOTPService) Issue(ctx context.Context, channel domain.OTPChannel, identity string) (*domain.OTPIssue, error) {
	m.Issued = append(m.Issued, identity)
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, channel, identity)
	}
	return &domain.OTPIssue{
		Identity:   identity,
		Channel:    channel,
		TTLSeconds: 300,
		ExpiresAt:  time.Now().Add(5 * time.Minute),
	}, nil
}

// Consume accepts "1234" by default
func (m *MockOTPService) Consume(ctx context.Context, identity, code string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, identity, code)
	}
	if code != "1234" {
		return domain.ErrOTPInvalid
	}
	return nil
}
