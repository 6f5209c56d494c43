package mocks

import (
	"context"
	"sync"

	"github.com/you/buzoku/domain"
)

// MockSMSSender captures outgoing SMS for testing
type MockSMSSender struct {
	SendSMSFunc func(ctx context.Context, to []string, message string) (*domain.SMSResult, error)

	mu       sync.Mutex
	Messages []SentMessage
}

// SentMessage is one captured SMS or email
type SentMessage struct {
	To   []string
	Body string
}

var _ domain.SMSSender = (*MockSMSSender)(nil)

// NewMockSMSSender creates a new MockSMSSender
func NewMockSMSSender() *MockSMSSender {
	return &MockSMSSender{}
}

func (m *MockSMSSender) SendSMS(ctx context.Context, to []string, message string) (*domain.SMSResult, error) {
	m.mu.Lock()
	m.Messages = append(m.Messages, SentMessage{To: to, Body: message})
	m.mu.Unlock()
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, to, message)
	}
	return &domain.SMSResult{Success: true, Gateway: "mock"}, nil
}

// Last returns the most recent message, or the zero value
func (m *MockSMSSender) Last() SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		return SentMessage{}
	}
	return m.Messages[len(m.Messages)-1]
}

// MockMailer captures outgoing email for testing
type MockMailer struct {
	SendMailFunc func(ctx context.Context, msg *domain.MailMessage) error

	mu   sync.Mutex
	Sent []*domain.MailMessage
}

var _ domain.Mailer = (*MockMailer)(nil)

// NewMockMailer creates a new MockMailer
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) SendMail(ctx context.Context, msg *domain.MailMessage) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, msg)
	m.mu.Unlock()
	if m.SendMailFunc != nil {
		return m.SendMailFunc(ctx, msg)
	}
	return nil
}
