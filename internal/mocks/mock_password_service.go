package mocks

import "github.com/you/buzoku/domain"

// MockPasswordService implements domain.PasswordService for testing. The
// default hash is "hashed_" + password.
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool

	HashCalls int
}

var _ domain.PasswordService = (*MockPasswordService)(nil)

// NewMockPasswordService creates a new MockPasswordService with default behaviors
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

func (m *MockPasswordService) Hash(password string) (string, error) {
	m.HashCalls++
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return hashedPassword != "" && hashedPassword == "hashed_"+password
}
