package mocks

import (
	"context"

	"github.com/you/buzoku/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing.
// Unset funcs fall back to "not found" lookups and successful updates.
type MockUserRepository struct {
	CreateFunc                  func(ctx context.Context, user *domain.User) error
	FindByIDFunc                func(ctx context.Context, id uint) (*domain.User, error)
	FindByPhoneFunc             func(ctx context.Context, phone string) (*domain.User, error)
	FindByEmailFunc             func(ctx context.Context, email string) (*domain.User, error)
	FindByPhoneWithPasswordFunc func(ctx context.Context, phone string) (*domain.User, error)
	FindByIDWithPasswordFunc    func(ctx context.Context, id uint) (*domain.User, error)
	SetPasswordHashFunc         func(ctx context.Context, userID uint, hash string) error
	UpdateEmailFunc             func(ctx context.Context, userID uint, email string) error
	MarkPhoneVerifiedFunc       func(ctx context.Context, userID uint) error
	MarkEmailVerifiedFunc       func(ctx context.Context, userID uint) error
	SetLastLoginFunc            func(ctx context.Context, userID uint) error
	ActivateIfClientFunc        func(ctx context.Context, userID uint) error
	SetStatusFunc               func(ctx context.Context, userID uint, status domain.UserStatus) error

	// Calls records the names of invoked update methods
	Calls []string
}

var _ domain.UserRepository = (*MockUserRepository)(nil)

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.Calls = append(m.Calls, "Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	if user.ID == 0 {
		user.ID = 1
	}
	return nil
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) FindByPhoneWithPassword(ctx context.Context, phone string) (*domain.User, error) {
	if m.FindByPhoneWithPasswordFunc != nil {
		return m.FindByPhoneWithPasswordFunc(ctx, phone)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) FindByIDWithPassword(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDWithPasswordFunc != nil {
		return m.FindByIDWithPasswordFunc(ctx, id)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) SetPasswordHash(ctx context.Context, userID uint, hash string) error {
	m.Calls = append(m.Calls, "SetPasswordHash")
	if m.SetPasswordHashFunc != nil {
		return m.SetPasswordHashFunc(ctx, userID, hash)
	}
	return nil
}

func (m *MockUserRepository) UpdateEmail(ctx context.Context, userID uint, email string) error {
	m.Calls = append(m.Calls, "UpdateEmail")
	if m.UpdateEmailFunc != nil {
		return m.UpdateEmailFunc(ctx, userID, email)
	}
	return nil
}

func (m *MockUserRepository) MarkPhoneVerified(ctx context.Context, userID uint) error {
	m.Calls = append(m.Calls, "MarkPhoneVerified")
	if m.MarkPhoneVerifiedFunc != nil {
		return m.MarkPhoneVerifiedFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserRepository) MarkEmailVerified(ctx context.Context, userID uint) error {
	m.Calls = append(m.Calls, "MarkEmailVerified")
	if m.MarkEmailVerifiedFunc != nil {
		return m.MarkEmailVerifiedFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserRepository) SetLastLogin(ctx context.Context, userID uint) error {
	m.Calls = append(m.Calls, "SetLastLogin")
	if m.SetLastLoginFunc != nil {
		return m.SetLastLoginFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserRepository) ActivateIfClient(ctx context.Context, userID uint) error {
	m.Calls = append(m.Calls, "ActivateIfClient")
	if m.ActivateIfClientFunc != nil {
		return m.ActivateIfClientFunc(ctx, userID)
	}
	return nil
}

func (m *MockUserRepository) SetStatus(ctx context.Context, userID uint, status domain.UserStatus) error {
	m.Calls = append(m.Calls, "SetStatus")
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, userID, status)
	}
	return nil
}

// Called reports whether the named method was invoked
func (m *MockUserRepository) Called(name string) bool {
	for _, c := range m.Calls {
		if c == name {
			return true
		}
	}
	return false
}
