package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/buzoku/domain"
)

// MockRefreshTokenStore is an in-memory domain.RefreshTokenStore. Func
// fields override the map-backed defaults.
type MockRefreshTokenStore struct {
	SaveFunc   func(ctx context.Context, userID uint, token string, ttl time.Duration) error
	GetFunc    func(ctx context.Context, userID uint) (string, error)
	DeleteFunc func(ctx context.Context, userID uint) error

	mu     sync.Mutex
	tokens map[uint]string
}

var _ domain.RefreshTokenStore = (*MockRefreshTokenStore)(nil)

// NewMockRefreshTokenStore creates an empty store
func NewMockRefreshTokenStore() *MockRefreshTokenStore {
	return &MockRefreshTokenStore{tokens: make(map[uint]string)}
}

func (m *MockRefreshTokenStore) Save(ctx context.Context, userID uint, token string, ttl time.Duration) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, userID, token, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = token
	return nil
}

func (m *MockRefreshTokenStore) Get(ctx context.Context, userID uint) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[userID]
	if !ok {
		return "", domain.ErrRefreshTokenNotFound
	}
	return tok, nil
}

func (m *MockRefreshTokenStore) Delete(ctx context.Context, userID uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}
