package mocks

import (
	"context"

	"github.com/you/buzoku/domain"
)

// MockNotificationRepository implements domain.NotificationRepository for testing
type MockNotificationRepository struct {
	GetFunc            func(ctx context.Context, userID uint) (*domain.NotificationPreferences, error)
	EnsureDefaultsFunc func(ctx context.Context, userID uint) error
	UpsertFunc         func(ctx context.Context, userID uint, update domain.NotificationUpdate) (*domain.NotificationPreferences, error)

	EnsuredFor []uint
}

var _ domain.NotificationRepository = (*MockNotificationRepository)(nil)

// NewMockNotificationRepository creates a new MockNotificationRepository
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Get(ctx context.Context, userID uint) (*domain.NotificationPreferences, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return &domain.NotificationPreferences{UserID: userID, OffersAndPromotions: true, OrdersStatus: true}, nil
}

func (m *MockNotificationRepository) EnsureDefaults(ctx context.Context, userID uint) error {
	m.EnsuredFor = append(m.EnsuredFor, userID)
	if m.EnsureDefaultsFunc != nil {
		return m.EnsureDefaultsFunc(ctx, userID)
	}
	return nil
}

func (m *MockNotificationRepository) Upsert(ctx context.Context, userID uint, update domain.NotificationUpdate) (*domain.NotificationPreferences, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, userID, update)
	}
	prefs := &domain.NotificationPreferences{UserID: userID, OffersAndPromotions: true, OrdersStatus: true}
	if update.OffersAndPromotions != nil {
		prefs.OffersAndPromotions = *update.OffersAndPromotions
	}
	if update.OrdersStatus != nil {
		prefs.OrdersStatus = *update.OrdersStatus
	}
	return prefs, nil
}
