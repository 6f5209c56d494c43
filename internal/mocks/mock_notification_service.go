package mocks

import (
	"context"

	"github.com/you/buzoku/domain"
)

// MockNotificationService implements domain.NotificationService for testing
type MockNotificationService struct {
	GetFunc    func(ctx context.Context, userID uint) (*domain.NotificationPreferences, error)
	UpdateFunc func(ctx context.Context, userID uint, update domain.NotificationUpdate) (*domain.NotificationPreferences, error)
}

var _ domain.NotificationService = (*MockNotificationService)(nil)

// NewMockNotificationService creates a new MockNotificationService
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) Get(ctx context.Context, userID uint) (*domain.NotificationPreferences, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return &domain.NotificationPreferences{UserID: userID, OffersAndPromotions: true, OrdersStatus: true}, nil
}

func (m *MockNotificationService) Update(ctx context.Context, userID uint, update domain.NotificationUpdate) (*domain.NotificationPreferences, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, update)
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
