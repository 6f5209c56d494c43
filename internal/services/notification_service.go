package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/you/buzoku/domain"
)

// NotificationServiceImpl implements domain.NotificationService
type NotificationServiceImpl struct {
	repo domain.NotificationRepository
}

// NewNotificationService creates a new notification preference service
func NewNotificationService(repo domain.NotificationRepository) domain.NotificationService {
	return &NotificationServiceImpl{repo: repo}
}

// Get returns the preferences of userID, creating the defaults row on first read
func (s *NotificationServiceImpl) Get(ctx context.Context, userID uint) (*domain.NotificationPreferences, error) {
	prefs, err := s.repo.Get(ctx, userID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to load notification preferences: %w", err)
	}

	if err := s.repo.EnsureDefaults(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to create notification preferences: %w", err)
	}
	return s.repo.Get(ctx, userID)
}

// Update implements domain.NotificationService
func (s *NotificationServiceImpl) Update(ctx context.Context, userID uint, update domain.NotificationUpdate) (*domain.NotificationPreferences, error) {
	prefs, err := s.repo.Upsert(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update notification preferences: %w", err)
	}
	return prefs, nil
}
