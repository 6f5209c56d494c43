package services

import (
	"context"
	"errors"
	"testing"

	"github.com/you/buzoku/domain"
	"github.com/you/buzoku/internal/mocks"
)

func TestNotificationServiceImpl_GetCreatesDefaults(t *testing.T) {
	repo := mocks.NewMockNotificationRepository()
	created := false
	repo.GetFunc = func(ctx context.Context, userID uint) (*domain.NotificationPreferences, error) {
		if !created {
			return nil, domain.ErrUserNotFound
		}
		return &domain.NotificationPreferences{UserID: userID, OffersAndPromotions: true, OrdersStatus: true}, nil
	}
	repo.EnsureDefaultsFunc = func(ctx context.Context, userID uint) error {
		created = true
		return nil
	}

	prefs, err := NewNotificationService(repo).Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || prefs.UserID != 3 {
		t.Errorf("expected defaults to be created, got %+v", prefs)
	}
}

func TestNotificationServiceImpl_Update(t *testing.T) {
	off := false
	tests := []struct {
		name      string
		upsertErr error
		wantErr   bool
	}{
		{"partial update", nil, false},
		{"repository failure is wrapped", errors.New("db down"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockNotificationRepository()
			if tt.upsertErr != nil {
				repo.UpsertFunc = func(ctx context.Context, userID uint, update domain.NotificationUpdate) (*domain.NotificationPreferences, error) {
					return nil, tt.upsertErr
				}
			}

			prefs, err := NewNotificationService(repo).Update(context.Background(), 3, domain.NotificationUpdate{OrdersStatus: &off})
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, tt.upsertErr) {
					t.Errorf("expected wrapped cause, got %v", err)
				}
				return
			}
			if prefs.OrdersStatus || !prefs.OffersAndPromotions {
				t.Errorf("unexpected prefs %+v", prefs)
			}
		})
	}
}
