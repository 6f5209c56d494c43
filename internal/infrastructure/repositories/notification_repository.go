package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/buzoku/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepositoryImpl implements domain.NotificationRepository using GORM
type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// DBNotificationPreferences is the per-user notification row
type DBNotificationPreferences struct {
	ID                  uint `gorm:"primaryKey"`
	UserID              uint `gorm:"uniqueIndex;not null"`
	OffersAndPromotions bool `gorm:"not null;default:true"`
	OrdersStatus        bool `gorm:"not null;default:true"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName returns the table name for GORM
func (DBNotificationPreferences) TableName() string {
	return "notification_preferences"
}

// NewNotificationRepository creates a new notification preference repository
func NewNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

// Get implements domain.NotificationRepository
func (r *NotificationRepositoryImpl) Get(ctx context.Context, userID uint) (*domain.NotificationPreferences, error) {
	var row DBNotificationPreferences
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// EnsureDefaults inserts the default row unless one already exists
func (r *NotificationRepositoryImpl) EnsureDefaults(ctx context.Context, userID uint) error {
	row := DBNotificationPreferences{UserID: userID, OffersAndPromotions: true, OrdersStatus: true}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&row).Error
}

// Upsert applies the non-nil fields of update, creating the row if needed
func (r *NotificationRepositoryImpl) Upsert(ctx context.Context, userID uint, update domain.NotificationUpdate) (*domain.NotificationPreferences, error) {
	if err := r.EnsureDefaults(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.OffersAndPromotions != nil {
		fields["offers_and_promotions"] = *update.OffersAndPromotions
	}
	if update.OrdersStatus != nil {
		fields["orders_status"] = *update.OrdersStatus
	}
	if len(fields) > 0 {
		err := r.db.WithContext(ctx).Model(&DBNotificationPreferences{}).
			Where("user_id = ?", userID).Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, userID)
}

func (p *DBNotificationPreferences) toDomain() *domain.NotificationPreferences {
	return &domain.NotificationPreferences{
		UserID:              p.UserID,
		OffersAndPromotions: p.OffersAndPromotions,
		OrdersStatus:        p.OrdersStatus,
	}
}
