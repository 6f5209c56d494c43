package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/you/buzoku/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags).
// Phone and email are nullable so the unique indexes allow many empty rows.
type DBUser struct {
	ID               uint              `gorm:"primaryKey"`
	Phone            *string           `gorm:"uniqueIndex;size:32"`
	Email            *string           `gorm:"uniqueIndex;size:255"`
	PasswordHash     string            `gorm:"column:password"`
	Roles            []string          `gorm:"serializer:json"`
	Status           string            `gorm:"index;size:16;default:pending"`
	PhoneVerifiedAt  *time.Time
	EmailVerifiedAt  *time.Time
	LastLoginAt      *time.Time
	Metadata         map[string]string `gorm:"serializer:json"`
	RegistrationType string            `gorm:"size:16;default:phone"`
	CreatedAt        time.Time         `gorm:"index"`
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := domainToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		return err
	}
	user.ID = dbUser.ID
	user.Status = domain.UserStatus(dbUser.Status)
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return r.first(ctx, false, "id = ?", id)
}

// FindByPhone implements domain.UserRepository
func (r *UserRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.first(ctx, false, "phone = ?", phone)
}

// FindByEmail implements domain.UserRepository
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, false, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// FindByPhoneWithPassword implements domain.UserRepository
func (r *UserRepositoryImpl) FindByPhoneWithPassword(ctx context.Context, phone string) (*domain.User, error) {
	return r.first(ctx, true, "phone = ?", phone)
}

// FindByIDWithPassword implements domain.UserRepository
func (r *UserRepositoryImpl) FindByIDWithPassword(ctx context.Context, id uint) (*domain.User, error) {
	return r.first(ctx, true, "id = ?", id)
}

func (r *UserRepositoryImpl) first(ctx context.Context, withPassword bool, query string, args ...interface{}) (*domain.User, error) {
	q := r.db.WithContext(ctx)
	if !withPassword {
		q = q.Omit("password")
	}

	var dbUser DBUser
	if err := q.Where(query, args...).First(&dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return dbToDomain(&dbUser), nil
}

// SetPasswordHash implements domain.UserRepository
func (r *UserRepositoryImpl) SetPasswordHash(ctx context.Context, userID uint, hash string) error {
	return r.update(ctx, userID, map[string]interface{}{"password": hash})
}

// UpdateEmail implements domain.UserRepository
func (r *UserRepositoryImpl) UpdateEmail(ctx context.Context, userID uint, email string) error {
	return r.update(ctx, userID, map[string]interface{}{"email": nullable(strings.ToLower(strings.TrimSpace(email)))})
}

// MarkPhoneVerified stamps the phone verification and activates the account.
// Blocked accounts stay blocked.
func (r *UserRepositoryImpl) MarkPhoneVerified(ctx context.Context, userID uint) error {
	return r.update(ctx, userID, map[string]interface{}{
		"phone_verified_at": time.Now().UTC(),
		"status":            activateUnlessBlocked(),
	})
}

// MarkEmailVerified stamps the email verification and activates the account.
// Blocked accounts stay blocked.
func (r *UserRepositoryImpl) MarkEmailVerified(ctx context.Context, userID uint) error {
	return r.update(ctx, userID, map[string]interface{}{
		"email_verified_at": time.Now().UTC(),
		"status":            activateUnlessBlocked(),
	})
}

// SetLastLogin implements domain.UserRepository
func (r *UserRepositoryImpl) SetLastLogin(ctx context.Context, userID uint) error {
	return r.update(ctx, userID, map[string]interface{}{"last_login_at": time.Now().UTC()})
}

// ActivateIfClient moves a pending account holding the client role to active
func (r *UserRepositoryImpl) ActivateIfClient(ctx context.Context, userID uint) error {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasRole(domain.RoleClient) || user.Status != domain.StatusPending {
		return nil
	}
	return r.SetStatus(ctx, userID, domain.StatusActive)
}

// SetStatus implements domain.UserRepository
func (r *UserRepositoryImpl) SetStatus(ctx context.Context, userID uint, status domain.UserStatus) error {
	return r.update(ctx, userID, map[string]interface{}{"status": string(status)})
}

func (r *UserRepositoryImpl) update(ctx context.Context, userID uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func activateUnlessBlocked() clause.Expr {
	return gorm.Expr("CASE WHEN status = ? THEN status ELSE ? END", string(domain.StatusBlocked), string(domain.StatusActive))
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func domainToDB(user *domain.User) *DBUser {
	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, string(role))
	}
	if len(roles) == 0 {
		roles = []string{string(domain.RoleClient)}
	}
	status := string(user.Status)
	if status == "" {
		status = string(domain.StatusPending)
	}
	regType := string(user.RegistrationType)
	if regType == "" {
		regType = string(domain.RegistrationPhone)
	}
	return &DBUser{
		ID:               user.ID,
		Phone:            nullable(user.Phone),
		Email:            nullable(strings.ToLower(strings.TrimSpace(user.Email))),
		PasswordHash:     user.PasswordHash,
		Roles:            roles,
		Status:           status,
		PhoneVerifiedAt:  user.PhoneVerifiedAt,
		EmailVerifiedAt:  user.EmailVerifiedAt,
		LastLoginAt:      user.LastLoginAt,
		Metadata:         user.Metadata,
		RegistrationType: regType,
	}
}

func dbToDomain(dbUser *DBUser) *domain.User {
	roles := make([]domain.Role, 0, len(dbUser.Roles))
	for _, role := range dbUser.Roles {
		roles = append(roles, domain.Role(role))
	}
	return &domain.User{
		ID:               dbUser.ID,
		Phone:            deref(dbUser.Phone),
		Email:            deref(dbUser.Email),
		PasswordHash:     dbUser.PasswordHash,
		Roles:            roles,
		Status:           domain.UserStatus(dbUser.Status),
		PhoneVerifiedAt:  dbUser.PhoneVerifiedAt,
		EmailVerifiedAt:  dbUser.EmailVerifiedAt,
		LastLoginAt:      dbUser.LastLoginAt,
		Metadata:         dbUser.Metadata,
		RegistrationType: domain.RegistrationType(dbUser.RegistrationType),
		CreatedAt:        dbUser.CreatedAt,
		UpdatedAt:        dbUser.UpdatedAt,
	}
}
