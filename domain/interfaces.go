package domain

import (
	"context"
	"time"
)

// UserRepository defines user data access operations. Lookups without the
// WithPassword suffix never load the password hash.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhoneWithPassword(ctx context.Context, phone string) (*User, error)
	FindByIDWithPassword(ctx context.Context, id uint) (*User, error)
	SetPasswordHash(ctx context.Context, userID uint, hash string) error
	UpdateEmail(ctx context.Context, userID uint, email string) error
	MarkPhoneVerified(ctx context.Context, userID uint) error
	MarkEmailVerified(ctx context.Context, userID uint) error
	SetLastLogin(ctx context.Context, userID uint) error
	ActivateIfClient(ctx context.Context, userID uint) error
	SetStatus(ctx context.Context, userID uint, status UserStatus) error
}

// NotificationRepository defines notification preference persistence
type NotificationRepository interface {
	Get(ctx context.Context, userID uint) (*NotificationPreferences, error)
	EnsureDefaults(ctx context.Context, userID uint) error
	Upsert(ctx context.Context, userID uint, update NotificationUpdate) (*NotificationPreferences, error)
}

// Cache is the ephemeral key-value store for codes, counters and refresh
// tokens. Get returns ErrCacheMiss when the key is absent.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// RefreshTokenStore holds the single live refresh token of each user.
//
// Save overwrites whatever was stored before, so a user has at most one
// valid refresh token at any time. Concurrent saves for the same user are
// last-writer-wins; the client holding the losing token fails its next
// refresh. Multiple parallel sessions per user are not supported.
type RefreshTokenStore interface {
	Save(ctx context.Context, userID uint, token string, ttl time.Duration) error
	Get(ctx context.Context, userID uint) (string, error)
	Delete(ctx context.Context, userID uint) error
}

// AuthService defines authentication business logic
type AuthService interface {
	IssuePhoneOTP(ctx context.Context, phone string) (*OTPIssue, error)
	IssueEmailOTP(ctx context.Context, email string) (*OTPIssue, error)
	VerifyPhoneOTP(ctx context.Context, phone, code string) (*AuthTokens, error)
	VerifyEmailOTP(ctx context.Context, email, code string) (*AuthTokens, error)
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	Login(ctx context.Context, phone, password string) (*AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	Revoke(ctx context.Context, userID uint) error
	ResetPassword(ctx context.Context, userID uint, newPassword string) error
	Profile(ctx context.Context, userID uint) (*User, error)
	Block(ctx context.Context, userID uint) error
}

// OTPService defines OTP operations
type OTPService interface {
	Issue(ctx context.Context, channel OTPChannel, identity string) (*OTPIssue, error)
	Consume(ctx context.Context, identity, code string) error
}

// NotificationService defines notification preference operations
type NotificationService interface {
	Get(ctx context.Context, userID uint) (*NotificationPreferences, error)
	Update(ctx context.Context, userID uint, update NotificationUpdate) (*NotificationPreferences, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(userID uint, roles []string) (string, error)
	GenerateRefreshToken(userID uint, roles []string) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// SMSSender delivers text messages to phone numbers
type SMSSender interface {
	SendSMS(ctx context.Context, to []string, message string) (*SMSResult, error)
}

// Mailer delivers email
type Mailer interface {
	SendMail(ctx context.Context, msg *MailMessage) error
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    uint     `json:"sub"`
	Roles     []string `json:"roles"`
	TokenType string   `json:"typ"`
	ID        string   `json:"jti"`
	IssuedAt  int64    `json:"iat"`
	ExpiresAt int64    `json:"exp"`
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
