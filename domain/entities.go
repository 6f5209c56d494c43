package domain

import (
	"strings"
	"time"
)

// Role is a user capability. A user may hold several.
type Role string

const (
	RoleClient Role = "client"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// UserStatus is the account lifecycle state
type UserStatus string

const (
	StatusPending UserStatus = "pending"
	StatusActive  UserStatus = "active"
	StatusBlocked UserStatus = "blocked"
)

// RegistrationType records how the account was first created
type RegistrationType string

const (
	RegistrationPhone    RegistrationType = "phone"
	RegistrationEmail    RegistrationType = "email"
	RegistrationGoogle   RegistrationType = "google"
	RegistrationFacebook RegistrationType = "facebook"
	RegistrationApple    RegistrationType = "apple"
)

// OTPChannel selects the delivery channel for a one-time code
type OTPChannel string

const (
	ChannelSMS   OTPChannel = "sms"
	ChannelEmail OTPChannel = "email"
)

// User represents a user in the system. PasswordHash is only populated by
// the repository lookups that explicitly ask for it.
type User struct {
	ID               uint
	Phone            string
	Email            string
	PasswordHash     string
	Roles            []Role
	Status           UserStatus
	PhoneVerifiedAt  *time.Time
	EmailVerifiedAt  *time.Time
	LastLoginAt      *time.Time
	Metadata         map[string]string
	RegistrationType RegistrationType
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasRole reports whether the user holds role r
func (u *User) HasRole(r Role) bool {
	for _, role := range u.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// RoleNames returns the roles as plain strings, defaulting to client
func (u *User) RoleNames() []string {
	if len(u.Roles) == 0 {
		return []string{string(RoleClient)}
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, string(r))
	}
	return names
}

// AuthTokens is the token pair handed back to clients
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// OTPIssue describes a freshly cached one-time code
type OTPIssue struct {
	Identity   string
	Channel    OTPChannel
	TTLSeconds int64
	ExpiresAt  time.Time
}

// RegisterInput carries password registration data
type RegisterInput struct {
	Phone    string
	Password string
	Email    string
}

// OTPDelivery reports the outcome of the OTP triggered by registration.
// A failed delivery does not fail the registration itself.
type OTPDelivery struct {
	Sent  bool   `json:"sent"`
	TTL   int64  `json:"ttl,omitempty"`
	Error string `json:"error,omitempty"`
}

// RegisterResult represents registration outcome
type RegisterResult struct {
	UserID  uint
	Created bool
	Message string
	OTP     OTPDelivery
}

// NotificationPreferences are the per-user notification toggles
type NotificationPreferences struct {
	UserID              uint `json:"userId"`
	OffersAndPromotions bool `json:"offersAndPromotions"`
	OrdersStatus        bool `json:"ordersStatus"`
}

// NotificationUpdate is a partial update; nil fields are left untouched
type NotificationUpdate struct {
	OffersAndPromotions *bool
	OrdersStatus        *bool
}

// SMSResult carries the gateway response of an SMS dispatch
type SMSResult struct {
	Success     bool
	MessageSIDs []string
	Gateway     string
}

// MailMessage is an outgoing email. Either Text or HTML must be set.
type MailMessage struct {
	To      []string
	Subject string
	Text    string
	HTML    string
	From    string
}

// PolicySubject is the casbin subject for a role name
func PolicySubject(role string) string {
	if strings.HasPrefix(role, "role_") {
		return role
	}
	return "role_" + role
}
