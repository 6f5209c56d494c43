package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/you/buzoku/domain"
	"github.com/you/buzoku/internal/infrastructure/database"
	"github.com/you/buzoku/internal/mocks"
	"go.uber.org/zap"
)

var sentCodePattern = regexp.MustCompile(`code is (\d{4})`)

// testOTPConfig is the OTP configuration used across service tests
func testOTPConfig() OTPConfig {
	return OTPConfig{
		TTL:               5 * time.Minute,
		RateLimit:         5,
		RateWindow:        time.Hour,
		MaxVerifyAttempts: 5,
	}
}

// otpFixture bundles an OTP service on miniredis with captured deliveries
type otpFixture struct {
	svc    domain.OTPService
	mr     *miniredis.Miniredis
	cache  *database.RedisClient
	sms    *mocks.MockSMSSender
	mailer *mocks.MockMailer
}

func newOTPFixture(t *testing.T, cfg OTPConfig) *otpFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := database.NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	sms := mocks.NewMockSMSSender()
	mailer := mocks.NewMockMailer()
	return &otpFixture{
		svc:    NewOTPService(sms, mailer, cache, cfg, zap.NewNop()),
		mr:     mr,
		cache:  cache,
		sms:    sms,
		mailer: mailer,
	}
}

// sentCode extracts the code from a delivered message body
func sentCode(t *testing.T, body string) string {
	t.Helper()
	m := sentCodePattern.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no code in message %q", body)
	}
	return m[1]
}

// authFixture wires AuthServiceImpl to mocks
type authFixture struct {
	svc      domain.AuthService
	users    *mocks.MockUserRepository
	notifs   *mocks.MockNotificationRepository
	refresh  *mocks.MockRefreshTokenStore
	password *mocks.MockPasswordService
	tokens   *mocks.MockTokenService
	otp      *mocks.MockOTPService
	audit    *mocks.MockAuditLogger
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    mocks.NewMockUserRepository(),
		notifs:   mocks.NewMockNotificationRepository(),
		refresh:  mocks.NewMockRefreshTokenStore(),
		password: mocks.NewMockPasswordService(),
		tokens:   mocks.NewMockTokenService(),
		otp:      mocks.NewMockOTPService(),
		audit:    mocks.NewMockAuditLogger(),
	}
	f.svc = NewAuthService(f.users, f.notifs, f.refresh, f.password, f.tokens, f.otp, f.audit, AuthConfig{}, zap.NewNop())
	return f
}

// activeUser returns a verified, active client with password "password123"
func activeUser() *domain.User {
	now := time.Now().Add(-time.Hour)
	return &domain.User{
		ID:              1,
		Phone:           "+15551234567",
		PasswordHash:    "hashed_password123",
		Roles:           []domain.Role{domain.RoleClient},
		Status:          domain.StatusActive,
		PhoneVerifiedAt: &now,
	}
}
