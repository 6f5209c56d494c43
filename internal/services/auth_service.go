package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/you/buzoku/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// AuthConfig holds auth flow settings
type AuthConfig struct {
	MinPasswordLength int
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo     domain.UserRepository
	notifRepo    domain.NotificationRepository
	refreshStore domain.RefreshTokenStore
	passwordSvc  domain.PasswordService
	tokenSvc     domain.TokenService
	otpSvc       domain.OTPService
	audit        domain.AuditLogger
	config       AuthConfig
	logger       *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	notifRepo domain.NotificationRepository,
	refreshStore domain.RefreshTokenStore,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	otpSvc domain.OTPService,
	audit domain.AuditLogger,
	config AuthConfig,
	logger *zap.Logger,
) domain.AuthService {
	if config.MinPasswordLength <= 0 {
		config.MinPasswordLength = 8
	}
	return &AuthServiceImpl{
		userRepo:     userRepo,
		notifRepo:    notifRepo,
		refreshStore: refreshStore,
		passwordSvc:  passwordSvc,
		tokenSvc:     tokenSvc,
		otpSvc:       otpSvc,
		audit:        audit,
		config:       config,
		logger:       logger.Named("auth"),
	}
}

// IssuePhoneOTP implements domain.AuthService
func (s *AuthServiceImpl) IssuePhoneOTP(ctx context.Context, phone string) (*domain.OTPIssue, error) {
	issue, err := s.otpSvc.Issue(ctx, domain.ChannelSMS, phone)
	s.recordIssue(ctx, domain.NewAuditEvent(domain.OTPIssuedEvent, 0).WithPhone(phone), err)
	return issue, err
}

// IssueEmailOTP implements domain.AuthService
func (s *AuthServiceImpl) IssueEmailOTP(ctx context.Context, email string) (*domain.OTPIssue, error) {
	issue, err := s.otpSvc.Issue(ctx, domain.ChannelEmail, email)
	s.recordIssue(ctx, domain.NewAuditEvent(domain.OTPIssuedEvent, 0).WithEmail(email), err)
	return issue, err
}

func (s *AuthServiceImpl) recordIssue(ctx context.Context, ev *domain.AuditEvent, err error) {
	if err != nil {
		ev.EventType = domain.OTPIssueFailureEvent
		ev.WithError(err)
	}
	s.emit(ctx, ev)
}

// VerifyPhoneOTP implements domain.AuthService
func (s *AuthServiceImpl) VerifyPhoneOTP(ctx context.Context, phone, code string) (*domain.AuthTokens, error) {
	ctx, span := tracer.Start(ctx, "auth.verify_phone_otp")
	defer span.End()

	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if err := s.otpSvc.Consume(ctx, phone, code); err != nil {
		span.SetStatus(codes.Error, "otp rejected")
		s.emit(ctx, domain.NewAuditEvent(domain.OTPVerifyFailedEvent, 0).WithPhone(phone).WithError(err))
		return nil, err
	}

	user, err := s.findOrCreate(ctx,
		func() (*domain.User, error) { return s.userRepo.FindByPhone(ctx, phone) },
		&domain.User{Phone: phone, RegistrationType: domain.RegistrationPhone},
	)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))

	return s.completeVerification(ctx, user, s.userRepo.MarkPhoneVerified,
		domain.NewAuditEvent(domain.OTPVerifiedEvent, user.ID).WithPhone(phone))
}

// VerifyEmailOTP implements domain.AuthService
func (s *AuthServiceImpl) VerifyEmailOTP(ctx context.Context, email, code string) (*domain.AuthTokens, error) {
	ctx, span := tracer.Start(ctx, "auth.verify_email_otp")
	defer span.End()

	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.otpSvc.Consume(ctx, email, code); err != nil {
		span.SetStatus(codes.Error, "otp rejected")
		s.emit(ctx, domain.NewAuditEvent(domain.OTPVerifyFailedEvent, 0).WithEmail(email).WithError(err))
		return nil, err
	}

	user, err := s.findOrCreate(ctx,
		func() (*domain.User, error) { return s.userRepo.FindByEmail(ctx, email) },
		&domain.User{Email: email, RegistrationType: domain.RegistrationEmail},
	)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))

	return s.completeVerification(ctx, user, s.userRepo.MarkEmailVerified,
		domain.NewAuditEvent(domain.OTPVerifiedEvent, user.ID).WithEmail(email))
}

// completeVerification issues tokens for a freshly verified identity, then
// applies the secondary account updates without failing the login
func (s *AuthServiceImpl) completeVerification(
	ctx context.Context,
	user *domain.User,
	markVerified func(context.Context, uint) error,
	ev *domain.AuditEvent,
) (*domain.AuthTokens, error) {
	if user.Status == domain.StatusBlocked {
		s.emit(ctx, ev.WithError(domain.ErrUserInactive))
		return nil, domain.ErrUserInactive
	}

	tokens, err := s.issueTokens(ctx, user.ID, user.RoleNames())
	if err != nil {
		return nil, err
	}

	s.bestEffort("mark verified", user.ID, markVerified(ctx, user.ID))
	s.bestEffort("set last login", user.ID, s.userRepo.SetLastLogin(ctx, user.ID))
	s.bestEffort("activate client", user.ID, s.userRepo.ActivateIfClient(ctx, user.ID))

	s.emit(ctx, ev)
	return tokens, nil
}

// findOrCreate returns the existing user or creates seed. A concurrent
// create of the same identity is resolved by looking up once more.
func (s *AuthServiceImpl) findOrCreate(ctx context.Context, find func() (*domain.User, error), seed *domain.User) (*domain.User, error) {
	user, err := find()
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	seed.Roles = []domain.Role{domain.RoleClient}
	seed.Status = domain.StatusPending
	if err := s.userRepo.Create(ctx, seed); err != nil {
		if again, findErr := find(); findErr == nil {
			return again, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.initNotifications(ctx, seed.ID)
	s.emit(ctx, domain.NewAuditEvent(domain.UserProvisionedByOTP, seed.ID).
		WithPhone(seed.Phone).WithEmail(seed.Email).
		WithMetadata("registration_type", string(seed.RegistrationType)))
	return seed, nil
}

// Register implements domain.AuthService. Delivery of the follow-up OTP
// is optional: its failure is reported in the result, not returned.
func (s *AuthServiceImpl) Register(ctx context.Context, in domain.RegisterInput) (*domain.RegisterResult, error) {
	ctx, span := tracer.Start(ctx, "auth.register")
	defer span.End()

	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	var email string
	if in.Email != "" {
		if email, err = NormalizeEmail(in.Email); err != nil {
			return nil, err
		}
	}
	if err := s.checkPassword(in.Password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByPhoneWithPassword(ctx, phone)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil && existing.PasswordHash != "" {
		return nil, domain.ErrUserAlreadyRegistered
	}

	hash, err := s.passwordSvc.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	result := &domain.RegisterResult{}
	if existing != nil {
		if err := s.userRepo.SetPasswordHash(ctx, existing.ID, hash); err != nil {
			return nil, fmt.Errorf("failed to set password: %w", err)
		}
		if email != "" && email != existing.Email {
			if err := s.userRepo.UpdateEmail(ctx, existing.ID, email); err != nil {
				return nil, fmt.Errorf("failed to update email: %w", err)
			}
		}
		result.UserID = existing.ID
		result.Message = "Password set. Please verify phone before login."
	} else {
		user := &domain.User{
			Phone:            phone,
			Email:            email,
			PasswordHash:     hash,
			Roles:            []domain.Role{domain.RoleClient},
			Status:           domain.StatusPending,
			RegistrationType: domain.RegistrationPhone,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		s.initNotifications(ctx, user.ID)
		result.UserID = user.ID
		result.Created = true
		result.Message = "Registered. Please verify phone before login."
	}

	issue, err := s.otpSvc.Issue(ctx, domain.ChannelSMS, phone)
	if err != nil {
		s.logger.Warn("registration otp not sent", zap.Uint("user_id", result.UserID), zap.Error(err))
		result.OTP = domain.OTPDelivery{Sent: false, Error: err.Error()}
	} else {
		result.OTP = domain.OTPDelivery{Sent: true, TTL: issue.TTLSeconds}
	}

	s.emit(ctx, domain.NewAuditEvent(domain.UserRegistrationEvent, result.UserID).
		WithPhone(phone).WithEmail(email).
		WithMetadata("created", result.Created).
		WithMetadata("otp_sent", result.OTP.Sent))
	return result, nil
}

// Login implements domain.AuthService. The password is checked before the
// account state so unknown callers cannot probe account status.
func (s *AuthServiceImpl) Login(ctx context.Context, phone, password string) (*domain.AuthTokens, error) {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer span.End()

	fail := func(userID uint, err error) (*domain.AuthTokens, error) {
		span.SetStatus(codes.Error, err.Error())
		s.emit(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, userID).WithPhone(phone).WithError(err))
		return nil, err
	}

	user, err := s.userRepo.FindByPhoneWithPassword(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fail(0, domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		return fail(user.ID, domain.ErrInvalidCredentials)
	}
	if user.Status != domain.StatusActive {
		return fail(user.ID, domain.ErrUserInactive)
	}
	if user.PhoneVerifiedAt == nil {
		return fail(user.ID, domain.ErrPhoneNotVerified)
	}

	tokens, err := s.issueTokens(ctx, user.ID, user.RoleNames())
	if err != nil {
		return nil, err
	}
	s.bestEffort("set last login", user.ID, s.userRepo.SetLastLogin(ctx, user.ID))

	s.emit(ctx, domain.NewAuditEvent(domain.UserLoginEvent, user.ID).WithPhone(phone))
	return tokens, nil
}

// Refresh implements domain.AuthService. Only the most recently issued
// refresh token of a user is accepted.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.AuthTokens, error) {
	ctx, span := tracer.Start(ctx, "auth.refresh")
	defer span.End()

	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	stored, err := s.refreshStore.Get(ctx, claims.UserID)
	if err != nil && !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if stored == "" || stored != refreshToken {
		span.SetStatus(codes.Error, "revoked")
		s.emit(ctx, domain.NewAuditEvent(domain.TokenRefreshDenied, claims.UserID).WithError(domain.ErrRefreshTokenRevoked))
		return nil, domain.ErrRefreshTokenRevoked
	}

	tokens, err := s.issueTokens(ctx, claims.UserID, claims.Roles)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.NewAuditEvent(domain.TokenRefreshEvent, claims.UserID))
	return tokens, nil
}

// Logout implements domain.AuthService
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if err := s.Revoke(ctx, claims.UserID); err != nil {
		return err
	}
	s.emit(ctx, domain.NewAuditEvent(domain.UserLogoutEvent, claims.UserID))
	return nil
}

// Revoke implements domain.AuthService
func (s *AuthServiceImpl) Revoke(ctx context.Context, userID uint) error {
	if err := s.refreshStore.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// ResetPassword implements domain.AuthService
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, userID uint, newPassword string) error {
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.FindByIDWithPassword(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	s.bestEffort("revoke after reset", user.ID, s.Revoke(ctx, user.ID))

	s.emit(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, user.ID))
	return nil
}

// Profile implements domain.AuthService
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// Block implements domain.AuthService
func (s *AuthServiceImpl) Block(ctx context.Context, userID uint) error {
	if err := s.userRepo.SetStatus(ctx, userID, domain.StatusBlocked); err != nil {
		return err
	}
	if err := s.Revoke(ctx, userID); err != nil {
		return err
	}
	s.emit(ctx, domain.NewAuditEvent(domain.UserBlockedEvent, userID))
	return nil
}

// issueTokens mints a token pair and makes its refresh token the only
// valid one for the user
func (s *AuthServiceImpl) issueTokens(ctx context.Context, userID uint, roles []string) (*domain.AuthTokens, error) {
	access, err := s.tokenSvc.GenerateAccessToken(userID, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.tokenSvc.GenerateRefreshToken(userID, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.refreshStore.Save(ctx, userID, refresh, s.tokenSvc.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &domain.AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokenSvc.AccessTTL().Seconds()),
	}, nil
}

func (s *AuthServiceImpl) checkPassword(password string) error {
	switch {
	case password == "":
		return domain.ErrPasswordRequired
	case len(password) < s.config.MinPasswordLength:
		return domain.ErrPasswordTooShort
	}
	return nil
}

func (s *AuthServiceImpl) initNotifications(ctx context.Context, userID uint) {
	if s.notifRepo == nil {
		return
	}
	s.bestEffort("init notification preferences", userID, s.notifRepo.EnsureDefaults(ctx, userID))
}

func (s *AuthServiceImpl) bestEffort(op string, userID uint, err error) {
	if err != nil {
		s.logger.Warn(op+" failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (s *AuthServiceImpl) emit(ctx context.Context, ev *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, ev); err != nil {
		s.logger.Warn("audit log failed", zap.String("event", string(ev.EventType)), zap.Error(err))
	}
}
