package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/you/buzoku/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var (
	e164Pattern  = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	codePattern  = regexp.MustCompile(`^\d{4}$`)
)

var tracer = otel.Tracer("github.com/you/buzoku/internal/services")

// OTPServiceImpl implements domain.OTPService on the cache
type OTPServiceImpl struct {
	sms    domain.SMSSender
	mailer domain.Mailer
	cache  domain.Cache
	config OTPConfig
	logger *zap.Logger
}

// OTPConfig tunes code lifetime and throttling. MaxVerifyAttempts of 0
// disables the per-code attempt ceiling.
type OTPConfig struct {
	TTL               time.Duration
	RateLimit         int
	RateWindow        time.Duration
	MaxVerifyAttempts int
}

// NewOTPService creates a new cache-backed OTP service
func NewOTPService(sms domain.SMSSender, mailer domain.Mailer, cache domain.Cache, config OTPConfig, logger *zap.Logger) domain.OTPService {
	return &OTPServiceImpl{
		sms:    sms,
		mailer: mailer,
		cache:  cache,
		config: config,
		logger: logger.Named("otp"),
	}
}

func otpKey(identity string) string      { return "otp:" + identity }
func attemptsKey(identity string) string { return "otp:att:" + identity }
func rateKey(identity string) string     { return "otp:rate:" + identity }

// NormalizePhone validates an E.164 phone number
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if !e164Pattern.MatchString(phone) {
		return "", domain.ErrInvalidPhone
	}
	return phone, nil
}

// NormalizeEmail trims, lower-cases and validates an email address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func normalizeIdentity(channel domain.OTPChannel, identity string) (string, error) {
	if channel == domain.ChannelEmail {
		return NormalizeEmail(identity)
	}
	return NormalizePhone(identity)
}

// Issue implements domain.OTPService
func (s *OTPServiceImpl) Issue(ctx context.Context, channel domain.OTPChannel, identity string) (*domain.OTPIssue, error) {
	ctx, span := tracer.Start(ctx, "otp.issue")
	defer span.End()
	span.SetAttributes(attribute.String("otp.channel", string(channel)))

	identity, err := normalizeIdentity(channel, identity)
	if err != nil {
		return nil, err
	}

	if err := s.checkRate(ctx, identity); err != nil {
		span.SetStatus(codes.Error, "rate limited")
		return nil, err
	}

	code := strconv.Itoa(1000 + rand.Intn(9000))
	if err := s.cache.Set(ctx, otpKey(identity), code, s.config.TTL); err != nil {
		return nil, fmt.Errorf("failed to store OTP: %w", err)
	}
	if err := s.cache.Del(ctx, attemptsKey(identity)); err != nil {
		return nil, fmt.Errorf("failed to reset OTP attempts: %w", err)
	}

	// the code stays cached when delivery fails; it simply expires
	if err := s.deliver(ctx, channel, identity, code); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		s.logger.Warn("otp delivery failed", zap.String("channel", string(channel)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrOTPDeliveryFailed, err)
	}

	return &domain.OTPIssue{
		Identity:   identity,
		Channel:    channel,
		TTLSeconds: int64(s.config.TTL.Seconds()),
		ExpiresAt:  time.Now().Add(s.config.TTL),
	}, nil
}

// checkRate applies the fixed-window issuance counter
func (s *OTPServiceImpl) checkRate(ctx context.Context, identity string) error {
	key := rateKey(identity)
	count, err := s.cache.Incr(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to increment OTP rate counter: %w", err)
	}
	if count == 1 {
		if err := s.cache.Expire(ctx, key, s.config.RateWindow); err != nil {
			return fmt.Errorf("failed to set OTP rate window: %w", err)
		}
	}
	if count <= int64(s.config.RateLimit) {
		return nil
	}

	retry, err := s.cache.TTL(ctx, key)
	if err != nil || retry <= 0 {
		// a counter without expiry would block the identity forever
		_ = s.cache.Expire(ctx, key, s.config.RateWindow)
		retry = s.config.RateWindow
	}
	return &domain.RetryAfterError{Err: domain.ErrOTPRateLimited, RetryAfter: retry}
}

func (s *OTPServiceImpl) deliver(ctx context.Context, channel domain.OTPChannel, identity, code string) error {
	minutes := int(s.config.TTL.Minutes())
	text := fmt.Sprintf("Your verification code is %s. It will expire in %d minutes.", code, minutes)

	if channel == domain.ChannelEmail {
		return s.mailer.SendMail(ctx, &domain.MailMessage{
			To:      []string{identity},
			Subject: "Your verification code",
			Text:    text,
			HTML:    fmt.Sprintf("<p>Your verification code is <b>%s</b>.<br/>It will expire in %d minutes.</p>", code, minutes),
		})
	}

	res, err := s.sms.SendSMS(ctx, []string{identity}, text)
	if err != nil {
		return err
	}
	if res != nil && !res.Success {
		return errors.New("sms gateway reported failure")
	}
	return nil
}

// Consume implements domain.OTPService. A matching code is deleted so it
// cannot be used twice.
func (s *OTPServiceImpl) Consume(ctx context.Context, identity, code string) error {
	ctx, span := tracer.Start(ctx, "otp.consume")
	defer span.End()

	if !codePattern.MatchString(code) {
		return domain.ErrInvalidOTPFormat
	}

	stored, err := s.cache.Get(ctx, otpKey(identity))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return domain.ErrOTPNotFound
		}
		return fmt.Errorf("failed to read OTP: %w", err)
	}

	if s.config.MaxVerifyAttempts > 0 {
		attempts, err := s.cache.Incr(ctx, attemptsKey(identity))
		if err != nil {
			return fmt.Errorf("failed to increment OTP attempts: %w", err)
		}
		if attempts == 1 {
			_ = s.cache.Expire(ctx, attemptsKey(identity), s.config.TTL)
		}
		if attempts > int64(s.config.MaxVerifyAttempts) {
			_ = s.cache.Del(ctx, otpKey(identity), attemptsKey(identity))
			span.SetStatus(codes.Error, "max attempts")
			return domain.ErrOTPMaxAttempts
		}
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return domain.ErrOTPInvalid
	}

	if err := s.cache.Del(ctx, otpKey(identity), attemptsKey(identity)); err != nil {
		return fmt.Errorf("failed to consume OTP: %w", err)
	}
	return nil
}
