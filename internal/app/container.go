package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/you/buzoku/domain"
	"github.com/you/buzoku/internal/config"
	httpx "github.com/you/buzoku/internal/http"
	"github.com/you/buzoku/internal/http/handlers"
	"github.com/you/buzoku/internal/http/middleware"
	"github.com/you/buzoku/internal/infrastructure/auth"
	"github.com/you/buzoku/internal/infrastructure/database"
	"github.com/you/buzoku/internal/infrastructure/notifications"
	"github.com/you/buzoku/internal/infrastructure/repositories"
	"github.com/you/buzoku/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB     *gorm.DB
	Redis  *database.RedisClient
	Casbin *auth.CasbinService
	SMS    domain.SMSSender
	Mailer domain.Mailer

	// Repositories
	UserRepo         domain.UserRepository
	NotificationRepo domain.NotificationRepository
	RefreshStore     domain.RefreshTokenStore

	// Services
	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	OTPSvc          domain.OTPService
	AuthSvc         domain.AuthService
	NotificationSvc domain.NotificationService
	PolicySvc       domain.PolicyService
	Audit           domain.AuditLogger

	Router *gin.Engine
}

// Option overrides a collaborator before wiring
type Option func(*Container)

// WithSMSSender replaces the Twilio sender
func WithSMSSender(s domain.SMSSender) Option {
	return func(c *Container) { c.SMS = s }
}

// WithMailer replaces the SMTP mailer
func WithMailer(m domain.Mailer) Option {
	return func(c *Container) { c.Mailer = m }
}

// NewContainer connects to the stores, migrates, seeds the default policies
// and wires every service and handler
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initDatabase(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initCasbin(); err != nil {
		c.Close()
		return nil, err
	}
	c.initDelivery()
	c.initRepositories()
	c.initServices()
	c.initRouter()

	return c, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.Database.DSN, c.Config.Database.Debug)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	c.DB = db
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	c.Redis = database.NewRedis(c.Config.Redis.Addr, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := c.Redis.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (c *Container) initCasbin() error {
	cas, err := auth.NewCasbinService(c.DB, c.Config.Casbin.ModelPath)
	if err != nil {
		return err
	}
	if err := cas.SeedDefaults(c.Logger); err != nil {
		return fmt.Errorf("seed casbin policies: %w", err)
	}
	c.Casbin = cas
	return nil
}

func (c *Container) initDelivery() {
	if c.SMS == nil {
		tw := c.Config.Twilio
		c.SMS = notifications.NewTwilioService(tw.AccountSID, tw.AuthToken, tw.FromNumber, c.Logger)
	}
	if c.Mailer == nil {
		m := c.Config.Mail
		c.Mailer = notifications.NewSMTPMailer(notifications.SMTPConfig{
			Host:     m.Host,
			Port:     m.Port,
			Username: m.Username,
			Password: m.Password,
			From:     m.From,
		}, c.Logger)
	}
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.NotificationRepo = repositories.NewNotificationRepository(c.DB)
	c.RefreshStore = repositories.NewRefreshTokenRepository(c.Redis)
}

func (c *Container) initServices() {
	cfg := c.Config

	c.Audit = services.NewAuditLogger(c.Logger)
	c.PasswordSvc = auth.NewPasswordService(cfg.Password.BcryptCost)
	c.TokenSvc = auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	c.OTPSvc = services.NewOTPService(c.SMS, c.Mailer, c.Redis, services.OTPConfig{
		TTL:               cfg.OTP.TTL,
		RateLimit:         cfg.OTP.RateLimit,
		RateWindow:        cfg.OTP.RateWindow,
		MaxVerifyAttempts: cfg.OTP.MaxVerifyAttempts,
	}, c.Logger)
	c.AuthSvc = services.NewAuthService(
		c.UserRepo,
		c.NotificationRepo,
		c.RefreshStore,
		c.PasswordSvc,
		c.TokenSvc,
		c.OTPSvc,
		c.Audit,
		services.AuthConfig{MinPasswordLength: cfg.Password.MinLength},
		c.Logger,
	)
	c.NotificationSvc = services.NewNotificationService(c.NotificationRepo)
	c.PolicySvc = services.NewPolicyService(services.NewCasbinEnforcerWrapper(c.Casbin.E), c.Logger)
}

func (c *Container) initRouter() {
	h := httpx.Handlers{
		Auth:          handlers.NewAuthHandlers(c.AuthSvc, c.Logger),
		Users:         handlers.NewUserHandlers(c.AuthSvc, c.Logger),
		Notifications: handlers.NewNotificationHandlers(c.NotificationSvc, c.Logger),
		Policies:      handlers.NewPolicyHandlers(c.PolicySvc, c.Logger),
		Health: handlers.NewHealthHandlers(map[string]handlers.Pinger{
			"database": database.SQLPinger{DB: c.DB},
			"redis":    c.Redis,
		}),
	}
	c.Router = httpx.BuildRouter(
		h,
		middleware.NewAuthMW(c.TokenSvc),
		middleware.NewCasbinMW(c.PolicySvc, c.Audit, c.Logger),
		middleware.NewRateLimiter(c.Config.App.RateLimitRPM),
		c.Logger,
	)
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
