package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yml"

type AppConfig struct {
	Port         int    `yaml:"port"`
	Env          string `yaml:"env"`
	GinMode      string `yaml:"gin_mode"`
	RateLimitRPM int    `yaml:"rate_limit_rpm"`
}

type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Debug bool   `yaml:"debug"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
}

type OTPConfig struct {
	TTL               string `yaml:"ttl"`
	RateLimit         int    `yaml:"rate_limit"`
	RateWindow        string `yaml:"rate_window"`
	MaxVerifyAttempts *int   `yaml:"max_verify_attempts"`
}

type PasswordConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`
	MinLength  int `yaml:"min_length"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// ConfigFile mirrors config.yml
type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	OTP       OTPConfig       `yaml:"otp"`
	Password  PasswordConfig  `yaml:"password"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Mail      MailConfig      `yaml:"mail"`
	Casbin    CasbinConfig    `yaml:"casbin"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Config is the resolved runtime configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTSettings
	OTP       OTPSettings
	Password  PasswordConfig
	Twilio    TwilioConfig
	Mail      MailConfig
	Casbin    CasbinConfig
	Telemetry TelemetryConfig
}

type JWTSettings struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type OTPSettings struct {
	TTL               time.Duration
	RateLimit         int
	RateWindow        time.Duration
	MaxVerifyAttempts int
}

// Addr is the HTTP listen address
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.App.Port) }

// IsDevelopment reports whether development logging and defaults apply
func (c *Config) IsDevelopment() bool { return c.App.Env == "development" }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Load reads .env, then the YAML file at $CONFIG_PATH (optional), then
// applies environment overrides and defaults.
func Load() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	file, err := loadConfigFile(env("CONFIG_PATH", defaultConfigPath))
	if err != nil {
		return nil, err
	}
	return Resolve(file)
}

func loadConfigFile(path string) (*ConfigFile, error) {
	var file ConfigFile
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &file, nil
		}
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}
	if err := yaml.Unmarshal(bytes, &file); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}
	return &file, nil
}

// Resolve applies environment overrides and defaults to file and validates
// the result
func Resolve(file *ConfigFile) (*Config, error) {
	f := *file

	f.App.Port = envInt("PORT", orInt(f.App.Port, 8080))
	f.App.Env = env("APP_ENV", orStr(f.App.Env, "production"))
	f.App.GinMode = env("GIN_MODE", orStr(f.App.GinMode, "release"))
	f.App.RateLimitRPM = envInt("RATE_LIMIT_RPM", orInt(f.App.RateLimitRPM, 120))

	f.Database.DSN = env("DATABASE_DSN", f.Database.DSN)
	f.Database.Debug = envBool("DATABASE_DEBUG", f.Database.Debug)

	f.Redis.Addr = env("REDIS_ADDR", orStr(f.Redis.Addr, "localhost:6379"))
	f.Redis.Password = env("REDIS_PASSWORD", f.Redis.Password)
	f.Redis.DB = envInt("REDIS_DB", f.Redis.DB)

	f.JWT.Secret = env("JWT_SECRET", f.JWT.Secret)
	f.JWT.Issuer = env("JWT_ISSUER", orStr(f.JWT.Issuer, "buzoku"))
	f.JWT.AccessTTL = env("JWT_ACCESS_TTL", orStr(f.JWT.AccessTTL, "15m"))
	f.JWT.RefreshTTL = env("JWT_REFRESH_TTL", orStr(f.JWT.RefreshTTL, "168h"))

	f.OTP.TTL = env("OTP_TTL", orStr(f.OTP.TTL, "5m"))
	f.OTP.RateLimit = envInt("OTP_RATE_LIMIT", orInt(f.OTP.RateLimit, 5))
	f.OTP.RateWindow = env("OTP_RATE_WINDOW", orStr(f.OTP.RateWindow, "1h"))
	maxAttempts := 5
	if f.OTP.MaxVerifyAttempts != nil {
		maxAttempts = *f.OTP.MaxVerifyAttempts
	}
	maxAttempts = envInt("OTP_MAX_VERIFY_ATTEMPTS", maxAttempts)

	f.Password.BcryptCost = envInt("BCRYPT_COST", orInt(f.Password.BcryptCost, 10))
	f.Password.MinLength = orInt(f.Password.MinLength, 8)

	f.Twilio.AccountSID = env("TWILIO_ACCOUNT_SID", f.Twilio.AccountSID)
	f.Twilio.AuthToken = env("TWILIO_AUTH_TOKEN", f.Twilio.AuthToken)
	f.Twilio.FromNumber = env("TWILIO_FROM_NUMBER", f.Twilio.FromNumber)

	f.Mail.Host = env("MAIL_HOST", f.Mail.Host)
	f.Mail.Port = envInt("MAIL_PORT", orInt(f.Mail.Port, 465))
	f.Mail.Username = env("MAIL_USER", f.Mail.Username)
	f.Mail.Password = env("MAIL_PASS", f.Mail.Password)
	f.Mail.From = env("MAIL_FROM", orStr(f.Mail.From, f.Mail.Username))

	f.Casbin.ModelPath = env("CASBIN_MODEL_PATH", f.Casbin.ModelPath)

	f.Telemetry.Endpoint = env("OTEL_EXPORTER_OTLP_ENDPOINT", f.Telemetry.Endpoint)
	f.Telemetry.Insecure = envBool("OTEL_EXPORTER_OTLP_INSECURE", f.Telemetry.Insecure)
	f.Telemetry.ServiceName = env("OTEL_SERVICE_NAME", orStr(f.Telemetry.ServiceName, "buzoku"))

	accTTL, err := time.ParseDuration(f.JWT.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT access TTL: %w", err)
	}
	refTTL, err := time.ParseDuration(f.JWT.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT refresh TTL: %w", err)
	}
	otpTTL, err := time.ParseDuration(f.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}
	rateWnd, err := time.ParseDuration(f.OTP.RateWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP rate window: %w", err)
	}

	cfg := &Config{
		App:      f.App,
		Database: f.Database,
		Redis:    f.Redis,
		JWT: JWTSettings{
			Secret:     f.JWT.Secret,
			Issuer:     f.JWT.Issuer,
			AccessTTL:  accTTL,
			RefreshTTL: refTTL,
		},
		OTP: OTPSettings{
			TTL:               otpTTL,
			RateLimit:         f.OTP.RateLimit,
			RateWindow:        rateWnd,
			MaxVerifyAttempts: maxAttempts,
		},
		Password:  f.Password,
		Twilio:    f.Twilio,
		Mail:      f.Mail,
		Casbin:    f.Casbin,
		Telemetry: f.Telemetry,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt secret is required (JWT_SECRET)"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is required (DATABASE_DSN)"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt lifetimes must be positive"))
	}
	if c.OTP.TTL <= 0 || c.OTP.RateWindow <= 0 {
		errs = append(errs, errors.New("otp ttl and rate window must be positive"))
	}
	if c.OTP.RateLimit < 1 {
		errs = append(errs, errors.New("otp rate limit must be at least 1"))
	}
	if c.OTP.MaxVerifyAttempts < 0 {
		errs = append(errs, errors.New("otp max verify attempts cannot be negative"))
	}
	return errors.Join(errs...)
}

func orStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
