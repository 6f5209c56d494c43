package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
app:
  port: 9090
  env: development
database:
  dsn: "sqlite:file::memory:"
jwt:
  secret: from-file
  access_ttl: 10m
otp:
  ttl: 2m
  max_verify_attempts: 0
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleYAML))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"port from file", cfg.App.Port, 9090},
		{"development env", cfg.IsDevelopment(), true},
		{"secret from file", cfg.JWT.Secret, "from-file"},
		{"access ttl from file", cfg.JWT.AccessTTL, 10 * time.Minute},
		{"refresh ttl default", cfg.JWT.RefreshTTL, 7 * 24 * time.Hour},
		{"otp ttl from file", cfg.OTP.TTL, 2 * time.Minute},
		{"otp rate limit default", cfg.OTP.RateLimit, 5},
		{"otp rate window default", cfg.OTP.RateWindow, time.Hour},
		{"explicit zero attempts kept", cfg.OTP.MaxVerifyAttempts, 0},
		{"bcrypt default", cfg.Password.BcryptCost, 10},
		{"redis default", cfg.Redis.Addr, "localhost:6379"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleYAML))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("OTP_RATE_LIMIT", "3")
	t.Setenv("PORT", "7000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.Secret != "from-env" || cfg.OTP.RateLimit != 3 || cfg.Addr() != ":7000" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yml"))
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DATABASE_DSN", "postgres://localhost/buzoku")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OTP.MaxVerifyAttempts != 5 {
		t.Errorf("expected default attempts 5, got %d", cfg.OTP.MaxVerifyAttempts)
	}
}

func TestResolve_Validation(t *testing.T) {
	tests := []struct {
		name    string
		file    ConfigFile
		wantErr string
	}{
		{
			name:    "missing secret",
			file:    ConfigFile{Database: DatabaseConfig{DSN: "x"}},
			wantErr: "jwt secret is required",
		},
		{
			name:    "bad duration",
			file:    ConfigFile{Database: DatabaseConfig{DSN: "x"}, JWT: JWTConfig{Secret: "s", AccessTTL: "soon"}},
			wantErr: "invalid JWT access TTL",
		},
		{
			name:    "defaults fill the rest",
			file:    ConfigFile{Database: DatabaseConfig{DSN: "x"}, JWT: JWTConfig{Secret: "s"}},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("DATABASE_DSN", "")
			_, err := Resolve(&tt.file)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
