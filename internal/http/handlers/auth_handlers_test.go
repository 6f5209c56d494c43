package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/buzoku/domain"
	"github.com/you/buzoku/internal/mocks"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return out
}

func authRouter(svc *mocks.MockAuthService, userID uint) *gin.Engine {
	h := NewAuthHandlers(svc, zap.NewNop())
	r := gin.New()
	r.POST("/auth/otp/issue", h.IssuePhoneOTP)
	r.POST("/auth/otp/verify", h.VerifyPhoneOTP)
	r.POST("/auth/otp/email/issue", h.IssueEmailOTP)
	r.POST("/auth/otp/email/verify", h.VerifyEmailOTP)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/reset-password", func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
		}
		h.ResetPassword(c)
	})
	return r
}

func TestAuthHandlers_IssuePhoneOTP(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		issueErr       error
		expectedStatus int
		expectedError  string
		retryAfter     string
	}{
		{
			name:           "issued",
			body:           gin.H{"phoneE164": "+15551234567"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not e164",
			body:           gin.H{"phoneE164": "5551234567"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing phone",
			body:           gin.H{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "rate limited",
			body:           gin.H{"phoneE164": "+15551234567"},
			issueErr:       &domain.RetryAfterError{Err: domain.ErrOTPRateLimited, RetryAfter: 90 * time.Second},
			expectedStatus: http.StatusTooManyRequests,
			expectedError:  domain.ErrOTPRateLimited.Error(),
			retryAfter:     "90",
		},
		{
			name:           "delivery failed",
			body:           gin.H{"phoneE164": "+15551234567"},
			issueErr:       fmt.Errorf("%w: %w", domain.ErrOTPDeliveryFailed, fmt.Errorf("twilio down")),
			expectedStatus: http.StatusBadGateway,
			expectedError:  domain.ErrOTPDeliveryFailed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthService()
			if tt.issueErr != nil {
				svc.IssuePhoneOTPFunc = func(ctx context.Context, phone string) (*domain.OTPIssue, error) {
					return nil, tt.issueErr
				}
			}

			w := doJSON(authRouter(svc, 0), http.MethodPost, "/auth/otp/issue", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			body := decode(t, w)

			if tt.expectedStatus == http.StatusOK {
				data := body["data"].(map[string]interface{})
				if data["success"] != true || data["ttl"] != float64(300) {
					t.Errorf("unexpected body %v", body)
				}
				return
			}
			if tt.expectedError != "" && body["error"] != tt.expectedError {
				t.Errorf("expected error %q, got %v", tt.expectedError, body["error"])
			}
			if got := w.Header().Get("Retry-After"); got != tt.retryAfter {
				t.Errorf("expected Retry-After %q, got %q", tt.retryAfter, got)
			}
		})
	}
}

func TestAuthHandlers_VerifyPhoneOTP(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		verifyErr      error
		expectedStatus int
		expectedError  string
	}{
		{"tokens returned", gin.H{"phoneE164": "+15551234567", "code": "1234"}, nil, http.StatusOK, ""},
		{"code too long", gin.H{"phoneE164": "+15551234567", "code": "12345"}, nil, http.StatusBadRequest, ""},
		{"code not numeric", gin.H{"phoneE164": "+15551234567", "code": "12a4"}, nil, http.StatusBadRequest, ""},
		{"expired", gin.H{"phoneE164": "+15551234567", "code": "1234"}, domain.ErrOTPNotFound, http.StatusBadRequest, "OTP expired or not found"},
		{"wrong code", gin.H{"phoneE164": "+15551234567", "code": "1234"}, domain.ErrOTPInvalid, http.StatusUnauthorized, domain.ErrOTPInvalid.Error()},
		{"too many attempts", gin.H{"phoneE164": "+15551234567", "code": "1234"}, domain.ErrOTPMaxAttempts, http.StatusTooManyRequests, domain.ErrOTPMaxAttempts.Error()},
		{"blocked user", gin.H{"phoneE164": "+15551234567", "code": "1234"}, domain.ErrUserInactive, http.StatusForbidden, domain.ErrUserInactive.Error()},
		{"store failure hidden", gin.H{"phoneE164": "+15551234567", "code": "1234"}, fmt.Errorf("failed to look up user: %w", context.DeadlineExceeded), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthService()
			svc.VerifyPhoneOTPFunc = func(ctx context.Context, phone, code string) (*domain.AuthTokens, error) {
				if tt.verifyErr != nil {
					return nil, tt.verifyErr
				}
				return &domain.AuthTokens{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}, nil
			}

			w := doJSON(authRouter(svc, 0), http.MethodPost, "/auth/otp/verify", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			body := decode(t, w)
			if tt.expectedStatus == http.StatusOK {
				data := body["data"].(map[string]interface{})
				if data["accessToken"] != "a" || data["refreshToken"] != "r" || data["expiresIn"] != float64(900) {
					t.Errorf("unexpected tokens %v", data)
				}
				return
			}
			if tt.expectedError != "" && body["error"] != tt.expectedError {
				t.Errorf("expected error %q, got %v", tt.expectedError, body["error"])
			}
		})
	}
}

func TestAuthHandlers_EmailOTP(t *testing.T) {
	svc := mocks.NewMockAuthService()
	var issuedTo, verifiedFor string
	svc.IssueEmailOTPFunc = func(ctx context.Context, email string) (*domain.OTPIssue, error) {
		issuedTo = email
		return &domain.OTPIssue{Identity: email, Channel: domain.ChannelEmail, TTLSeconds: 120}, nil
	}
	svc.VerifyEmailOTPFunc = func(ctx context.Context, email, code string) (*domain.AuthTokens, error) {
		verifiedFor = email
		return &domain.AuthTokens{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}, nil
	}
	r := authRouter(svc, 0)

	if w := doJSON(r, http.MethodPost, "/auth/otp/email/issue", gin.H{"email": "not-an-email"}); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad email, got %d", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/auth/otp/email/issue", gin.H{"email": "a@b.co"})
	if w.Code != http.StatusOK || issuedTo != "a@b.co" {
		t.Fatalf("issue: status %d, issued to %q", w.Code, issuedTo)
	}
	if ttl := decode(t, w)["data"].(map[string]interface{})["ttl"]; ttl != float64(120) {
		t.Errorf("expected ttl 120, got %v", ttl)
	}

	w = doJSON(r, http.MethodPost, "/auth/otp/email/verify", gin.H{"email": "a@b.co", "code": "4321"})
	if w.Code != http.StatusOK || verifiedFor != "a@b.co" {
		t.Errorf("verify: status %d, verified %q", w.Code, verifiedFor)
	}
}

func TestAuthHandlers_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		result         *domain.RegisterResult
		err            error
		expectedStatus int
		checkBody      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:           "short password rejected by binding",
			body:           gin.H{"phoneE164": "+15551234567", "password": "short"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad optional email rejected",
			body:           gin.H{"phoneE164": "+15551234567", "password": "password123", "email": "nope"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "created with otp sent",
			body: gin.H{"phoneE164": "+15551234567", "password": "password123"},
			result: &domain.RegisterResult{
				UserID: 1, Created: true,
				Message: "Registered. Please verify phone before login.",
				OTP:     domain.OTPDelivery{Sent: true, TTL: 300},
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				otp := data["otp"].(map[string]interface{})
				if data["success"] != true || data["message"] != "Registered. Please verify phone before login." {
					t.Errorf("unexpected data %v", data)
				}
				if otp["sent"] != true || otp["ttl"] != float64(300) {
					t.Errorf("unexpected otp %v", otp)
				}
			},
		},
		{
			name: "delivery failure still succeeds",
			body: gin.H{"phoneE164": "+15551234567", "password": "password123"},
			result: &domain.RegisterResult{
				UserID: 1, Created: false,
				Message: "Password set. Please verify phone before login.",
				OTP:     domain.OTPDelivery{Sent: false, Error: "failed to send otp"},
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				otp := body["data"].(map[string]interface{})["otp"].(map[string]interface{})
				if otp["sent"] != false || otp["error"] != "failed to send otp" {
					t.Errorf("unexpected otp %v", otp)
				}
				if _, ok := otp["ttl"]; ok {
					t.Error("ttl should be omitted when not sent")
				}
			},
		},
		{
			name:           "already registered",
			body:           gin.H{"phoneE164": "+15551234567", "password": "password123"},
			err:            domain.ErrUserAlreadyRegistered,
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthService()
			svc.RegisterFunc = func(ctx context.Context, in domain.RegisterInput) (*domain.RegisterResult, error) {
				return tt.result, tt.err
			}

			w := doJSON(authRouter(svc, 0), http.MethodPost, "/auth/register", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.checkBody != nil {
				tt.checkBody(t, decode(t, w))
			}
		})
	}
}

func TestAuthHandlers_Login(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"success", nil, http.StatusOK},
		{"wrong password", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"inactive", domain.ErrUserInactive, http.StatusForbidden},
		{"phone not verified", domain.ErrPhoneNotVerified, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthService()
			svc.LoginFunc = func(ctx context.Context, phone, password string) (*domain.AuthTokens, error) {
				if phone != "+15551234567" || password != "password123" {
					t.Errorf("unexpected credentials %q %q", phone, password)
				}
				if tt.err != nil {
					return nil, tt.err
				}
				return &domain.AuthTokens{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}, nil
			}

			w := doJSON(authRouter(svc, 0), http.MethodPost, "/auth/login",
				gin.H{"phoneE164": "+15551234567", "password": "password123"})
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAuthHandlers_RefreshAndLogout(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		err            error
		expectedStatus int
		expectSuccess  interface{}
	}{
		{"refresh ok", "/auth/refresh", nil, http.StatusOK, nil},
		{"refresh revoked", "/auth/refresh", domain.ErrRefreshTokenRevoked, http.StatusUnauthorized, nil},
		{"refresh expired", "/auth/refresh", domain.ErrTokenExpired, http.StatusUnauthorized, nil},
		{"logout ok", "/auth/logout", nil, http.StatusOK, true},
		{"logout invalid token", "/auth/logout", domain.ErrTokenInvalid, http.StatusOK, false},
		{"logout store failure", "/auth/logout", fmt.Errorf("failed to revoke refresh token: %w", context.Canceled), http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthService()
			svc.RefreshFunc = func(ctx context.Context, token string) (*domain.AuthTokens, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &domain.AuthTokens{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 900}, nil
			}
			svc.LogoutFunc = func(ctx context.Context, token string) error { return tt.err }

			w := doJSON(authRouter(svc, 0), http.MethodPost, tt.path, gin.H{"refreshToken": "r1"})
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectSuccess != nil {
				data := decode(t, w)["data"].(map[string]interface{})
				if data["success"] != tt.expectSuccess {
					t.Errorf("expected success=%v, got %v", tt.expectSuccess, data["success"])
				}
			}
		})
	}

	t.Run("missing token", func(t *testing.T) {
		w := doJSON(authRouter(mocks.NewMockAuthService(), 0), http.MethodPost, "/auth/refresh", gin.H{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestAuthHandlers_ResetPassword(t *testing.T) {
	tests := []struct {
		name           string
		userID         uint
		body           interface{}
		err            error
		expectedStatus int
	}{
		{"success", 5, gin.H{"password": "newpassword1"}, nil, http.StatusOK},
		{"no user in context", 0, gin.H{"password": "newpassword1"}, nil, http.StatusUnauthorized},
		{"too short", 5, gin.H{"password": "short"}, nil, http.StatusBadRequest},
		{"user vanished", 5, gin.H{"password": "newpassword1"}, domain.ErrUserNotFound, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockAuthService()
			var gotID uint
			svc.ResetPasswordFunc = func(ctx context.Context, userID uint, pw string) error {
				gotID = userID
				return tt.err
			}

			w := doJSON(authRouter(svc, tt.userID), http.MethodPost, "/auth/reset-password", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus == http.StatusOK {
				if gotID != tt.userID {
					t.Errorf("expected reset for %d, got %d", tt.userID, gotID)
				}
				data := decode(t, w)["data"].(map[string]interface{})
				if data["message"] != "Password updated successfully." {
					t.Errorf("unexpected message %v", data["message"])
				}
			}
		})
	}
}
