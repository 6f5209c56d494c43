package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/you/buzoku/internal/app"
	"github.com/you/buzoku/internal/config"
	"github.com/you/buzoku/internal/mocks"
)

// testEnv is the full service over sqlite, miniredis and a captured SMS
// channel, served by httptest
type testEnv struct {
	t      *testing.T
	server *httptest.Server
	redis  *miniredis.Miniredis
	sms    *mocks.MockSMSSender
	mail   *mocks.MockMailer
	app    *app.Container
}

var codePattern = regexp.MustCompile(`code is (\d{4})`)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	cfg, err := config.Resolve(&config.ConfigFile{
		App:      config.AppConfig{Env: "test", GinMode: gin.TestMode, RateLimitRPM: 6000},
		Database: config.DatabaseConfig{DSN: "sqlite:" + filepath.Join(t.TempDir(), "e2e.db")},
		Redis:    config.RedisConfig{Addr: mr.Addr()},
		JWT:      config.JWTConfig{Secret: "e2e-secret", Issuer: "buzoku-e2e"},
		Password: config.PasswordConfig{BcryptCost: bcrypt.MinCost},
	})
	require.NoError(t, err)

	sms := mocks.NewMockSMSSender()
	mail := mocks.NewMockMailer()
	c, err := app.NewContainer(context.Background(), cfg, zap.NewNop(), app.WithSMSSender(sms), app.WithMailer(mail))
	require.NoError(t, err)

	srv := httptest.NewServer(c.Router)
	t.Cleanup(func() {
		srv.Close()
		_ = c.Close()
	})

	return &testEnv{t: t, server: srv, redis: mr, sms: sms, mail: mail, app: c}
}

type apiResponse struct {
	Status int
	Body   map[string]interface{}
	Header http.Header
}

// Data returns the success envelope payload
func (r apiResponse) Data() map[string]interface{} {
	data, _ := r.Body["data"].(map[string]interface{})
	return data
}

func (e *testEnv) do(method, path, token string, body interface{}) apiResponse {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, e.server.URL+path, &buf)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	out := apiResponse{Status: resp.StatusCode, Header: resp.Header}
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &out.Body), "body: %s", raw)
	}
	return out
}

// lastSMSCode returns the code in the most recent SMS to phone
func (e *testEnv) lastSMSCode(phone string) string {
	e.t.Helper()
	msg := e.sms.Last()
	require.Equal(e.t, []string{phone}, msg.To)
	m := codePattern.FindStringSubmatch(msg.Body)
	require.NotNil(e.t, m, "no code in %q", msg.Body)
	return m[1]
}

// signInByPhone runs issue and verify and returns the token pair
func (e *testEnv) signInByPhone(phone string) (access, refresh string) {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/auth/otp/issue", "", map[string]string{"phoneE164": phone})
	require.Equal(e.t, http.StatusOK, resp.Status, resp.Body)

	resp = e.do(http.MethodPost, "/auth/otp/verify", "", map[string]string{
		"phoneE164": phone,
		"code":      e.lastSMSCode(phone),
	})
	require.Equal(e.t, http.StatusOK, resp.Status, resp.Body)
	return resp.Data()["accessToken"].(string), resp.Data()["refreshToken"].(string)
}
