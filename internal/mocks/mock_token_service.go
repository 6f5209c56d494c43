package mocks

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/you/buzoku/domain"
)

// MockTokenService implements domain.TokenService for testing. Default
// tokens look like "<typ>:<userID>:<roles>:<seq>" and validate by parsing.
type MockTokenService struct {
	GenerateAccessTokenFunc  func(userID uint, roles []string) (string, error)
	GenerateRefreshTokenFunc func(userID uint, roles []string) (string, error)
	ValidateAccessTokenFunc  func(token string) (*domain.TokenClaims, error)
	ValidateRefreshTokenFunc func(token string) (*domain.TokenClaims, error)

	AccessLifetime  time.Duration
	RefreshLifetime time.Duration

	seq atomic.Int64
}

var _ domain.TokenService = (*MockTokenService)(nil)

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{
		AccessLifetime:  15 * time.Minute,
		RefreshLifetime: 7 * 24 * time.Hour,
	}
}

func (m *MockTokenService) mint(typ string, userID uint, roles []string) string {
	return fmt.Sprintf("%s:%d:%s:%d", typ, userID, strings.Join(roles, ","), m.seq.Add(1))
}

func (m *MockTokenService) parse(typ, token string) (*domain.TokenClaims, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 4 || parts[0] != typ {
		return nil, domain.ErrTokenInvalid
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, domain.ErrTokenMalformed
	}
	var roles []string
	if parts[2] != "" {
		roles = strings.Split(parts[2], ",")
	}
	return &domain.TokenClaims{UserID: uint(id), Roles: roles, TokenType: typ, ID: parts[3]}, nil
}

func (m *MockTokenService) GenerateAccessToken(userID uint, roles []string) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(userID, roles)
	}
	return m.mint("access", userID, roles), nil
}

func (m *MockTokenService) GenerateRefreshToken(userID uint, roles []string) (string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(userID, roles)
	}
	return m.mint("refresh", userID, roles), nil
}

func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	return m.parse("access", token)
}

func (m *MockTokenService) ValidateRefreshToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateRefreshTokenFunc != nil {
		return m.ValidateRefreshTokenFunc(token)
	}
	return m.parse("refresh", token)
}

func (m *MockTokenService) AccessTTL() time.Duration  { return m.AccessLifetime }
func (m *MockTokenService) RefreshTTL() time.Duration { return m.RefreshLifetime }
