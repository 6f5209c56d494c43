package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/you/buzoku/domain"
)

// RefreshTokenRepositoryImpl implements domain.RefreshTokenStore on the cache.
// One key per user; Save overwrites.
type RefreshTokenRepositoryImpl struct {
	cache  domain.Cache
	prefix string
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(cache domain.Cache) domain.RefreshTokenStore {
	return &RefreshTokenRepositoryImpl{
		cache:  cache,
		prefix: "refresh:",
	}
}

func (r *RefreshTokenRepositoryImpl) key(userID uint) string {
	return fmt.Sprintf("%s%d", r.prefix, userID)
}

// Save implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) Save(ctx context.Context, userID uint, token string, ttl time.Duration) error {
	return r.cache.Set(ctx, r.key(userID), token, ttl)
}

// Get implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) Get(ctx context.Context, userID uint) (string, error) {
	token, err := r.cache.Get(ctx, r.key(userID))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return "", domain.ErrRefreshTokenNotFound
		}
		return "", err
	}
	return token, nil
}

// Delete implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) Delete(ctx context.Context, userID uint) error {
	return r.cache.Del(ctx, r.key(userID))
}
