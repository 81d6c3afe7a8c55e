package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"
	"CandlePull/pkg/cache"
)

const tokenKeyPrefix = "token"

// TokenStore keeps broker session tokens under token:<account_id> keys in the
// cache shared with the trading services.
type TokenStore struct {
	cache cache.Service
}

var _ domrepo.TokenStore = (*TokenStore)(nil)

// NewTokenStore creates a token store on top of c.
func NewTokenStore(c cache.Service) *TokenStore {
	return &TokenStore{cache: c}
}

// ReadFirstAvailable checks accounts in order and returns the first non-empty token.
// A read error on one key does not stop the scan; it is only returned when no
// token was found at all.
func (s *TokenStore) ReadFirstAvailable(ctx context.Context, accountIDs []string) (string, bool, error) {
	var lastErr error
	for _, id := range accountIDs {
		var token string
		err := s.cache.Get(ctx, cache.GenerateKey(tokenKeyPrefix, id), &token)
		switch {
		case errors.Is(err, cache.ErrCacheMiss):
			continue
		case err != nil:
			lastErr = fmt.Errorf("read token %s: %w", id, err)
			continue
		case token != "":
			return token, true, nil
		}
	}
	return "", false, lastErr
}

func (s *TokenStore) Inspect(ctx context.Context, accountIDs []string) []models.TokenStatus {
	out := make([]models.TokenStatus, 0, len(accountIDs))
	for _, id := range accountIDs {
		st := models.TokenStatus{Account: id}
		ttl, err := s.cache.TTL(ctx, cache.GenerateKey(tokenKeyPrefix, id))
		switch {
		case errors.Is(err, cache.ErrCacheMiss):
		case err != nil:
			st.Error = err.Error()
		default:
			st.Cached = true
			st.TTLSeconds = int64(ttl / time.Second)
		}
		out = append(out, st)
	}
	return out
}

// WriteWithTTL stores token under every account key, each with a fresh ttl.
func (s *TokenStore) WriteWithTTL(ctx context.Context, accountIDs []string, token string, ttl time.Duration) error {
	var errs []error
	for _, id := range accountIDs {
		if err := s.cache.Set(ctx, cache.GenerateKey(tokenKeyPrefix, id), token, ttl); err != nil {
			errs = append(errs, fmt.Errorf("write token %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
