package usecase

import (
	"context"
	"fmt"
	"time"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"
	applogger "CandlePull/pkg/logger"
)

// TokenRefresher turns the cached broker token into a fresh session and writes
// the renewed trading token back for every account.
type TokenRefresher struct {
	store    domrepo.TokenStore
	renewer  domrepo.TokenRenewer
	metrics  domrepo.Metrics
	accounts []string
	ttl      time.Duration
	log      *applogger.Logger
	now      func() time.Time
}

func NewTokenRefresher(store domrepo.TokenStore, renewer domrepo.TokenRenewer, metrics domrepo.Metrics, accounts []string, ttl time.Duration, log *applogger.Logger) *TokenRefresher {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &TokenRefresher{
		store:    store,
		renewer:  renewer,
		metrics:  metrics,
		accounts: accounts,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// Session reads, renews and writes back. The write-back is best effort here:
// its failure is logged and the renewed tokens are still returned.
func (r *TokenRefresher) Session(ctx context.Context) (models.SessionTokens, error) {
	tokens, writeErr, err := r.renew(ctx)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if writeErr != nil {
		r.log.Error("token write-back failed", applogger.Error(writeErr))
	}
	return tokens, nil
}

// Refresh is the standalone refresh function. Unlike Session, a failed
// write-back fails the call.
func (r *TokenRefresher) Refresh(ctx context.Context) (*models.RefreshResult, error) {
	_, writeErr, err := r.renew(ctx)
	if err != nil {
		return nil, err
	}
	if writeErr != nil {
		return nil, fmt.Errorf("store renewed token: %w", writeErr)
	}
	r.log.Info("tokens refreshed", applogger.Int("accounts", len(r.accounts)))
	return &models.RefreshResult{
		Success:         true,
		AccountsUpdated: len(r.accounts),
		Timestamp:       r.now().UTC(),
	}, nil
}

// Status reports which accounts hold a cached token and for how long.
func (r *TokenRefresher) Status(ctx context.Context) (*models.TokenStatusReport, error) {
	now := r.now().UTC()
	accounts := r.store.Inspect(ctx, r.accounts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := &models.TokenStatusReport{Success: true, Accounts: accounts, Timestamp: now}
	for i := range accounts {
		st := &accounts[i]
		if st.Error != "" {
			r.metrics.RecordError("token_read")
			r.log.Warn("token status read failed", applogger.String("account", st.Account), applogger.String("error", st.Error))
			continue
		}
		if !st.Cached {
			continue
		}
		report.Cached++
		if st.TTLSeconds > 0 {
			exp := now.Add(time.Duration(st.TTLSeconds) * time.Second)
			st.ExpiresAt = &exp
		}
	}
	return report, nil
}

func (r *TokenRefresher) renew(ctx context.Context) (tokens models.SessionTokens, writeErr error, err error) {
	token, ok, err := r.store.ReadFirstAvailable(ctx, r.accounts)
	if err != nil {
		r.metrics.RecordError("token_read")
		r.log.Warn("token cache read failed", applogger.Error(err))
	}
	if !ok {
		return models.SessionTokens{}, nil, ErrNoToken
	}

	start := time.Now()
	tokens, err = r.renewer.Renew(ctx, token)
	r.metrics.RecordLatency("token_renew_seconds", time.Since(start).Seconds())
	if err != nil {
		r.metrics.RecordError("token_renew")
		return models.SessionTokens{}, nil, fmt.Errorf("renew token: %w", err)
	}

	if writeErr = r.store.WriteWithTTL(ctx, r.accounts, tokens.AccessToken, r.ttl); writeErr != nil {
		r.metrics.RecordError("token_write")
	}
	return tokens, writeErr, nil
}
