package services

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/limits"
	"github.com/wheel-empire/fortune-bot/internal/model"
	"github.com/wheel-empire/fortune-bot/internal/tokens"
)

const (
	kindAd   = "ad"
	kindSpin = "spin"
)

// PrepareAd issues the single-use token an ad claim must present.
func (u *Users) PrepareAd(user *model.User) (string, error) {
	if user.Banned() {
		return "", u.reject(kindAd, model.ErrBanned)
	}

	id, err := u.tokens.Issue(user.ID, tokens.KindAd, 0)
	if err != nil {
		return "", errors.Wrap(err, "issue ad token")
	}
	return id, nil
}

// WatchAd commits an ad view: cooldown, token, quota, credit, then the
// referrer's commission asynchronously.
func (u *Users) WatchAd(user *model.User, tokenID string) (*ClaimResult, error) {
	if user.Banned() {
		return nil, u.reject(kindAd, model.ErrBanned)
	}

	now := u.now()
	if err := limits.CheckCooldown(user.LastActionAt, now, u.cfg.MinActionInterval); err != nil {
		return nil, u.reject(kindAd, err)
	}

	if _, err := u.tokens.Consume(tokenID, user.ID, tokens.KindAd); err != nil {
		return nil, u.reject(kindAd, err)
	}

	quota := limits.Quota{Count: user.AdsToday, LimitedAt: user.AdsLimitedAt}
	next, quotaErr := limits.CheckAndIncrement(quota, u.cfg.MaxAdsPerPeriod, u.cfg.QuotaResetAfter, now)
	if limits.Changed(quota, next) {
		if err := u.store.SetAdQuota(user.ID, next.Count, next.LimitedAt); err != nil {
			return nil, u.reject(kindAd, errors.Wrap(err, "persist ad quota"))
		}
	}
	if quotaErr != nil {
		return nil, u.reject(kindAd, quotaErr)
	}

	balance, err := u.ledger.Credit(user.ID, u.cfg.AdReward)
	if err != nil {
		return nil, u.reject(kindAd, err)
	}

	u.ledger.DispatchCommission(user, u.cfg.AdReward)
	u.accept(kindAd)

	return &ClaimResult{
		Balance: balance,
		Count:   next.Count,
		Reward:  u.cfg.AdReward,
	}, nil
}

// PrepareSpin picks the wheel outcome server-side and seals it in the
// token payload, before the client can see or influence it.
func (u *Users) PrepareSpin(user *model.User) (string, error) {
	if user.Banned() {
		return "", u.reject(kindSpin, model.ErrBanned)
	}

	prize := u.cfg.SpinPrizes[rand.Intn(len(u.cfg.SpinPrizes))]

	id, err := u.tokens.Issue(user.ID, tokens.KindSpin, prize)
	if err != nil {
		return "", errors.Wrap(err, "issue spin token")
	}
	return id, nil
}

// Spin commits a wheel spin, crediting the prize decided at prepare
// time.
func (u *Users) Spin(user *model.User, tokenID string) (*ClaimResult, error) {
	if user.Banned() {
		return nil, u.reject(kindSpin, model.ErrBanned)
	}

	now := u.now()
	if err := limits.CheckCooldown(user.LastActionAt, now, u.cfg.MinActionInterval); err != nil {
		return nil, u.reject(kindSpin, err)
	}

	prize, err := u.tokens.Consume(tokenID, user.ID, tokens.KindSpin)
	if err != nil {
		return nil, u.reject(kindSpin, err)
	}

	quota := limits.Quota{Count: user.SpinsToday, LimitedAt: user.SpinsLimitedAt}
	next, quotaErr := limits.CheckAndIncrement(quota, u.cfg.MaxSpinsPerPeriod, u.cfg.QuotaResetAfter, now)
	if limits.Changed(quota, next) {
		if err := u.store.SetSpinQuota(user.ID, next.Count, next.LimitedAt); err != nil {
			return nil, u.reject(kindSpin, errors.Wrap(err, "persist spin quota"))
		}
	}
	if quotaErr != nil {
		return nil, u.reject(kindSpin, quotaErr)
	}

	balance, err := u.ledger.Credit(user.ID, prize)
	if err != nil {
		return nil, u.reject(kindSpin, err)
	}

	u.ledger.DispatchCommission(user, prize)
	u.accept(kindSpin)

	return &ClaimResult{
		Balance: balance,
		Count:   next.Count,
		Reward:  prize,
	}, nil
}

// SetClock replaces the time source.
func (u *Users) SetClock(now func() time.Time) {
	u.now = now
}
