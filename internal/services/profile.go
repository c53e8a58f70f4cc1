package services

import (
	"github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

// Profile is the account summary shown in the app.
type Profile struct {
	ID            int64  `json:"id"`
	Balance       int64  `json:"balance"`
	AdsToday      int    `json:"ads_today"`
	SpinsToday    int    `json:"spins_today"`
	ReferralCount int    `json:"referral_count"`
	Status        string `json:"status"`
}

func (u *Users) GetProfile(user *model.User) (*Profile, error) {
	// Fresh read: the middleware's copy may predate this request's
	// sibling mutations.
	fresh, err := u.store.GetUser(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load profile")
	}

	return &Profile{
		ID:            fresh.ID,
		Balance:       fresh.Balance,
		AdsToday:      fresh.AdsToday,
		SpinsToday:    fresh.SpinsToday,
		ReferralCount: fresh.ReferralCount,
		Status:        fresh.Status,
	}, nil
}
