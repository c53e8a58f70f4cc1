package model

import (
	"time"
)

const (
	StatusActive = "active"
	StatusBanned = "banned"
)

// User is one ledger account. Balance and every other money value in
// the system are kept in hundredths of a unit, so a 5% commission on a
// whole-unit reward stays exact.
type User struct {
	ID             int64      `json:"id"`
	Balance        int64      `json:"balance"`
	AdsToday       int        `json:"ads_today"`
	AdsLimitedAt   *time.Time `json:"-"`
	SpinsToday     int        `json:"spins_today"`
	SpinsLimitedAt *time.Time `json:"-"`
	ReferrerID     *int64     `json:"referrer_id,omitempty"`
	ReferralCount  int        `json:"referral_count"`
	LastActionAt   int64      `json:"last_action_at"` // unix milliseconds
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (u *User) Banned() bool {
	return u.Status == StatusBanned
}
