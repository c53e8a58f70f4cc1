package limits

import (
	"time"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

// CheckCooldown enforces the minimum interval between mutating actions
// of one account. lastActionAt is unix milliseconds; zero means the
// account has never acted. This is front-line throttling only: callers
// still consume an action token afterwards, in that order, so a
// cooldown rejection never burns a token.
func CheckCooldown(lastActionAt int64, now time.Time, minInterval time.Duration) error {
	if lastActionAt == 0 {
		return nil
	}

	elapsed := now.Sub(time.UnixMilli(lastActionAt))
	if elapsed < minInterval {
		return &model.RateLimited{Remaining: minInterval - elapsed}
	}
	return nil
}
