package limits

import (
	"time"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

// Quota is one per-period counter with its lockout timestamp. The
// timestamp anchors the reset interval and is recorded the moment the
// counter reaches its maximum, never earlier.
type Quota struct {
	Count     int
	LimitedAt *time.Time
}

// CheckAndIncrement applies the limit-triggered reset policy and then
// counts one action. The counter resets to zero only when it had
// actually reached max and the reset interval has elapsed since that
// moment; a counter below max never resets, however long ago it moved.
//
// The returned quota must be persisted by the caller whenever Changed
// reports it differs from the input, including on rejection (reaching
// max records the lockout timestamp).
func CheckAndIncrement(q Quota, max int, resetAfter time.Duration, now time.Time) (Quota, error) {
	// max == 0 is a configuration error: every check rejects and the
	// lockout timestamp is never consulted.
	if max <= 0 {
		return q, model.ErrQuotaExceeded
	}

	if q.Count >= max {
		if q.LimitedAt == nil {
			// Row predates lockout tracking; start the clock now.
			at := now
			q.LimitedAt = &at
			return q, model.ErrQuotaExceeded
		}
		if now.Sub(*q.LimitedAt) <= resetAfter {
			return q, model.ErrQuotaExceeded
		}
		q.Count = 0
		q.LimitedAt = nil
	}

	q.Count++
	if q.Count >= max {
		at := now
		q.LimitedAt = &at
	}
	return q, nil
}

// Changed reports whether b differs from a in any persisted field.
func Changed(a, b Quota) bool {
	if a.Count != b.Count {
		return true
	}
	if (a.LimitedAt == nil) != (b.LimitedAt == nil) {
		return true
	}
	if a.LimitedAt != nil && b.LimitedAt != nil && !a.LimitedAt.Equal(*b.LimitedAt) {
		return true
	}
	return false
}
