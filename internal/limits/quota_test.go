package limits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

const resetAfter = 6 * time.Hour

func at(now time.Time, ago time.Duration) *time.Time {
	t := now.Add(-ago)
	return &t
}

func TestQuotaIncrementsBelowMax(t *testing.T) {
	now := time.Now()

	q, err := CheckAndIncrement(Quota{Count: 0}, 100, resetAfter, now)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Count)
	assert.Nil(t, q.LimitedAt)
}

func TestReachingMaxRecordsLockout(t *testing.T) {
	now := time.Now()

	q, err := CheckAndIncrement(Quota{Count: 99}, 100, resetAfter, now)
	require.NoError(t, err)
	assert.Equal(t, 100, q.Count)
	require.NotNil(t, q.LimitedAt)
	assert.True(t, q.LimitedAt.Equal(now))
}

func TestBelowMaxNeverResets(t *testing.T) {
	now := time.Now()

	// At 99 of 100 for ten hours: no reset, plain increment to max.
	q, err := CheckAndIncrement(Quota{Count: 99}, 100, resetAfter, now)
	require.NoError(t, err)
	assert.Equal(t, 100, q.Count)
}

func TestAtMaxBeforeIntervalRejects(t *testing.T) {
	now := time.Now()

	q := Quota{Count: 100, LimitedAt: at(now, 5*time.Hour+59*time.Minute)}
	next, err := CheckAndIncrement(q, 100, resetAfter, now)
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
	assert.Equal(t, 100, next.Count)
	assert.False(t, Changed(q, next))
}

func TestAtMaxAfterIntervalResets(t *testing.T) {
	now := time.Now()

	q := Quota{Count: 100, LimitedAt: at(now, 6*time.Hour+time.Minute)}
	next, err := CheckAndIncrement(q, 100, resetAfter, now)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Count)
	assert.Nil(t, next.LimitedAt)
}

func TestAtMaxExactIntervalStillRejects(t *testing.T) {
	now := time.Now()

	q := Quota{Count: 100, LimitedAt: at(now, 6*time.Hour)}
	_, err := CheckAndIncrement(q, 100, resetAfter, now)
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
}

func TestAtMaxWithoutLockoutStartsClock(t *testing.T) {
	now := time.Now()

	next, err := CheckAndIncrement(Quota{Count: 100}, 100, resetAfter, now)
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
	require.NotNil(t, next.LimitedAt)
	assert.True(t, next.LimitedAt.Equal(now))
}

func TestZeroMaxAlwaysRejects(t *testing.T) {
	now := time.Now()

	next, err := CheckAndIncrement(Quota{}, 0, resetAfter, now)
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
	assert.Nil(t, next.LimitedAt)
}

func TestCountNeverExceedsMax(t *testing.T) {
	now := time.Now()
	q := Quota{}

	for i := 0; i < 10; i++ {
		next, err := CheckAndIncrement(q, 3, resetAfter, now)
		if err != nil {
			assert.ErrorIs(t, err, model.ErrQuotaExceeded)
		}
		assert.LessOrEqual(t, next.Count, 3)
		q = next
	}
	assert.Equal(t, 3, q.Count)
}

func TestChanged(t *testing.T) {
	now := time.Now()

	assert.False(t, Changed(Quota{Count: 1}, Quota{Count: 1}))
	assert.True(t, Changed(Quota{Count: 1}, Quota{Count: 2}))
	assert.True(t, Changed(Quota{Count: 1}, Quota{Count: 1, LimitedAt: &now}))
}
