package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnauthenticated     = errors.New("identity assertion missing or invalid")
	ErrNotFound            = errors.New("record not found")
	ErrAlreadyExists       = errors.New("record already exists")
	ErrBanned              = errors.New("account is banned")
	ErrRateLimited         = errors.New("cooldown still active")
	ErrInvalidToken        = errors.New("action token missing, mismatched or expired")
	ErrQuotaExceeded       = errors.New("period maximum reached")
	ErrAlreadyClaimed      = errors.New("task already claimed")
	ErrCapacityExceeded    = errors.New("task capacity exceeded")
	ErrVerificationFailed  = errors.New("membership verification failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstream            = errors.New("upstream failure")

	ErrScanSqlRow = errors.New("failed scan sql row")
)

// RateLimited carries the remaining wait time of a cooldown rejection.
// It unwraps to ErrRateLimited.
type RateLimited struct {
	Remaining time.Duration
}

func (e *RateLimited) Error() string {
	return fmt.Sprintf("cooldown still active, retry in %dms", e.Remaining.Milliseconds())
}

func (e *RateLimited) Unwrap() error {
	return ErrRateLimited
}

// ReasonCode translates a taxonomy error into the machine-readable code
// returned to clients. Unknown errors are reported as upstream failures
// so that store and oracle errors are never leaked verbatim.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrBanned):
		return "banned"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_or_expired_token"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrVerificationFailed):
		return "verification_failed"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "upstream_failure"
	}
}
