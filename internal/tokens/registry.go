package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

// Kind is the declared action a token is good for. A token issued for
// one kind never commits another.
type Kind string

const (
	KindAd         Kind = "ad"
	KindSpin       Kind = "spin"
	KindWithdrawal Kind = "withdrawal"
)

// Token proves that a client completed the prepare step of a claim.
// Payload carries a server-chosen value decided at issue time (the spin
// prize), so the client cannot observe or influence it before commit.
type Token struct {
	ID       string    `json:"id"`
	UserID   int64     `json:"user_id"`
	Kind     Kind      `json:"kind"`
	Payload  int64     `json:"payload"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store keeps live tokens. Take must remove and return the entry whose
// id, owner and kind all match, as one atomic step: two concurrent
// takes of the same id must not both succeed. An entry whose owner or
// kind does not match the caller's claim is left in place. Expired
// entries are still returned (and removed) so the registry can count
// them; Purge drops entries issued before the deadline.
type Store interface {
	Put(t *Token) error
	Take(id string, userID int64, kind Kind) (*Token, error)
	Purge(deadline time.Time) (int, error)
}

// Registry issues and consumes single-use action tokens.
type Registry struct {
	store Store
	ttl   time.Duration
	grace time.Duration
	now   func() time.Time
}

func NewRegistry(store Store, ttl, grace time.Duration) *Registry {
	return &Registry{
		store: store,
		ttl:   ttl,
		grace: grace,
		now:   time.Now,
	}
}

// Issue creates a token for the given user and action kind and returns
// its id.
func (r *Registry) Issue(userID int64, kind Kind, payload int64) (string, error) {
	id, err := newTokenID()
	if err != nil {
		return "", errors.Wrap(err, "generate token id")
	}

	t := &Token{
		ID:       id,
		UserID:   userID,
		Kind:     kind,
		Payload:  payload,
		IssuedAt: r.now(),
	}

	if err := r.store.Put(t); err != nil {
		return "", errors.Wrap(err, "store token")
	}

	model.TokensIssued.WithLabelValues(string(kind)).Inc()
	return id, nil
}

// Consume validates and deletes the token as one logical step and
// returns its payload. A second consume of the same id, a mismatched
// owner or kind, and a token older than the validity window all reject
// with ErrInvalidToken.
func (r *Registry) Consume(id string, userID int64, kind Kind) (int64, error) {
	if id == "" {
		return 0, model.ErrInvalidToken
	}

	t, err := r.store.Take(id, userID, kind)
	if err != nil {
		return 0, errors.Wrap(err, "take token")
	}
	if t == nil {
		return 0, model.ErrInvalidToken
	}

	if r.now().Sub(t.IssuedAt) > r.ttl {
		model.TokensExpired.Inc()
		return 0, model.ErrInvalidToken
	}

	return t.Payload, nil
}

// PurgeExpired drops abandoned entries past the validity window plus
// the grace margin. Runs on a schedule, independent of request
// handling.
func (r *Registry) PurgeExpired() (int, error) {
	n, err := r.store.Purge(r.now().Add(-r.ttl - r.grace))
	if err != nil {
		return 0, errors.Wrap(err, "purge tokens")
	}

	for i := 0; i < n; i++ {
		model.TokensExpired.Inc()
	}
	return n, nil
}

// 128 bits of entropy minimum; uuids only carry 122.
func newTokenID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
