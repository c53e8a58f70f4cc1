package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

// Store is the postgres-backed record store. It offers per-entity reads
// and partial updates only; there are no cross-entity transactions, by
// design. The token registry and the rate limiter keep the damaging
// races narrow.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetUser(id int64) (*model.User, error) {
	user := &model.User{}

	err := s.db.QueryRow(`
SELECT id, balance, ads_today, ads_limited_at, spins_today, spins_limited_at,
       referrer_id, referral_count, last_action_at, status, created_at
	FROM users
WHERE id = $1;`, id).Scan(
		&user.ID,
		&user.Balance,
		&user.AdsToday,
		&user.AdsLimitedAt,
		&user.SpinsToday,
		&user.SpinsLimitedAt,
		&user.ReferrerID,
		&user.ReferralCount,
		&user.LastActionAt,
		&user.Status,
		&user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get user")
	}

	return user, nil
}

func (s *Store) CreateUser(user *model.User) error {
	_, err := s.db.Exec(`
INSERT INTO users (id, balance, referrer_id, status)
	VALUES ($1, $2, $3, $4);`,
		user.ID,
		user.Balance,
		user.ReferrerID,
		user.Status)
	if isUniqueViolation(err) {
		return model.ErrAlreadyExists
	}
	if err != nil {
		return pkgerrors.Wrap(err, "create user")
	}

	return nil
}

func (s *Store) IncrementReferralCount(id int64) error {
	_, err := s.db.Exec(`
UPDATE users SET referral_count = referral_count + 1
	WHERE id = $1;`, id)
	if err != nil {
		return pkgerrors.Wrap(err, "increment referral count")
	}

	return nil
}

// CreditBalance adds amount to the balance and returns the new value.
// lastActionAt == 0 leaves the activity timestamp alone (commission
// credits must not restart the referrer's cooldown).
func (s *Store) CreditBalance(id, amount, lastActionAt int64) (int64, error) {
	var balance int64
	var err error

	if lastActionAt > 0 {
		err = s.db.QueryRow(`
UPDATE users SET balance = balance + $1, last_action_at = $2
	WHERE id = $3
RETURNING balance;`, amount, lastActionAt, id).Scan(&balance)
	} else {
		err = s.db.QueryRow(`
UPDATE users SET balance = balance + $1
	WHERE id = $2
RETURNING balance;`, amount, id).Scan(&balance)
	}
	if err == sql.ErrNoRows {
		return 0, model.ErrNotFound
	}
	if err != nil {
		return 0, pkgerrors.Wrap(err, "credit balance")
	}

	return balance, nil
}

// DebitBalance subtracts amount, guarded by the balance check inside
// the same statement so two concurrent debits cannot both pass against
// a stale read.
func (s *Store) DebitBalance(id, amount, lastActionAt int64) (int64, error) {
	var balance int64

	err := s.db.QueryRow(`
UPDATE users SET balance = balance - $1, last_action_at = $2
	WHERE id = $3 AND balance >= $1
RETURNING balance;`, amount, lastActionAt, id).Scan(&balance)
	if err == sql.ErrNoRows {
		if _, getErr := s.GetUser(id); getErr != nil {
			return 0, getErr
		}
		return 0, model.ErrInsufficientBalance
	}
	if err != nil {
		return 0, pkgerrors.Wrap(err, "debit balance")
	}

	return balance, nil
}

func (s *Store) SetAdQuota(id int64, count int, limitedAt *time.Time) error {
	_, err := s.db.Exec(`
UPDATE users SET ads_today = $1, ads_limited_at = $2
	WHERE id = $3;`, count, limitedAt, id)

	return pkgerrors.Wrap(err, "set ad quota")
}

func (s *Store) SetSpinQuota(id int64, count int, limitedAt *time.Time) error {
	_, err := s.db.Exec(`
UPDATE users SET spins_today = $1, spins_limited_at = $2
	WHERE id = $3;`, count, limitedAt, id)

	return pkgerrors.Wrap(err, "set spin quota")
}

func (s *Store) BlockUser(userID int64) error {
	_, err := s.db.Exec(`
UPDATE users SET status = $1
	WHERE id = $2;`,
		model.StatusBanned,
		userID)

	return pkgerrors.Wrap(err, "failed block user")
}

// both postgres drivers appear in the dependency tree
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == "23505" {
		return true
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
