package ledger

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/log"
	"github.com/wheel-empire/fortune-bot/internal/model"
)

// UserStore is the slice of the record store the ledger mutates.
type UserStore interface {
	GetUser(id int64) (*model.User, error)
	CreditBalance(id, amount, lastActionAt int64) (int64, error)
	DebitBalance(id, amount, lastActionAt int64) (int64, error)
}

type CommissionStore interface {
	CreateCommission(c *model.Commission) error
}

const dispatchQueueSize = 256

type commissionJob struct {
	referrerID   int64
	refereeID    int64
	sourceAmount int64
}

// Ledger applies balance deltas and propagates referral commissions.
// Commission settlement is asynchronous relative to the triggering
// reward: the queue is drained by Run, and a settlement failure is
// logged, never surfaced to the referee's request.
type Ledger struct {
	users       UserStore
	commissions CommissionStore
	rateBP      int64
	logger      log.Logger

	queue chan commissionJob
	wg    sync.WaitGroup
	now   func() time.Time
}

func NewLedger(users UserStore, commissions CommissionStore, rateBP int64, logger log.Logger) *Ledger {
	return &Ledger{
		users:       users,
		commissions: commissions,
		rateBP:      rateBP,
		logger:      logger,
		queue:       make(chan commissionJob, dispatchQueueSize),
		now:         time.Now,
	}
}

// Credit adds a non-negative amount and refreshes the account's
// last-activity timestamp.
func (l *Ledger) Credit(userID, amount int64) (int64, error) {
	if amount < 0 {
		return 0, model.ErrInvalidInput
	}

	balance, err := l.users.CreditBalance(userID, amount, l.now().UnixMilli())
	if err != nil {
		return 0, errors.Wrap(err, "credit")
	}

	return balance, nil
}

// Debit subtracts amount after a balance check against a fresh read;
// the store performs check and subtraction in one statement.
func (l *Ledger) Debit(userID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, model.ErrInvalidInput
	}

	balance, err := l.users.DebitBalance(userID, amount, l.now().UnixMilli())
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// DispatchCommission schedules a commission settlement for the user's
// referrer, if any. It never blocks the calling request: when the queue
// is full the settlement is dropped and counted.
func (l *Ledger) DispatchCommission(user *model.User, sourceAmount int64) {
	if user.ReferrerID == nil {
		return
	}

	job := commissionJob{
		referrerID:   *user.ReferrerID,
		refereeID:    user.ID,
		sourceAmount: sourceAmount,
	}

	select {
	case l.queue <- job:
	default:
		model.CommissionSkipped.WithLabelValues("queue_full").Inc()
		l.logger.Warn("commission queue full, dropped settlement for referrer %d", job.referrerID)
	}
}

// Run drains the dispatch queue until Stop is called.
func (l *Ledger) Run() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		for job := range l.queue {
			reason, err := l.SettleCommission(job.referrerID, job.refereeID, job.sourceAmount)
			if err != nil {
				l.logger.Warn("commission settlement failed for referrer %d: %s", job.referrerID, err.Error())
				continue
			}
			if reason != "" {
				l.logger.Info("commission skipped for referrer %d: %s", job.referrerID, reason)
			}
		}
	}()
}

// Stop closes the queue and waits for in-flight settlements.
func (l *Ledger) Stop() {
	close(l.queue)
	l.wg.Wait()
}

// SettleCommission credits the referrer with sourceAmount scaled by the
// commission rate and records an audit entry. A non-empty reason means
// the settlement was skipped; the referee's reward is final either way.
func (l *Ledger) SettleCommission(referrerID, refereeID, sourceAmount int64) (string, error) {
	amount := sourceAmount * l.rateBP / 10000
	if amount <= 0 {
		model.CommissionSkipped.WithLabelValues("negligible").Inc()
		return "amount negligible", nil
	}

	referrer, err := l.users.GetUser(referrerID)
	if errors.Is(err, model.ErrNotFound) {
		model.CommissionSkipped.WithLabelValues("referrer_missing").Inc()
		return "referrer missing", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "load referrer")
	}
	if referrer.Banned() {
		model.CommissionSkipped.WithLabelValues("referrer_banned").Inc()
		return "referrer banned", nil
	}

	// last_action_at untouched: a commission is not an action of the
	// referrer and must not restart their cooldown.
	if _, err := l.users.CreditBalance(referrerID, amount, 0); err != nil {
		return "", errors.Wrap(err, "credit referrer")
	}

	if err := l.commissions.CreateCommission(&model.Commission{
		ReferrerID:   referrerID,
		RefereeID:    refereeID,
		Amount:       amount,
		SourceAmount: sourceAmount,
	}); err != nil {
		// The credit stands; only the audit record is missing.
		l.logger.Warn("commission audit record failed for referrer %d: %s", referrerID, err.Error())
	}

	model.CommissionSettled.Inc()
	return "", nil
}
