package services

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/limits"
	"github.com/wheel-empire/fortune-bot/internal/model"
	"github.com/wheel-empire/fortune-bot/internal/tokens"
)

const kindWithdrawal = "withdrawal"

// PrepareWithdrawal issues the token a withdrawal commit must present.
func (u *Users) PrepareWithdrawal(user *model.User) (string, error) {
	if user.Banned() {
		return "", u.reject(kindWithdrawal, model.ErrBanned)
	}

	id, err := u.tokens.Issue(user.ID, tokens.KindWithdrawal, 0)
	if err != nil {
		return "", errors.Wrap(err, "issue withdrawal token")
	}
	return id, nil
}

// WithdrawMoneyFromBalance debits the requested amount and records the
// withdrawal request. The request record is created only after the
// debit succeeded; a failure recording it is logged, the debit stands.
func (u *Users) WithdrawMoneyFromBalance(user *model.User, tokenID string, amount int64, destination string) (*model.Withdrawal, int64, error) {
	if user.Banned() {
		return nil, 0, u.reject(kindWithdrawal, model.ErrBanned)
	}

	if err := limits.CheckCooldown(user.LastActionAt, u.now(), u.cfg.MinActionInterval); err != nil {
		return nil, 0, u.reject(kindWithdrawal, err)
	}

	if _, err := u.tokens.Consume(tokenID, user.ID, tokens.KindWithdrawal); err != nil {
		return nil, 0, u.reject(kindWithdrawal, err)
	}

	if amount <= 0 || destination == "" {
		return nil, 0, u.reject(kindWithdrawal, model.ErrInvalidInput)
	}
	if amount < u.cfg.MinWithdrawal {
		return nil, 0, u.reject(kindWithdrawal, model.ErrInvalidInput)
	}

	balance, err := u.ledger.Debit(user.ID, amount)
	if err != nil {
		return nil, 0, u.reject(kindWithdrawal, err)
	}

	withdrawal := &model.Withdrawal{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Destination: destination,
		Amount:      amount,
		Status:      model.WithdrawalStatusRequested,
	}

	if err := u.store.CreateWithdrawal(withdrawal); err != nil {
		u.logger.Warn("withdrawal record failed for user %d: %s", user.ID, err.Error())
		u.Msgs.NotifyDeveloperf(false, "debited %d from user %d but failed to record withdrawal: %s",
			amount, user.ID, err.Error())
	}

	u.accept(kindWithdrawal)
	return withdrawal, balance, nil
}
