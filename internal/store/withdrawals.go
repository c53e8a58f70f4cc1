package store

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

func (s *Store) CreateWithdrawal(w *model.Withdrawal) error {
	_, err := s.db.Exec(`
INSERT INTO withdrawals (id, user_id, destination, amount, status)
	VALUES ($1, $2, $3, $4, $5);`,
		w.ID,
		w.UserID,
		w.Destination,
		w.Amount,
		w.Status)
	if err != nil {
		return pkgerrors.Wrap(err, "create withdrawal")
	}

	return nil
}

func (s *Store) CreateCommission(c *model.Commission) error {
	_, err := s.db.Exec(`
INSERT INTO commissions (referrer_id, referee_id, amount, source_amount)
	VALUES ($1, $2, $3, $4);`,
		c.ReferrerID,
		c.RefereeID,
		c.Amount,
		c.SourceAmount)
	if err != nil {
		return pkgerrors.Wrap(err, "create commission")
	}

	return nil
}
