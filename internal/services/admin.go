package services

import (
	"github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

// BanUser flips the target account to banned. Only the developer
// account may call it; for anyone else the operation reads as not
// found, so the endpoint does not advertise itself.
func (u *Users) BanUser(actor *model.User, targetID int64) error {
	if u.cfg.DevChatID == 0 || actor.ID != u.cfg.DevChatID {
		return model.ErrNotFound
	}

	if _, err := u.store.GetUser(targetID); err != nil {
		return err
	}

	if err := u.store.BlockUser(targetID); err != nil {
		return errors.Wrap(err, "block user")
	}

	u.logger.Info("user %d banned by developer", targetID)
	return nil
}
