package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/log"
	"github.com/wheel-empire/fortune-bot/internal/model"
)

type UserStore interface {
	GetUser(id int64) (*model.User, error)
	CreateUser(user *model.User) error
	IncrementReferralCount(id int64) error
}

// Auth turns a signed launch payload into a loaded account, creating
// the account on first sight.
type Auth struct {
	users    UserStore
	botToken string
	logger   log.Logger

	now func() time.Time
}

func NewAuthService(users UserStore, botToken string, logger log.Logger) *Auth {
	return &Auth{
		users:    users,
		botToken: botToken,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckingTheUser verifies the launch payload and loads the account,
// bootstrapping it with the referrer captured from the start parameter
// when the user is new.
func (a *Auth) CheckingTheUser(initData string) (*model.User, error) {
	launch, err := VerifyLaunchData(initData, a.botToken, a.now())
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetUser(launch.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return a.createUser(launch)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}

	return user, nil
}

func (a *Auth) createUser(launch *LaunchData) (*model.User, error) {
	user := &model.User{
		ID:     launch.UserID,
		Status: model.StatusActive,
	}

	// The referrer is a weak link: it is captured once here and never
	// required to resolve later.
	if referrerID, ok := parseReferrer(launch.StartParam); ok && referrerID != launch.UserID {
		user.ReferrerID = &referrerID
	}

	if err := a.users.CreateUser(user); err != nil {
		// A concurrent first request already created the row; it is
		// canonical, this attempt's referrer capture is discarded.
		if errors.Is(err, model.ErrAlreadyExists) {
			existing, getErr := a.users.GetUser(launch.UserID)
			if getErr != nil {
				return nil, errors.Wrap(getErr, "load user after create race")
			}
			return existing, nil
		}
		return nil, errors.Wrap(err, "create user")
	}

	if user.ReferrerID != nil {
		if err := a.users.IncrementReferralCount(*user.ReferrerID); err != nil {
			a.logger.Warn("failed count referral for %d: %s", *user.ReferrerID, err.Error())
		}
	}

	return user, nil
}

func parseReferrer(startParam string) (int64, bool) {
	raw := strings.TrimPrefix(startParam, "ref_")
	if raw == "" {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
