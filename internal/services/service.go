package services

import (
	"sync"
	"time"

	"github.com/wheel-empire/fortune-bot/cfg"
	"github.com/wheel-empire/fortune-bot/internal/ledger"
	"github.com/wheel-empire/fortune-bot/internal/log"
	"github.com/wheel-empire/fortune-bot/internal/model"
	"github.com/wheel-empire/fortune-bot/internal/tokens"
)

// Store is the slice of the record store the claim pipeline reads and
// writes.
type Store interface {
	GetUser(id int64) (*model.User, error)
	SetAdQuota(id int64, count int, limitedAt *time.Time) error
	SetSpinQuota(id int64, count int, limitedAt *time.Time) error
	GetTask(id int64) (*model.Task, error)
	GetAllTasks() ([]*model.Task, error)
	HasTaskClaim(userID, taskID int64) (bool, error)
	ClaimedTaskIDs(userID int64) (map[int64]bool, error)
	IncrementTaskCompleted(taskID int64) error
	CreateTaskClaim(userID, taskID int64) error
	CreateWithdrawal(w *model.Withdrawal) error
	BlockUser(id int64) error
}

// MembershipChecker is the external membership oracle. Implementations
// must fail closed: any error reads as "not a member".
type MembershipChecker interface {
	IsMember(userID, chatID int64) bool
}

// Users orchestrates reward claims: cooldown, token consumption, quota,
// balance mutation, commission dispatch — in that order.
type Users struct {
	store  Store
	tokens *tokens.Registry
	ledger *ledger.Ledger
	oracle MembershipChecker
	Msgs   *Msgs
	cfg    *cfg.Config
	logger log.Logger

	now func() time.Time

	statMu      sync.Mutex
	statDay     int64
	statCounter int
}

func NewUsersService(
	store Store,
	registry *tokens.Registry,
	ldgr *ledger.Ledger,
	oracle MembershipChecker,
	msgs *Msgs,
	config *cfg.Config,
	logger log.Logger,
) *Users {
	return &Users{
		store:  store,
		tokens: registry,
		ledger: ldgr,
		oracle: oracle,
		Msgs:   msgs,
		cfg:    config,
		logger: logger,
		now:    time.Now,
	}
}

// ClaimResult is the success payload of a committed claim.
type ClaimResult struct {
	Balance int64 `json:"balance"`
	Count   int   `json:"count,omitempty"`
	Reward  int64 `json:"reward"`
}

func (u *Users) reject(kind string, err error) error {
	model.RejectClaims.WithLabelValues(kind, model.ReasonCode(err)).Inc()
	return err
}

func (u *Users) accept(kind string) {
	model.HandleClaims.WithLabelValues(kind).Inc()
	u.countClaim()
}

func (u *Users) countClaim() {
	u.statMu.Lock()
	defer u.statMu.Unlock()

	if day := u.now().Unix() / 86400; day > u.statDay {
		u.statDay = day
		u.statCounter = 0
	}
	u.statCounter++
}

// SendTodayUpdateMsg reports and resets the daily claim counter. Wired
// to the cron from main.
func (u *Users) SendTodayUpdateMsg() {
	u.statMu.Lock()
	counter := u.statCounter
	u.statCounter = 0
	u.statMu.Unlock()

	u.Msgs.NotifyDeveloperf(true, "Today claims counter: %d", counter)
}
