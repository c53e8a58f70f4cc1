package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheel-empire/fortune-bot/cfg"
	"github.com/wheel-empire/fortune-bot/internal/ledger"
	"github.com/wheel-empire/fortune-bot/internal/log"
	"github.com/wheel-empire/fortune-bot/internal/model"
	"github.com/wheel-empire/fortune-bot/internal/tokens"
)

type claimKey struct {
	userID int64
	taskID int64
}

type fakeStore struct {
	users       map[int64]*model.User
	tasks       map[int64]*model.Task
	claims      map[claimKey]bool
	withdrawals []*model.Withdrawal
	commissions []*model.Commission
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  map[int64]*model.User{},
		tasks:  map[int64]*model.Task{},
		claims: map[claimKey]bool{},
	}
}

func (f *fakeStore) GetUser(id int64) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) SetAdQuota(id int64, count int, limitedAt *time.Time) error {
	f.users[id].AdsToday = count
	f.users[id].AdsLimitedAt = limitedAt
	return nil
}

func (f *fakeStore) SetSpinQuota(id int64, count int, limitedAt *time.Time) error {
	f.users[id].SpinsToday = count
	f.users[id].SpinsLimitedAt = limitedAt
	return nil
}

func (f *fakeStore) GetTask(id int64) (*model.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return task, nil
}

func (f *fakeStore) GetAllTasks() ([]*model.Task, error) {
	tasks := make([]*model.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (f *fakeStore) HasTaskClaim(userID, taskID int64) (bool, error) {
	return f.claims[claimKey{userID, taskID}], nil
}

func (f *fakeStore) ClaimedTaskIDs(userID int64) (map[int64]bool, error) {
	claimed := map[int64]bool{}
	for key := range f.claims {
		if key.userID == userID {
			claimed[key.taskID] = true
		}
	}
	return claimed, nil
}

func (f *fakeStore) IncrementTaskCompleted(taskID int64) error {
	task := f.tasks[taskID]
	if task.Completed >= task.Capacity {
		return model.ErrCapacityExceeded
	}
	task.Completed++
	return nil
}

func (f *fakeStore) CreateTaskClaim(userID, taskID int64) error {
	key := claimKey{userID, taskID}
	if f.claims[key] {
		return model.ErrAlreadyClaimed
	}
	f.claims[key] = true
	return nil
}

func (f *fakeStore) CreateWithdrawal(w *model.Withdrawal) error {
	f.withdrawals = append(f.withdrawals, w)
	return nil
}

func (f *fakeStore) BlockUser(id int64) error {
	user, ok := f.users[id]
	if !ok {
		return model.ErrNotFound
	}
	user.Status = model.StatusBanned
	return nil
}

func (f *fakeStore) CreditBalance(id, amount, lastActionAt int64) (int64, error) {
	user, ok := f.users[id]
	if !ok {
		return 0, model.ErrNotFound
	}

	user.Balance += amount
	if lastActionAt > 0 {
		user.LastActionAt = lastActionAt
	}
	return user.Balance, nil
}

func (f *fakeStore) DebitBalance(id, amount, lastActionAt int64) (int64, error) {
	user, ok := f.users[id]
	if !ok {
		return 0, model.ErrNotFound
	}
	if user.Balance < amount {
		return 0, model.ErrInsufficientBalance
	}

	user.Balance -= amount
	user.LastActionAt = lastActionAt
	return user.Balance, nil
}

func (f *fakeStore) CreateCommission(c *model.Commission) error {
	f.commissions = append(f.commissions, c)
	return nil
}

type fakeOracle struct {
	member bool
}

func (f *fakeOracle) IsMember(userID, chatID int64) bool {
	return f.member
}

type fixture struct {
	svc    *Users
	store  *fakeStore
	ledger *ledger.Ledger
	oracle *fakeOracle
}

func newFixture(users ...*model.User) *fixture {
	fs := newFakeStore()
	for _, user := range users {
		fs.users[user.ID] = user
	}

	config := &cfg.Config{
		MinActionInterval: 3000 * time.Millisecond,
		TokenTTL:          time.Minute,
		TokenGrace:        10 * time.Second,
		QuotaResetAfter:   6 * time.Hour,
		MaxAdsPerPeriod:   100,
		MaxSpinsPerPeriod: 50,
		AdReward:          300,
		SpinPrizes:        []int64{0, 50, 100, 200, 300, 500, 1000},
		CommissionBP:      500,
		MinWithdrawal:     10000,
		DevChatID:         99,
	}

	logger := log.NewDefaultLogger()
	oracle := &fakeOracle{member: true}
	registry := tokens.NewRegistry(tokens.NewMemoryStore(), config.TokenTTL, config.TokenGrace)
	ldgr := ledger.NewLedger(fs, fs, config.CommissionBP, logger)

	return &fixture{
		svc:    NewUsersService(fs, registry, ldgr, oracle, NewMsgs(nil, 0, logger), config, logger),
		store:  fs,
		ledger: ldgr,
		oracle: oracle,
	}
}

// advance moves the service clock so the cooldown from the previous
// action has elapsed.
func (f *fixture) advance(d time.Duration) {
	target := time.Now().Add(d)
	f.svc.SetClock(func() time.Time { return target })
}

func TestWatchAdCreditsAndKillsToken(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)

	tokenID, err := f.svc.PrepareAd(user)
	require.NoError(t, err)

	result, err := f.svc.WatchAd(user, tokenID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), result.Balance)
	assert.Equal(t, int64(300), result.Reward)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 1, user.AdsToday)

	// Replaying the same token past the cooldown fails without paying.
	f.advance(5 * time.Second)
	_, err = f.svc.WatchAd(user, tokenID)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
	assert.Equal(t, int64(300), user.Balance)
}

func TestWatchAdSecondCallHitsCooldown(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)

	first, err := f.svc.PrepareAd(user)
	require.NoError(t, err)
	_, err = f.svc.WatchAd(user, first)
	require.NoError(t, err)

	second, err := f.svc.PrepareAd(user)
	require.NoError(t, err)

	_, err = f.svc.WatchAd(user, second)
	assert.ErrorIs(t, err, model.ErrRateLimited)

	// The cooldown fires before the token is consumed, so the token
	// survives for a later retry.
	f.advance(5 * time.Second)
	_, err = f.svc.WatchAd(user, second)
	assert.NoError(t, err)
}

func TestWatchAdQuotaExceeded(t *testing.T) {
	limitedAt := time.Now().Add(-time.Hour)
	user := &model.User{ID: 1, Status: model.StatusActive, AdsToday: 100, AdsLimitedAt: &limitedAt}
	f := newFixture(user)

	tokenID, err := f.svc.PrepareAd(user)
	require.NoError(t, err)

	_, err = f.svc.WatchAd(user, tokenID)
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)
	assert.Zero(t, user.Balance)
}

func TestWatchAdAtMaxStartsLockoutClock(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive, AdsToday: 100}
	f := newFixture(user)

	tokenID, err := f.svc.PrepareAd(user)
	require.NoError(t, err)

	_, err = f.svc.WatchAd(user, tokenID)
	assert.ErrorIs(t, err, model.ErrQuotaExceeded)

	// The lockout timestamp is persisted even though the claim was
	// rejected.
	assert.NotNil(t, user.AdsLimitedAt)
}

func TestWatchAdQuotaResetsAfterLockout(t *testing.T) {
	limitedAt := time.Now().Add(-7 * time.Hour)
	user := &model.User{ID: 1, Status: model.StatusActive, AdsToday: 100, AdsLimitedAt: &limitedAt}
	f := newFixture(user)

	tokenID, err := f.svc.PrepareAd(user)
	require.NoError(t, err)

	result, err := f.svc.WatchAd(user, tokenID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Nil(t, user.AdsLimitedAt)
}

func TestSpinCreditsSealedPrize(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)

	tokenID, err := f.svc.PrepareSpin(user)
	require.NoError(t, err)

	result, err := f.svc.Spin(user, tokenID)
	require.NoError(t, err)
	assert.Equal(t, result.Reward, result.Balance)
	assert.Contains(t, []int64{0, 50, 100, 200, 300, 500, 1000}, result.Reward)
	assert.Equal(t, 1, user.SpinsToday)
}

func TestSpinRejectsAdToken(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)

	tokenID, err := f.svc.PrepareAd(user)
	require.NoError(t, err)

	_, err = f.svc.Spin(user, tokenID)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestBannedUserCannotPrepareOrClaim(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusBanned}
	f := newFixture(user)

	_, err := f.svc.PrepareAd(user)
	assert.ErrorIs(t, err, model.ErrBanned)

	_, err = f.svc.WatchAd(user, "whatever")
	assert.ErrorIs(t, err, model.ErrBanned)

	_, err = f.svc.ClaimTask(user, 1)
	assert.ErrorIs(t, err, model.ErrBanned)

	_, _, err = f.svc.WithdrawMoneyFromBalance(user, "whatever", 10000, "wallet")
	assert.ErrorIs(t, err, model.ErrBanned)
}

func TestClaimTaskPaysOncePerUser(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)
	f.store.tasks[5] = &model.Task{ID: 5, Reward: 1000, Capacity: 10}

	result, err := f.svc.ClaimTask(user, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.Balance)
	assert.Equal(t, 1, f.store.tasks[5].Completed)

	f.advance(5 * time.Second)
	_, err = f.svc.ClaimTask(user, 5)
	assert.ErrorIs(t, err, model.ErrAlreadyClaimed)
	assert.Equal(t, int64(1000), user.Balance)
	assert.Equal(t, 1, f.store.tasks[5].Completed)
}

func TestClaimTaskCapacityExhausted(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)
	f.store.tasks[5] = &model.Task{ID: 5, Reward: 1000, Capacity: 3, Completed: 3}

	_, err := f.svc.ClaimTask(user, 5)
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)
	assert.Zero(t, user.Balance)
}

func TestClaimTaskUnknownTask(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)

	_, err := f.svc.ClaimTask(user, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClaimTaskRequiresMembership(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)
	f.oracle.member = false
	f.store.tasks[5] = &model.Task{ID: 5, Reward: 1000, Capacity: 10, ChatID: -100123}

	_, err := f.svc.ClaimTask(user, 5)
	assert.ErrorIs(t, err, model.ErrVerificationFailed)
	assert.Zero(t, user.Balance)
	assert.Zero(t, f.store.tasks[5].Completed)
}

func TestListTasksMarksClaimed(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)
	f.store.tasks[5] = &model.Task{ID: 5, Reward: 1000, Capacity: 10}
	f.store.claims[claimKey{1, 5}] = true

	views, err := f.svc.ListTasks(user)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Claimed)
}

func TestWithdrawalDebitsAndRecords(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive, Balance: 25000}
	f := newFixture(user)

	tokenID, err := f.svc.PrepareWithdrawal(user)
	require.NoError(t, err)

	withdrawal, balance, err := f.svc.WithdrawMoneyFromBalance(user, tokenID, 10000, "wallet-abc")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), balance)
	assert.NotEmpty(t, withdrawal.ID)
	assert.Equal(t, model.WithdrawalStatusRequested, withdrawal.Status)

	require.Len(t, f.store.withdrawals, 1)
	assert.Equal(t, int64(10000), f.store.withdrawals[0].Amount)
	assert.Equal(t, "wallet-abc", f.store.withdrawals[0].Destination)
}

func TestWithdrawalInsufficientBalance(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive, Balance: 5000}
	f := newFixture(user)

	tokenID, err := f.svc.PrepareWithdrawal(user)
	require.NoError(t, err)

	_, _, err = f.svc.WithdrawMoneyFromBalance(user, tokenID, 10000, "wallet-abc")
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)
	assert.Equal(t, int64(5000), user.Balance)
	assert.Empty(t, f.store.withdrawals)
}

func TestWithdrawalRejectsBadInput(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive, Balance: 50000}
	f := newFixture(user)

	tokenID, err := f.svc.PrepareWithdrawal(user)
	require.NoError(t, err)
	_, _, err = f.svc.WithdrawMoneyFromBalance(user, tokenID, 10000, "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	tokenID, err = f.svc.PrepareWithdrawal(user)
	require.NoError(t, err)
	_, _, err = f.svc.WithdrawMoneyFromBalance(user, tokenID, 500, "wallet-abc")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	assert.Equal(t, int64(50000), user.Balance)
}

func TestWatchAdPaysReferrerCommission(t *testing.T) {
	referrerID := int64(7)
	referee := &model.User{ID: 1, Status: model.StatusActive, ReferrerID: &referrerID}
	referrer := &model.User{ID: 7, Status: model.StatusActive}
	f := newFixture(referee, referrer)

	f.ledger.Run()

	tokenID, err := f.svc.PrepareAd(referee)
	require.NoError(t, err)
	result, err := f.svc.WatchAd(referee, tokenID)
	require.NoError(t, err)

	f.ledger.Stop()

	assert.Equal(t, int64(300), result.Balance)
	assert.Equal(t, int64(15), referrer.Balance)

	require.Len(t, f.store.commissions, 1)
	assert.Equal(t, int64(300), f.store.commissions[0].SourceAmount)
	assert.Equal(t, int64(15), f.store.commissions[0].Amount)
}

func TestPrepareSpinHandlesConcurrentRequests(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)

	const requests = 32

	var wg sync.WaitGroup
	errs := make(chan error, requests)

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.svc.PrepareSpin(user)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestClaimTaskFallsBackToSponsorChannel(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)
	f.svc.cfg.SponsorChatID = -100999
	f.oracle.member = false
	f.store.tasks[5] = &model.Task{ID: 5, Reward: 1000, Capacity: 10}

	_, err := f.svc.ClaimTask(user, 5)
	assert.ErrorIs(t, err, model.ErrVerificationFailed)
	assert.Zero(t, user.Balance)

	f.oracle.member = true
	result, err := f.svc.ClaimTask(user, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.Balance)
}

func TestListTasksFillsSponsorChannel(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)
	f.svc.cfg.SponsorChatID = -100999
	f.svc.cfg.SponsorChatLink = "https://t.me/sponsor"
	f.store.tasks[1] = &model.Task{ID: 1, Reward: 500, Capacity: 10, ChatID: -100123, ChatLink: "https://t.me/chan"}
	f.store.tasks[2] = &model.Task{ID: 2, Reward: 500, Capacity: 10}

	views, err := f.svc.ListTasks(user)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[int64]*TaskView{}
	for _, view := range views {
		byID[view.ID] = view
	}

	assert.Equal(t, "https://t.me/chan", byID[1].ChatLink)
	assert.Equal(t, int64(-100999), byID[2].ChatID)
	assert.Equal(t, "https://t.me/sponsor", byID[2].ChatLink)

	// The stored row keeps its own chat fields.
	assert.Zero(t, f.store.tasks[2].ChatID)
}

func TestBanUserIsDeveloperOnly(t *testing.T) {
	admin := &model.User{ID: 99, Status: model.StatusActive}
	target := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(admin, target)

	err := f.svc.BanUser(target, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, model.StatusActive, f.store.users[99].Status)

	err = f.svc.BanUser(admin, 404)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, f.svc.BanUser(admin, 1))
	assert.Equal(t, model.StatusBanned, f.store.users[1].Status)

	_, err = f.svc.PrepareAd(f.store.users[1])
	assert.ErrorIs(t, err, model.ErrBanned)
}

func TestGetProfileReadsFreshState(t *testing.T) {
	user := &model.User{ID: 1, Status: model.StatusActive}
	f := newFixture(user)

	// Mutate behind the handed-in copy.
	f.store.users[1].Balance = 4200
	f.store.users[1].ReferralCount = 3

	profile, err := f.svc.GetProfile(&model.User{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4200), profile.Balance)
	assert.Equal(t, 3, profile.ReferralCount)
	assert.Equal(t, model.StatusActive, profile.Status)
}
