package services

import (
	"github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/limits"
	"github.com/wheel-empire/fortune-bot/internal/model"
)

const kindTask = "task"

// TaskView is a task as shown to one user.
type TaskView struct {
	*model.Task
	Claimed bool `json:"claimed"`
}

func (u *Users) ListTasks(user *model.User) ([]*TaskView, error) {
	tasks, err := u.store.GetAllTasks()
	if err != nil {
		return nil, errors.Wrap(err, "get all tasks")
	}

	claimed, err := u.store.ClaimedTaskIDs(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "get claimed tasks")
	}

	views := make([]*TaskView, 0, len(tasks))
	for _, task := range tasks {
		view := *task
		if view.ChatID == 0 {
			view.ChatID = u.cfg.SponsorChatID
			if view.ChatLink == "" {
				view.ChatLink = u.cfg.SponsorChatLink
			}
		}
		views = append(views, &TaskView{Task: &view, Claimed: claimed[task.ID]})
	}
	return views, nil
}

// ClaimTask pays a sponsor task once per user. The unique completion
// record is the last word on duplicates: the preceding read only keeps
// the common case cheap.
func (u *Users) ClaimTask(user *model.User, taskID int64) (*ClaimResult, error) {
	if user.Banned() {
		return nil, u.reject(kindTask, model.ErrBanned)
	}

	if err := limits.CheckCooldown(user.LastActionAt, u.now(), u.cfg.MinActionInterval); err != nil {
		return nil, u.reject(kindTask, err)
	}

	task, err := u.store.GetTask(taskID)
	if err != nil {
		return nil, u.reject(kindTask, err)
	}

	done, err := u.store.HasTaskClaim(user.ID, taskID)
	if err != nil {
		return nil, u.reject(kindTask, errors.Wrap(err, "check task claim"))
	}
	if done {
		return nil, u.reject(kindTask, model.ErrAlreadyClaimed)
	}

	if task.Completed >= task.Capacity {
		return nil, u.reject(kindTask, model.ErrCapacityExceeded)
	}

	// Tasks without their own channel verify against the sponsor
	// channel, when one is configured.
	chatID := task.ChatID
	if chatID == 0 {
		chatID = u.cfg.SponsorChatID
	}

	if chatID != 0 {
		ok := u.oracle.IsMember(user.ID, chatID)
		result := "member"
		if !ok {
			result = "not_member"
		}
		model.CheckSubscribe.WithLabelValues(kindTask, result).Inc()

		if !ok {
			return nil, u.reject(kindTask, model.ErrVerificationFailed)
		}
	}

	if err := u.store.IncrementTaskCompleted(taskID); err != nil {
		return nil, u.reject(kindTask, err)
	}

	if err := u.store.CreateTaskClaim(user.ID, taskID); err != nil {
		return nil, u.reject(kindTask, err)
	}

	balance, err := u.ledger.Credit(user.ID, task.Reward)
	if err != nil {
		return nil, u.reject(kindTask, err)
	}

	u.ledger.DispatchCommission(user, task.Reward)
	u.accept(kindTask)

	return &ClaimResult{
		Balance: balance,
		Reward:  task.Reward,
	}, nil
}
