package model

import "time"

// Task is a sponsor offer: join a channel (or complete an external
// action), get paid once. ChatID is the verification target; a task
// with ChatID == 0 needs no membership check.
type Task struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Reward    int64  `json:"reward"`
	Capacity  int    `json:"capacity"`
	Completed int    `json:"completed"`
	ChatID    int64  `json:"-"`
	ChatLink  string `json:"chat_link,omitempty"`
}

// TaskClaim is the per-user completion record. Its existence is the
// authoritative "already claimed" signal; the (user_id, task_id) pair
// is unique in storage.
type TaskClaim struct {
	UserID    int64
	TaskID    int64
	CreatedAt time.Time
}
