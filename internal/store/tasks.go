package store

import (
	"database/sql"

	pkgerrors "github.com/pkg/errors"

	"github.com/wheel-empire/fortune-bot/internal/model"
)

func (s *Store) GetTask(id int64) (*model.Task, error) {
	task := &model.Task{}

	err := s.db.QueryRow(`
SELECT id, title, reward, capacity, completed, chat_id, chat_link
	FROM tasks
WHERE id = $1;`, id).Scan(
		&task.ID,
		&task.Title,
		&task.Reward,
		&task.Capacity,
		&task.Completed,
		&task.ChatID,
		&task.ChatLink)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get task")
	}

	return task, nil
}

func (s *Store) GetAllTasks() ([]*model.Task, error) {
	rows, err := s.db.Query(`
SELECT id, title, reward, capacity, completed, chat_id, chat_link
	FROM tasks
ORDER BY id;`)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get tasks from query")
	}

	tasks, err := readTasks(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "read tasks from rows")
	}

	return tasks, nil
}

func readTasks(rows *sql.Rows) ([]*model.Task, error) {
	defer rows.Close()

	var tasks []*model.Task

	for rows.Next() {
		task := &model.Task{}

		if err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Reward,
			&task.Capacity,
			&task.Completed,
			&task.ChatID,
			&task.ChatLink); err != nil {
			return nil, model.ErrScanSqlRow
		}

		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *Store) HasTaskClaim(userID, taskID int64) (bool, error) {
	var exists bool

	err := s.db.QueryRow(`
SELECT EXISTS (
	SELECT 1 FROM task_claims
	WHERE user_id = $1 AND task_id = $2
);`, userID, taskID).Scan(&exists)
	if err != nil {
		return false, pkgerrors.Wrap(err, "check task claim")
	}

	return exists, nil
}

func (s *Store) ClaimedTaskIDs(userID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(`
SELECT task_id FROM task_claims
	WHERE user_id = $1;`, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list claimed tasks")
	}
	defer rows.Close()

	claimed := make(map[int64]bool)
	for rows.Next() {
		var taskID int64
		if err := rows.Scan(&taskID); err != nil {
			return nil, model.ErrScanSqlRow
		}
		claimed[taskID] = true
	}

	return claimed, nil
}

// IncrementTaskCompleted counts one completion, guarded by the capacity
// inside the statement.
func (s *Store) IncrementTaskCompleted(taskID int64) error {
	res, err := s.db.Exec(`
UPDATE tasks SET completed = completed + 1
	WHERE id = $1 AND completed < capacity;`, taskID)
	if err != nil {
		return pkgerrors.Wrap(err, "increment task completed")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "increment task completed")
	}
	if affected == 0 {
		return model.ErrCapacityExceeded
	}

	return nil
}

// CreateTaskClaim inserts the per-user completion record. The unique
// (user_id, task_id) key is the canonical duplicate-claim signal: a
// unique violation here means another request already claimed the task.
func (s *Store) CreateTaskClaim(userID, taskID int64) error {
	_, err := s.db.Exec(`
INSERT INTO task_claims (user_id, task_id)
	VALUES ($1, $2);`, userID, taskID)
	if isUniqueViolation(err) {
		return model.ErrAlreadyClaimed
	}
	if err != nil {
		return pkgerrors.Wrap(err, "create task claim")
	}

	return nil
}
