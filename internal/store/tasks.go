package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// TaskStatus is one of the fixed states of a Task.
type TaskStatus string

const (
	TaskOpen        TaskStatus = "open"
	TaskInProgress  TaskStatus = "in_progress"
	TaskNeedsReview TaskStatus = "needs_review"
	TaskClosed      TaskStatus = "closed"
)

// Task is a unit of work, optionally nested under a parent task.
type Task struct {
	ID            string
	ProjectID     string
	Title         string
	Description   string
	Status        TaskStatus
	TaskType      string
	Priority      string
	ParentTaskID  string
	Assignee      string
	Labels        []string
	TestStrategy  string
	CreatedAt     string
	UpdatedAt     string
}

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, t *Task) (*Task, error) {
	t.ID = uuid.NewString()
	if t.Status == "" {
		t.Status = TaskOpen
	}
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt
	labels, err := json.Marshal(t.Labels)
	if err != nil {
		return nil, errors.Validation("labels", err.Error())
	}
	err = s.withTx(ctx, "tasks", ChangeInsert, t.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, project_id, title, description, status, task_type, priority,
				parent_task_id, assignee, labels, test_strategy, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.ProjectID, t.Title, t.Description, string(t.Status), t.TaskType, t.Priority,
			nullable(t.ParentTaskID), nullable(t.Assignee), string(labels), nullable(t.TestStrategy),
			t.CreatedAt, t.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, errors.External("sqlite", "insert-task", err)
	}
	return t, nil
}

// GetTask looks up a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	row := s.read.QueryRowContext(ctx, taskSelect+` WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasksByProject returns every task in a project, newest first. Unlike
// SearchTasks this requires no FTS query and is used by the C12 sync
// projector and the `gobby tasks list` CLI command.
func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]*Task, error) {
	rows, err := s.read.QueryContext(ctx, taskSelect+` WHERE project_id = ? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, errors.External("sqlite", "list-tasks", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		t := &Task{}
		var status, labels string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &t.TaskType, &t.Priority,
			&t.ParentTaskID, &t.Assignee, &labels, &t.TestStrategy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-task", err)
		}
		t.Status = TaskStatus(status)
		json.Unmarshal([]byte(labels), &t.Labels)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ClaimTask atomically sets assignee and moves status open->in_progress.
// A same-session re-claim of an already-claimed task is a no-op success.
// Claiming a task held by another session is a Conflict unless force=true.
func (s *Store) ClaimTask(ctx context.Context, taskID, sessionID string, force bool) error {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Assignee == sessionID && task.Status == TaskInProgress {
		return nil // idempotent re-claim
	}
	if task.Assignee != "" && task.Assignee != sessionID && !force {
		return errors.ConflictHeldBy("task", taskID, "already claimed", task.Assignee)
	}

	return s.withTx(ctx, "tasks", ChangeUpdate, taskID, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks SET assignee = ?, status = 'in_progress', updated_at = ?
			WHERE id = ? AND (assignee IS NULL OR assignee = ? OR ?)`,
			sessionID, now(), taskID, sessionID, force)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.ConflictHeldBy("task", taskID, "already claimed", task.Assignee)
		}
		return nil
	})
}

// CloseTask closes a task, requiring the full subtask tree to be complete.
func (s *Store) CloseTask(ctx context.Context, taskID string) error {
	complete, err := s.TaskTreeComplete(ctx, taskID)
	if err != nil {
		return err
	}
	if !complete {
		return errors.InvalidState("task", "open", "cannot close task with incomplete subtasks")
	}
	return s.withTx(ctx, "tasks", ChangeUpdate, taskID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE tasks SET status = 'closed', updated_at = ? WHERE id = ?`, now(), taskID)
		return err
	})
}

// TaskTreeComplete reports whether taskID and every descendant subtask is
// closed. A nil/empty taskID is vacuously true, matching the expression
// evaluator's task_tree_complete helper contract.
func (s *Store) TaskTreeComplete(ctx context.Context, taskID string) (bool, error) {
	if taskID == "" {
		return true, nil
	}
	var incomplete int
	err := s.read.QueryRowContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM tasks WHERE id = ?
			UNION ALL
			SELECT t.id FROM tasks t JOIN subtree s ON t.parent_task_id = s.id
		)
		SELECT COUNT(*) FROM tasks WHERE id IN (SELECT id FROM subtree) AND status != 'closed'`,
		taskID).Scan(&incomplete)
	if err != nil {
		return false, errors.External("sqlite", "task-tree-complete", err)
	}
	return incomplete == 0, nil
}

// AddTaskDependency records a `blocks` edge, rejecting cycles.
func (s *Store) AddTaskDependency(ctx context.Context, taskID, dependsOn, depType string) error {
	if taskID == dependsOn {
		return errors.Validation("depends_on", "a task cannot depend on itself")
	}
	var wouldCycle int
	err := s.read.QueryRowContext(ctx, `
		WITH RECURSIVE reach(id) AS (
			SELECT depends_on FROM task_dependencies WHERE task_id = ?
			UNION
			SELECT td.depends_on FROM task_dependencies td JOIN reach r ON td.task_id = r.id
		)
		SELECT COUNT(*) FROM reach WHERE id = ?`, dependsOn, taskID).Scan(&wouldCycle)
	if err != nil {
		return errors.External("sqlite", "check-dependency-cycle", err)
	}
	if wouldCycle > 0 {
		return errors.Validation("depends_on", "dependency would create a cycle")
	}
	if depType == "" {
		depType = "blocks"
	}
	return s.withTx(ctx, "task_dependencies", ChangeInsert, taskID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO task_dependencies (task_id, depends_on, dep_type) VALUES (?, ?, ?)`,
			taskID, dependsOn, depType)
		return err
	})
}

// SearchTasks performs an FTS5 match against title/description, then
// applies session_id/type/tag/status/priority filters to the candidate
// set. An empty query always returns zero results.
type TaskSearchFilter struct {
	ProjectID string
	SessionID string
	TaskType  string
	Status    string
	Priority  string
}

func (s *Store) SearchTasks(ctx context.Context, query string, filter TaskSearchFilter) ([]*Task, error) {
	if query == "" {
		return nil, nil
	}
	sqlQuery := `
		SELECT t.id, t.project_id, t.title, t.description, t.status, t.task_type, t.priority,
			COALESCE(t.parent_task_id, ''), COALESCE(t.assignee, ''), t.labels, COALESCE(t.test_strategy, ''),
			t.created_at, t.updated_at
		FROM tasks t JOIN tasks_fts f ON t.id = f.id
		WHERE tasks_fts MATCH ?`
	args := []interface{}{query}
	if filter.ProjectID != "" {
		sqlQuery += ` AND t.project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.SessionID != "" {
		sqlQuery += ` AND t.assignee = ?`
		args = append(args, filter.SessionID)
	}
	if filter.TaskType != "" {
		sqlQuery += ` AND t.task_type = ?`
		args = append(args, filter.TaskType)
	}
	if filter.Status != "" {
		sqlQuery += ` AND t.status = ?`
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		sqlQuery += ` AND t.priority = ?`
		args = append(args, filter.Priority)
	}
	rows, err := s.read.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, errors.External("sqlite", "search-tasks", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		t := &Task{}
		var status, labels string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &t.TaskType, &t.Priority,
			&t.ParentTaskID, &t.Assignee, &labels, &t.TestStrategy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-task", err)
		}
		t.Status = TaskStatus(status)
		json.Unmarshal([]byte(labels), &t.Labels)
		out = append(out, t)
	}
	return out, rows.Err()
}

const taskSelect = `
	SELECT id, project_id, title, description, status, task_type, priority,
		COALESCE(parent_task_id, ''), COALESCE(assignee, ''), labels, COALESCE(test_strategy, ''),
		created_at, updated_at
	FROM tasks`

func scanTask(row *sql.Row) (*Task, error) {
	t := &Task{}
	var status, labels string
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &t.TaskType, &t.Priority,
		&t.ParentTaskID, &t.Assignee, &labels, &t.TestStrategy, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("task", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-task", err)
	}
	t.Status = TaskStatus(status)
	if err := json.Unmarshal([]byte(labels), &t.Labels); err != nil {
		return nil, fmt.Errorf("unmarshal labels: %w", err)
	}
	return t, nil
}
