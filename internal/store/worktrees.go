package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// WorktreeStatus is one of the fixed states of a Worktree.
type WorktreeStatus string

const (
	WorktreeActive   WorktreeStatus = "active"
	WorktreeStale    WorktreeStatus = "stale"
	WorktreeMerged   WorktreeStatus = "merged"
	WorktreeAbandoned WorktreeStatus = "abandoned"
)

// Worktree is an isolated git working directory bound to a branch.
type Worktree struct {
	ID              string
	ProjectID       string
	BranchName      string
	BaseBranch      string
	WorktreePath    string
	Status          WorktreeStatus
	AgentSessionID  string
	TaskID          string
	CreatedAt       string
	UpdatedAt       string
}

// CreateWorktree inserts a new worktree record.
func (s *Store) CreateWorktree(ctx context.Context, w *Worktree) (*Worktree, error) {
	w.ID = uuid.NewString()
	if w.Status == "" {
		w.Status = WorktreeActive
	}
	w.CreatedAt = now()
	w.UpdatedAt = w.CreatedAt
	err := s.withTx(ctx, "worktrees", ChangeInsert, w.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO worktrees (id, project_id, branch_name, base_branch, worktree_path, status,
				agent_session_id, task_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.ProjectID, w.BranchName, w.BaseBranch, w.WorktreePath, string(w.Status),
			nullable(w.AgentSessionID), nullable(w.TaskID), w.CreatedAt, w.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, errors.External("sqlite", "insert-worktree", err)
	}
	return w, nil
}

// GetWorktree looks up a worktree by id.
func (s *Store) GetWorktree(ctx context.Context, id string) (*Worktree, error) {
	row := s.read.QueryRowContext(ctx, worktreeSelect+` WHERE id = ?`, id)
	return scanWorktree(row)
}

// ClaimWorktree compare-and-swaps agent_session_id from NULL to sessionID.
func (s *Store) ClaimWorktree(ctx context.Context, id, sessionID string) error {
	return s.withTx(ctx, "worktrees", ChangeUpdate, id, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE worktrees SET agent_session_id = ?, updated_at = ?
			WHERE id = ? AND agent_session_id IS NULL`, sessionID, now(), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			wt, gerr := s.GetWorktree(ctx, id)
			holder := ""
			if gerr == nil {
				holder = wt.AgentSessionID
			}
			return errors.ConflictHeldBy("worktree", id, "already claimed", holder)
		}
		return nil
	})
}

// ReleaseWorktree clears the claim.
func (s *Store) ReleaseWorktree(ctx context.Context, id string) error {
	return s.withTx(ctx, "worktrees", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE worktrees SET agent_session_id = NULL, updated_at = ? WHERE id = ?`, now(), id)
		return err
	})
}

// TouchWorktree updates updated_at, used after a sync operation.
func (s *Store) TouchWorktree(ctx context.Context, id string) error {
	return s.withTx(ctx, "worktrees", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE worktrees SET updated_at = ? WHERE id = ?`, now(), id)
		return err
	})
}

// DeleteWorktree marks the record abandoned; the caller is responsible for
// removing the physical directory via the Worktree Manager.
func (s *Store) DeleteWorktree(ctx context.Context, id string, force bool) error {
	w, err := s.GetWorktree(ctx, id)
	if err != nil {
		return err
	}
	if w.AgentSessionID != "" && !force {
		return errors.ConflictHeldBy("worktree", id, "has an active claim", w.AgentSessionID)
	}
	return s.withTx(ctx, "worktrees", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE worktrees SET status = 'abandoned', agent_session_id = NULL, updated_at = ? WHERE id = ?`,
			now(), id)
		return err
	})
}

// StaleWorktrees returns active worktrees whose updated_at predates cutoff.
func (s *Store) StaleWorktrees(ctx context.Context, cutoffRFC3339 string) ([]*Worktree, error) {
	rows, err := s.read.QueryContext(ctx, worktreeSelect+` WHERE status = 'active' AND updated_at < ?`, cutoffRFC3339)
	if err != nil {
		return nil, errors.External("sqlite", "query-stale-worktrees", err)
	}
	defer rows.Close()
	var out []*Worktree
	for rows.Next() {
		w := &Worktree{}
		var status string
		if err := rows.Scan(&w.ID, &w.ProjectID, &w.BranchName, &w.BaseBranch, &w.WorktreePath, &status,
			&w.AgentSessionID, &w.TaskID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-worktree", err)
		}
		w.Status = WorktreeStatus(status)
		out = append(out, w)
	}
	return out, rows.Err()
}

const worktreeSelect = `
	SELECT id, project_id, branch_name, base_branch, worktree_path, status,
		COALESCE(agent_session_id, ''), COALESCE(task_id, ''), created_at, updated_at
	FROM worktrees`

func scanWorktree(row *sql.Row) (*Worktree, error) {
	w := &Worktree{}
	var status string
	err := row.Scan(&w.ID, &w.ProjectID, &w.BranchName, &w.BaseBranch, &w.WorktreePath, &status,
		&w.AgentSessionID, &w.TaskID, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("worktree", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-worktree", err)
	}
	w.Status = WorktreeStatus(status)
	return w, nil
}
