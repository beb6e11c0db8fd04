package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// AgentRunStatus is one of the fixed states of a spawned subagent invocation.
type AgentRunStatus string

const (
	RunPending   AgentRunStatus = "pending"
	RunRunning   AgentRunStatus = "running"
	RunSuccess   AgentRunStatus = "success"
	RunError     AgentRunStatus = "error"
	RunTimeout   AgentRunStatus = "timeout"
	RunCancelled AgentRunStatus = "cancelled"
)

// AgentExecutionMode is how a spawned agent process is attached.
type AgentExecutionMode string

const (
	ModeInProcess AgentExecutionMode = "in_process"
	ModeTerminal  AgentExecutionMode = "terminal"
	ModeEmbedded  AgentExecutionMode = "embedded"
	ModeHeadless  AgentExecutionMode = "headless"
)

// AgentRun is a spawned subagent invocation.
type AgentRun struct {
	ID               string
	ParentSessionID  string
	ChildSessionID   string
	WorkflowName     string
	Prompt           string
	Provider         string
	Model            string
	Mode             AgentExecutionMode
	Status           AgentRunStatus
	TurnsUsed        int
	ToolCallsCount   int
	Result           string
	Error            string
	CreatedAt        string
	StartedAt        string
	CompletedAt      string
}

// CreateAgentRun inserts a new pending AgentRun row.
func (s *Store) CreateAgentRun(ctx context.Context, r *AgentRun) (*AgentRun, error) {
	r.ID = uuid.NewString()
	if r.Status == "" {
		r.Status = RunPending
	}
	r.CreatedAt = now()
	err := s.withTx(ctx, "agent_runs", ChangeInsert, r.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO agent_runs (id, parent_session_id, child_session_id, workflow_name, prompt,
				provider, model, mode, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.ParentSessionID, nullable(r.ChildSessionID), nullable(r.WorkflowName), r.Prompt,
			nullable(r.Provider), nullable(r.Model), string(r.Mode), string(r.Status), r.CreatedAt)
		return err
	})
	if err != nil {
		return nil, errors.External("sqlite", "insert-agent-run", err)
	}
	return r, nil
}

// GetAgentRun looks up an agent run by id.
func (s *Store) GetAgentRun(ctx context.Context, id string) (*AgentRun, error) {
	row := s.read.QueryRowContext(ctx, agentRunSelect+` WHERE id = ?`, id)
	return scanAgentRun(row)
}

// SetAgentRunChildSession attaches the child session once spawn succeeds
// and marks the run running/started.
func (s *Store) SetAgentRunChildSession(ctx context.Context, id, childSessionID string) error {
	return s.withTx(ctx, "agent_runs", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE agent_runs SET child_session_id = ?, status = 'running', started_at = ? WHERE id = ?`,
			childSessionID, now(), id)
		return err
	})
}

// UpdateAgentRunStatus transitions status and optionally records
// result/error, stamping completed_at for terminal states.
func (s *Store) UpdateAgentRunStatus(ctx context.Context, id string, status AgentRunStatus, result, errMsg string) error {
	terminal := status == RunSuccess || status == RunError || status == RunTimeout || status == RunCancelled
	return s.withTx(ctx, "agent_runs", ChangeUpdate, id, func(tx *sql.Tx) error {
		if terminal {
			_, err := tx.ExecContext(ctx, `
				UPDATE agent_runs SET status = ?, result = ?, error = ?, completed_at = ? WHERE id = ?`,
				string(status), nullable(result), nullable(errMsg), now(), id)
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE agent_runs SET status = ? WHERE id = ?`, string(status), id)
		return err
	})
}

// IncrementAgentRunCounters bumps turns_used/tool_calls_count, used by the
// supervisor's Event Bus listener.
func (s *Store) IncrementAgentRunCounters(ctx context.Context, childSessionID string, turnDelta, toolCallDelta int) error {
	return s.withTx(ctx, "agent_runs", ChangeUpdate, childSessionID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE agent_runs SET turns_used = turns_used + ?, tool_calls_count = tool_calls_count + ?
			WHERE child_session_id = ?`, turnDelta, toolCallDelta, childSessionID)
		return err
	})
}

// StaleAgentRuns returns runs in {pending} older than pendingCutoff or in
// {running} older than runningCutoff, for the reaper.
func (s *Store) StaleAgentRuns(ctx context.Context, pendingCutoffRFC3339, runningCutoffRFC3339 string) ([]*AgentRun, error) {
	rows, err := s.read.QueryContext(ctx, agentRunSelect+`
		WHERE (status = 'pending' AND created_at < ?) OR (status = 'running' AND started_at < ?)`,
		pendingCutoffRFC3339, runningCutoffRFC3339)
	if err != nil {
		return nil, errors.External("sqlite", "query-stale-runs", err)
	}
	defer rows.Close()
	var out []*AgentRun
	for rows.Next() {
		r, err := scanAgentRunRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const agentRunSelect = `
	SELECT id, parent_session_id, COALESCE(child_session_id, ''), COALESCE(workflow_name, ''), prompt,
		COALESCE(provider, ''), COALESCE(model, ''), mode, status, turns_used, tool_calls_count,
		COALESCE(result, ''), COALESCE(error, ''), created_at, COALESCE(started_at, ''), COALESCE(completed_at, '')
	FROM agent_runs`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAgentRun(row *sql.Row) (*AgentRun, error) {
	r, err := scanAgentRunFrom(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("agent_run", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-agent-run", err)
	}
	return r, nil
}

func scanAgentRunRow(rows *sql.Rows) (*AgentRun, error) {
	r, err := scanAgentRunFrom(rows)
	if err != nil {
		return nil, errors.External("sqlite", "scan-agent-run", err)
	}
	return r, nil
}

func scanAgentRunFrom(sc rowScanner) (*AgentRun, error) {
	r := &AgentRun{}
	var mode, status string
	err := sc.Scan(&r.ID, &r.ParentSessionID, &r.ChildSessionID, &r.WorkflowName, &r.Prompt,
		&r.Provider, &r.Model, &mode, &status, &r.TurnsUsed, &r.ToolCallsCount,
		&r.Result, &r.Error, &r.CreatedAt, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	r.Mode = AgentExecutionMode(mode)
	r.Status = AgentRunStatus(status)
	return r, nil
}
