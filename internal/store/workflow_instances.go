package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// WorkflowKind distinguishes a lifecycle workflow (attached to a session for
// its whole life, variables persist across phase resets) from a task or
// project workflow (scoped to a single piece of work, reset on clear).
type WorkflowKind string

const (
	WorkflowKindLifecycle WorkflowKind = "lifecycle"
	WorkflowKindTask      WorkflowKind = "task"
	WorkflowKindProject   WorkflowKind = "project"
)

// WorkflowInstance is the persisted state machine driving one workflow
// definition attached to a session: current step, per-step and
// per-instance action counters, accumulated observations, and variables.
type WorkflowInstance struct {
	ID               string
	SessionID        string
	WorkflowName     string
	Kind             WorkflowKind
	Enabled          bool
	CurrentStep      string
	StepEnteredAt    string
	StepActionCount  int
	TotalActionCount int
	Observations     []string
	Flags            map[string]bool
	Variables        map[string]interface{}
	TaskList         []string
	CurrentTaskIndex int
	HasTaskIndex     bool
	ApprovalPending  string
	CreatedAt        string
	UpdatedAt        string
}

// GetWorkflowInstance loads the persisted state for (sessionID, workflowName).
func (s *Store) GetWorkflowInstance(ctx context.Context, sessionID, workflowName string) (*WorkflowInstance, error) {
	row := s.read.QueryRowContext(ctx, workflowInstanceSelect+` WHERE session_id = ? AND workflow_name = ?`,
		sessionID, workflowName)
	return scanWorkflowInstance(row)
}

// ListWorkflowInstances returns every workflow attached to a session.
func (s *Store) ListWorkflowInstances(ctx context.Context, sessionID string) ([]*WorkflowInstance, error) {
	rows, err := s.read.QueryContext(ctx, workflowInstanceSelect+` WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, errors.External("sqlite", "query-workflow-instances", err)
	}
	defer rows.Close()
	var out []*WorkflowInstance
	for rows.Next() {
		wi, err := scanWorkflowInstanceRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wi)
	}
	return out, rows.Err()
}

// AttachWorkflowInstance creates the initial state for a workflow being
// attached to a session for the first time — entering its first step.
func (s *Store) AttachWorkflowInstance(ctx context.Context, wi *WorkflowInstance) (*WorkflowInstance, error) {
	wi.ID = uuid.NewString()
	wi.CreatedAt = now()
	wi.UpdatedAt = wi.CreatedAt
	wi.StepEnteredAt = wi.CreatedAt
	if wi.Observations == nil {
		wi.Observations = []string{}
	}
	if wi.Flags == nil {
		wi.Flags = map[string]bool{}
	}
	if wi.Variables == nil {
		wi.Variables = map[string]interface{}{}
	}

	obs, err := json.Marshal(wi.Observations)
	if err != nil {
		return nil, errors.Validation("observations", err.Error())
	}
	flags, err := json.Marshal(wi.Flags)
	if err != nil {
		return nil, errors.Validation("flags", err.Error())
	}
	vars, err := json.Marshal(wi.Variables)
	if err != nil {
		return nil, errors.Validation("variables", err.Error())
	}
	taskList, err := json.Marshal(wi.TaskList)
	if err != nil {
		return nil, errors.Validation("task_list", err.Error())
	}

	ierr := s.withTx(ctx, "workflow_instances", ChangeInsert, wi.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO workflow_instances (id, session_id, workflow_name, kind, enabled, current_step,
				step_entered_at, step_action_count, total_action_count, observations, flags, variables,
				task_list, current_task_index, approval_pending, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			wi.ID, wi.SessionID, wi.WorkflowName, string(wi.Kind), boolToInt(wi.Enabled), wi.CurrentStep,
			wi.StepEnteredAt, wi.StepActionCount, wi.TotalActionCount, string(obs), string(flags), string(vars),
			string(taskList), nullableInt(wi.HasTaskIndex, wi.CurrentTaskIndex), nullable(wi.ApprovalPending),
			wi.CreatedAt, wi.UpdatedAt)
		return err
	})
	if ierr != nil {
		return nil, errors.External("sqlite", "insert-workflow-instance", ierr)
	}
	return wi, nil
}

// SaveWorkflowInstance persists the full state of an attached workflow
// instance, used after every transition_to and every action execution.
func (s *Store) SaveWorkflowInstance(ctx context.Context, wi *WorkflowInstance) error {
	obs, err := json.Marshal(wi.Observations)
	if err != nil {
		return errors.Validation("observations", err.Error())
	}
	flags, err := json.Marshal(wi.Flags)
	if err != nil {
		return errors.Validation("flags", err.Error())
	}
	vars, err := json.Marshal(wi.Variables)
	if err != nil {
		return errors.Validation("variables", err.Error())
	}
	taskList, err := json.Marshal(wi.TaskList)
	if err != nil {
		return errors.Validation("task_list", err.Error())
	}
	wi.UpdatedAt = now()

	return s.withTx(ctx, "workflow_instances", ChangeUpdate, wi.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE workflow_instances SET enabled = ?, current_step = ?, step_entered_at = ?,
				step_action_count = ?, total_action_count = ?, observations = ?, flags = ?, variables = ?,
				task_list = ?, current_task_index = ?, approval_pending = ?, updated_at = ?
			WHERE id = ?`,
			boolToInt(wi.Enabled), wi.CurrentStep, wi.StepEnteredAt, wi.StepActionCount, wi.TotalActionCount,
			string(obs), string(flags), string(vars), string(taskList),
			nullableInt(wi.HasTaskIndex, wi.CurrentTaskIndex), nullable(wi.ApprovalPending), wi.UpdatedAt, wi.ID)
		return err
	})
}

// ClearWorkflowInstance resets step/counters/observations/task_list back to
// zero state, as if the workflow had just been attached. Variables owned by
// a lifecycle workflow survive the clear; variables on task/project
// workflows are reset along with everything else, since those workflows
// are scoped to the unit of work being cleared.
func (s *Store) ClearWorkflowInstance(ctx context.Context, id string) error {
	wi, err := s.getWorkflowInstanceByID(ctx, id)
	if err != nil {
		return err
	}
	vars := map[string]interface{}{}
	if wi.Kind == WorkflowKindLifecycle {
		vars = wi.Variables
	}
	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return errors.Validation("variables", err.Error())
	}

	return s.withTx(ctx, "workflow_instances", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE workflow_instances SET current_step = NULL, step_entered_at = ?, step_action_count = 0,
				total_action_count = 0, observations = '[]', flags = '{}', variables = ?, task_list = NULL,
				current_task_index = NULL, approval_pending = NULL, updated_at = ?
			WHERE id = ?`, now(), string(varsJSON), now(), id)
		return err
	})
}

func (s *Store) getWorkflowInstanceByID(ctx context.Context, id string) (*WorkflowInstance, error) {
	row := s.read.QueryRowContext(ctx, workflowInstanceSelect+` WHERE id = ?`, id)
	return scanWorkflowInstance(row)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableInt(has bool, v int) interface{} {
	if !has {
		return nil
	}
	return v
}

const workflowInstanceSelect = `
	SELECT id, session_id, workflow_name, kind, enabled, COALESCE(current_step, ''), COALESCE(step_entered_at, ''),
		step_action_count, total_action_count, observations, flags, variables, COALESCE(task_list, '[]'),
		current_task_index, COALESCE(approval_pending, ''), created_at, updated_at
	FROM workflow_instances`

func scanWorkflowInstance(row *sql.Row) (*WorkflowInstance, error) {
	wi, err := scanWorkflowInstanceFields(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("workflow_instance", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-workflow-instance", err)
	}
	return wi, nil
}

func scanWorkflowInstanceRow(rows *sql.Rows) (*WorkflowInstance, error) {
	wi, err := scanWorkflowInstanceFields(rows)
	if err != nil {
		return nil, errors.External("sqlite", "scan-workflow-instance", err)
	}
	return wi, nil
}

func scanWorkflowInstanceFields(sc rowScanner) (*WorkflowInstance, error) {
	wi := &WorkflowInstance{}
	var kind string
	var enabledInt int
	var observations, flags, variables, taskList string
	var currentTaskIndex sql.NullInt64

	err := sc.Scan(&wi.ID, &wi.SessionID, &wi.WorkflowName, &kind, &enabledInt, &wi.CurrentStep, &wi.StepEnteredAt,
		&wi.StepActionCount, &wi.TotalActionCount, &observations, &flags, &variables, &taskList,
		&currentTaskIndex, &wi.ApprovalPending, &wi.CreatedAt, &wi.UpdatedAt)
	if err != nil {
		return nil, err
	}

	wi.Kind = WorkflowKind(kind)
	wi.Enabled = enabledInt != 0
	if err := json.Unmarshal([]byte(observations), &wi.Observations); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(flags), &wi.Flags); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(variables), &wi.Variables); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(taskList), &wi.TaskList); err != nil {
		return nil, err
	}
	if currentTaskIndex.Valid {
		wi.HasTaskIndex = true
		wi.CurrentTaskIndex = int(currentTaskIndex.Int64)
	}
	return wi, nil
}
