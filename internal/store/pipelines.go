package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// PipelineExecutionStatus is one of the fixed states of a pipeline run.
type PipelineExecutionStatus string

const (
	PipelinePending   PipelineExecutionStatus = "pending"
	PipelineRunning   PipelineExecutionStatus = "running"
	PipelineWaiting   PipelineExecutionStatus = "waiting_approval"
	PipelineSuccess   PipelineExecutionStatus = "success"
	PipelineError     PipelineExecutionStatus = "error"
	PipelineCancelled PipelineExecutionStatus = "cancelled"
)

// PipelineExecution is one run of a DAG pipeline definition.
type PipelineExecution struct {
	ID           string
	ProjectID    string
	SessionID    string
	PipelineName string
	Status       PipelineExecutionStatus
	Inputs       string // serialized JSON
	Outputs      string // serialized JSON, set on success
	ResumeToken  string
	CreatedAt    string
	UpdatedAt    string
	CompletedAt  string
}

// CreatePipelineExecution inserts a new pending pipeline run.
func (s *Store) CreatePipelineExecution(ctx context.Context, p *PipelineExecution) (*PipelineExecution, error) {
	p.ID = uuid.NewString()
	if p.Status == "" {
		p.Status = PipelinePending
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	err := s.withTx(ctx, "pipeline_executions", ChangeInsert, p.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pipeline_executions (id, project_id, session_id, pipeline_name, status, inputs,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ProjectID, nullable(p.SessionID), p.PipelineName, string(p.Status), nullable(p.Inputs),
			p.CreatedAt, p.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, errors.External("sqlite", "insert-pipeline-execution", err)
	}
	return p, nil
}

// GetPipelineExecution looks up a pipeline run by id.
func (s *Store) GetPipelineExecution(ctx context.Context, id string) (*PipelineExecution, error) {
	row := s.read.QueryRowContext(ctx, pipelineExecSelect+` WHERE id = ?`, id)
	return scanPipelineExecution(row)
}

// GetPipelineExecutionByResumeToken looks up the waiting execution holding
// an approval-gate resume token, used when an operator approves or rejects
// a paused step from the CLI or an external webhook callback.
func (s *Store) GetPipelineExecutionByResumeToken(ctx context.Context, token string) (*PipelineExecution, error) {
	row := s.read.QueryRowContext(ctx, pipelineExecSelect+` WHERE resume_token = ?`, token)
	return scanPipelineExecution(row)
}

// UpdatePipelineExecutionStatus transitions status, optionally setting or
// clearing the resume token (set when entering waiting_approval, cleared on
// resume) and stamping completed_at for terminal states.
func (s *Store) UpdatePipelineExecutionStatus(ctx context.Context, id string, status PipelineExecutionStatus, resumeToken string) error {
	terminal := status == PipelineSuccess || status == PipelineError || status == PipelineCancelled
	return s.withTx(ctx, "pipeline_executions", ChangeUpdate, id, func(tx *sql.Tx) error {
		if terminal {
			_, err := tx.ExecContext(ctx, `
				UPDATE pipeline_executions SET status = ?, resume_token = NULL, updated_at = ?, completed_at = ?
				WHERE id = ?`, string(status), now(), now(), id)
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE pipeline_executions SET status = ?, resume_token = ?, updated_at = ? WHERE id = ?`,
			string(status), nullable(resumeToken), now(), id)
		return err
	})
}

// CompletePipelineExecutionOutputs records the materialized `outputs`
// mapping alongside a terminal status transition, in the same statement
// so a reader never observes a `success` row with empty outputs.
func (s *Store) CompletePipelineExecutionOutputs(ctx context.Context, id string, status PipelineExecutionStatus, outputsJSON string) error {
	return s.withTx(ctx, "pipeline_executions", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE pipeline_executions SET status = ?, outputs = ?, resume_token = NULL, updated_at = ?, completed_at = ?
			WHERE id = ?`, string(status), nullable(outputsJSON), now(), now(), id)
		return err
	})
}

const pipelineExecSelect = `
	SELECT id, project_id, COALESCE(session_id, ''), pipeline_name, status, COALESCE(inputs, ''),
		COALESCE(outputs, ''), COALESCE(resume_token, ''), created_at, updated_at, COALESCE(completed_at, '')
	FROM pipeline_executions`

func scanPipelineExecution(row *sql.Row) (*PipelineExecution, error) {
	p := &PipelineExecution{}
	var status string
	err := row.Scan(&p.ID, &p.ProjectID, &p.SessionID, &p.PipelineName, &status, &p.Inputs,
		&p.Outputs, &p.ResumeToken, &p.CreatedAt, &p.UpdatedAt, &p.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("pipeline_execution", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-pipeline-execution", err)
	}
	p.Status = PipelineExecutionStatus(status)
	return p, nil
}

// StepExecutionStatus is one of the fixed states of a single DAG step run.
type StepExecutionStatus string

const (
	StepPending           StepExecutionStatus = "pending"
	StepRunning           StepExecutionStatus = "running"
	StepWaitingApproval   StepExecutionStatus = "waiting_approval"
	StepSuccess           StepExecutionStatus = "success"
	StepError             StepExecutionStatus = "error"
	StepSkipped           StepExecutionStatus = "skipped"
)

// StepExecution is the record of one node in a pipeline's DAG being run.
type StepExecution struct {
	ID          string
	ExecutionID string
	StepID      string
	Status        StepExecutionStatus
	Output        string
	Error         string
	ApprovalToken string
	CreatedAt     string
	StartedAt     string
	CompletedAt   string
}

// CreateStepExecution inserts a pending step row, unique per
// (execution_id, step_id) — re-running a wave is idempotent via
// INSERT OR IGNORE at the call site if needed.
func (s *Store) CreateStepExecution(ctx context.Context, st *StepExecution) (*StepExecution, error) {
	st.ID = uuid.NewString()
	if st.Status == "" {
		st.Status = StepPending
	}
	st.CreatedAt = now()
	err := s.withTx(ctx, "step_executions", ChangeInsert, st.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO step_executions (id, execution_id, step_id, status, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			st.ID, st.ExecutionID, st.StepID, string(st.Status), st.CreatedAt)
		return err
	})
	if err != nil {
		return nil, errors.External("sqlite", "insert-step-execution", err)
	}
	return st, nil
}

// UpdateStepExecutionStatus transitions a step's status, recording
// output/error and stamping started_at/completed_at as appropriate.
func (s *Store) UpdateStepExecutionStatus(ctx context.Context, id string, status StepExecutionStatus, output, errMsg string) error {
	started := status == StepRunning
	terminal := status == StepSuccess || status == StepError || status == StepSkipped
	return s.withTx(ctx, "step_executions", ChangeUpdate, id, func(tx *sql.Tx) error {
		switch {
		case started:
			_, err := tx.ExecContext(ctx, `
				UPDATE step_executions SET status = ?, started_at = ? WHERE id = ?`, string(status), now(), id)
			return err
		case terminal:
			_, err := tx.ExecContext(ctx, `
				UPDATE step_executions SET status = ?, output = ?, error = ?, completed_at = ? WHERE id = ?`,
				string(status), nullable(output), nullable(errMsg), now(), id)
			return err
		default:
			_, err := tx.ExecContext(ctx, `UPDATE step_executions SET status = ? WHERE id = ?`, string(status), id)
			return err
		}
	})
}

// SetStepExecutionWaitingApproval transitions a step to waiting_approval
// and records the per-step approval token, distinct from the execution's
// own resume_token (the caller resumes with the execution-level token;
// this one is kept on the row so an operator can trace which gate it
// unlocked).
func (s *Store) SetStepExecutionWaitingApproval(ctx context.Context, id, approvalToken string) error {
	return s.withTx(ctx, "step_executions", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE step_executions SET status = ?, approval_token = ? WHERE id = ?`,
			string(StepWaitingApproval), approvalToken, id)
		return err
	})
}

// ListStepExecutions returns every step row for a pipeline run, insertion
// order (which matches wave/topological order since steps are created
// wave-by-wave by the executor).
func (s *Store) ListStepExecutions(ctx context.Context, executionID string) ([]*StepExecution, error) {
	rows, err := s.read.QueryContext(ctx, `
		SELECT id, execution_id, step_id, status, COALESCE(output, ''), COALESCE(error, ''),
			COALESCE(approval_token, ''), created_at, COALESCE(started_at, ''), COALESCE(completed_at, '')
		FROM step_executions WHERE execution_id = ? ORDER BY created_at ASC`, executionID)
	if err != nil {
		return nil, errors.External("sqlite", "query-step-executions", err)
	}
	defer rows.Close()
	var out []*StepExecution
	for rows.Next() {
		st := &StepExecution{}
		var status string
		if err := rows.Scan(&st.ID, &st.ExecutionID, &st.StepID, &status, &st.Output, &st.Error,
			&st.ApprovalToken, &st.CreatedAt, &st.StartedAt, &st.CompletedAt); err != nil {
			return nil, errors.External("sqlite", "scan-step-execution", err)
		}
		st.Status = StepExecutionStatus(status)
		out = append(out, st)
	}
	return out, rows.Err()
}
