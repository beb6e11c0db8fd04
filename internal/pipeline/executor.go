// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gobbyhq/gobby/internal/store"
	pkgerrors "github.com/gobbyhq/gobby/pkg/errors"
)

// ErrApprovalRequired is returned by Run/Resume when execution has
// stopped at an approval gate rather than finished or failed.
var ErrApprovalRequired = errors.New("pipeline paused at an approval gate")

// Config bounds how many steps within one topological wave run at once.
type Config struct {
	MaxConcurrentSteps int
}

// DefaultConfig returns the packaged default concurrency cap.
func DefaultConfig() Config {
	return Config{MaxConcurrentSteps: 4}
}

// PromptRunner is the provider call made by a kind=prompt step. It
// mirrors internal/agent.InProcessRunner and internal/llm.ProviderAdapter's
// Complete signature so the same adapter wired into the agent supervisor
// can be handed to the pipeline executor without an adapter shim.
type PromptRunner interface {
	Complete(ctx context.Context, prompt string, options map[string]interface{}) (string, error)
}

// Executor loads and runs pipeline definitions against the Store.
type Executor struct {
	store   *store.Store
	loader  *Loader
	prompts PromptRunner
	cfg     Config
	logger  *slog.Logger
}

// New builds an Executor. prompts may be nil, in which case kind=prompt
// steps fail with a clear error rather than panicking, matching
// internal/agent.Supervisor's nil-runner contract.
func New(st *store.Store, loader *Loader, prompts PromptRunner, cfg Config, logger *slog.Logger) *Executor {
	if cfg.MaxConcurrentSteps <= 0 {
		cfg.MaxConcurrentSteps = DefaultConfig().MaxConcurrentSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: st, loader: loader, prompts: prompts, cfg: cfg, logger: logger}
}

// runState is the mutable bookkeeping threaded through one pipeline run:
// recorded step outputs (for $step.output resolution) and the
// StepExecution row id for each step, so a later wave or a Resume call
// can update the right row.
type runState struct {
	mu      sync.Mutex
	outputs map[string]interface{}
	rowID   map[string]string
}

func newRunState() *runState {
	return &runState{outputs: map[string]interface{}{}, rowID: map[string]string{}}
}

func (rs *runState) snapshotOutputs() map[string]interface{} {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make(map[string]interface{}, len(rs.outputs))
	for k, v := range rs.outputs {
		out[k] = v
	}
	return out
}

func (rs *runState) setOutput(stepID string, output interface{}) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.outputs[stepID] = output
}

func (rs *runState) setRow(stepID, rowID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.rowID[stepID] = rowID
}

// Run loads a pipeline by name and executes it against inputs,
// synchronously, until it either finishes, fails, or reaches an approval
// gate. The returned execution row always reflects the last status
// reached before Run returned.
func (e *Executor) Run(ctx context.Context, projectID, pipelineName string, inputs map[string]interface{}) (*store.PipelineExecution, error) {
	def, err := e.loader.Load(pipelineName)
	if err != nil {
		return nil, err
	}
	inputs = applyInputDefaults(def, inputs)
	if err := validateRequiredInputs(def, inputs); err != nil {
		return nil, err
	}

	proj, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, pkgerrors.Internal("pipeline", fmt.Errorf("marshal inputs: %w", err))
	}

	execution, err := e.store.CreatePipelineExecution(ctx, &store.PipelineExecution{
		ProjectID:    projectID,
		PipelineName: pipelineName,
		Inputs:       string(inputsJSON),
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.UpdatePipelineExecutionStatus(ctx, execution.ID, store.PipelineRunning, ""); err != nil {
		return nil, err
	}
	execution.Status = store.PipelineRunning

	connectors, err := newConnectors(proj.RepoPath)
	if err != nil {
		return nil, pkgerrors.Internal("pipeline", err)
	}

	rs := newRunState()
	result, runErr := e.runWaves(ctx, execution, def, inputs, waves(def.Steps), rs, connectors)
	return result, runErr
}

// Execute satisfies internal/workflow's PipelineExecutor interface: a
// workflow action that kicks off a pipeline only needs the execution id
// back, not the full row.
func (e *Executor) Execute(ctx context.Context, projectID, pipelineName string, inputs map[string]interface{}) (string, error) {
	execution, err := e.Run(ctx, projectID, pipelineName, inputs)
	if err != nil && execution == nil {
		return "", err
	}
	return execution.ID, nil
}

// Resume completes the step paused at resumeToken and continues any
// remaining waves.
func (e *Executor) Resume(ctx context.Context, resumeToken string, approved bool) (*store.PipelineExecution, error) {
	execution, err := e.store.GetPipelineExecutionByResumeToken(ctx, resumeToken)
	if err != nil {
		return nil, err
	}
	if execution.Status != store.PipelineWaiting {
		return nil, pkgerrors.InvalidState("pipeline_execution", string(execution.Status), "execution is not waiting on an approval gate")
	}

	def, err := e.loader.Load(execution.PipelineName)
	if err != nil {
		return nil, err
	}
	var inputs map[string]interface{}
	if execution.Inputs != "" {
		if err := json.Unmarshal([]byte(execution.Inputs), &inputs); err != nil {
			return nil, pkgerrors.Internal("pipeline", fmt.Errorf("unmarshal recorded inputs: %w", err))
		}
	}

	rows, err := e.store.ListStepExecutions(ctx, execution.ID)
	if err != nil {
		return nil, err
	}
	rs := newRunState()
	var gatedIdx = -1
	allWaves := waves(def.Steps)
	stepWave := make(map[string]int, len(def.Steps))
	for wi, wave := range allWaves {
		for _, s := range wave {
			stepWave[s.ID] = wi
		}
	}
	for _, row := range rows {
		rs.setRow(row.StepID, row.ID)
		switch row.Status {
		case store.StepSuccess:
			var out interface{}
			if row.Output != "" {
				_ = json.Unmarshal([]byte(row.Output), &out)
			}
			rs.setOutput(row.StepID, out)
		case store.StepWaitingApproval:
			gatedIdx = stepWave[row.StepID]
			if !approved {
				if err := e.store.UpdateStepExecutionStatus(ctx, row.ID, store.StepError, "", "rejected at approval gate"); err != nil {
					return nil, err
				}
				if err := e.store.UpdatePipelineExecutionStatus(ctx, execution.ID, store.PipelineError, ""); err != nil {
					return nil, err
				}
				execution.Status = store.PipelineError
				return execution, nil
			}
			if err := e.store.UpdateStepExecutionStatus(ctx, row.ID, store.StepSuccess, `{"approved":true}`, ""); err != nil {
				return nil, err
			}
			rs.setOutput(row.StepID, map[string]interface{}{"approved": true})
		}
	}
	if gatedIdx < 0 {
		return nil, pkgerrors.InvalidState("pipeline_execution", "waiting_approval", "no step is currently gated")
	}

	if err := e.store.UpdatePipelineExecutionStatus(ctx, execution.ID, store.PipelineRunning, ""); err != nil {
		return nil, err
	}
	execution.Status = store.PipelineRunning

	proj, err := e.store.GetProject(ctx, execution.ProjectID)
	if err != nil {
		return nil, err
	}
	connectors, err := newConnectors(proj.RepoPath)
	if err != nil {
		return nil, pkgerrors.Internal("pipeline", err)
	}

	return e.runWaves(ctx, execution, def, inputs, allWaves[gatedIdx+1:], rs, connectors)
}

// runWaves executes waves in order, stopping at the first approval gate
// or step failure that isn't continue_on_error.
func (e *Executor) runWaves(ctx context.Context, execution *store.PipelineExecution, def *Definition, inputs map[string]interface{}, remaining [][]StepSpec, rs *runState, connectors map[string]Connector) (*store.PipelineExecution, error) {
	res := newResolver(inputs)

	for _, wave := range remaining {
		gated, token, failed, err := e.runWave(ctx, execution, wave, rs, res, connectors)
		if err != nil {
			return execution, err
		}
		if gated != "" {
			execution.Status = store.PipelineWaiting
			execution.ResumeToken = token
			return execution, ErrApprovalRequired
		}
		if failed {
			if err := e.store.UpdatePipelineExecutionStatus(ctx, execution.ID, store.PipelineError, ""); err != nil {
				return execution, err
			}
			execution.Status = store.PipelineError
			return execution, nil
		}
	}

	outputs, err := materializeOutputs(ctx, def, inputs, rs.snapshotOutputs())
	if err != nil {
		return execution, err
	}
	outputsJSON, err := json.Marshal(outputs)
	if err != nil {
		return execution, pkgerrors.Internal("pipeline", fmt.Errorf("marshal outputs: %w", err))
	}
	if err := e.store.CompletePipelineExecutionOutputs(ctx, execution.ID, store.PipelineSuccess, string(outputsJSON)); err != nil {
		return execution, err
	}
	execution.Status = store.PipelineSuccess
	execution.Outputs = string(outputsJSON)
	return execution, nil
}

// runWave runs every step in one topological wave with a bounded worker
// pool (golang.org/x/sync/errgroup, capped by cfg.MaxConcurrentSteps).
// It returns the id of a step that hit an approval gate (if any) and
// whether any step failed without continue_on_error.
func (e *Executor) runWave(ctx context.Context, execution *store.PipelineExecution, wave []StepSpec, rs *runState, res *resolver, connectors map[string]Connector) (gatedStep, gatedToken string, failed bool, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrentSteps)

	var mu sync.Mutex

	for _, step := range wave {
		step := step
		g.Go(func() error {
			outcome, token, stepErr := e.runStep(gctx, execution, step, rs, res, connectors)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case stepOutcomeGated:
				if gatedStep == "" {
					gatedStep = step.ID
					gatedToken = token
				}
			case stepOutcomeFailed:
				failed = true
				if !step.ContinueOnError {
					return stepErr
				}
			}
			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return "", "", true, nil
	}
	return gatedStep, gatedToken, failed, nil
}

type stepOutcome int

const (
	stepOutcomeSuccess stepOutcome = iota
	stepOutcomeSkipped
	stepOutcomeGated
	stepOutcomeFailed
)

// runStep resolves one step's condition and inputs, runs it, and records
// the resulting StepExecution row.
func (e *Executor) runStep(ctx context.Context, execution *store.PipelineExecution, step StepSpec, rs *runState, res *resolver, connectors map[string]Connector) (stepOutcome, string, error) {
	row, err := e.store.CreateStepExecution(ctx, &store.StepExecution{ExecutionID: execution.ID, StepID: step.ID})
	if err != nil {
		return stepOutcomeFailed, "", err
	}
	rs.setRow(step.ID, row.ID)

	outputsSoFar := rs.snapshotOutputs()
	ok, err := evalCondition(step.Condition, res.inputs, outputsSoFar)
	if err != nil {
		_ = e.store.UpdateStepExecutionStatus(ctx, row.ID, store.StepError, "", err.Error())
		return stepOutcomeFailed, "", err
	}
	if !ok {
		if err := e.store.UpdateStepExecutionStatus(ctx, row.ID, store.StepSkipped, "", ""); err != nil {
			return stepOutcomeFailed, "", err
		}
		return stepOutcomeSkipped, "", nil
	}

	if step.Approval != nil && step.Approval.Required {
		token := uuid.NewString()
		if err := e.store.SetStepExecutionWaitingApproval(ctx, row.ID, token); err != nil {
			return stepOutcomeFailed, "", err
		}
		if err := e.store.UpdatePipelineExecutionStatus(ctx, execution.ID, store.PipelineWaiting, token); err != nil {
			return stepOutcomeFailed, "", err
		}
		return stepOutcomeGated, token, nil
	}

	if err := e.store.UpdateStepExecutionStatus(ctx, row.ID, store.StepRunning, "", ""); err != nil {
		return stepOutcomeFailed, "", err
	}

	output, err := e.execute(ctx, step, res, outputsSoFar, connectors)
	if err != nil {
		_ = e.store.UpdateStepExecutionStatus(ctx, row.ID, store.StepError, "", err.Error())
		return stepOutcomeFailed, "", err
	}

	outputJSON, err := json.Marshal(output)
	if err != nil {
		_ = e.store.UpdateStepExecutionStatus(ctx, row.ID, store.StepError, "", err.Error())
		return stepOutcomeFailed, "", err
	}
	if err := e.store.UpdateStepExecutionStatus(ctx, row.ID, store.StepSuccess, string(outputJSON), ""); err != nil {
		return stepOutcomeFailed, "", err
	}
	rs.setOutput(step.ID, output)
	return stepOutcomeSuccess, "", nil
}

// execute dispatches a step to its connector (kind=exec) or the prompt
// runner (kind=prompt), after resolving every $-reference in its inputs.
func (e *Executor) execute(ctx context.Context, step StepSpec, res *resolver, outputsSoFar map[string]interface{}, connectors map[string]Connector) (interface{}, error) {
	switch step.Kind {
	case KindPrompt:
		prompt, err := res.resolveString(ctx, step.Prompt, outputsSoFar)
		if err != nil {
			return nil, err
		}
		if e.prompts == nil {
			return nil, fmt.Errorf("step %q: no prompt runner wired for kind=prompt steps", step.ID)
		}
		text, err := e.prompts.Complete(ctx, fmt.Sprint(prompt), nil)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"text": text}, nil
	default: // KindExec
		conn, ok := connectors[step.Connector]
		if !ok {
			return nil, fmt.Errorf("step %q: unknown connector %q", step.ID, step.Connector)
		}
		resolvedInput, err := res.resolveValue(ctx, step.Input, outputsSoFar)
		if err != nil {
			return nil, err
		}
		inputMap, _ := resolvedInput.(map[string]interface{})
		// The recorded step output is the connector's response verbatim,
		// not wrapped in metadata, so "$step_id.output.field" indexes
		// directly into it per the reference grammar.
		response, _, err := conn.Run(ctx, step.Operation, inputMap)
		if err != nil {
			return nil, err
		}
		return response, nil
	}
}

// applyInputDefaults fills in declared-default values for inputs the
// caller didn't supply.
func applyInputDefaults(def *Definition, inputs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(inputs))
	for k, v := range inputs {
		out[k] = v
	}
	for name, spec := range def.Inputs {
		if _, ok := out[name]; !ok && spec.Default != nil {
			out[name] = spec.Default
		}
	}
	return out
}

// validateRequiredInputs rejects a run that's missing a declared
// required input.
func validateRequiredInputs(def *Definition, inputs map[string]interface{}) error {
	for name, spec := range def.Inputs {
		if spec.Required {
			if _, ok := inputs[name]; !ok {
				return pkgerrors.Validation("inputs."+name, fmt.Sprintf("pipeline %q requires input %q", def.Name, name))
			}
		}
	}
	return nil
}

// materializeOutputs resolves the pipeline's declared `outputs` mapping
// (name -> $-reference) against the recorded step outputs, per spec's
// "Completion writes outputs by materializing the declared outputs
// mapping against recorded step outputs."
func materializeOutputs(ctx context.Context, def *Definition, inputs map[string]interface{}, stepOutputs map[string]interface{}) (map[string]interface{}, error) {
	if len(def.Outputs) == 0 {
		return map[string]interface{}{}, nil
	}
	res := newResolver(inputs)
	out := make(map[string]interface{}, len(def.Outputs))
	for name, ref := range def.Outputs {
		val, err := res.resolveString(ctx, ref, stepOutputs)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		out[name] = val
	}
	return out, nil
}
