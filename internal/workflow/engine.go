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

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/expression"
	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/pkg/errors"
)

// DefaultStuckCeiling is how long a step workflow may sit in one step
// before the engine force-transitions it to a reflect step, if the
// workflow defines one.
const DefaultStuckCeiling = 30 * time.Minute

// Event is the engine's own view of a hook event — decoupled from
// internal/hooks so this package has no dependency on it; hooks.Dispatch
// converts its HookEvent into this shape before calling HandleEvent.
type Event struct {
	Type      string // canonical hook event type, e.g. "before_tool", "after_tool"
	SessionID string
	ToolName  string
	ToolArgs  map[string]interface{}
	Data      map[string]interface{}
}

// Decision is the engine's verdict on an Event, pre-merge with any other
// subsystem's verdict at the hook-dispatch boundary.
type Decision string

const (
	DecisionAllow   Decision = "allow"
	DecisionDeny    Decision = "deny"
	DecisionBlock   Decision = "block"
	DecisionModify  Decision = "modify"
	DecisionWarn    Decision = "warn"
	DecisionApprove Decision = "require_approval"
)

// Response is HandleEvent's result.
type Response struct {
	Decision      Decision
	Reason        string
	SystemMessage string
}

// Engine runs step-machine and lifecycle workflows for sessions.
type Engine struct {
	store      *store.Store
	loader     *Loader
	evaluator  *expression.Evaluator
	actions    *ActionRegistry
	bus        *eventbus.Bus
	logger     *slog.Logger
	stuckAfter time.Duration
}

// New builds an Engine. bus may be nil (no events published).
func New(st *store.Store, loader *Loader, evaluator *expression.Evaluator, actions *ActionRegistry, bus *eventbus.Bus, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      st,
		loader:     loader,
		evaluator:  evaluator,
		actions:    actions,
		bus:        bus,
		logger:     logger,
		stuckAfter: DefaultStuckCeiling,
	}
}

// Activate attaches a step workflow to a session, creating its
// WorkflowInstance at the workflow's first declared step. If resume is
// true and an instance already exists, the existing instance is returned
// unchanged (idempotent). If resume is false and one already exists, this
// is an InvalidStateError.
func (e *Engine) Activate(ctx context.Context, sessionID, workflowName string, resume bool, args map[string]interface{}) (*store.WorkflowInstance, error) {
	def, err := e.loader.Load(workflowName)
	if err != nil {
		return nil, err
	}
	if def.Kind == KindLifecycle {
		return nil, errors.InvalidState("workflow", string(def.Kind), "lifecycle workflows auto-activate on trigger match and cannot be activated manually")
	}
	if len(def.Steps) == 0 {
		return nil, errors.Validation("steps", fmt.Sprintf("workflow %q declares no steps", workflowName))
	}

	existing, err := e.store.GetWorkflowInstance(ctx, sessionID, workflowName)
	if err != nil {
		if _, notFound := err.(*errors.NotFoundError); !notFound {
			return nil, err
		}
		existing = nil
	}
	if existing != nil {
		if !resume {
			return nil, errors.InvalidState("workflow", "active", fmt.Sprintf("workflow %q is already active on session %s", workflowName, sessionID))
		}
		return existing, nil
	}

	vars := mergeVariables(def.Variables, args)
	inst := &store.WorkflowInstance{
		SessionID:    sessionID,
		WorkflowName: workflowName,
		Kind:         store.WorkflowKind(kindToStoreKind(def.Kind)),
		Enabled:      true,
		CurrentStep:  def.Steps[0].Name,
		Variables:    vars,
	}
	return e.store.AttachWorkflowInstance(ctx, inst)
}

func kindToStoreKind(k Kind) string {
	if k == KindLifecycle {
		return string(store.WorkflowKindLifecycle)
	}
	return string(store.WorkflowKindTask)
}

// End deactivates a step workflow. Lifecycle workflows cannot be manually
// ended.
func (e *Engine) End(ctx context.Context, sessionID, workflowName string) error {
	def, err := e.loader.Load(workflowName)
	if err != nil {
		return err
	}
	if def.Kind == KindLifecycle {
		return errors.InvalidState("workflow", string(def.Kind), "lifecycle workflows cannot be manually ended")
	}
	inst, err := e.store.GetWorkflowInstance(ctx, sessionID, workflowName)
	if err != nil {
		return err
	}
	return e.store.ClearWorkflowInstance(ctx, inst.ID)
}

// HandleEvent runs the seven-step step-workflow evaluation flow for the
// session's active step workflow, if any, then fans out to every attached
// lifecycle workflow's matching triggers.
func (e *Engine) HandleEvent(ctx context.Context, evt Event) (Response, error) {
	if evt.SessionID == "" {
		return Response{Decision: DecisionAllow}, nil
	}

	sess, err := e.store.GetSession(ctx, evt.SessionID)
	if err != nil {
		return Response{}, err
	}

	instances, err := e.store.ListWorkflowInstances(ctx, evt.SessionID)
	if err != nil {
		return Response{}, err
	}

	resp := Response{Decision: DecisionAllow}
	var systemMessages []string

	for _, inst := range instances {
		if !inst.Enabled {
			continue
		}
		if inst.Kind == store.WorkflowKindLifecycle {
			continue
		}
		stepResp, err := e.handleStepEvent(ctx, inst, sess, evt)
		if err != nil {
			return Response{}, err
		}
		if stepResp.SystemMessage != "" {
			systemMessages = append(systemMessages, stepResp.SystemMessage)
		}
		if stepResp.Decision == DecisionDeny || stepResp.Decision == DecisionBlock {
			return stepResp, nil
		}
		if stepResp.Decision != DecisionAllow {
			resp = stepResp
		}
	}

	for _, inst := range instances {
		if !inst.Enabled || inst.Kind != store.WorkflowKindLifecycle {
			continue
		}
		msg, err := e.handleLifecycleEvent(ctx, inst, sess, evt)
		if err != nil {
			return Response{}, err
		}
		if msg != "" {
			systemMessages = append(systemMessages, msg)
		}
	}

	if len(systemMessages) > 0 {
		resp.Decision = DecisionModify
		for i, m := range systemMessages {
			if i == 0 {
				resp.SystemMessage = m
			} else {
				resp.SystemMessage += "\n" + m
			}
		}
	}
	return resp, nil
}

func (e *Engine) handleStepEvent(ctx context.Context, inst *store.WorkflowInstance, sess *store.Session, evt Event) (Response, error) {
	def, err := e.loader.Load(inst.WorkflowName)
	if err != nil {
		e.logger.Error("workflow definition not found", "workflow", inst.WorkflowName, "session", inst.SessionID, "error", err)
		return Response{Decision: DecisionAllow}, nil
	}

	// 2. Stuck detection.
	ceiling := e.stuckAfter
	if def.StuckAfterSeconds > 0 {
		ceiling = time.Duration(def.StuckAfterSeconds) * time.Second
	}
	if enteredAt, ok := parseTime(inst.StepEnteredAt); ok && time.Since(enteredAt) > ceiling {
		if reflect := findReflectStep(def); reflect != "" && inst.CurrentStep != reflect {
			if err := e.transitionTo(ctx, inst, def, reflect); err != nil {
				return Response{}, err
			}
			return Response{
				Decision:      DecisionModify,
				SystemMessage: fmt.Sprintf("[System Alert] Step duration limit exceeded. Transitioning to %q.", reflect),
			}, nil
		}
	}

	// 3. Load current step.
	step := findStep(def, inst.CurrentStep)
	if step == nil {
		return Response{Decision: DecisionAllow}, nil
	}

	evalCtx := expression.Context{
		Session:       sessionMap(sess),
		WorkflowState: instanceMap(inst),
		Event:         evt.Data,
		ToolName:      evt.ToolName,
		ToolArgs:      evt.ToolArgs,
		Variables:     inst.Variables,
	}

	// 4. Tool gating.
	if evt.Type == "before_tool" {
		for _, blocked := range step.BlockedTools {
			if blocked == evt.ToolName {
				return Response{Decision: DecisionDeny, Reason: fmt.Sprintf("tool %q is blocked in step %q", evt.ToolName, step.Name)}, nil
			}
		}
		if !step.AllowedTools.Allows(evt.ToolName) {
			return Response{Decision: DecisionDeny, Reason: fmt.Sprintf("tool %q is not in the allowed list for step %q", evt.ToolName, step.Name)}, nil
		}

		// 5. Rules, first match wins.
		for _, rule := range step.Rules {
			matched, err := e.evaluator.Evaluate(ctx, rule.When, evalCtx)
			if err != nil {
				return Response{}, err
			}
			if !matched {
				continue
			}
			switch rule.Action {
			case "block":
				return Response{Decision: DecisionBlock, Reason: firstNonEmpty(rule.Message, "blocked by workflow rule")}, nil
			case "warn":
				return Response{Decision: DecisionModify, SystemMessage: rule.Message}, nil
			case "require_approval":
				return Response{Decision: DecisionApprove, Reason: rule.Message}, nil
			case "modify":
				return Response{Decision: DecisionModify, SystemMessage: rule.Message}, nil
			}
		}
	}

	// 6. Transitions, first match wins.
	for _, t := range step.Transitions {
		matched, err := e.evaluator.Evaluate(ctx, t.When, evalCtx)
		if err != nil {
			return Response{}, err
		}
		if matched {
			if err := e.transitionTo(ctx, inst, def, t.To); err != nil {
				return Response{}, err
			}
			return Response{Decision: DecisionModify, SystemMessage: fmt.Sprintf("Transitioning to step: %s", t.To)}, nil
		}
	}

	// 7. Exit conditions: advance linearly if every condition passes.
	if len(step.ExitConditions) > 0 {
		allPass := true
		for _, cond := range step.ExitConditions {
			ok, err := e.evaluator.Evaluate(ctx, cond, evalCtx)
			if err != nil {
				return Response{}, err
			}
			if !ok {
				allPass = false
				break
			}
		}
		if allPass {
			if next := nextStep(def, step.Name); next != "" {
				if err := e.transitionTo(ctx, inst, def, next); err != nil {
					return Response{}, err
				}
				return Response{Decision: DecisionModify, SystemMessage: fmt.Sprintf("Transitioning to step: %s", next)}, nil
			}
			if err := e.store.ClearWorkflowInstance(ctx, inst.ID); err != nil {
				return Response{}, err
			}
			return Response{Decision: DecisionModify, SystemMessage: fmt.Sprintf("Workflow %q complete.", def.Name)}, nil
		}
	}

	// Counter update on tool_result-equivalent events.
	if evt.Type == "after_tool" {
		inst.StepActionCount++
		inst.TotalActionCount++
		if err := e.store.SaveWorkflowInstance(ctx, inst); err != nil {
			return Response{}, err
		}
	}

	return Response{Decision: DecisionAllow}, nil
}

func (e *Engine) handleLifecycleEvent(ctx context.Context, inst *store.WorkflowInstance, sess *store.Session, evt Event) (string, error) {
	def, err := e.loader.Load(inst.WorkflowName)
	if err != nil {
		e.logger.Error("lifecycle workflow definition not found", "workflow", inst.WorkflowName, "error", err)
		return "", nil
	}
	entries, ok := def.Triggers["on_"+evt.Type]
	if !ok {
		return "", nil
	}
	evalCtx := expression.Context{
		Session:       sessionMap(sess),
		WorkflowState: instanceMap(inst),
		Event:         evt.Data,
		ToolName:      evt.ToolName,
		ToolArgs:      evt.ToolArgs,
		Variables:     inst.Variables,
	}

	var messages []string
	for _, entry := range entries {
		matched, err := e.evaluator.Evaluate(ctx, entry.When, evalCtx)
		if err != nil {
			return "", err
		}
		if !matched {
			continue
		}
		msgs, err := e.actions.Run(ctx, entry.Actions, inst, sess)
		if err != nil {
			return "", err
		}
		messages = append(messages, msgs...)
	}
	if len(messages) == 0 {
		return "", nil
	}
	if err := e.store.SaveWorkflowInstance(ctx, inst); err != nil {
		return "", err
	}
	out := messages[0]
	for _, m := range messages[1:] {
		out += "\n" + m
	}
	return out, nil
}

// TransitionTo is the manual-transition entry point. A transition to a
// step guarded by a `when`-gated auto-transition targeting it is rejected
// unless force is true, to prevent circumventing the workflow.
func (e *Engine) TransitionTo(ctx context.Context, sessionID, workflowName, targetStep string, force bool) error {
	inst, err := e.store.GetWorkflowInstance(ctx, sessionID, workflowName)
	if err != nil {
		return err
	}
	def, err := e.loader.Load(workflowName)
	if err != nil {
		return err
	}
	if !force && isAutoGated(def, targetStep) {
		return errors.InvalidState("workflow", inst.CurrentStep, fmt.Sprintf("step %q has a guarded auto-transition targeting it", targetStep))
	}
	return e.transitionTo(ctx, inst, def, targetStep)
}

// transitionTo runs the three-phase transition: on_exit of the old step,
// state mutation and persistence, then on_enter of the new step.
func (e *Engine) transitionTo(ctx context.Context, inst *store.WorkflowInstance, def *Definition, target string) error {
	newStep := findStep(def, target)
	if newStep == nil {
		return errors.NotFound("step", target)
	}
	oldStep := findStep(def, inst.CurrentStep)

	var sess *store.Session
	if oldStep != nil && len(oldStep.OnExit) > 0 {
		sess, _ = e.store.GetSession(ctx, inst.SessionID)
		if _, err := e.actions.Run(ctx, oldStep.OnExit, inst, sess); err != nil {
			return err
		}
	}

	inst.CurrentStep = target
	inst.StepEnteredAt = time.Now().UTC().Format(time.RFC3339)
	inst.StepActionCount = 0
	if inst.Flags == nil {
		inst.Flags = map[string]bool{}
	}
	inst.Flags["context_injected"] = false
	if err := e.store.SaveWorkflowInstance(ctx, inst); err != nil {
		return err
	}

	if len(newStep.OnEnter) > 0 {
		if sess == nil {
			sess, _ = e.store.GetSession(ctx, inst.SessionID)
		}
		if _, err := e.actions.Run(ctx, newStep.OnEnter, inst, sess); err != nil {
			return err
		}
		if err := e.store.SaveWorkflowInstance(ctx, inst); err != nil {
			return err
		}
	}

	if e.bus != nil {
		e.bus.Publish(eventbus.Event{
			Topic:     eventbus.TopicWorkflow,
			Kind:      "transition",
			ID:        inst.ID,
			Payload:   map[string]interface{}{"session_id": inst.SessionID, "workflow": def.Name, "to": target},
			Timestamp: time.Now().UTC(),
		})
	}
	return nil
}

func findStep(def *Definition, name string) *StepDefinition {
	for i := range def.Steps {
		if def.Steps[i].Name == name {
			return &def.Steps[i]
		}
	}
	return nil
}

func findReflectStep(def *Definition) string {
	for _, s := range def.Steps {
		if s.Reflect {
			return s.Name
		}
	}
	return ""
}

func nextStep(def *Definition, current string) string {
	for i, s := range def.Steps {
		if s.Name == current && i+1 < len(def.Steps) {
			return def.Steps[i+1].Name
		}
	}
	return ""
}

func isAutoGated(def *Definition, target string) bool {
	for _, s := range def.Steps {
		for _, t := range s.Transitions {
			if t.To == target && t.When != "" {
				return true
			}
		}
	}
	return false
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func sessionMap(sess *store.Session) map[string]interface{} {
	if sess == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"id":          sess.ID,
		"status":      string(sess.Status),
		"title":       sess.Title,
		"cwd":         sess.CWD,
		"git_branch":  sess.GitBranch,
		"agent_depth": sess.AgentDepth,
		"project_id":  sess.ProjectID,
	}
}

func instanceMap(inst *store.WorkflowInstance) map[string]interface{} {
	return map[string]interface{}{
		"workflow_name":      inst.WorkflowName,
		"step":               inst.CurrentStep,
		"step_action_count":  inst.StepActionCount,
		"total_action_count": inst.TotalActionCount,
		"observations":       inst.Observations,
		"flags":              inst.Flags,
	}
}
