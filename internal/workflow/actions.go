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
	"sync"

	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/pkg/errors"
)

// ActionContext is the state one action invocation runs against.
type ActionContext struct {
	Context   context.Context
	Instance  *store.WorkflowInstance
	Session   *store.Session
	Args      map[string]interface{}
	SystemMsg string // set by the action to surface as HookResponse.SystemMessage
}

// ActionFunc is a registered action's implementation. It mutates
// ac.Instance.Variables/Observations in place; the engine persists the
// instance after every action list runs.
type ActionFunc func(ac *ActionContext) error

// ActionRegistry is the typed, name-keyed action dispatch table. Built-ins
// are registered by NewActionRegistry; RegisterAction adds more and
// rejects a duplicate name the same way Predicates.RegisterPredicate does.
type ActionRegistry struct {
	deps Dependencies

	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// Dependencies are the subsystems the built-in actions call into. Each is
// an interface so the engine's own tests can run without the concrete
// MCP/agent/worktree/pipeline/webhook packages existing yet; daemon
// startup wires the real implementations once C7-C11 exist.
type Dependencies struct {
	Tools     ToolCaller
	Agents    AgentSpawner
	Messenger Messenger
	Sessions  SessionArchiver
	Tasks     TaskCreator
	Pipelines PipelineExecutor
	Webhooks  WebhookEmitter
}

type ToolCaller interface {
	CallTool(ctx context.Context, server, tool string, args map[string]interface{}) (interface{}, error)
}

type AgentSpawner interface {
	Spawn(ctx context.Context, parentSessionID string, args map[string]interface{}) (string, error)
}

type Messenger interface {
	Send(ctx context.Context, fromSessionID string, args map[string]interface{}) error
}

type SessionArchiver interface {
	Archive(ctx context.Context, sessionID string) error
}

type TaskCreator interface {
	CreateTask(ctx context.Context, projectID string, args map[string]interface{}) (string, error)
}

type PipelineExecutor interface {
	Execute(ctx context.Context, projectID, pipelineName string, inputs map[string]interface{}) (string, error)
}

type WebhookEmitter interface {
	Emit(ctx context.Context, event string, payload map[string]interface{}) error
}

// NewActionRegistry builds the registry with the nine built-in actions
// bound against deps.
func NewActionRegistry(deps Dependencies) *ActionRegistry {
	r := &ActionRegistry{deps: deps, actions: make(map[string]ActionFunc)}
	r.actions["inject_context"] = actionInjectContext
	r.actions["set_variable"] = actionSetVariable
	r.actions["call_tool"] = r.actionCallTool
	r.actions["spawn_agent"] = r.actionSpawnAgent
	r.actions["send_message"] = r.actionSendMessage
	r.actions["archive_session"] = r.actionArchiveSession
	r.actions["create_task"] = r.actionCreateTask
	r.actions["execute_pipeline"] = r.actionExecutePipeline
	r.actions["emit_webhook"] = r.actionEmitWebhook
	return r
}

// RegisterAction adds a plugin action under name. Registering over a
// built-in or an already-registered plugin name is a startup error.
func (r *ActionRegistry) RegisterAction(name string, fn ActionFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return errors.AlreadyExists("action", name)
	}
	r.actions[name] = fn
	return nil
}

// Run executes every action in specs, in order, stopping at the first
// error.
func (r *ActionRegistry) Run(ctx context.Context, specs []ActionSpec, inst *store.WorkflowInstance, sess *store.Session) (systemMessages []string, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, spec := range specs {
		fn, ok := r.actions[spec.Action]
		if !ok {
			return systemMessages, errors.Validation("action", fmt.Sprintf("unknown action %q", spec.Action))
		}
		ac := &ActionContext{Context: ctx, Instance: inst, Session: sess, Args: spec.With}
		if err := fn(ac); err != nil {
			return systemMessages, errors.Wrapf(err, "action %q", spec.Action)
		}
		if ac.SystemMsg != "" {
			systemMessages = append(systemMessages, ac.SystemMsg)
		}
	}
	return systemMessages, nil
}

func actionInjectContext(ac *ActionContext) error {
	text, _ := ac.Args["text"].(string)
	ac.SystemMsg = text
	return nil
}

func actionSetVariable(ac *ActionContext) error {
	name, _ := ac.Args["name"].(string)
	if name == "" {
		return errors.Validation("name", "set_variable requires a name")
	}
	if ac.Instance.Variables == nil {
		ac.Instance.Variables = map[string]interface{}{}
	}
	ac.Instance.Variables[name] = ac.Args["value"]
	return nil
}

func (r *ActionRegistry) actionCallTool(ac *ActionContext) error {
	if r.deps.Tools == nil {
		return errors.Internal("workflow", fmt.Errorf("call_tool: no tool caller wired"))
	}
	server, _ := ac.Args["server"].(string)
	tool, _ := ac.Args["tool"].(string)
	args, _ := ac.Args["args"].(map[string]interface{})
	result, err := r.deps.Tools.CallTool(ac.Context, server, tool, args)
	if err != nil {
		return err
	}
	recordMCPCall(ac.Instance, server, tool, result)
	return nil
}

func (r *ActionRegistry) actionSpawnAgent(ac *ActionContext) error {
	if r.deps.Agents == nil {
		return errors.Internal("workflow", fmt.Errorf("spawn_agent: no agent spawner wired"))
	}
	_, err := r.deps.Agents.Spawn(ac.Context, ac.Session.ID, ac.Args)
	return err
}

func (r *ActionRegistry) actionSendMessage(ac *ActionContext) error {
	if r.deps.Messenger == nil {
		return errors.Internal("workflow", fmt.Errorf("send_message: no messenger wired"))
	}
	return r.deps.Messenger.Send(ac.Context, ac.Session.ID, ac.Args)
}

func (r *ActionRegistry) actionArchiveSession(ac *ActionContext) error {
	if r.deps.Sessions == nil {
		return errors.Internal("workflow", fmt.Errorf("archive_session: no session archiver wired"))
	}
	return r.deps.Sessions.Archive(ac.Context, ac.Session.ID)
}

func (r *ActionRegistry) actionCreateTask(ac *ActionContext) error {
	if r.deps.Tasks == nil {
		return errors.Internal("workflow", fmt.Errorf("create_task: no task creator wired"))
	}
	_, err := r.deps.Tasks.CreateTask(ac.Context, ac.Session.ProjectID, ac.Args)
	return err
}

func (r *ActionRegistry) actionExecutePipeline(ac *ActionContext) error {
	if r.deps.Pipelines == nil {
		return errors.Internal("workflow", fmt.Errorf("execute_pipeline: no pipeline executor wired"))
	}
	name, _ := ac.Args["pipeline"].(string)
	inputs, _ := ac.Args["inputs"].(map[string]interface{})
	_, err := r.deps.Pipelines.Execute(ac.Context, ac.Session.ProjectID, name, inputs)
	return err
}

func (r *ActionRegistry) actionEmitWebhook(ac *ActionContext) error {
	if r.deps.Webhooks == nil {
		return errors.Internal("workflow", fmt.Errorf("emit_webhook: no webhook emitter wired"))
	}
	event, _ := ac.Args["event"].(string)
	payload, _ := ac.Args["payload"].(map[string]interface{})
	return r.deps.Webhooks.Emit(ac.Context, event, payload)
}

// recordMCPCall mirrors a tool call's outcome into variables.mcp_calls
// and variables.mcp_results, keyed "server:tool", for the mcp_* predicate
// family in internal/expression to read back.
func recordMCPCall(inst *store.WorkflowInstance, server, tool string, result interface{}) {
	if inst.Variables == nil {
		inst.Variables = map[string]interface{}{}
	}
	calls, _ := inst.Variables["mcp_calls"].(map[string]interface{})
	if calls == nil {
		calls = map[string]interface{}{}
	}
	results, _ := inst.Variables["mcp_results"].(map[string]interface{})
	if results == nil {
		results = map[string]interface{}{}
	}
	key := server + ":" + tool
	calls[key] = true
	results[key] = result
	inst.Variables["mcp_calls"] = calls
	inst.Variables["mcp_results"] = results
}
