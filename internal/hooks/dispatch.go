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

package hooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/workflow"
)

// DefaultTimeout is how long workflow handling may run before Dispatch
// gives up and falls back to allow. Zero disables the deadline entirely.
const DefaultTimeout = 30 * time.Second

// Dispatcher is the single hook entry point: normalize, register,
// evaluate workflows under a deadline, merge, publish, return. It never
// propagates a panic or an internal error past its own boundary — every
// failure downgrades to allow.
type Dispatcher struct {
	sessions *session.Registry
	engine   *workflow.Engine
	bus      *eventbus.Bus
	logger   *slog.Logger
	timeout  time.Duration
}

// New builds a Dispatcher. timeout <= 0 is normalized to DefaultTimeout;
// pass a negative value is not supported — callers that want "no
// deadline" must pass exactly 0.
func New(sessions *session.Registry, engine *workflow.Engine, bus *eventbus.Bus, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sessions: sessions, engine: engine, bus: bus, logger: logger, timeout: timeout}
}

// Dispatch runs the seven-step flow described in the hook dispatcher
// design: normalize, auto-register, evaluate workflows under a deadline,
// merge, publish, return — with a fail-open boundary around the whole of
// steps 2-4.
func (d *Dispatcher) Dispatch(ctx context.Context, evt HookEvent) HookResponse {
	if !evt.EventType.IsValid() {
		d.logger.Warn("hooks: unknown event type, allowing", "event_type", evt.EventType)
		return allow()
	}

	resp := d.dispatchGuarded(ctx, evt)

	if d.bus != nil {
		d.bus.Publish(eventbus.Event{
			Topic:     eventbus.TopicSession,
			Kind:      string(evt.EventType),
			ID:        evt.SessionID,
			Payload:   map[string]interface{}{"decision": string(resp.Decision), "source": evt.Source},
			Timestamp: time.Now().UTC(),
		})
	}
	return resp
}

// dispatchGuarded wraps steps (1)-(5) in a single recover so a panic
// anywhere in session resolution, registration, or workflow evaluation
// downgrades to allow rather than reaching the adapter as a crash.
func (d *Dispatcher) dispatchGuarded(ctx context.Context, evt HookEvent) (resp HookResponse) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("hooks: panic recovered, failing open", "event_type", evt.EventType, "panic", r)
			resp = allow()
		}
	}()

	sessionID, err := d.resolveSessionID(ctx, evt)
	if err != nil {
		d.logger.Warn("hooks: session resolution failed, failing open", "event_type", evt.EventType, "error", err)
		return allow()
	}
	if sessionID == "" {
		return allow()
	}

	wfCtx := ctx
	var cancel context.CancelFunc
	if d.timeout > 0 {
		wfCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	wfResp, err := d.runWorkflow(wfCtx, sessionID, evt)
	if err != nil {
		if wfCtx.Err() != nil {
			d.logger.Warn("hooks: workflow evaluation timed out, failing open", "session_id", sessionID, "event_type", evt.EventType)
		} else {
			d.logger.Warn("hooks: workflow evaluation failed, failing open", "session_id", sessionID, "event_type", evt.EventType, "error", err)
		}
		return allow()
	}
	return wfResp
}

func (d *Dispatcher) resolveSessionID(ctx context.Context, evt HookEvent) (string, error) {
	sess, err := d.sessions.FindCurrent(ctx, evt.SessionID, evt.MachineID, evt.Source)
	if err == nil {
		return sess.ID, nil
	}

	if evt.EventType != EventSessionStart {
		return "", nil
	}

	registered, err := d.sessions.Register(ctx, session.RegisterInput{
		ExternalID: evt.SessionID,
		MachineID:  evt.MachineID,
		Source:     evt.Source,
		CWD:        evt.CWD,
	})
	if err != nil {
		return "", err
	}
	return registered.ID, nil
}

func (d *Dispatcher) runWorkflow(ctx context.Context, sessionID string, evt HookEvent) (HookResponse, error) {
	wfEvent := workflow.Event{
		Type:      string(evt.EventType),
		SessionID: sessionID,
		ToolName:  evt.toolName(),
		ToolArgs:  evt.toolArgs(),
		Data:      evt.Data,
	}

	result, err := d.engine.HandleEvent(ctx, wfEvent)
	if err != nil {
		return HookResponse{}, err
	}
	return mergeDecision(result), nil
}

// mergeDecision translates the workflow engine's verdict into the
// adapter-facing HookResponse. deny/block both surface as a hard refusal;
// modify and require_approval both surface their message as injected
// context, since an adapter has no separate "pause for approval" channel
// today.
func mergeDecision(r workflow.Response) HookResponse {
	switch r.Decision {
	case workflow.DecisionDeny:
		return HookResponse{Decision: DecisionDeny, Reason: r.Reason}
	case workflow.DecisionBlock:
		return HookResponse{Decision: DecisionBlock, Reason: r.Reason}
	case workflow.DecisionModify, workflow.DecisionWarn, workflow.DecisionApprove:
		return HookResponse{Decision: DecisionModify, Context: r.SystemMessage, Reason: r.Reason}
	default:
		return allow()
	}
}
