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

// Package agent spawns and supervises child agent sessions: depth-checked
// subagent creation, provider resolution, context injection, process
// dispatch by execution mode, lifecycle tracking off the Event Bus, and a
// reaper that transitions abandoned runs.
package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/pkg/errors"
)

// Config controls depth limits, staleness cutoffs, and default provider
// resolution. Zero values are replaced by DefaultConfig's values.
type Config struct {
	// MaxDepth is the deepest an agent_depth chain may go before Spawn
	// rejects a further spawn request.
	MaxDepth int

	// DefaultProvider/DefaultModel are the built-in fallback used when
	// neither the spawn request, the workflow, nor configuration name one.
	DefaultProvider string
	DefaultModel    string

	// StalePendingAfter/StaleRunningAfter are the reaper's cutoffs.
	StalePendingAfter time.Duration
	StaleRunningAfter time.Duration

	// ReapInterval is how often the reaper scans for stale runs.
	ReapInterval time.Duration
}

// DefaultConfig returns the supervisor's built-in defaults: a
// {pending > 60 min} / {running > 30 min} cutoff pair.
func DefaultConfig() Config {
	return Config{
		MaxDepth:          5,
		DefaultProvider:   "claude-code",
		StalePendingAfter: 60 * time.Minute,
		StaleRunningAfter: 30 * time.Minute,
		ReapInterval:      time.Minute,
	}
}

// procHandle is what the supervisor keeps in memory for a running agent
// run so Cancel can signal it without waiting for exit; final status
// transitions are always the reaper's or the launcher goroutine's job.
type procHandle struct {
	cancel context.CancelFunc
	kill   func()
}

// Supervisor is the C8 Agent Supervisor. It satisfies both
// internal/mcp/server's AgentService and internal/workflow's AgentSpawner
// (via WorkflowAdapter) so it can be wired into both the MCP tool surface
// and the workflow engine's spawn_agent action.
type Supervisor struct {
	store    *store.Store
	sessions *session.Registry
	bus      *eventbus.Bus
	cfg      *config.Config
	agentCfg Config
	logger   *slog.Logger

	terminals []TerminalLauncher

	mu              sync.Mutex
	running         map[string]*procHandle
	inProcessRunner InProcessRunner

	stopReap chan struct{}
	stopLife chan struct{}
}

// InProcessRunner is the provider call made by in_process mode. It mirrors
// internal/llm.ProviderAdapter.Complete's signature so that adapter can be
// handed in directly once the daemon wires a real provider.
type InProcessRunner interface {
	Complete(ctx context.Context, prompt string, options map[string]interface{}) (string, error)
}

// SetInProcessRunner wires the provider call used by in_process mode. Until
// it is set, in_process spawns fail with a clear error rather than panicking.
func (s *Supervisor) SetInProcessRunner(r InProcessRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inProcessRunner = r
}

// New builds a Supervisor. cfg may be nil (provider resolution then falls
// straight through to agentCfg.DefaultProvider); bus may be nil (lifecycle
// tracking and SUBAGENT_STOP emission are then both no-ops).
func New(st *store.Store, sessions *session.Registry, bus *eventbus.Bus, cfg *config.Config, agentCfg Config, logger *slog.Logger) *Supervisor {
	if agentCfg.MaxDepth <= 0 {
		agentCfg.MaxDepth = DefaultConfig().MaxDepth
	}
	if agentCfg.StalePendingAfter <= 0 {
		agentCfg.StalePendingAfter = DefaultConfig().StalePendingAfter
	}
	if agentCfg.StaleRunningAfter <= 0 {
		agentCfg.StaleRunningAfter = DefaultConfig().StaleRunningAfter
	}
	if agentCfg.ReapInterval <= 0 {
		agentCfg.ReapInterval = DefaultConfig().ReapInterval
	}
	if agentCfg.DefaultProvider == "" {
		agentCfg.DefaultProvider = DefaultConfig().DefaultProvider
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		store:     st,
		sessions:  sessions,
		bus:       bus,
		cfg:       cfg,
		agentCfg:  agentCfg,
		logger:    logger,
		terminals: defaultTerminalLaunchers(),
		running:   make(map[string]*procHandle),
	}
}

// SpawnRequest is the parsed form of the opts bag MCP tools and workflow
// actions pass to Spawn.
type SpawnRequest struct {
	Prompt         string
	Provider       string
	Model          string
	Mode           store.AgentExecutionMode
	WorkflowName   string
	ContextSource  string
	PromptTemplate string
	MaxTurns       int
	TimeoutSeconds int
}

func parseSpawnRequest(opts map[string]interface{}) SpawnRequest {
	req := SpawnRequest{Mode: store.ModeInProcess}
	if v, ok := opts["prompt"].(string); ok {
		req.Prompt = v
	}
	if v, ok := opts["provider"].(string); ok {
		req.Provider = v
	}
	if v, ok := opts["model"].(string); ok {
		req.Model = v
	}
	if v, ok := opts["mode"].(string); ok && v != "" {
		req.Mode = store.AgentExecutionMode(v)
	}
	if v, ok := opts["workflow"].(string); ok {
		req.WorkflowName = v
	}
	if v, ok := opts["context_source"].(string); ok {
		req.ContextSource = v
	}
	if v, ok := opts["prompt_template"].(string); ok {
		req.PromptTemplate = v
	}
	if v, ok := opts["max_turns"].(int); ok {
		req.MaxTurns = v
	}
	if v, ok := opts["timeout_seconds"].(int); ok {
		req.TimeoutSeconds = v
	}
	return req
}

// Spawn runs the five-step spawn pipeline: depth check, provider
// resolution, context injection, atomic child session + AgentRun
// creation, and mode dispatch. It returns as soon as the child
// session and AgentRun rows exist; the launched process runs in the
// background and reports its outcome through UpdateAgentRunStatus.
func (s *Supervisor) Spawn(ctx context.Context, parentSessionID string, opts map[string]interface{}) (*store.AgentRun, error) {
	parent, err := s.store.GetSession(ctx, parentSessionID)
	if err != nil {
		return nil, err
	}

	if parent.AgentDepth+1 > s.agentCfg.MaxDepth {
		return nil, errors.Validation("agent_depth",
			"spawning here would exceed the configured max_agent_depth")
	}

	req := parseSpawnRequest(opts)
	if req.Prompt == "" {
		return nil, errors.Validation("prompt", "prompt is required")
	}

	provider, model := s.resolveProvider(req)

	injected, err := s.resolveContext(ctx, parent, req.ContextSource)
	if err != nil {
		return nil, err
	}
	renderedPrompt, err := renderPrompt(req.PromptTemplate, injected, req.Prompt)
	if err != nil {
		return nil, err
	}

	run, err := s.store.CreateAgentRun(ctx, &store.AgentRun{
		ParentSessionID: parentSessionID,
		WorkflowName:    req.WorkflowName,
		Prompt:          renderedPrompt,
		Provider:        provider,
		Model:           model,
		Mode:            req.Mode,
	})
	if err != nil {
		return nil, err
	}

	child, err := s.store.RegisterSession(ctx, &store.Session{
		ExternalID:      "agent-run:" + run.ID,
		MachineID:       parent.MachineID,
		Source:          "gobby-agent",
		ProjectID:       parent.ProjectID,
		ParentSessionID: parentSessionID,
		CWD:             parent.CWD,
		GitBranch:       parent.GitBranch,
	})
	if err != nil {
		_ = s.store.UpdateAgentRunStatus(ctx, run.ID, store.RunError, "", err.Error())
		return nil, err
	}

	if err := s.store.SetAgentRunChildSession(ctx, run.ID, child.ID); err != nil {
		return nil, err
	}

	s.launch(run.ID, child, req)

	return s.store.GetAgentRun(ctx, run.ID)
}

// Cancel marks the run cancelled and signals the underlying process
// without waiting on it to exit; cleanup is the reaper's job.
func (s *Supervisor) Cancel(ctx context.Context, agentRunID string) error {
	run, err := s.store.GetAgentRun(ctx, agentRunID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	h, ok := s.running[agentRunID]
	s.mu.Unlock()
	if ok {
		if h.cancel != nil {
			h.cancel()
		}
		if h.kill != nil {
			h.kill()
		}
	}

	if run.Status == store.RunSuccess || run.Status == store.RunError ||
		run.Status == store.RunTimeout || run.Status == store.RunCancelled {
		return nil
	}
	return s.store.UpdateAgentRunStatus(ctx, agentRunID, store.RunCancelled, "", "cancelled by caller")
}

// Close stops the reaper and lifecycle-tracking goroutines, if started.
func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopReap != nil {
		close(s.stopReap)
		s.stopReap = nil
	}
	if s.stopLife != nil {
		close(s.stopLife)
		s.stopLife = nil
	}
}

func (s *Supervisor) trackProc(runID string, h *procHandle) {
	s.mu.Lock()
	s.running[runID] = h
	s.mu.Unlock()
}

func (s *Supervisor) untrackProc(runID string) {
	s.mu.Lock()
	delete(s.running, runID)
	s.mu.Unlock()
}

// WorkflowAdapter narrows Supervisor to internal/workflow's AgentSpawner
// interface, which returns the spawned child session id as a plain
// string rather than the full AgentRun row.
type WorkflowAdapter struct {
	*Supervisor
}

func (a WorkflowAdapter) Spawn(ctx context.Context, parentSessionID string, args map[string]interface{}) (string, error) {
	run, err := a.Supervisor.Spawn(ctx, parentSessionID, args)
	if err != nil {
		return "", err
	}
	return run.ChildSessionID, nil
}
