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

// Package localdeps opens the store and wires the same domain components
// internal/daemon does, for command groups (sessions, tasks, agents,
// worktrees, pipelines, workflows, skills, memories) that read and mutate
// local state directly rather than over gobbyd's HTTP surface. Each CLI
// invocation is short-lived, so there is no reaper/projector/HTTP server
// here — just the store and the domain managers built on top of it.
package localdeps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gobbyhq/gobby/internal/agent"
	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/expression"
	"github.com/gobbyhq/gobby/internal/pipeline"
	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/internal/webhook"
	"github.com/gobbyhq/gobby/internal/workflow"
	"github.com/gobbyhq/gobby/internal/worktree"
)

// Deps bundles the domain components a one-shot CLI invocation needs.
type Deps struct {
	Config         *config.Config
	Store          *store.Store
	Bus            *eventbus.Bus
	Sessions       *session.Registry
	Agents         *agent.Supervisor
	Worktrees      *worktree.Manager
	Pipelines      *pipeline.Executor
	PipelineLoader *pipeline.Loader
	Engine         *workflow.Engine
}

// Open loads configuration and wires every domain component against the
// local store. Call Close when done.
func Open(configPath string) (*Deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	dataDir := cfg.Controller.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	st, err := store.Open(context.Background(), filepath.Join(dataDir, "gobby.db"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	bus := eventbus.New(logger)
	sessions := session.New(st)
	sup := agent.New(st, sessions, bus, cfg, agent.DefaultConfig(), logger)
	wtMgr := worktree.New(st, worktree.DefaultConfig(), logger)

	loader := workflow.NewLoader(cfg.Controller.WorkflowsDir)
	predicates := expression.NewPredicates(st, expression.NewStopRegistry())
	evaluator := expression.New(predicates)

	pipelineLoader := pipeline.NewLoader(cfg.Controller.PipelinesDir)
	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.MaxConcurrentSteps = cfg.Controller.MaxConcurrentSteps
	pipelines := pipeline.New(st, pipelineLoader, nil, pipelineCfg, logger)

	webhooks := webhook.New(st, bus, cfg.Controller.HookExtensions.Webhooks, webhook.DefaultConfig(), logger)
	actions := workflow.NewActionRegistry(workflow.Dependencies{
		Agents:    agent.WorkflowAdapter{Supervisor: sup},
		Pipelines: pipelines,
		Webhooks:  webhooks,
	})
	engine := workflow.New(st, loader, evaluator, actions, bus, logger)

	return &Deps{
		Config:         cfg,
		Store:          st,
		Bus:            bus,
		Sessions:       sessions,
		Agents:         sup,
		Worktrees:      wtMgr,
		Pipelines:      pipelines,
		PipelineLoader: pipelineLoader,
		Engine:         engine,
	}, nil
}

// Close releases the store and event bus. Background loops (reapers,
// projectors) are never started here, so there's nothing else to stop.
func (d *Deps) Close() error {
	if d.Bus != nil {
		d.Bus.Close()
	}
	if d.Store != nil {
		return d.Store.Close()
	}
	return nil
}
