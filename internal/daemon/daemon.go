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

// Package daemon wires every Gobby component — store, event bus, session
// registry, agent supervisor, worktree manager, workflow engine, pipeline
// executor, webhook dispatcher, hook dispatcher, sync projectors, and the
// MCP tool server — into one single-node process serving the loopback
// HTTP/WS surface. It runs on one machine against one SQLite database;
// there is no leader election, no Postgres backend, and no distributed
// run coordination here.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gobbyhq/gobby/internal/agent"
	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/expression"
	"github.com/gobbyhq/gobby/internal/hooks"
	"github.com/gobbyhq/gobby/internal/httpapi"
	mcpserver "github.com/gobbyhq/gobby/internal/mcp/server"
	"github.com/gobbyhq/gobby/internal/pipeline"
	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/internal/sync"
	"github.com/gobbyhq/gobby/internal/webhook"
	"github.com/gobbyhq/gobby/internal/workflow"
	"github.com/gobbyhq/gobby/internal/worktree"
)

// defaultPort matches config.DaemonConfig.Port's documented default.
const defaultPort = 8374

// Options carries build-time version info, injected via ldflags the same
// way cmd/gobby's root command reports its own version.
type Options struct {
	Version   string
	Commit    string
	BuildDate string
}

// Daemon owns every long-running Gobby component for one process and the
// loopback HTTP/WS server in front of them.
type Daemon struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	store      *store.Store
	bus        *eventbus.Bus
	sessions   *session.Registry
	agents     *agent.Supervisor
	worktrees  *worktree.Manager
	pipelines  *pipeline.Executor
	webhooks   *webhook.Dispatcher
	engine     *workflow.Engine
	dispatcher *hooks.Dispatcher
	projector  *sync.Projector
	mcp        *mcpserver.Server

	api        *httpapi.Server
	httpServer *http.Server

	// shutdownFunc cancels Start's run context; set once Start is called.
	shutdownFunc func()
}

// New opens the store and wires every component against it. It does not
// start background loops or bind a listener — call Start for that.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
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
	// No PromptRunner is wired yet — no component in this tree issues
	// provider calls on a pipeline's behalf, matching the same nil passed
	// by the MCP server command's own pipeline wiring.
	pipelines := pipeline.New(st, pipelineLoader, nil, pipelineCfg, logger)

	webhooks := webhook.New(st, bus, cfg.Controller.HookExtensions.Webhooks, webhook.DefaultConfig(), logger)

	actions := workflow.NewActionRegistry(workflow.Dependencies{
		Agents:    agent.WorkflowAdapter{Supervisor: sup},
		Pipelines: pipelines,
		Webhooks:  webhooks,
	})
	engine := workflow.New(st, loader, evaluator, actions, bus, logger)

	dispatcher := hooks.New(sessions, engine, bus, logger, hooks.DefaultTimeout)

	// Tasks follow whichever of memories/skills sync is enabled — the
	// config format only exposes independent toggles for those two
	// tables (memory_sync.enabled / skill_sync.enabled), and a project
	// that's syncing either already wants its .gobby/ tree populated.
	projector := sync.New(st, sync.Config{
		MemoriesEnabled: cfg.MemorySync.Enabled,
		SkillsEnabled:   cfg.SkillSync.Enabled,
		TasksEnabled:    cfg.MemorySync.Enabled || cfg.SkillSync.Enabled,
		Debounce:        pickDebounce(cfg),
		Stealth:         cfg.MemorySync.Stealth || cfg.SkillSync.Stealth,
	}, logger)

	versionStr := opts.Version
	if versionStr == "" {
		versionStr = "dev"
	}
	mcp, err := mcpserver.NewServer(mcpserver.ServerConfig{
		Name:    "gobby",
		Version: versionStr,
		Deps: mcpserver.Dependencies{
			Store:     st,
			Sessions:  sessions,
			Engine:    engine,
			Agents:    sup,
			Worktrees: wtMgr,
			Pipelines: pipelines,
		},
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create mcp server: %w", err)
	}

	d := &Daemon{
		cfg:        cfg,
		opts:       opts,
		logger:     logger,
		store:      st,
		bus:        bus,
		sessions:   sessions,
		agents:     sup,
		worktrees:  wtMgr,
		pipelines:  pipelines,
		webhooks:   webhooks,
		engine:     engine,
		dispatcher: dispatcher,
		projector:  projector,
		mcp:        mcp,
	}

	d.api = httpapi.New(httpapi.Dependencies{
		Store:    st,
		Sessions: sessions,
		Hooks:    dispatcher,
		Bus:      bus,
		Config:   cfg,
		MCP:      map[string]*mcpserver.Server{"gobby": mcp},
		Version:  versionStr,
		Shutdown: d.requestShutdown,
	}, logger)

	port := cfg.Daemon.Port
	if port == 0 {
		port = defaultPort
	}
	d.httpServer = &http.Server{
		Addr:    net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", port)),
		Handler: d.api.Handler(),
	}

	return d, nil
}

// pickDebounce takes whichever of memory_sync/skill_sync's debounce is
// configured, preferring memory_sync's when both are set and differ,
// since the two projectors share Config.Debounce today rather than each
// carrying its own timer.
func pickDebounce(cfg *config.Config) time.Duration {
	if cfg.MemorySync.ExportDebounce > 0 {
		return cfg.MemorySync.ExportDebounce
	}
	if cfg.SkillSync.ExportDebounce > 0 {
		return cfg.SkillSync.ExportDebounce
	}
	return time.Second
}

// requestShutdown is handed to the HTTP surface's POST /admin/shutdown
// route as a nil-safe, non-blocking trigger.
func (d *Daemon) requestShutdown() {
	d.logger.Info("daemon: shutdown requested over admin API")
	if d.shutdownFunc != nil {
		d.shutdownFunc()
	}
}

// Start brings up background loops (agent reaper/lifecycle tracking,
// worktree reaper, webhook dispatcher, sync projectors) and blocks serving
// the loopback HTTP/WS surface until ctx is cancelled or the listener
// fails. Shutdown should be called afterward to release resources.
func (d *Daemon) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.shutdownFunc = cancel

	d.agents.StartReaper()
	d.agents.StartLifecycleTracking()
	d.worktrees.StartReaper()
	d.webhooks.Start()

	if err := d.projector.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("start sync projectors: %w", err)
	}

	d.logger.Info("daemon: listening", slog.String("addr", d.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := d.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-runCtx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP listener and every background
// component. Safe to call even if Start never ran.
func (d *Daemon) Shutdown(ctx context.Context) error {
	var firstErr error
	if d.httpServer != nil {
		if err := d.httpServer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.api != nil {
		d.api.Close()
	}
	if d.projector != nil {
		d.projector.Close()
	}
	if d.agents != nil {
		d.agents.Close()
	}
	if d.worktrees != nil {
		d.worktrees.Close()
	}
	if d.bus != nil {
		d.bus.Close()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
