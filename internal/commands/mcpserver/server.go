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

package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/gobbyhq/gobby/internal/agent"
	"github.com/gobbyhq/gobby/internal/commands/shared"
	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/expression"
	"github.com/gobbyhq/gobby/internal/mcp/server"
	"github.com/gobbyhq/gobby/internal/pipeline"
	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/internal/webhook"
	"github.com/gobbyhq/gobby/internal/workflow"
	"github.com/gobbyhq/gobby/internal/worktree"
)

// NewCommand creates the mcp-server command
func NewCommand() *cobra.Command {
	var (
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start the Gobby MCP server",
		Long: `Start the Gobby MCP (Model Context Protocol) server.

The MCP server exposes Gobby functionality as tools that AI coding assistants
(Claude Code, Cursor, Gemini CLI) can use to manage tasks, memories, skills,
artifacts, subagents, git worktrees, and workflow state from inside a session.

The server runs in stdio mode by default, which is suitable for integration with
AI assistants via their MCP configuration.

Configuration example for Claude Code (~/.config/claude/config.json):
  {
    "mcpServers": {
      "gobby": {
        "command": "gobby",
        "args": ["mcp-server"]
      }
    }
  }

The server exposes Gobby's session-scoped tools: task claim queue, shared
memories and skills, artifacts, agent spawning, git worktrees, workflow
activation, pipelines, and cross-session messaging. Every call takes the
calling session_id so the server can resolve project scope and enforce
parent/child messaging rules.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCPServer(cmd, logLevel)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Logging verbosity (debug, info, warn, error)")

	return cmd
}

func runMCPServer(cmd *cobra.Command, logLevel string) error {
	// Get version info
	versionStr, _, _ := shared.GetVersion()

	deps, err := buildDependencies(context.Background())
	if err != nil {
		return fmt.Errorf("failed to wire MCP server dependencies: %w", err)
	}

	// Create the MCP server
	srv, err := server.NewServer(server.ServerConfig{
		Name:     "gobby",
		Version:  versionStr,
		LogLevel: logLevel,
		Deps:     deps,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start shutdown handler in background
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived shutdown signal, shutting down gracefully...")

		// Create shutdown context with 5-second timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}

		cancel()
	}()

	// Run the server (blocks until shutdown)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}

// buildDependencies opens the local store and wires the session registry,
// event bus, agent supervisor, worktree manager, workflow engine, pipeline
// executor, and webhook dispatcher the MCP tools run against.
func buildDependencies(ctx context.Context) (server.Dependencies, error) {
	cfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return server.Dependencies{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	dataDir := cfg.Controller.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return server.Dependencies{}, fmt.Errorf("failed to create data dir: %w", err)
	}

	st, err := store.Open(ctx, filepath.Join(dataDir, "gobby.db"))
	if err != nil {
		return server.Dependencies{}, fmt.Errorf("failed to open store: %w", err)
	}

	sessions := session.New(st)
	bus := eventbus.New(nil)

	sup := agent.New(st, sessions, bus, cfg, agent.DefaultConfig(), nil)
	sup.StartReaper()
	sup.StartLifecycleTracking()

	wtMgr := worktree.New(st, worktree.DefaultConfig(), nil)
	wtMgr.StartReaper()

	loader := workflow.NewLoader(cfg.Controller.WorkflowsDir)
	predicates := expression.NewPredicates(st, expression.NewStopRegistry())
	evaluator := expression.New(predicates)

	pipelineLoader := pipeline.NewLoader(cfg.Controller.PipelinesDir)
	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.MaxConcurrentSteps = cfg.Controller.MaxConcurrentSteps
	pipelines := pipeline.New(st, pipelineLoader, nil, pipelineCfg, nil)

	hooks := webhook.New(st, bus, cfg.Controller.HookExtensions.Webhooks, webhook.DefaultConfig(), nil)
	hooks.Start()

	actions := workflow.NewActionRegistry(workflow.Dependencies{
		Agents:    agent.WorkflowAdapter{Supervisor: sup},
		Pipelines: pipelines,
		Webhooks:  hooks,
	})
	engine := workflow.New(st, loader, evaluator, actions, nil, nil)

	return server.Dependencies{
		Store:     st,
		Sessions:  sessions,
		Engine:    engine,
		Agents:    sup,
		Worktrees: wtMgr,
		Pipelines: pipelines,
	}, nil
}
