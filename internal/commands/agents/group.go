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

// Package agents is the `gobby agents` CLI group: spawning, inspecting,
// and cancelling sub-agent runs through the Agent Supervisor.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gobbyhq/gobby/internal/commands/localdeps"
	"github.com/gobbyhq/gobby/internal/commands/shared"
	"github.com/gobbyhq/gobby/internal/store"
)

var (
	spawnPrompt   string
	spawnMode     string
	spawnProvider string
	spawnModel    string
	spawnWorkflow string
)

// NewCommand creates the agents command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Spawn and manage sub-agent runs",
	}
	cmd.AddCommand(newSpawnCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newCancelCommand())
	return cmd
}

func printAgentRun(r *store.AgentRun) error {
	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(r)
	}
	fmt.Printf("ID:      %s\n", r.ID)
	fmt.Printf("Status:  %s\n", r.Status)
	fmt.Printf("Mode:    %s\n", r.Mode)
	fmt.Printf("Child:   %s\n", r.ChildSessionID)
	return nil
}

func newSpawnCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spawn <parent-session-id>",
		Short: "Spawn a sub-agent from a parent session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if spawnPrompt == "" {
				return shared.NewGobbyExitError("--prompt is required", fmt.Errorf("missing --prompt"))
			}
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			opts := map[string]interface{}{"prompt": spawnPrompt}
			if spawnMode != "" {
				opts["mode"] = spawnMode
			}
			if spawnProvider != "" {
				opts["provider"] = spawnProvider
			}
			if spawnModel != "" {
				opts["model"] = spawnModel
			}
			if spawnWorkflow != "" {
				opts["workflow_name"] = spawnWorkflow
			}

			run, err := deps.Agents.Spawn(context.Background(), args[0], opts)
			if err != nil {
				return shared.NewGobbyExitError("failed to spawn agent", err)
			}
			return printAgentRun(run)
		},
	}
	cmd.Flags().StringVar(&spawnPrompt, "prompt", "", "Prompt for the sub-agent (required)")
	cmd.Flags().StringVar(&spawnMode, "mode", "", "Execution mode: headless, terminal, embedded")
	cmd.Flags().StringVar(&spawnProvider, "provider", "", "Provider override")
	cmd.Flags().StringVar(&spawnModel, "model", "", "Model override")
	cmd.Flags().StringVar(&spawnWorkflow, "workflow", "", "Workflow name to activate on the child session")
	return cmd
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <agent-run-id>",
		Short: "Show an agent run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			run, err := deps.Store.GetAgentRun(context.Background(), args[0])
			if err != nil {
				return shared.NewGobbyExitError("agent run not found", err)
			}
			return printAgentRun(run)
		},
	}
}

func newCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <agent-run-id>",
		Short: "Cancel a running agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			if err := deps.Agents.Cancel(context.Background(), args[0]); err != nil {
				return shared.NewGobbyExitError("failed to cancel agent run", err)
			}
			if !shared.GetQuiet() {
				fmt.Println("agent run cancelled")
			}
			return nil
		},
	}
}
