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

// Package workflows is the `gobby workflows` CLI group: activating,
// transitioning, and ending step-workflow instances through the Workflow
// Engine.
package workflows

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
	activateResume bool
	activateArgsJSON string
	transitionForce bool
)

// NewCommand creates the workflows command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Activate, transition, and end session workflows",
	}
	cmd.AddCommand(newActivateCommand())
	cmd.AddCommand(newEndCommand())
	cmd.AddCommand(newTransitionCommand())
	return cmd
}

func printInstance(inst *store.WorkflowInstance) error {
	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(inst)
	}
	fmt.Printf("Workflow: %s\n", inst.WorkflowName)
	fmt.Printf("Step:     %s\n", inst.CurrentStep)
	fmt.Printf("Enabled:  %v\n", inst.Enabled)
	return nil
}

func newActivateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <session-id> <workflow-name>",
		Short: "Attach a step workflow to a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars := map[string]interface{}{}
			if activateArgsJSON != "" {
				if err := json.Unmarshal([]byte(activateArgsJSON), &vars); err != nil {
					return shared.NewGobbyExitError("invalid --args JSON", err)
				}
			}

			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			inst, err := deps.Engine.Activate(context.Background(), args[0], args[1], activateResume, vars)
			if err != nil {
				return shared.NewGobbyExitError("failed to activate workflow", err)
			}
			return printInstance(inst)
		},
	}
	cmd.Flags().BoolVar(&activateResume, "resume", false, "Return the existing instance instead of erroring if already active")
	cmd.Flags().StringVar(&activateArgsJSON, "args", "", "JSON object merged into the workflow's initial variables")
	return cmd
}

func newEndCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "end <session-id> <workflow-name>",
		Short: "Deactivate a step workflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			if err := deps.Engine.End(context.Background(), args[0], args[1]); err != nil {
				return shared.NewGobbyExitError("failed to end workflow", err)
			}
			if !shared.GetQuiet() {
				fmt.Println("workflow ended")
			}
			return nil
		},
	}
}

func newTransitionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transition <session-id> <workflow-name> <target-step>",
		Short: "Force a workflow instance to a specific step",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			if err := deps.Engine.TransitionTo(context.Background(), args[0], args[1], args[2], transitionForce); err != nil {
				return shared.NewGobbyExitError("failed to transition workflow", err)
			}
			if !shared.GetQuiet() {
				fmt.Println("workflow transitioned")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&transitionForce, "force", false, "Skip step-order validation")
	return cmd
}
