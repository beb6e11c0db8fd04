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

// Package worktrees is the `gobby worktrees` CLI group: creating,
// syncing, and deleting git worktrees through the Worktree Manager.
package worktrees

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

var deleteForce bool

// NewCommand creates the worktrees command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktrees",
		Short: "Create, sync, and delete git worktrees",
	}
	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newSyncCommand())
	cmd.AddCommand(newDeleteCommand())
	cmd.AddCommand(newGetCommand())
	return cmd
}

func printWorktree(w *store.Worktree) error {
	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(w)
	}
	fmt.Printf("ID:     %s\n", w.ID)
	fmt.Printf("Path:   %s\n", w.WorktreePath)
	fmt.Printf("Branch: %s (base: %s)\n", w.BranchName, w.BaseBranch)
	fmt.Printf("Status: %s\n", w.Status)
	return nil
}

func newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <project-id> <branch> <base-branch>",
		Short: "Create a worktree for a branch",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			w, err := deps.Worktrees.Create(context.Background(), args[0], args[1], args[2])
			if err != nil {
				return shared.NewGobbyExitError("failed to create worktree", err)
			}
			return printWorktree(w)
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <worktree-id>",
		Short: "Show a worktree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			w, err := deps.Store.GetWorktree(context.Background(), args[0])
			if err != nil {
				return shared.NewGobbyExitError("worktree not found", err)
			}
			return printWorktree(w)
		},
	}
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <worktree-id> <source-branch>",
		Short: "Rebase/merge a worktree's branch onto a source branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			if err := deps.Worktrees.Sync(context.Background(), args[0], args[1]); err != nil {
				return shared.NewGobbyExitError("failed to sync worktree", err)
			}
			if !shared.GetQuiet() {
				fmt.Println("worktree synced")
			}
			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <worktree-id>",
		Short: "Delete a worktree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			if err := deps.Worktrees.Delete(context.Background(), args[0], deleteForce); err != nil {
				return shared.NewGobbyExitError("failed to delete worktree", err)
			}
			if !shared.GetQuiet() {
				fmt.Println("worktree deleted")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deleteForce, "force", false, "Delete even if claimed by a session")
	return cmd
}
