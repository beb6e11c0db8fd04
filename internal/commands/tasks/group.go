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

// Package tasks is the `gobby tasks` CLI group: creating, listing,
// claiming, and closing task-tree entries directly against the local
// store.
package tasks

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
	createProjectID   string
	createTaskType     string
	createPriority     string
	createParentTaskID string

	claimForce bool
)

// NewCommand creates the tasks command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Create, claim, and close tasks",
	}
	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newClaimCommand())
	cmd.AddCommand(newCloseCommand())
	cmd.AddCommand(newSearchCommand())
	return cmd
}

func printTask(t *store.Task) error {
	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(t)
	}
	fmt.Printf("ID:       %s\n", t.ID)
	fmt.Printf("Title:    %s\n", t.Title)
	fmt.Printf("Status:   %s\n", t.Status)
	fmt.Printf("Priority: %s\n", t.Priority)
	if t.ParentTaskID != "" {
		fmt.Printf("Parent:   %s\n", t.ParentTaskID)
	}
	return nil
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <title> <description>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if createProjectID == "" {
				return shared.NewGobbyExitError("--project is required", fmt.Errorf("missing --project"))
			}
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			t, err := deps.Store.CreateTask(context.Background(), &store.Task{
				ProjectID:    createProjectID,
				Title:        args[0],
				Description:  args[1],
				TaskType:     createTaskType,
				Priority:     createPriority,
				ParentTaskID: createParentTaskID,
				Status:       store.TaskOpen,
			})
			if err != nil {
				return shared.NewGobbyExitError("failed to create task", err)
			}
			return printTask(t)
		},
	}
	cmd.Flags().StringVar(&createProjectID, "project", "", "Project ID (required)")
	cmd.Flags().StringVar(&createTaskType, "type", "task", "Task type")
	cmd.Flags().StringVar(&createPriority, "priority", "medium", "Task priority")
	cmd.Flags().StringVar(&createParentTaskID, "parent", "", "Parent task ID")
	return cmd
}

func newListCommand() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return shared.NewGobbyExitError("--project is required", fmt.Errorf("missing --project"))
			}
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			list, err := deps.Store.ListTasksByProject(context.Background(), projectID)
			if err != nil {
				return shared.NewGobbyExitError("failed to list tasks", err)
			}
			if shared.GetJSON() {
				return json.NewEncoder(os.Stdout).Encode(list)
			}
			for _, t := range list {
				fmt.Printf("%s\t%-12s\t%s\n", t.ID, t.Status, t.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	return cmd
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			t, err := deps.Store.GetTask(context.Background(), args[0])
			if err != nil {
				return shared.NewGobbyExitError("task not found", err)
			}
			return printTask(t)
		},
	}
}

func newClaimCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim <task-id> <session-id>",
		Short: "Claim a task for a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			if err := deps.Store.ClaimTask(context.Background(), args[0], args[1], claimForce); err != nil {
				return shared.NewGobbyExitError("failed to claim task", err)
			}
			if !shared.GetQuiet() {
				fmt.Println("task claimed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&claimForce, "force", false, "Reclaim even if already claimed by another session")
	return cmd
}

func newCloseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "close <task-id>",
		Short: "Close a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			if err := deps.Store.CloseTask(context.Background(), args[0]); err != nil {
				return shared.NewGobbyExitError("failed to close task", err)
			}
			if !shared.GetQuiet() {
				fmt.Println("task closed")
			}
			return nil
		},
	}
}

func newSearchCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search tasks by title/description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			filter := store.TaskSearchFilter{Status: status}
			results, err := deps.Store.SearchTasks(context.Background(), args[0], filter)
			if err != nil {
				return shared.NewGobbyExitError("search failed", err)
			}
			if shared.GetJSON() {
				return json.NewEncoder(os.Stdout).Encode(results)
			}
			for _, t := range results {
				fmt.Printf("%s\t%-12s\t%s\n", t.ID, t.Status, t.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	return cmd
}
