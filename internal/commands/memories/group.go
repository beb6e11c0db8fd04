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

// Package memories is the `gobby memories` CLI group: listing and
// inspecting project memories synced from .gobby/memories/ via the sync
// projectors.
package memories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gobbyhq/gobby/internal/commands/localdeps"
	"github.com/gobbyhq/gobby/internal/commands/shared"
)

// NewCommand creates the memories command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "List and inspect project memories",
	}
	cmd.AddCommand(newListCommand())
	return cmd
}

func newListCommand() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return shared.NewGobbyExitError("--project is required", fmt.Errorf("missing --project"))
			}
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			list, err := deps.Store.ListMemories(context.Background(), projectID)
			if err != nil {
				return shared.NewGobbyExitError("failed to list memories", err)
			}
			if shared.GetJSON() {
				return json.NewEncoder(os.Stdout).Encode(list)
			}
			for _, m := range list {
				fmt.Printf("%s\t%s\n", m.ID, m.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	return cmd
}
