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

// Package skills is the `gobby skills` CLI group: listing and inspecting
// project skills synced from .gobby/skills/ via the sync projectors.
package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gobbyhq/gobby/internal/commands/localdeps"
	"github.com/gobbyhq/gobby/internal/commands/shared"
)

// NewCommand creates the skills command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "List and inspect project skills",
	}
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newGetCommand())
	return cmd
}

func newListCommand() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List skills for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return shared.NewGobbyExitError("--project is required", fmt.Errorf("missing --project"))
			}
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			list, err := deps.Store.ListSkills(context.Background(), projectID)
			if err != nil {
				return shared.NewGobbyExitError("failed to list skills", err)
			}
			if shared.GetJSON() {
				return json.NewEncoder(os.Stdout).Encode(list)
			}
			for _, sk := range list {
				fmt.Printf("%s\t%s\n", sk.Name, sk.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	return cmd
}

func newGetCommand() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Show a skill by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return shared.NewGobbyExitError("--project is required", fmt.Errorf("missing --project"))
			}
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			sk, err := deps.Store.GetSkillByName(context.Background(), projectID, args[0])
			if err != nil {
				return shared.NewGobbyExitError("skill not found", err)
			}
			if shared.GetJSON() {
				return json.NewEncoder(os.Stdout).Encode(sk)
			}
			fmt.Printf("Name:   %s\n", sk.Name)
			fmt.Printf("Desc:   %s\n", sk.Description)
			fmt.Println()
			fmt.Println(sk.Body)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (required)")
	return cmd
}
