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

// Package sessions is the `gobby sessions` CLI group: registering,
// inspecting, and transitioning Session Registry entries directly against
// the local store.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gobbyhq/gobby/internal/commands/localdeps"
	"github.com/gobbyhq/gobby/internal/commands/shared"
	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
)

// NewCommand creates the sessions command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage agent sessions",
	}
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newChildrenCommand())
	cmd.AddCommand(newUpdateStatusCommand())
	return cmd
}

func printSession(sess *store.Session) error {
	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(sess)
	}
	fmt.Printf("ID:       %s\n", sess.ID)
	fmt.Printf("Status:   %s\n", sess.Status)
	fmt.Printf("Project:  %s\n", sess.ProjectID)
	fmt.Printf("Source:   %s\n", sess.Source)
	if sess.ParentSessionID != "" {
		fmt.Printf("Parent:   %s\n", sess.ParentSessionID)
	}
	return nil
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <session-id-or-ref>",
		Short: "Show a session by ID or ordinal reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			ctx := context.Background()
			reg := session.New(deps.Store)
			sess, err := reg.Get(ctx, args[0])
			if err != nil {
				return shared.NewGobbyExitError("session not found", err)
			}
			return printSession(sess)
		},
	}
}

func newChildrenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "children <session-id>",
		Short: "List sessions spawned from a parent session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			ctx := context.Background()
			reg := session.New(deps.Store)
			children, err := reg.FindChildren(ctx, args[0])
			if err != nil {
				return shared.NewGobbyExitError("failed to list child sessions", err)
			}
			if shared.GetJSON() {
				return json.NewEncoder(os.Stdout).Encode(children)
			}
			for _, c := range children {
				fmt.Printf("%s\t%s\t%s\n", c.ID, c.Status, c.Source)
			}
			return nil
		},
	}
}

func newUpdateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-status <session-id> <status>",
		Short: "Transition a session's status",
		Long:  `status must be one of: active, paused, handoff_ready, archived, expired.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			ctx := context.Background()
			reg := session.New(deps.Store)
			if err := reg.UpdateStatus(ctx, args[0], store.SessionStatus(args[1])); err != nil {
				return shared.NewGobbyExitError("failed to update session status", err)
			}
			if !shared.GetQuiet() {
				fmt.Println("session updated")
			}
			return nil
		},
	}
}
