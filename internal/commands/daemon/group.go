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

package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gobbyhq/gobby/internal/commands/daemonclient"
	"github.com/gobbyhq/gobby/internal/commands/shared"
)

// NewCommand creates the daemon command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Start, stop, and inspect the gobbyd process",
		Long: `Commands for managing gobbyd, the single-node process that owns the
store, the agent/worktree/workflow/pipeline engines, and the loopback
HTTP/WS surface every other command and editor integration talks to.`,
	}

	cmd.AddCommand(newDaemonStartCommand())
	cmd.AddCommand(newDaemonStopCommand())
	cmd.AddCommand(newDaemonStatusCommand())
	cmd.AddCommand(newDaemonPingCommand())

	return cmd
}

func newDaemonStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and uptime",
		RunE:  runDaemonStatus,
	}
}

func newDaemonPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check whether gobbyd is reachable",
		RunE:  runDaemonPing,
	}
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := daemonclient.New()
	if err != nil {
		return shared.NewGobbyExitError("failed to create daemon client", err)
	}

	status, err := c.Status(ctx)
	if err != nil {
		if daemonclient.Unreachable(err) {
			return shared.NewDaemonUnreachableError(err)
		}
		return shared.NewGobbyExitError("failed to get daemon status", err)
	}

	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(status)
	}

	fmt.Println("Gobby Daemon Status")
	fmt.Println("===================")
	for _, key := range []string{"version", "uptime_seconds"} {
		if v, ok := status[key]; ok {
			fmt.Printf("%-15s %v\n", key+":", v)
		}
	}
	return nil
}

func runDaemonPing(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := daemonclient.New()
	if err != nil {
		return shared.NewGobbyExitError("failed to create daemon client", err)
	}

	start := time.Now()
	if _, err := c.Status(ctx); err != nil {
		if daemonclient.Unreachable(err) {
			if !shared.GetQuiet() {
				fmt.Println("gobbyd is not running")
			}
			return shared.NewDaemonUnreachableError(err)
		}
		return shared.NewGobbyExitError("ping failed", err)
	}
	latency := time.Since(start)

	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"status":     "ok",
			"latency_ms": latency.Milliseconds(),
		})
	}
	if !shared.GetQuiet() {
		fmt.Printf("gobbyd is running (latency: %v)\n", latency.Round(time.Millisecond))
	}
	return nil
}
