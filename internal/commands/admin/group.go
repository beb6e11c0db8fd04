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

// Package admin is the `gobby admin` CLI group: status, config, and
// metrics inspection, and shutdown, against a running gobbyd over its
// loopback admin API.
package admin

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

// NewCommand creates the admin command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Inspect and control a running gobbyd",
	}
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newMetricsCommand())
	cmd.AddCommand(newShutdownCommand())
	return cmd
}

func withClient(fn func(ctx context.Context, c *daemonclient.Client) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := daemonclient.New()
	if err != nil {
		return shared.NewGobbyExitError("failed to create daemon client", err)
	}
	if err := fn(ctx, c); err != nil {
		if daemonclient.Unreachable(err) {
			return shared.NewDaemonUnreachableError(err)
		}
		return shared.NewGobbyExitError("admin request failed", err)
	}
	return nil
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon version and uptime",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *daemonclient.Client) error {
				status, err := c.Status(ctx)
				if err != nil {
					return err
				}
				return json.NewEncoder(os.Stdout).Encode(status)
			})
		},
	}
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the daemon's effective (secret-redacted) configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *daemonclient.Client) error {
				cfg, err := c.Config(ctx)
				if err != nil {
					return err
				}
				return json.NewEncoder(os.Stdout).Encode(cfg)
			})
		},
	}
}

func newMetricsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Dump Prometheus metrics text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *daemonclient.Client) error {
				text, err := c.Metrics(ctx)
				if err != nil {
					return err
				}
				fmt.Print(text)
				return nil
			})
		},
	}
}

func newShutdownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Request a graceful daemon shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *daemonclient.Client) error {
				if err := c.Shutdown(ctx); err != nil {
					return err
				}
				if !shared.GetQuiet() {
					fmt.Println("shutdown requested")
				}
				return nil
			})
		},
	}
}
