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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gobbyhq/gobby/internal/commands/daemonclient"
	"github.com/gobbyhq/gobby/internal/commands/shared"
)

func newDaemonStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask a running gobbyd to shut down gracefully",
		RunE:  runDaemonStop,
	}
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := daemonclient.New()
	if err != nil {
		return shared.NewGobbyExitError("failed to create daemon client", err)
	}

	if err := c.Shutdown(ctx); err != nil {
		if daemonclient.Unreachable(err) {
			return shared.NewDaemonUnreachableError(err)
		}
		return shared.NewGobbyExitError("failed to stop daemon", err)
	}

	if !shared.GetQuiet() {
		fmt.Println("daemon shutdown requested")
	}
	return nil
}
