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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gobbyhq/gobby/internal/commands/shared"
	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/daemon"
	"github.com/gobbyhq/gobby/internal/log"
)

var startPort int

// NewStartCommand creates the `daemon start` command. It runs gobbyd's own
// wiring in the foreground of this process — equivalent to running the
// gobbyd binary directly, offered here for convenience.
func newDaemonStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run gobbyd in the foreground",
		Long: `Start the daemon: opens the local store, wires the session registry,
agent supervisor, worktree manager, workflow engine, pipeline executor,
webhook dispatcher, and sync projectors, and serves the loopback
HTTP/WS surface. Blocks until interrupted or stopped via 'gobby daemon
stop'.`,
		RunE: runDaemonStart,
	}
	cmd.Flags().IntVar(&startPort, "port", 0, "Loopback port to bind to (default: config daemon_port or 8374)")
	return cmd
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return shared.NewGobbyExitError("failed to load configuration", err)
	}
	if startPort != 0 {
		cfg.Daemon.Port = startPort
	}

	logger := log.New(&log.Config{
		Level:     cfg.Log.Level,
		Format:    log.Format(cfg.Log.Format),
		Output:    os.Stderr,
		AddSource: cfg.Log.AddSource,
	})

	version, commit, buildDate := shared.GetVersion()
	d, err := daemon.New(cfg, daemon.Options{Version: version, Commit: commit, BuildDate: buildDate}, logger)
	if err != nil {
		return shared.NewGobbyExitError("failed to wire daemon", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()

	logger.Info("daemon: ready")

	var startErr error
	select {
	case sig := <-sigCh:
		logger.Info("daemon: received signal, shutting down", "signal", sig.String())
		cancel()
		<-errCh
	case startErr = <-errCh:
	}

	if err := d.Shutdown(context.Background()); err != nil {
		logger.Error("daemon: error during shutdown", "error", err)
	}
	if startErr != nil {
		return shared.NewGobbyExitError("daemon exited with an error", startErr)
	}
	fmt.Println("daemon stopped")
	return nil
}
