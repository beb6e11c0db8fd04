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

package main

import (
	"github.com/gobbyhq/gobby/internal/cli"
	"github.com/gobbyhq/gobby/internal/commands/admin"
	"github.com/gobbyhq/gobby/internal/commands/agents"
	"github.com/gobbyhq/gobby/internal/commands/completion"
	"github.com/gobbyhq/gobby/internal/commands/config"
	"github.com/gobbyhq/gobby/internal/commands/daemon"
	"github.com/gobbyhq/gobby/internal/commands/diagnostics"
	"github.com/gobbyhq/gobby/internal/commands/docs"
	"github.com/gobbyhq/gobby/internal/commands/integrations"
	"github.com/gobbyhq/gobby/internal/commands/mcp"
	"github.com/gobbyhq/gobby/internal/commands/mcpserver"
	"github.com/gobbyhq/gobby/internal/commands/memories"
	"github.com/gobbyhq/gobby/internal/commands/model"
	"github.com/gobbyhq/gobby/internal/commands/pipelines"
	"github.com/gobbyhq/gobby/internal/commands/provider"
	"github.com/gobbyhq/gobby/internal/commands/secrets"
	"github.com/gobbyhq/gobby/internal/commands/security"
	"github.com/gobbyhq/gobby/internal/commands/sessions"
	"github.com/gobbyhq/gobby/internal/commands/skills"
	"github.com/gobbyhq/gobby/internal/commands/tasks"
	"github.com/gobbyhq/gobby/internal/commands/test"
	versioncmd "github.com/gobbyhq/gobby/internal/commands/version"
	"github.com/gobbyhq/gobby/internal/commands/validate"
	"github.com/gobbyhq/gobby/internal/commands/workflow"
	"github.com/gobbyhq/gobby/internal/commands/workflows"
	workspacecmd "github.com/gobbyhq/gobby/internal/commands/workspace"
	"github.com/gobbyhq/gobby/internal/commands/worktrees"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// Daemon lifecycle
	rootCmd.AddCommand(daemon.NewCommand())
	rootCmd.AddCommand(admin.NewCommand())

	// Domain command groups, each wired directly against the local store
	// (internal/commands/localdeps) rather than over the daemon's HTTP
	// surface — the same components gobbyd itself runs, just without the
	// background reapers/projectors/listener a one-shot CLI call doesn't
	// need.
	rootCmd.AddCommand(sessions.NewCommand())
	rootCmd.AddCommand(tasks.NewCommand())
	rootCmd.AddCommand(agents.NewCommand())
	rootCmd.AddCommand(worktrees.NewCommand())
	rootCmd.AddCommand(pipelines.NewCommand())
	rootCmd.AddCommand(workflows.NewCommand())
	rootCmd.AddCommand(skills.NewCommand())
	rootCmd.AddCommand(memories.NewCommand())

	// Workflow-file authoring tools (lint/run-local-tests against
	// pkg/workflow YAML definitions; no daemon involved)
	rootCmd.AddCommand(validate.NewCommand())
	rootCmd.AddCommand(test.NewCommand())
	rootCmd.AddCommand(workflow.NewExamplesCommand())
	rootCmd.AddCommand(workflow.NewSchemaCommand())
	rootCmd.AddCommand(workflow.NewUsageCommand())

	// MCP: registry management plus the stdio server editors/assistants launch
	rootCmd.AddCommand(mcp.NewMCPCommand())
	rootCmd.AddCommand(mcpserver.NewCommand())

	// Configuration and security
	rootCmd.AddCommand(config.NewConfigCommand())
	rootCmd.AddCommand(integrations.NewCommand())
	rootCmd.AddCommand(workspacecmd.NewCommand())
	rootCmd.AddCommand(secrets.NewCommand())
	rootCmd.AddCommand(provider.NewCommand())
	rootCmd.AddCommand(model.NewCommand())
	rootCmd.AddCommand(security.NewCommand())

	// Diagnostics and ambient commands
	rootCmd.AddCommand(diagnostics.NewHealthCommand())
	rootCmd.AddCommand(diagnostics.NewPingCommand())
	rootCmd.AddCommand(completion.NewCommand())
	rootCmd.AddCommand(docs.NewDocsCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	rootCmd.SetHelpCommand(cli.NewHelpCommand(rootCmd))

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
