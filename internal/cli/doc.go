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

/*
Package cli provides the root command and shared configuration for Gobby's CLI.

This package creates the main Cobra command tree and handles global concerns like
version information, persistent flags, and error handling. Individual commands
are implemented in the internal/commands subpackages.

# Command Tree

The CLI is organized as:

	gobby
	├── daemon        Start/stop/inspect gobbyd
	├── admin         Status, config, metrics, shutdown over gobbyd's admin API
	├── sessions      Session Registry
	├── tasks         Task tree
	├── agents        Sub-agent runs
	├── worktrees     Git worktrees
	├── pipelines     Pipeline executions
	├── workflows     Step workflow instances
	├── skills        Project skills
	├── memories      Project memories
	├── validate      Validate workflow YAML
	├── test          Run workflow test suites
	├── config        Configuration management
	├── secrets       Secret management
	├── security      Security profiles and permission grants
	├── mcp           MCP server registry
	├── mcp-server    Run the MCP stdio server
	├── version       Show version
	└── help          Show help

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	rootCmd := cli.NewRootCommand()
	// ... add commands ...
	if err := rootCmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

All commands inherit these flags:

	--verbose, -v    Enable verbose output
	--quiet, -q      Suppress non-error output
	--json           Output in JSON format
	--config         Path to config file

# Error Handling

Errors are handled centrally to ensure proper exit codes:

  - Exit 0: Success
  - Exit 1: General error
  - Exit 2: Invalid usage

Use HandleExitError for consistent error handling:

	if err := cmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Command Registration

Each subpackage under internal/commands exposes a NewCommand (or
NewXxxCommand) constructor; main.go adds them to the root command
explicitly rather than through package-init side effects.
*/
package cli
