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

package shared

import pkgerrors "github.com/gobbyhq/gobby/pkg/errors"

// Exit codes for the domain command groups (daemon, sessions, tasks,
// agents, worktrees, pipelines, workflows, skills, memories, mcp, admin).
// Distinct from the workflow-run exit codes above because the two
// command families report failure along different axes: `run` reports
// *why a workflow execution failed*, these report *what kind of error
// the CLI hit talking to the store or daemon*.
const (
	GobbyExitOK                = 0
	GobbyExitGeneric           = 1
	GobbyExitUsage             = 2
	GobbyExitDaemonUnreachable = 3
	GobbyExitNotFound          = 4
	GobbyExitConflict          = 5
)

// NewGobbyExitError maps a domain error to the exit code table above, or
// to GobbyExitGeneric if it isn't one of the classified kinds.
func NewGobbyExitError(msg string, cause error) *ExitError {
	code := GobbyExitGeneric
	switch cause.(type) {
	case *pkgerrors.NotFoundError:
		code = GobbyExitNotFound
	case *pkgerrors.ConflictError, *pkgerrors.AlreadyExistsError:
		code = GobbyExitConflict
	case *pkgerrors.ValidationError:
		code = GobbyExitUsage
	}
	return &ExitError{Code: code, Message: msg, Cause: cause}
}

// NewDaemonUnreachableError reports the daemon-unreachable exit code for
// commands that talk to gobbyd over its loopback HTTP surface.
func NewDaemonUnreachableError(cause error) *ExitError {
	return &ExitError{Code: GobbyExitDaemonUnreachable, Message: "gobbyd is not reachable", Cause: cause}
}
