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

package errors

import "fmt"

// ConflictError represents a state conflict: the operation is valid but
// cannot proceed because another actor already holds the resource (a
// claimed task, a claimed worktree, a duplicate session register).
// Idempotent callers should treat their own prior claim as success rather
// than surfacing this error.
type ConflictError struct {
	// Resource is the type of resource in conflict (e.g. "task", "worktree").
	Resource string

	// ID is the identifier of the conflicting resource.
	ID string

	// Reason explains the conflict (e.g. "already claimed by session s2").
	Reason string

	// HeldBy identifies the current holder, if known (e.g. a session id).
	HeldBy string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.HeldBy != "" {
		return fmt.Sprintf("%s %s conflict: %s (held by %s)", e.Resource, e.ID, e.Reason, e.HeldBy)
	}
	return fmt.Sprintf("%s %s conflict: %s", e.Resource, e.ID, e.Reason)
}

// InvalidStateError represents an operation that is not valid for the
// current state of the target: activating a lifecycle-only workflow
// manually, transitioning to a step blocked by an auto-transition guard.
type InvalidStateError struct {
	// Entity identifies what was in the wrong state (e.g. "workflow", "session").
	Entity string

	// State is the current state that made the operation invalid.
	State string

	// Message explains why the operation is invalid.
	Message string

	// Remediation offers guidance, if any (e.g. "pass force=true").
	Remediation string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	msg := fmt.Sprintf("invalid state for %s (state=%s): %s", e.Entity, e.State, e.Message)
	if e.Remediation != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Remediation)
	}
	return msg
}

// ExternalError wraps a failure from outside the process boundary: a VCS
// command, a spawned child process, an outbound webhook HTTP call.
type ExternalError struct {
	// System names the external system (e.g. "git", "webhook", "process").
	System string

	// Operation describes what was attempted.
	Operation string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.System, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExternalError) Unwrap() error {
	return e.Cause
}

// InternalError represents an unhandled exception recovered at a dispatch
// boundary (a panic in an action, an evaluator bug). It is always logged;
// callers across a hook boundary see it downgraded to an allow decision,
// callers across a pipeline boundary see it as a failed step.
type InternalError struct {
	// Component identifies where the panic/error was recovered.
	Component string

	// Cause is the recovered value, wrapped as an error.
	Cause error
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %v", e.Component, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *InternalError) Unwrap() error {
	return e.Cause
}

// AlreadyExistsError represents a uniqueness constraint violation on
// create (e.g. duplicate (external_id, machine_id, source) session key).
type AlreadyExistsError struct {
	Resource string
	Key      string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.Key)
}
