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

package server

import (
	"context"

	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/internal/workflow"
	pkgerrors "github.com/gobbyhq/gobby/pkg/errors"
)

// AgentService is the subset of the agent supervisor the MCP surface needs.
// Implemented by internal/agent; nil until the daemon wires it in.
type AgentService interface {
	Spawn(ctx context.Context, parentSessionID string, opts map[string]interface{}) (*store.AgentRun, error)
	Cancel(ctx context.Context, agentRunID string) error
}

// WorktreeService is the subset of live git operations the MCP surface
// needs beyond what can be answered from store rows alone.
// Implemented by internal/worktree; nil until the daemon wires it in.
type WorktreeService interface {
	Create(ctx context.Context, projectID, branch, base string) (*store.Worktree, error)
	Sync(ctx context.Context, worktreeID, sourceBranch string) error
	Delete(ctx context.Context, worktreeID string, force bool) error
}

// PipelineService runs and resumes pipeline definitions. Implemented by
// internal/pipeline; nil until the daemon wires it in.
type PipelineService interface {
	Run(ctx context.Context, projectID, pipelineName string, inputs map[string]interface{}) (*store.PipelineExecution, error)
	Resume(ctx context.Context, resumeToken string, approved bool) (*store.PipelineExecution, error)
}

// Dependencies are the services Gobby's MCP tools are backed by. Services
// left nil report an Internal error rather than panicking, so the server
// can be stood up before every downstream component exists.
type Dependencies struct {
	Store     *store.Store
	Sessions  *session.Registry
	Engine    *workflow.Engine
	Agents    AgentService
	Worktrees WorktreeService
	Pipelines PipelineService
}

func errServiceUnavailable(name string) error {
	return pkgerrors.Internal(name, pkgerrors.New(name+" is not wired into this server instance yet"))
}
