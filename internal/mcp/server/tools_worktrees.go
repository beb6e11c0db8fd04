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

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerWorktreeTools() {
	s.addTool("create_worktree",
		"Create a new git worktree off a base branch for a project.",
		map[string]interface{}{"properties": map[string]interface{}{
			"project_id": stringProp("project id"),
			"branch":     stringProp("new branch name"),
			"base":       stringProp("base branch to branch from"),
		}},
		[]string{"project_id", "branch", "base"},
		s.handleCreateWorktree)

	s.addTool("claim_worktree",
		"Atomically claim an idle worktree for a session.",
		map[string]interface{}{"properties": map[string]interface{}{
			"worktree_id": stringProp("worktree id"),
			"session_id":  stringProp("claiming session id"),
		}},
		[]string{"worktree_id", "session_id"},
		s.handleClaimWorktree)

	s.addTool("release_worktree",
		"Release a worktree so another session may claim it.",
		map[string]interface{}{"properties": map[string]interface{}{
			"worktree_id": stringProp("worktree id"),
		}},
		[]string{"worktree_id"},
		s.handleReleaseWorktree)

	s.addTool("sync_worktree",
		"Merge or rebase a worktree's branch against the latest of its source branch.",
		map[string]interface{}{"properties": map[string]interface{}{
			"worktree_id":   stringProp("worktree id"),
			"source_branch": stringProp("branch to sync from"),
		}},
		[]string{"worktree_id", "source_branch"},
		s.handleSyncWorktree)

	s.addTool("delete_worktree",
		"Delete a worktree. Fails if it is claimed unless force is set.",
		map[string]interface{}{"properties": map[string]interface{}{
			"worktree_id": stringProp("worktree id"),
			"force":       boolProp("delete even if claimed"),
		}},
		[]string{"worktree_id"},
		s.handleDeleteWorktree)

	s.addTool("get_worktree",
		"Fetch a worktree by id.",
		map[string]interface{}{"properties": map[string]interface{}{
			"worktree_id": stringProp("worktree id"),
		}},
		[]string{"worktree_id"},
		s.handleGetWorktree)
}

func (s *Server) handleCreateWorktree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Worktrees == nil {
		return errResult(errServiceUnavailable("worktree service")), nil
	}
	projectID, _ := req.RequireString("project_id")
	branch, _ := req.RequireString("branch")
	base, _ := req.RequireString("base")

	wt, err := s.deps.Worktrees.Create(ctx, projectID, branch, base)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(wt)
}

func (s *Server) handleClaimWorktree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	worktreeID, _ := req.RequireString("worktree_id")
	sessionID, _ := req.RequireString("session_id")

	if err := s.deps.Store.ClaimWorktree(ctx, worktreeID, sessionID); err != nil {
		return errResult(err), nil
	}
	wt, err := s.deps.Store.GetWorktree(ctx, worktreeID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(wt)
}

func (s *Server) handleReleaseWorktree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	worktreeID, _ := req.RequireString("worktree_id")
	if err := s.deps.Store.ReleaseWorktree(ctx, worktreeID); err != nil {
		return errResult(err), nil
	}
	return textResponse(`{"released":true}`), nil
}

func (s *Server) handleSyncWorktree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Worktrees == nil {
		return errResult(errServiceUnavailable("worktree service")), nil
	}
	worktreeID, _ := req.RequireString("worktree_id")
	sourceBranch, _ := req.RequireString("source_branch")

	if err := s.deps.Worktrees.Sync(ctx, worktreeID, sourceBranch); err != nil {
		return errResult(err), nil
	}
	return textResponse(`{"synced":true}`), nil
}

func (s *Server) handleDeleteWorktree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Worktrees == nil {
		return errResult(errServiceUnavailable("worktree service")), nil
	}
	worktreeID, _ := req.RequireString("worktree_id")
	force := req.GetBool("force", false)
	if err := s.deps.Worktrees.Delete(ctx, worktreeID, force); err != nil {
		return errResult(err), nil
	}
	return textResponse(`{"deleted":true}`), nil
}

func (s *Server) handleGetWorktree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	worktreeID, _ := req.RequireString("worktree_id")
	wt, err := s.deps.Store.GetWorktree(ctx, worktreeID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(wt)
}
