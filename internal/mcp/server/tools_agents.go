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

func (s *Server) registerAgentTools() {
	s.addTool("spawn_agent",
		"Spawn a subagent session from the calling session. Accepts the same options as the workflow engine's spawn_agent action: provider, model, mode, context_source, prompt_template.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id": stringProp("parent session id"),
			"prompt":     stringProp("prompt template for the spawned agent"),
			"provider":   stringProp("provider override, falls back to workflow default/config/built-in default"),
			"model":      stringProp("model override"),
			"mode":       stringProp("execution mode: in_process, headless, terminal, embedded"),
			"context_source": stringProp("where to source context from: summary_markdown, compact_markdown, session_id:<id>, transcript:<n>, file:<path>"),
		}},
		[]string{"session_id", "prompt"},
		s.handleSpawnAgent)

	s.addTool("cancel_agent",
		"Cancel a running or pending agent run.",
		map[string]interface{}{"properties": map[string]interface{}{
			"agent_run_id": stringProp("agent run id"),
		}},
		[]string{"agent_run_id"},
		s.handleCancelAgent)

	s.addTool("get_agent_run",
		"Fetch an agent run's status.",
		map[string]interface{}{"properties": map[string]interface{}{
			"agent_run_id": stringProp("agent run id"),
		}},
		[]string{"agent_run_id"},
		s.handleGetAgentRun)
}

func (s *Server) handleSpawnAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Agents == nil {
		return errResult(errServiceUnavailable("agent supervisor")), nil
	}
	sessionID, _ := req.RequireString("session_id")
	opts := req.GetArguments()
	run, err := s.deps.Agents.Spawn(ctx, sessionID, opts)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(run)
}

func (s *Server) handleCancelAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Agents == nil {
		return errResult(errServiceUnavailable("agent supervisor")), nil
	}
	agentRunID, _ := req.RequireString("agent_run_id")
	if err := s.deps.Agents.Cancel(ctx, agentRunID); err != nil {
		return errResult(err), nil
	}
	return textResponse(`{"cancelled":true}`), nil
}

func (s *Server) handleGetAgentRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.RequireString("agent_run_id")
	run, err := s.deps.Store.GetAgentRun(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(run)
}
