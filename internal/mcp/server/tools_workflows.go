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

func (s *Server) registerWorkflowTools() {
	s.addTool("activate_workflow",
		"Attach a step or pipeline workflow definition to a session.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id":    stringProp("session id"),
			"workflow_name": stringProp("workflow definition name"),
			"resume":        boolProp("allow re-activating an already-attached instance"),
			"args":          objectProp("initial variable values"),
		}},
		[]string{"session_id", "workflow_name"},
		s.handleActivateWorkflow)

	s.addTool("end_workflow",
		"Detach a workflow instance from a session.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id":    stringProp("session id"),
			"workflow_name": stringProp("workflow definition name"),
		}},
		[]string{"session_id", "workflow_name"},
		s.handleEndWorkflow)

	s.addTool("transition_workflow",
		"Manually move a session's workflow instance to a named step.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id":    stringProp("session id"),
			"workflow_name": stringProp("workflow definition name"),
			"step":          stringProp("target step name"),
			"force":         boolProp("override a guarded auto-transition targeting this step"),
		}},
		[]string{"session_id", "workflow_name", "step"},
		s.handleTransitionWorkflow)

	s.addTool("list_workflow_instances",
		"List the workflow instances currently attached to a session.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id": stringProp("session id"),
		}},
		[]string{"session_id"},
		s.handleListWorkflowInstances)
}

func (s *Server) handleActivateWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	workflowName, _ := req.RequireString("workflow_name")
	resume := req.GetBool("resume", false)

	args, _ := req.GetArguments()["args"].(map[string]interface{})
	inst, err := s.deps.Engine.Activate(ctx, sessionID, workflowName, resume, args)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(inst)
}

func (s *Server) handleEndWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	workflowName, _ := req.RequireString("workflow_name")
	if err := s.deps.Engine.End(ctx, sessionID, workflowName); err != nil {
		return errResult(err), nil
	}
	return textResponse(`{"ended":true}`), nil
}

func (s *Server) handleTransitionWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	workflowName, _ := req.RequireString("workflow_name")
	step, _ := req.RequireString("step")
	force := req.GetBool("force", false)

	if err := s.deps.Engine.TransitionTo(ctx, sessionID, workflowName, step, force); err != nil {
		return errResult(err), nil
	}
	return textResponse(`{"transitioned":true}`), nil
}

func (s *Server) handleListWorkflowInstances(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	instances, err := s.deps.Store.ListWorkflowInstances(ctx, sessionID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(instances)
}
