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

func (s *Server) registerPipelineTools() {
	s.addTool("run_pipeline",
		"Start a pipeline execution. Returns immediately; if the pipeline reaches an approval gate before this call returns, the result carries needs_configuration status and a resume token instead of blocking.",
		map[string]interface{}{"properties": map[string]interface{}{
			"project_id":    stringProp("project id"),
			"pipeline_name": stringProp("pipeline definition name"),
			"inputs":        objectProp("pipeline input values"),
		}},
		[]string{"project_id", "pipeline_name"},
		s.handleRunPipeline)

	s.addTool("resume_pipeline",
		"Resume a pipeline paused at an approval gate.",
		map[string]interface{}{"properties": map[string]interface{}{
			"resume_token": stringProp("token returned by the paused execution"),
			"approved":     boolProp("whether the gate was approved"),
		}},
		[]string{"resume_token", "approved"},
		s.handleResumePipeline)

	s.addTool("get_pipeline_execution",
		"Fetch a pipeline execution by id, including its step executions.",
		map[string]interface{}{"properties": map[string]interface{}{
			"execution_id": stringProp("pipeline execution id"),
		}},
		[]string{"execution_id"},
		s.handleGetPipelineExecution)
}

type pipelineExecutionView struct {
	Execution interface{} `json:"execution"`
	Steps     interface{} `json:"steps"`
}

func (s *Server) handleRunPipeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Pipelines == nil {
		return errResult(errServiceUnavailable("pipeline service")), nil
	}
	projectID, _ := req.RequireString("project_id")
	pipelineName, _ := req.RequireString("pipeline_name")
	inputs, _ := req.GetArguments()["inputs"].(map[string]interface{})

	exec, err := s.deps.Pipelines.Run(ctx, projectID, pipelineName, inputs)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(exec)
}

func (s *Server) handleResumePipeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Pipelines == nil {
		return errResult(errServiceUnavailable("pipeline service")), nil
	}
	resumeToken, _ := req.RequireString("resume_token")
	approved := req.GetBool("approved", false)

	exec, err := s.deps.Pipelines.Resume(ctx, resumeToken, approved)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(exec)
}

func (s *Server) handleGetPipelineExecution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.RequireString("execution_id")
	exec, err := s.deps.Store.GetPipelineExecution(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	steps, err := s.deps.Store.ListStepExecutions(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(pipelineExecutionView{Execution: exec, Steps: steps})
}
