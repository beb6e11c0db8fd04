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

	"github.com/gobbyhq/gobby/internal/store"
)

func (s *Server) registerSearchTools() {
	s.addTool("search",
		"Full-text search across both tasks and artifacts for a project in one call.",
		map[string]interface{}{"properties": map[string]interface{}{
			"query":      stringProp("search text"),
			"project_id": stringProp("restrict to a project"),
		}},
		[]string{"query", "project_id"},
		s.handleSearchAll)
}

type searchAllResult struct {
	Tasks     []*store.Task     `json:"tasks"`
	Artifacts []*store.Artifact `json:"artifacts"`
}

func (s *Server) handleSearchAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := req.RequireString("query")
	projectID, _ := req.RequireString("project_id")

	tasks, err := s.deps.Store.SearchTasks(ctx, query, store.TaskSearchFilter{ProjectID: projectID})
	if err != nil {
		return errResult(err), nil
	}
	artifacts, err := s.deps.Store.SearchArtifacts(ctx, query, store.ArtifactSearchFilter{ProjectID: projectID})
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(searchAllResult{Tasks: tasks, Artifacts: artifacts})
}
