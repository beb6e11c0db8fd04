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

	pkgerrors "github.com/gobbyhq/gobby/pkg/errors"
)

func (s *Server) registerMemoryTools() {
	s.addTool("list_memories",
		"List the persistent memories recorded for a project (imported from the project's memory files).",
		map[string]interface{}{"properties": map[string]interface{}{
			"project_id": stringProp("project id"),
		}},
		[]string{"project_id"},
		s.handleListMemories)

	s.addTool("get_memory",
		"Fetch a single memory by id.",
		map[string]interface{}{"properties": map[string]interface{}{
			"project_id": stringProp("project id"),
			"memory_id":  stringProp("memory id"),
		}},
		[]string{"project_id", "memory_id"},
		s.handleGetMemory)
}

func (s *Server) handleListMemories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, _ := req.RequireString("project_id")
	memories, err := s.deps.Store.ListMemories(ctx, projectID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(memories)
}

func (s *Server) handleGetMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, _ := req.RequireString("project_id")
	memoryID, _ := req.RequireString("memory_id")

	memories, err := s.deps.Store.ListMemories(ctx, projectID)
	if err != nil {
		return errResult(err), nil
	}
	for _, m := range memories {
		if m.ID == memoryID {
			return jsonResponse(m)
		}
	}
	return errResult(pkgerrors.NotFound("memory", memoryID)), nil
}
