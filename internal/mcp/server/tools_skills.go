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

func (s *Server) registerSkillTools() {
	s.addTool("list_skills",
		"List the skills available to a project (imported from the project's skill files).",
		map[string]interface{}{"properties": map[string]interface{}{
			"project_id": stringProp("project id"),
		}},
		[]string{"project_id"},
		s.handleListSkills)

	s.addTool("get_skill",
		"Fetch a single skill by name.",
		map[string]interface{}{"properties": map[string]interface{}{
			"project_id": stringProp("project id"),
			"name":       stringProp("skill name"),
		}},
		[]string{"project_id", "name"},
		s.handleGetSkill)
}

func (s *Server) handleListSkills(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, _ := req.RequireString("project_id")
	skills, err := s.deps.Store.ListSkills(ctx, projectID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(skills)
}

func (s *Server) handleGetSkill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, _ := req.RequireString("project_id")
	name, _ := req.RequireString("name")
	skill, err := s.deps.Store.GetSkillByName(ctx, projectID, name)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(skill)
}
