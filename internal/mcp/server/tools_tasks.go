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

func (s *Server) registerTaskTools() {
	s.addTool("create_task",
		"Create a task under a project, optionally as a child of another task.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id":    stringProp("session id whose project the task belongs to"),
			"title":         stringProp("short task title"),
			"description":   stringProp("task description"),
			"task_type":     stringProp("task type, e.g. feature, bug, chore"),
			"priority":      stringProp("priority, e.g. low, normal, high"),
			"parent_task_id": stringProp("parent task id, if this is a subtask"),
			"labels":        arrayOfStringsProp("free-form labels"),
			"test_strategy": stringProp("how completion of this task will be verified"),
		}},
		[]string{"session_id", "title"},
		s.handleCreateTask)

	s.addTool("get_task",
		"Fetch a task by id.",
		map[string]interface{}{"properties": map[string]interface{}{
			"task_id": stringProp("task id"),
		}},
		[]string{"task_id"},
		s.handleGetTask)

	s.addTool("claim_task",
		"Atomically claim an open task for a session. Fails if the task is already claimed unless force is set.",
		map[string]interface{}{"properties": map[string]interface{}{
			"task_id":    stringProp("task id"),
			"session_id": stringProp("session id claiming the task"),
			"force":      boolProp("steal the claim even if already assigned"),
		}},
		[]string{"task_id", "session_id"},
		s.handleClaimTask)

	s.addTool("close_task",
		"Mark a task closed.",
		map[string]interface{}{"properties": map[string]interface{}{
			"task_id": stringProp("task id"),
		}},
		[]string{"task_id"},
		s.handleCloseTask)

	s.addTool("add_task_dependency",
		"Record that one task depends on another.",
		map[string]interface{}{"properties": map[string]interface{}{
			"task_id":    stringProp("dependent task id"),
			"depends_on": stringProp("task id this task depends on"),
			"dep_type":   stringProp("dependency kind, default 'blocks'"),
		}},
		[]string{"task_id", "depends_on"},
		s.handleAddTaskDependency)

	s.addTool("search_tasks",
		"Full-text search over task titles and descriptions, optionally scoped by project/session/type/status/priority.",
		map[string]interface{}{"properties": map[string]interface{}{
			"query":      stringProp("search text"),
			"project_id": stringProp("restrict to a project"),
			"session_id": stringProp("restrict to a session"),
			"task_type":  stringProp("restrict to a task type"),
			"status":     stringProp("restrict to a status"),
			"priority":   stringProp("restrict to a priority"),
		}},
		[]string{"query"},
		s.handleSearchTasks)
}

func (s *Server) handleCreateTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	title, _ := req.RequireString("title")

	sess, err := s.deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		return errResult(err), nil
	}

	labels := stringSliceArg(req, "labels")
	task := &store.Task{
		ProjectID:     sess.ProjectID,
		Title:         title,
		Description:   req.GetString("description", ""),
		TaskType:      req.GetString("task_type", ""),
		Priority:      req.GetString("priority", ""),
		ParentTaskID:  req.GetString("parent_task_id", ""),
		Labels:        labels,
		TestStrategy:  req.GetString("test_strategy", ""),
	}
	created, err := s.deps.Store.CreateTask(ctx, task)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(created)
}

func (s *Server) handleGetTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.RequireString("task_id")
	task, err := s.deps.Store.GetTask(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(task)
}

func (s *Server) handleClaimTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, _ := req.RequireString("task_id")
	sessionID, _ := req.RequireString("session_id")
	force := req.GetBool("force", false)

	if err := s.deps.Store.ClaimTask(ctx, taskID, sessionID, force); err != nil {
		return errResult(err), nil
	}
	task, err := s.deps.Store.GetTask(ctx, taskID)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(task)
}

func (s *Server) handleCloseTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, _ := req.RequireString("task_id")
	if err := s.deps.Store.CloseTask(ctx, taskID); err != nil {
		return errResult(err), nil
	}
	return textResponse(`{"closed":true}`), nil
}

func (s *Server) handleAddTaskDependency(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, _ := req.RequireString("task_id")
	dependsOn, _ := req.RequireString("depends_on")
	depType := req.GetString("dep_type", "blocks")

	if err := s.deps.Store.AddTaskDependency(ctx, taskID, dependsOn, depType); err != nil {
		return errResult(err), nil
	}
	return textResponse(`{"added":true}`), nil
}

func (s *Server) handleSearchTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := req.RequireString("query")
	filter := store.TaskSearchFilter{
		ProjectID: req.GetString("project_id", ""),
		SessionID: req.GetString("session_id", ""),
		TaskType:  req.GetString("task_type", ""),
		Status:    req.GetString("status", ""),
		Priority:  req.GetString("priority", ""),
	}
	tasks, err := s.deps.Store.SearchTasks(ctx, query, filter)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(tasks)
}

func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
