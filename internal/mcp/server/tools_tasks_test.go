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
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobbyhq/gobby/internal/expression"
	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/internal/workflow"
)

func newTestServer(t *testing.T) (*Server, *store.Store, *store.Session) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	proj, err := st.EnsureProject(ctx, t.TempDir(), "demo", "")
	require.NoError(t, err)
	sess, err := st.RegisterSession(ctx, &store.Session{
		ExternalID: "ext-1", MachineID: "m-1", Source: "claude-code", ProjectID: proj.ID,
	})
	require.NoError(t, err)

	sessions := session.New(st)
	loader := workflow.NewLoader(t.TempDir())
	predicates := expression.NewPredicates(st, expression.NewStopRegistry())
	evaluator := expression.New(predicates)
	actions := workflow.NewActionRegistry(workflow.Dependencies{})
	engine := workflow.New(st, loader, evaluator, actions, nil, nil)

	srv, err := NewServer(ServerConfig{Deps: Dependencies{Store: st, Sessions: sessions, Engine: engine}})
	require.NoError(t, err)
	return srv, st, sess
}

func callArgs(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestCreateAndGetTask(t *testing.T) {
	srv, _, sess := newTestServer(t)

	result, err := srv.handleCreateTask(context.Background(), callArgs(map[string]interface{}{
		"session_id": sess.ID, "title": "write tests",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, err = srv.handleSearchTasks(context.Background(), callArgs(map[string]interface{}{
		"query": "tests", "project_id": sess.ProjectID,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestClaimTaskCASRejectsSecondClaim(t *testing.T) {
	srv, st, sess := newTestServer(t)

	task, err := st.CreateTask(context.Background(), &store.Task{ProjectID: sess.ProjectID, Title: "a task"})
	require.NoError(t, err)

	first, err := srv.handleClaimTask(context.Background(), callArgs(map[string]interface{}{
		"task_id": task.ID, "session_id": "s1",
	}))
	require.NoError(t, err)
	assert.False(t, first.IsError)

	second, err := srv.handleClaimTask(context.Background(), callArgs(map[string]interface{}{
		"task_id": task.ID, "session_id": "s2",
	}))
	require.NoError(t, err)
	assert.True(t, second.IsError)
}

func TestSendToParentRequiresParent(t *testing.T) {
	srv, _, sess := newTestServer(t)

	result, err := srv.handleSendToParent(context.Background(), callArgs(map[string]interface{}{
		"session_id": sess.ID, "subject": "hi", "body": "hello",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "session has no parent")
}

func TestActivateWorkflowUnknownDefinitionErrors(t *testing.T) {
	srv, _, sess := newTestServer(t)

	result, err := srv.handleActivateWorkflow(context.Background(), callArgs(map[string]interface{}{
		"session_id": sess.ID, "workflow_name": "does-not-exist",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
