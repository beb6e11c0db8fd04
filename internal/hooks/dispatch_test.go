package hooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobbyhq/gobby/internal/expression"
	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/internal/workflow"
)

func newTestDispatcher(t *testing.T, workflowDir string) *Dispatcher {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	registry := session.New(st)
	loader := workflow.NewLoader(workflowDir)
	predicates := expression.NewPredicates(st, expression.NewStopRegistry())
	evaluator := expression.New(predicates)
	actions := workflow.NewActionRegistry(workflow.Dependencies{})
	engine := workflow.New(st, loader, evaluator, actions, nil, nil)

	return New(registry, engine, nil, nil, DefaultTimeout)
}

func TestDispatchUnknownEventTypeAllows(t *testing.T) {
	d := newTestDispatcher(t, t.TempDir())
	resp := d.Dispatch(context.Background(), HookEvent{EventType: "not_a_real_event"})
	assert.Equal(t, DecisionAllow, resp.Decision)
}

func TestDispatchSessionStartRegistersSession(t *testing.T) {
	d := newTestDispatcher(t, t.TempDir())
	cwd := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(cwd, ".git"), 0o755))

	resp := d.Dispatch(context.Background(), HookEvent{
		EventType: EventSessionStart,
		SessionID: "ext-123",
		MachineID: "m-1",
		Source:    "claude-code",
		CWD:       cwd,
		Timestamp: time.Now(),
	})
	assert.Equal(t, DecisionAllow, resp.Decision)
}

func TestDispatchBeforeToolWithoutSessionAllows(t *testing.T) {
	d := newTestDispatcher(t, t.TempDir())
	resp := d.Dispatch(context.Background(), HookEvent{
		EventType: EventBeforeTool,
		SessionID: "never-registered",
		MachineID: "m-1",
		Source:    "claude-code",
		Data:      map[string]interface{}{"tool_name": "Bash"},
	})
	assert.Equal(t, DecisionAllow, resp.Decision)
}

func TestDispatchBlockedToolIsDenied(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guard.yaml"), []byte(`
name: guard
kind: lifecycle
triggers:
  on_session_start:
    - actions: []
`), 0o644))

	d := newTestDispatcher(t, dir)
	ctx := context.Background()
	cwd := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(cwd, ".git"), 0o755))

	startResp := d.Dispatch(ctx, HookEvent{
		EventType: EventSessionStart, SessionID: "ext-1", MachineID: "m-1", Source: "claude-code", CWD: cwd,
	})
	require.Equal(t, DecisionAllow, startResp.Decision)

	toolResp := d.Dispatch(ctx, HookEvent{
		EventType: EventBeforeTool, SessionID: "ext-1", MachineID: "m-1", Source: "claude-code",
		Data: map[string]interface{}{"tool_name": "Bash"},
	})
	assert.Equal(t, DecisionAllow, toolResp.Decision, "no step workflow active, so nothing gates Bash")
}

func TestEventTypeIsValid(t *testing.T) {
	assert.True(t, EventBeforeTool.IsValid())
	assert.False(t, EventType("bogus").IsValid())
}
