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

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/hooks"
	"github.com/gobbyhq/gobby/internal/store"
)

func TestObserveSessionEventIncrementsCounters(t *testing.T) {
	sup, st, sess := newTestSupervisor(t, Config{MaxDepth: 5})
	ctx := context.Background()

	run, err := st.CreateAgentRun(ctx, &store.AgentRun{ParentSessionID: sess.ID, Prompt: "x", Mode: store.ModeInProcess})
	require.NoError(t, err)
	require.NoError(t, st.SetAgentRunChildSession(ctx, run.ID, sess.ID))

	sup.observeSessionEvent(eventbus.Event{Kind: string(hooks.EventAfterModel), ID: sess.ID})
	sup.observeSessionEvent(eventbus.Event{Kind: string(hooks.EventAfterTool), ID: sess.ID})
	sup.observeSessionEvent(eventbus.Event{Kind: string(hooks.EventAfterTool), ID: sess.ID})

	updated, err := st.GetAgentRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TurnsUsed)
	assert.Equal(t, 2, updated.ToolCallsCount)
}

func TestObserveSessionEventIgnoresUnrelatedKinds(t *testing.T) {
	sup, st, sess := newTestSupervisor(t, Config{MaxDepth: 5})
	ctx := context.Background()

	run, err := st.CreateAgentRun(ctx, &store.AgentRun{ParentSessionID: sess.ID, Prompt: "x", Mode: store.ModeInProcess})
	require.NoError(t, err)
	require.NoError(t, st.SetAgentRunChildSession(ctx, run.ID, sess.ID))

	sup.observeSessionEvent(eventbus.Event{Kind: string(hooks.EventSessionStart), ID: sess.ID})

	unchanged, err := st.GetAgentRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unchanged.TurnsUsed)
	assert.Equal(t, 0, unchanged.ToolCallsCount)
}

func TestStartLifecycleTrackingNilBusIsNoop(t *testing.T) {
	sup, st, sess := newTestSupervisor(t, Config{MaxDepth: 5})
	sup.bus = nil
	sup.StartLifecycleTracking()
	sup.Close()
	_ = st
	_ = sess
}
