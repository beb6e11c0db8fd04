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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobbyhq/gobby/internal/store"
)

func TestErrorStatusForPendingAndRunning(t *testing.T) {
	assert.Equal(t, store.RunError, errorStatusFor(&store.AgentRun{Status: store.RunPending}))
	assert.Equal(t, store.RunTimeout, errorStatusFor(&store.AgentRun{Status: store.RunRunning}))
}

func TestReapOnceTransitionsStaleRuns(t *testing.T) {
	sup, st, sess := newTestSupervisor(t, Config{
		MaxDepth:          5,
		StalePendingAfter: time.Millisecond,
		StaleRunningAfter: time.Millisecond,
	})
	ctx := context.Background()

	run, err := st.CreateAgentRun(ctx, &store.AgentRun{ParentSessionID: sess.ID, Prompt: "stuck", Mode: store.ModeInProcess})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	sup.reapOnce(ctx)

	reaped, err := st.GetAgentRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RunError, reaped.Status, "a stale pending run reaps to error")
}

func TestReapOnceLeavesFreshRunsAlone(t *testing.T) {
	sup, st, sess := newTestSupervisor(t, Config{
		MaxDepth:          5,
		StalePendingAfter: time.Hour,
		StaleRunningAfter: time.Hour,
	})
	ctx := context.Background()

	run, err := st.CreateAgentRun(ctx, &store.AgentRun{ParentSessionID: sess.ID, Prompt: "fresh", Mode: store.ModeInProcess})
	require.NoError(t, err)

	sup.reapOnce(ctx)

	unchanged, err := st.GetAgentRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RunPending, unchanged.Status)
}

func TestStartReaperIsIdempotentAndStoppable(t *testing.T) {
	sup, _, _ := newTestSupervisor(t, Config{MaxDepth: 5, ReapInterval: time.Millisecond})
	sup.StartReaper()
	sup.StartReaper()
	sup.Close()
}
