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
	"time"

	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/hooks"
)

// StartLifecycleTracking subscribes to the Event Bus and increments
// turns_used/tool_calls_count on the AgentRun matching each hook event's
// session_id. Call once after New; safe no-op if bus is nil.
func (s *Supervisor) StartLifecycleTracking() {
	if s.bus == nil {
		return
	}
	s.mu.Lock()
	if s.stopLife != nil {
		s.mu.Unlock()
		return
	}
	s.stopLife = make(chan struct{})
	stop := s.stopLife
	s.mu.Unlock()

	events := s.bus.Subscribe("agent-lifecycle", eventbus.TopicSession)
	go func() {
		for {
			select {
			case <-stop:
				s.bus.Unsubscribe("agent-lifecycle")
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				s.observeSessionEvent(evt)
			}
		}
	}()
}

func (s *Supervisor) observeSessionEvent(evt eventbus.Event) {
	turnDelta, toolDelta := 0, 0
	switch evt.Kind {
	case string(hooks.EventAfterModel):
		turnDelta = 1
	case string(hooks.EventAfterTool):
		toolDelta = 1
	default:
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.store.IncrementAgentRunCounters(ctx, evt.ID, turnDelta, toolDelta)
}

// publishSubagentStop emits the SUBAGENT_STOP event used by dependent
// workflows to observe a spawned agent's completion.
func publishSubagentStop(bus *eventbus.Bus, runID, status string) {
	bus.Publish(eventbus.Event{
		Topic:     eventbus.TopicAgentRun,
		Kind:      string(hooks.EventSubagentStop),
		ID:        runID,
		Payload:   map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	})
}
