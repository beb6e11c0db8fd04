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

	"github.com/gobbyhq/gobby/internal/store"
)

// errorStatusFor maps a stale run's current status to its terminal one:
// pending -> error, running -> timeout.
func errorStatusFor(run *store.AgentRun) store.AgentRunStatus {
	if run.Status == store.RunPending {
		return store.RunError
	}
	return store.RunTimeout
}

// StartReaper launches the ticker-driven background scan for stale
// AgentRuns: {pending > 60 min} -> error, {running > 30 min} -> timeout
// (cutoffs from Config). Call once after New; call Close to stop it.
func (s *Supervisor) StartReaper() {
	s.mu.Lock()
	if s.stopReap != nil {
		s.mu.Unlock()
		return
	}
	s.stopReap = make(chan struct{})
	stop := s.stopReap
	s.mu.Unlock()

	ticker := time.NewTicker(s.agentCfg.ReapInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.reapOnce(context.Background())
			}
		}
	}()
}

func (s *Supervisor) reapOnce(ctx context.Context) {
	now := time.Now().UTC()
	pendingCutoff := now.Add(-s.agentCfg.StalePendingAfter).Format(time.RFC3339)
	runningCutoff := now.Add(-s.agentCfg.StaleRunningAfter).Format(time.RFC3339)

	stale, err := s.store.StaleAgentRuns(ctx, pendingCutoff, runningCutoff)
	if err != nil {
		s.logger.Warn("agent reaper: failed to scan for stale runs", "error", err)
		return
	}

	for _, run := range stale {
		status := errorStatusFor(run)
		if err := s.store.UpdateAgentRunStatus(ctx, run.ID, status, "", "reaped: exceeded stale cutoff"); err != nil {
			s.logger.Warn("agent reaper: failed to transition run", "run_id", run.ID, "error", err)
			continue
		}
		s.mu.Lock()
		h, ok := s.running[run.ID]
		s.mu.Unlock()
		if ok {
			if h.cancel != nil {
				h.cancel()
			}
			if h.kill != nil {
				h.kill()
			}
		}
		if s.bus != nil {
			publishSubagentStop(s.bus, run.ID, string(status))
		}
	}
}
