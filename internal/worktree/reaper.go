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

package worktree

import (
	"context"
	"time"
)

// StartReaper launches the ticker-driven scan for worktrees whose
// updated_at predates StaleAfter. Cleanup batches are bounded to one
// query per tick and commit per-item, so one failing worktree never
// blocks the rest. Call once after New; call Close to stop.
func (m *Manager) StartReaper() {
	m.mu.Lock()
	if m.stopReap != nil {
		m.mu.Unlock()
		return
	}
	m.stopReap = make(chan struct{})
	stop := m.stopReap
	m.mu.Unlock()

	ticker := time.NewTicker(m.cfg.ReapInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.reapOnce(context.Background())
			}
		}
	}()
}

func (m *Manager) reapOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.cfg.StaleAfter).Format(time.RFC3339)
	stale, err := m.store.StaleWorktrees(ctx, cutoff)
	if err != nil {
		m.logger.Warn("worktree reaper: failed to scan for stale worktrees", "error", err)
		return
	}
	for _, wt := range stale {
		if err := m.Delete(ctx, wt.ID, true); err != nil {
			m.logger.Warn("worktree reaper: failed to delete stale worktree", "worktree_id", wt.ID, "error", err)
			continue
		}
	}
}
