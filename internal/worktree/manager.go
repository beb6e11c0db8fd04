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

// Package worktree maintains the mapping between logical branches and
// physical isolated git working directories, wrapping the local git binary
// via os/exec. Store mutations go through internal/store; this package owns
// only the physical git side effects and their per-worktree serialization.
package worktree

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/pkg/errors"
)

// SyncStrategy is how Sync integrates a source branch's commits.
type SyncStrategy string

const (
	SyncMerge  SyncStrategy = "merge"
	SyncRebase SyncStrategy = "rebase"
)

// Config controls default sync behavior and stale-worktree cleanup.
type Config struct {
	// DefaultSyncStrategy is used when Sync is not told otherwise.
	DefaultSyncStrategy SyncStrategy

	// StaleAfter is how long a claimed-or-idle worktree may go without a
	// Touch before the reaper considers it for cleanup.
	StaleAfter time.Duration

	// ReapInterval is how often the reaper scans for stale worktrees.
	ReapInterval time.Duration
}

// DefaultConfig returns the manager's built-in defaults.
func DefaultConfig() Config {
	return Config{
		DefaultSyncStrategy: SyncMerge,
		StaleAfter:          24 * time.Hour,
		ReapInterval:        10 * time.Minute,
	}
}

// Manager is the C9 Worktree Manager.
type Manager struct {
	store  *store.Store
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	stopReap chan struct{}
}

// New builds a Manager.
func New(st *store.Store, cfg Config, logger *slog.Logger) *Manager {
	if cfg.DefaultSyncStrategy == "" {
		cfg.DefaultSyncStrategy = DefaultConfig().DefaultSyncStrategy
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultConfig().StaleAfter
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = DefaultConfig().ReapInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  st,
		cfg:    cfg,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-worktree-id mutex that serializes physical git
// invocations against that worktree, creating it on first use. Store
// mutations already serialize through the Store writer; git commands
// additionally serialize per worktree_id so two callers never run git in
// the same directory at once.
func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// Create ensures branch exists off base (creating it if not), adds a git
// worktree for it at a stable path under the project root, and records the
// row.
func (m *Manager) Create(ctx context.Context, projectID, branch, base string) (*store.Worktree, error) {
	if branch == "" {
		return nil, errors.Validation("branch", "branch is required")
	}
	if base == "" {
		return nil, errors.Validation("base", "base is required")
	}

	proj, err := m.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	worktreePath := filepath.Join(proj.RepoPath, ".gobby", "worktrees", sanitizeBranchForPath(branch))
	if err := os.MkdirAll(filepath.Dir(worktreePath), 0o755); err != nil {
		return nil, errors.Internal("worktree-create", err)
	}

	if branchExists(ctx, proj.RepoPath, branch) {
		if err := git(ctx, proj.RepoPath, "worktree", "add", worktreePath, branch); err != nil {
			return nil, errors.Internal("worktree-create", err)
		}
	} else {
		if err := git(ctx, proj.RepoPath, "worktree", "add", "-b", branch, worktreePath, base); err != nil {
			return nil, errors.Internal("worktree-create", err)
		}
	}

	return m.store.CreateWorktree(ctx, &store.Worktree{
		ProjectID:    projectID,
		BranchName:   branch,
		BaseBranch:   base,
		WorktreePath: worktreePath,
	})
}

// Sync pulls sourceBranch's commits into the worktree's branch, merging or
// rebasing per the manager's configured default strategy, and touches the
// record so stale detection doesn't reap an active worktree mid-use.
func (m *Manager) Sync(ctx context.Context, worktreeID, sourceBranch string) error {
	if sourceBranch == "" {
		return errors.Validation("source_branch", "source_branch is required")
	}

	lock := m.lockFor(worktreeID)
	lock.Lock()
	defer lock.Unlock()

	wt, err := m.store.GetWorktree(ctx, worktreeID)
	if err != nil {
		return err
	}

	if err := git(ctx, wt.WorktreePath, "fetch", "origin", sourceBranch); err != nil {
		m.logger.Warn("worktree sync: fetch failed, syncing against local ref", "worktree_id", worktreeID, "error", err)
	}

	switch m.cfg.DefaultSyncStrategy {
	case SyncRebase:
		if err := git(ctx, wt.WorktreePath, "rebase", sourceBranch); err != nil {
			return errors.Internal("worktree-sync", err)
		}
	default:
		if err := git(ctx, wt.WorktreePath, "merge", "--no-edit", sourceBranch); err != nil {
			return errors.Internal("worktree-sync", err)
		}
	}

	return m.store.TouchWorktree(ctx, worktreeID)
}

// Delete marks the record abandoned (failing if claimed, unless force) and
// removes the physical worktree.
func (m *Manager) Delete(ctx context.Context, worktreeID string, force bool) error {
	wt, err := m.store.GetWorktree(ctx, worktreeID)
	if err != nil {
		return err
	}

	if err := m.store.DeleteWorktree(ctx, worktreeID, force); err != nil {
		return err
	}

	lock := m.lockFor(worktreeID)
	lock.Lock()
	defer lock.Unlock()

	proj, err := m.store.GetProject(ctx, wt.ProjectID)
	if err == nil {
		if gerr := git(ctx, proj.RepoPath, "worktree", "remove", "--force", wt.WorktreePath); gerr != nil {
			m.logger.Warn("worktree delete: git worktree remove failed", "worktree_id", worktreeID, "error", gerr)
		}
	}
	_ = os.RemoveAll(wt.WorktreePath)
	return nil
}

// Close stops the reaper, if started.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopReap != nil {
		close(m.stopReap)
		m.stopReap = nil
	}
}
