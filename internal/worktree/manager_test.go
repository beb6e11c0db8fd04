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
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobbyhq/gobby/internal/store"
)

// initTestRepo creates a bare-minimum git repo with one commit on "main"
// and returns its root.
func initTestRepo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	run := func(args ...string) {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644))
	run("add", "README.md")
	run("commit", "-m", "initial")
	return dir
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *store.Store, *store.Project) {
	t.Helper()
	ctx := context.Background()
	repo := initTestRepo(t)

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	proj, err := st.EnsureProject(ctx, repo, "demo", "")
	require.NoError(t, err)

	mgr := New(st, cfg, nil)
	t.Cleanup(mgr.Close)
	return mgr, st, proj
}

func TestCreateFromExistingBase(t *testing.T) {
	mgr, _, proj := newTestManager(t, DefaultConfig())
	ctx := context.Background()

	wt, err := mgr.Create(ctx, proj.ID, "feature/x", "main")
	require.NoError(t, err)
	assert.Equal(t, "feature/x", wt.BranchName)
	assert.Equal(t, "main", wt.BaseBranch)

	info, err := os.Stat(wt.WorktreePath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateReusesExistingBranch(t *testing.T) {
	mgr, _, proj := newTestManager(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, git(ctx, proj.RepoPath, "branch", "already-there", "main"))

	wt, err := mgr.Create(ctx, proj.ID, "already-there", "main")
	require.NoError(t, err)
	assert.Equal(t, "already-there", wt.BranchName)
}

func TestSyncMergesSourceBranch(t *testing.T) {
	mgr, st, proj := newTestManager(t, Config{DefaultSyncStrategy: SyncMerge, StaleAfter: time.Hour, ReapInterval: time.Hour})
	ctx := context.Background()

	wt, err := mgr.Create(ctx, proj.ID, "feature/sync", "main")
	require.NoError(t, err)

	// Advance main with a new commit the worktree branch doesn't have yet.
	require.NoError(t, os.WriteFile(filepath.Join(proj.RepoPath, "NEW.md"), []byte("new"), 0o644))
	require.NoError(t, git(ctx, proj.RepoPath, "add", "NEW.md"))
	require.NoError(t, git(ctx, proj.RepoPath, "commit", "-m", "advance main"))

	require.NoError(t, mgr.Sync(ctx, wt.ID, "main"))

	_, err = os.Stat(filepath.Join(wt.WorktreePath, "NEW.md"))
	assert.NoError(t, err, "synced worktree should see main's new file")

	updated, err := st.GetWorktree(ctx, wt.ID)
	require.NoError(t, err)
	assert.NotEqual(t, wt.UpdatedAt, updated.UpdatedAt)
}

func TestDeleteRemovesPhysicalWorktree(t *testing.T) {
	mgr, st, proj := newTestManager(t, DefaultConfig())
	ctx := context.Background()

	wt, err := mgr.Create(ctx, proj.ID, "feature/gone", "main")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(ctx, wt.ID, false))

	_, err = os.Stat(wt.WorktreePath)
	assert.True(t, os.IsNotExist(err))

	row, err := st.GetWorktree(ctx, wt.ID)
	require.NoError(t, err)
	assert.Equal(t, store.WorktreeAbandoned, row.Status)
}

func TestDeleteRefusesActiveClaimWithoutForce(t *testing.T) {
	mgr, st, proj := newTestManager(t, DefaultConfig())
	ctx := context.Background()

	wt, err := mgr.Create(ctx, proj.ID, "feature/claimed", "main")
	require.NoError(t, err)
	require.NoError(t, st.ClaimWorktree(ctx, wt.ID, "some-session"))

	err = mgr.Delete(ctx, wt.ID, false)
	assert.Error(t, err)

	_, statErr := os.Stat(wt.WorktreePath)
	assert.NoError(t, statErr, "worktree directory must survive a refused delete")
}

func TestReapOnceDeletesStaleWorktrees(t *testing.T) {
	mgr, st, proj := newTestManager(t, Config{StaleAfter: time.Millisecond, ReapInterval: time.Hour})
	ctx := context.Background()

	wt, err := mgr.Create(ctx, proj.ID, "feature/stale", "main")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	mgr.reapOnce(ctx)

	row, err := st.GetWorktree(ctx, wt.ID)
	require.NoError(t, err)
	assert.Equal(t, store.WorktreeAbandoned, row.Status)
}
