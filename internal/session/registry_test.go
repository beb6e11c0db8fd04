package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobbyhq/gobby/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestFindProjectRootFindsGobbyMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".gobby"), 0o755))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindProjectRootFallsBackToGitMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindProjectRootReturnsStartDirWhenNoMarkerFound(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "x", "y")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, nested, got)
}

func TestFindParentReturnsNotFoundForRootSession(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	root := t.TempDir()

	sess, err := r.Register(ctx, RegisterInput{ExternalID: "ext-1", MachineID: "m1", Source: "test", CWD: root})
	require.NoError(t, err)

	_, err = r.FindParent(ctx, sess.ID)
	assert.Error(t, err)
}

func TestFindParentReturnsParentSession(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	root := t.TempDir()

	parent, err := r.Register(ctx, RegisterInput{ExternalID: "ext-parent", MachineID: "m1", Source: "test", CWD: root})
	require.NoError(t, err)

	child, err := r.Register(ctx, RegisterInput{
		ExternalID: "ext-child", MachineID: "m1", Source: "test", CWD: root, ParentSessionID: parent.ID,
	})
	require.NoError(t, err)

	got, err := r.FindParent(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, got.ID)
}

func TestUpdateSummaryPersists(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	root := t.TempDir()

	sess, err := r.Register(ctx, RegisterInput{ExternalID: "ext-1", MachineID: "m1", Source: "test", CWD: root})
	require.NoError(t, err)

	require.NoError(t, r.UpdateSummary(ctx, sess.ID, "did the thing", "compact form"))

	got, err := r.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "did the thing", got.SummaryMarkdown)
	assert.Equal(t, "compact form", got.CompactMarkdown)
}
