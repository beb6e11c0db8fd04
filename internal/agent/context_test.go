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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobbyhq/gobby/internal/store"
)

func TestResolveContextSummaryAndCompact(t *testing.T) {
	sup, _, sess := newTestSupervisor(t, Config{MaxDepth: 5})
	sess.SummaryMarkdown = "# summary"
	sess.CompactMarkdown = "# compact"
	ctx := context.Background()

	got, err := sup.resolveContext(ctx, sess, "summary_markdown")
	require.NoError(t, err)
	assert.Equal(t, "# summary", got)

	got, err = sup.resolveContext(ctx, sess, "compact_markdown")
	require.NoError(t, err)
	assert.Equal(t, "# compact", got)
}

func TestResolveContextEmptySourcePassesThrough(t *testing.T) {
	sup, _, sess := newTestSupervisor(t, Config{MaxDepth: 5})
	got, err := sup.resolveContext(context.Background(), sess, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveContextSessionID(t *testing.T) {
	sup, st, sess := newTestSupervisor(t, Config{MaxDepth: 5})
	ctx := context.Background()

	other, err := st.RegisterSession(ctx, &store.Session{
		ExternalID: "ext-other", MachineID: "m-1", Source: "claude-code",
		ProjectID: sess.ProjectID, SummaryMarkdown: "other summary",
	})
	require.NoError(t, err)

	got, err := sup.resolveContext(ctx, sess, "session_id:"+other.ID)
	require.NoError(t, err)
	assert.Equal(t, "other summary", got)
}

func TestResolveContextUnrecognizedSource(t *testing.T) {
	sup, _, sess := newTestSupervisor(t, Config{MaxDepth: 5})
	_, err := sup.resolveContext(context.Background(), sess, "carrier_pigeon:1")
	assert.Error(t, err)
}

func TestReadFileContextRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	_, err := readFileContext(root, "../../etc/passwd")
	assert.Error(t, err)
}

func TestReadFileContextRejectsBinary(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.bin"), []byte{0x00, 0x01, 0x02}, 0o644))
	_, err := readFileContext(root, "blob.bin")
	assert.Error(t, err)
}

func TestReadFileContextTruncatesOversize(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, maxFileContextBytes+1024)
	for i := range big {
		big[i] = 'a'
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), big, 0o644))
	got, err := readFileContext(root, "big.txt")
	require.NoError(t, err)
	assert.Len(t, got, maxFileContextBytes)
}

func TestReadFileContextReadsWithinRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("hello"), 0o644))
	got, err := readFileContext(root, "notes.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestRenderPromptDefaultTemplate(t *testing.T) {
	got, err := renderPrompt("", "background info", "do the thing")
	require.NoError(t, err)
	assert.Contains(t, got, "background info")
	assert.Contains(t, got, "do the thing")
}

func TestRenderPromptEmptyContextPassesThrough(t *testing.T) {
	got, err := renderPrompt("", "", "do the thing")
	require.NoError(t, err)
	assert.Equal(t, "do the thing", got)
}

func TestRenderPromptCustomTemplate(t *testing.T) {
	got, err := renderPrompt("CONTEXT: {{.Context}} | TASK: {{.Prompt}}", "bg", "task")
	require.NoError(t, err)
	assert.Equal(t, "CONTEXT: bg | TASK: task", got)
}
