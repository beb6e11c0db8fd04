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
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/pkg/errors"
)

// maxTranscriptTurns caps a transcript:<n> context source regardless of
// what n asks for.
const maxTranscriptTurns = 200

// maxFileContextBytes caps a file: context source; content past this is
// truncated rather than rejected.
const maxFileContextBytes = 64 * 1024

// resolveContext builds the injected context string for a spawn request.
// Accepted forms: summary_markdown, compact_markdown, session_id:<id>,
// transcript:<n>, file:<path>. An empty source or an empty result is not
// an error — the caller passes the prompt through unchanged.
func (s *Supervisor) resolveContext(ctx context.Context, parent *store.Session, source string) (string, error) {
	if source == "" {
		return "", nil
	}

	switch {
	case source == "summary_markdown":
		return parent.SummaryMarkdown, nil

	case source == "compact_markdown":
		return parent.CompactMarkdown, nil

	case strings.HasPrefix(source, "session_id:"):
		id := strings.TrimPrefix(source, "session_id:")
		sess, err := s.store.GetSession(ctx, id)
		if err != nil {
			return "", err
		}
		return sess.SummaryMarkdown, nil

	case strings.HasPrefix(source, "transcript:"):
		nStr := strings.TrimPrefix(source, "transcript:")
		n, err := strconv.Atoi(nStr)
		if err != nil || n <= 0 {
			return "", errors.Validation("context_source", "transcript:<n> requires a positive integer")
		}
		if n > maxTranscriptTurns {
			n = maxTranscriptTurns
		}
		msgs, err := s.store.ListMessages(ctx, parent.ID, n)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, m := range msgs {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		return b.String(), nil

	case strings.HasPrefix(source, "file:"):
		path := strings.TrimPrefix(source, "file:")
		return readFileContext(parent.CWD, path)

	default:
		return "", errors.Validation("context_source", "unrecognized context_source: "+source)
	}
}

// readFileContext resolves path within projectRoot, rejecting traversal
// outside the root and binary content, and truncating over the size cap.
func readFileContext(projectRoot, path string) (string, error) {
	if path == "" {
		return "", errors.Validation("context_source", "file: requires a path")
	}
	if projectRoot == "" {
		projectRoot = "."
	}

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", errors.Internal("agent-context", err)
	}
	joined := filepath.Join(root, path)
	resolved, err := filepath.Abs(joined)
	if err != nil {
		return "", errors.Internal("agent-context", err)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Validation("context_source", "file: path escapes the project root")
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", errors.Validation("context_source", "file: "+err.Error())
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) != -1 {
		return "", errors.Validation("context_source", "file: refuses to inject binary content")
	}
	if len(data) > maxFileContextBytes {
		data = data[:maxFileContextBytes]
	}
	return string(data), nil
}

// promptTemplateData is what a prompt_template has available via
// {{.Context}}/{{.Prompt}}.
type promptTemplateData struct {
	Context string
	Prompt  string
}

const defaultPromptTemplate = `{{if .Context}}{{.Context}}

{{end}}{{.Prompt}}`

// renderPrompt formats the final prompt sent to the provider. An empty
// context passes the prompt through unchanged.
func renderPrompt(tmplText, injectedContext, prompt string) (string, error) {
	if injectedContext == "" {
		return prompt, nil
	}
	if tmplText == "" {
		tmplText = defaultPromptTemplate
	}
	tmpl, err := template.New("prompt").Parse(tmplText)
	if err != nil {
		return "", errors.Validation("prompt_template", err.Error())
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptTemplateData{Context: injectedContext, Prompt: prompt}); err != nil {
		return "", errors.Validation("prompt_template", err.Error())
	}
	return buf.String(), nil
}
