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

package httpapi

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/creack/pty"
)

// tmuxSession is one line of `tmux list-sessions`.
type tmuxSession struct {
	Name     string `json:"name"`
	Windows  int    `json:"windows"`
	Attached bool   `json:"attached"`
}

// tmuxList shells out to `tmux list-sessions`, the same external-binary
// integration internal/agent/process.go's runEmbedded already relies on for
// attaching spawned agents to a multiplexer session. An empty result (tmux
// not installed, or no server running) is not an error.
func tmuxList(ctx context.Context) ([]tmuxSession, error) {
	out, err := exec.CommandContext(ctx, "tmux", "list-sessions", "-F", "#{session_name}\t#{session_windows}\t#{session_attached}").Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			if strings.Contains(string(exitErr.Stderr), "no server running") {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("tmux list-sessions: %w", err)
	}

	var sessions []tmuxSession
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) != 3 {
			continue
		}
		windows, _ := strconv.Atoi(parts[1])
		sessions = append(sessions, tmuxSession{Name: parts[0], Windows: windows, Attached: parts[2] == "1"})
	}
	return sessions, nil
}

func tmuxCreate(ctx context.Context, name string) error {
	return exec.CommandContext(ctx, "tmux", "new-session", "-d", "-s", name).Run()
}

func tmuxKill(ctx context.Context, name string) error {
	return exec.CommandContext(ctx, "tmux", "kill-session", "-t", name).Run()
}

func tmuxResize(ctx context.Context, name string, cols, rows int) error {
	return exec.CommandContext(ctx, "tmux", "resize-window", "-t", name, "-x", strconv.Itoa(cols), "-y", strconv.Itoa(rows)).Run()
}

// terminalAttachment streams one attached tmux session's output back over
// a WebSocket connection as terminal_output frames, and accepts keystrokes
// written back into the pty until Detach is called or the process exits.
type terminalAttachment struct {
	mu     sync.Mutex
	ptmx   *os.File
	cancel context.CancelFunc
}

// Attach starts `tmux attach -t name` inside a pty and calls onOutput for
// every chunk read until the session ends or the context is cancelled.
func (t *terminalAttachment) Attach(ctx context.Context, name string, onOutput func([]byte)) error {
	attachCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(attachCtx, "tmux", "attach", "-t", name)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		cancel()
		return fmt.Errorf("tmux attach: %w", err)
	}

	t.mu.Lock()
	t.ptmx = ptmx
	t.cancel = cancel
	t.mu.Unlock()

	go func() {
		defer cancel()
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				onOutput(chunk)
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

// Write forwards keystrokes into the attached pty, if any.
func (t *terminalAttachment) Write(data []byte) error {
	t.mu.Lock()
	ptmx := t.ptmx
	t.mu.Unlock()
	if ptmx == nil {
		return fmt.Errorf("no active terminal attachment")
	}
	_, err := ptmx.Write(data)
	return err
}

// Detach closes the pty and cancels the attach context, ending the
// streaming goroutine.
func (t *terminalAttachment) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.ptmx != nil {
		t.ptmx.Close()
		t.ptmx = nil
	}
}
