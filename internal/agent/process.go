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
	"os/exec"
	"runtime"
	"time"

	"github.com/creack/pty"

	"github.com/gobbyhq/gobby/internal/store"
)

// vendorBinary maps a provider name to the CLI binary launched for
// headless/terminal/embedded modes. in_process mode never shells out —
// it calls the provider library directly.
func vendorBinary(provider string) string {
	switch provider {
	case "cursor":
		return "cursor-agent"
	case "gemini-cli", "gemini":
		return "gemini"
	default:
		return "claude"
	}
}

// launch dispatches the spawned agent according to its execution mode.
// It returns immediately; the goroutine it starts reports the outcome via
// UpdateAgentRunStatus when the work finishes.
func (s *Supervisor) launch(runID string, child *store.Session, req SpawnRequest) {
	runCtx, cancel := context.WithCancel(context.Background())
	if req.TimeoutSeconds > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, time.Duration(req.TimeoutSeconds)*time.Second)
	}

	switch req.Mode {
	case store.ModeHeadless:
		go s.runHeadless(runCtx, cancel, runID, child, req)
	case store.ModeTerminal:
		go s.runTerminal(runCtx, cancel, runID, child, req)
	case store.ModeEmbedded:
		go s.runEmbedded(runCtx, cancel, runID, child, req)
	default:
		go s.runInProcess(runCtx, cancel, runID, child, req)
	}
}

// runInProcess calls the provider library directly. The actual LLM call
// is the provider adapter's job (internal/llm.ProviderAdapter); the
// supervisor owns only the run bookkeeping around it, so a nil provider
// hookup here still exercises the full lifecycle for tests.
func (s *Supervisor) runInProcess(ctx context.Context, cancel context.CancelFunc, runID string, child *store.Session, req SpawnRequest) {
	s.trackProc(runID, &procHandle{cancel: cancel})
	defer s.untrackProc(runID)
	defer cancel()

	select {
	case <-ctx.Done():
		s.finish(runID, store.RunCancelled, "", "cancelled before start")
		return
	default:
	}

	s.mu.Lock()
	runner := s.inProcessRunner
	s.mu.Unlock()

	if runner == nil {
		s.finish(runID, store.RunError, "", "no in-process provider runner configured")
		return
	}

	result, err := runner.Complete(ctx, req.Prompt, map[string]interface{}{"model": req.Model})
	if err != nil {
		if ctx.Err() != nil {
			s.finish(runID, store.RunCancelled, "", "cancelled")
			return
		}
		s.finish(runID, store.RunError, "", err.Error())
		return
	}
	s.finish(runID, store.RunSuccess, result, "")
}

// runHeadless forks the vendor CLI, feeding the prompt on stdin and
// capturing combined stdout/stderr as the run's result.
func (s *Supervisor) runHeadless(ctx context.Context, cancel context.CancelFunc, runID string, child *store.Session, req SpawnRequest) {
	defer cancel()

	cmd := exec.CommandContext(ctx, vendorBinary(req.Provider), "-p", req.Prompt)
	if req.Model != "" {
		cmd.Args = append(cmd.Args, "--model", req.Model)
	}
	cmd.Dir = child.CWD

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	s.trackProc(runID, &procHandle{cancel: cancel, kill: func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}})
	defer s.untrackProc(runID)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			s.finish(runID, store.RunCancelled, out.String(), "cancelled")
			return
		}
		s.finish(runID, store.RunError, out.String(), err.Error())
		return
	}
	s.finish(runID, store.RunSuccess, out.String(), "")
}

// TerminalLauncher opens the vendor CLI inside a new terminal-emulator
// window. Exactly one per OS is registered by defaultTerminalLaunchers;
// "auto" picks the first whose Available() reports true.
type TerminalLauncher interface {
	Name() string
	Available() bool
	Launch(cmd string, args []string, dir string) error
}

func defaultTerminalLaunchers() []TerminalLauncher {
	switch runtime.GOOS {
	case "darwin":
		return []TerminalLauncher{macTerminalLauncher{}}
	case "linux":
		return []TerminalLauncher{x11TerminalLauncher{}}
	default:
		return nil
	}
}

// runTerminal opens the vendor CLI inside a pty and hands it to the first
// available registered terminal launcher; runEmbedded instead attaches
// the pty to an existing multiplexer session.
func (s *Supervisor) runTerminal(ctx context.Context, cancel context.CancelFunc, runID string, child *store.Session, req SpawnRequest) {
	defer cancel()

	var launcher TerminalLauncher
	for _, l := range s.terminals {
		if l.Available() {
			launcher = l
			break
		}
	}
	if launcher == nil {
		s.finish(runID, store.RunError, "", "no terminal launcher available on this OS")
		return
	}

	args := []string{"-p", req.Prompt}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	if err := launcher.Launch(vendorBinary(req.Provider), args, child.CWD); err != nil {
		s.finish(runID, store.RunError, "", err.Error())
		return
	}
	// The terminal window is detached from this process once launched;
	// completion is observed through lifecycle events from the child
	// session, not by waiting on the launcher.
	s.finish(runID, store.RunRunning, "", "")
}

// runEmbedded attaches a pty to an existing multiplexer session (e.g. a
// tmux socket), creating a new window there rather than opening a fresh
// terminal-emulator window.
func (s *Supervisor) runEmbedded(ctx context.Context, cancel context.CancelFunc, runID string, child *store.Session, req SpawnRequest) {
	defer cancel()

	cmd := exec.CommandContext(ctx, "tmux", "new-window", "-P",
		fmt.Sprintf("%s -p %q", vendorBinary(req.Provider), req.Prompt))
	cmd.Dir = child.CWD

	ptmx, err := pty.Start(cmd)
	if err != nil {
		s.finish(runID, store.RunError, "", fmt.Sprintf("tmux attach failed: %v", err))
		return
	}
	defer ptmx.Close()

	s.trackProc(runID, &procHandle{cancel: cancel, kill: func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}})
	defer s.untrackProc(runID)

	var out bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, rerr := ptmx.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		if rerr != nil {
			break
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			s.finish(runID, store.RunCancelled, out.String(), "cancelled")
			return
		}
		s.finish(runID, store.RunError, out.String(), err.Error())
		return
	}
	s.finish(runID, store.RunSuccess, out.String(), "")
}

func (s *Supervisor) finish(runID string, status store.AgentRunStatus, result, errMsg string) {
	_ = s.store.UpdateAgentRunStatus(context.Background(), runID, status, result, errMsg)
	if s.bus != nil {
		publishSubagentStop(s.bus, runID, string(status))
	}
}
