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
	"os/exec"
	"strings"
)

// macTerminalLauncher opens Terminal.app via `open -a Terminal`.
type macTerminalLauncher struct{}

func (macTerminalLauncher) Name() string { return "macos-terminal" }

func (macTerminalLauncher) Available() bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}

func (macTerminalLauncher) Launch(cmdName string, args []string, dir string) error {
	script := "tell application \"Terminal\" to do script " + quoteAppleScript(shellJoin(cmdName, args, dir))
	return exec.Command("osascript", "-e", script).Start()
}

// x11TerminalLauncher tries a priority list of common Linux terminal
// emulators; "auto" picks the first one found in PATH.
type x11TerminalLauncher struct{}

func (x11TerminalLauncher) Name() string { return "x11-terminal" }

var linuxTerminalPriority = []string{"x-terminal-emulator", "gnome-terminal", "konsole", "xterm"}

func (x11TerminalLauncher) Available() bool {
	_, ok := firstAvailableTerminal()
	return ok
}

func firstAvailableTerminal() (string, bool) {
	for _, t := range linuxTerminalPriority {
		if _, err := exec.LookPath(t); err == nil {
			return t, true
		}
	}
	return "", false
}

func (x11TerminalLauncher) Launch(cmdName string, args []string, dir string) error {
	term, ok := firstAvailableTerminal()
	if !ok {
		return exec.ErrNotFound
	}
	inner := shellJoin(cmdName, args, dir)
	var cmd *exec.Cmd
	switch term {
	case "gnome-terminal":
		cmd = exec.Command(term, "--", "bash", "-c", inner)
	default:
		cmd = exec.Command(term, "-e", "bash", "-c", inner)
	}
	return cmd.Start()
}

func shellJoin(cmdName string, args []string, dir string) string {
	line := cmdName
	for _, a := range args {
		line += " " + quoteShellArg(a)
	}
	if dir != "" {
		return "cd " + quoteShellArg(dir) + " && " + line
	}
	return line
}

func quoteShellArg(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func quoteAppleScript(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}
