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
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// git runs a git subcommand rooted at dir, discarding stdout but surfacing
// stderr on failure.
func git(ctx context.Context, dir string, args ...string) error {
	_, err := gitOutput(ctx, dir, args...)
	return err
}

// gitOutput runs a git subcommand rooted at dir and returns trimmed stdout.
func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

// branchExists reports whether branch resolves to a commit in the repo
// rooted at dir.
func branchExists(ctx context.Context, dir, branch string) bool {
	return git(ctx, dir, "rev-parse", "--verify", "--quiet", branch) == nil
}

// sanitizeBranchForPath turns a branch name into a directory-safe segment.
func sanitizeBranchForPath(branch string) string {
	r := strings.NewReplacer("/", "-", "\\", "-", " ", "-", ":", "-")
	s := strings.TrimSpace(r.Replace(branch))
	if s == "" {
		s = "branch"
	}
	return s
}
