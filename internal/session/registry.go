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

// Package session is the thin service layer over the store's session and
// project tables: it resolves a registering adapter's cwd to a project
// root before delegating everything else straight to the store.
package session

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gobbyhq/gobby/internal/store"
	"github.com/gobbyhq/gobby/pkg/errors"
)

// markerNames are checked, in order, at each directory level while walking
// upward from a registering session's cwd. The first directory containing
// any of these is the project root.
var markerNames = []string{".gobby", ".git"}

// Registry is the Session Registry service: project-root resolution plus
// a pass-through to the store for everything else.
type Registry struct {
	store *store.Store
}

// New creates a Registry backed by st.
func New(st *store.Store) *Registry {
	return &Registry{store: st}
}

// RegisterInput is the Register request shape.
type RegisterInput struct {
	ExternalID string
	MachineID  string
	Source     string
	CWD        string
	Title      string
	GitBranch  string
	ParentSessionID string
}

// Register resolves the owning project from cwd (creating the project
// record on first sight of that root) and upserts the session by its
// composite (external_id, machine_id, source) key.
func (r *Registry) Register(ctx context.Context, in RegisterInput) (*store.Session, error) {
	root, err := FindProjectRoot(in.CWD)
	if err != nil {
		return nil, err
	}
	proj, err := r.store.EnsureProject(ctx, root, filepath.Base(root), "")
	if err != nil {
		return nil, err
	}

	depth := 0
	if in.ParentSessionID != "" {
		d, err := r.store.SessionDepth(ctx, in.ParentSessionID)
		if err != nil {
			return nil, err
		}
		depth = d + 1
	}

	return r.store.RegisterSession(ctx, &store.Session{
		ExternalID:      in.ExternalID,
		MachineID:       in.MachineID,
		Source:          in.Source,
		ProjectID:       proj.ID,
		ParentSessionID: in.ParentSessionID,
		AgentDepth:      depth,
		Title:           in.Title,
		CWD:             in.CWD,
		GitBranch:       in.GitBranch,
	})
}

// Get, FindCurrent, FindChildren, FindLatestHandoff, ResolveReference,
// UpdateStatus, and Depth pass straight through to the store — the
// registry's only value-add over the store is project-root resolution at
// Register time, per spec.

func (r *Registry) Get(ctx context.Context, id string) (*store.Session, error) {
	return r.store.GetSession(ctx, id)
}

func (r *Registry) FindCurrent(ctx context.Context, externalID, machineID, source string) (*store.Session, error) {
	return r.store.FindCurrentSession(ctx, externalID, machineID, source)
}

func (r *Registry) FindChildren(ctx context.Context, parentID string) ([]*store.Session, error) {
	return r.store.FindChildrenSessions(ctx, parentID)
}

func (r *Registry) FindLatestHandoff(ctx context.Context, projectID string) (*store.Session, error) {
	return r.store.FindLatestHandoff(ctx, projectID)
}

func (r *Registry) ResolveReference(ctx context.Context, ref, projectID string) (*store.Session, error) {
	return r.store.ResolveSessionReference(ctx, ref, projectID)
}

func (r *Registry) UpdateStatus(ctx context.Context, id string, status store.SessionStatus) error {
	return r.store.UpdateSessionStatus(ctx, id, status)
}

func (r *Registry) Depth(ctx context.Context, id string) (int, error) {
	return r.store.SessionDepth(ctx, id)
}

// UpdateSummary replaces a session's handoff summary/compact markdown.
func (r *Registry) UpdateSummary(ctx context.Context, id, summaryMarkdown, compactMarkdown string) error {
	return r.store.UpdateSessionSummary(ctx, id, summaryMarkdown, compactMarkdown)
}

// FindParent returns id's parent session, or a NotFound error if id has
// none (a root session in its agent tree).
func (r *Registry) FindParent(ctx context.Context, id string) (*store.Session, error) {
	sess, err := r.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.ParentSessionID == "" {
		return nil, errors.NotFound("session", "no parent")
	}
	return r.store.GetSession(ctx, sess.ParentSessionID)
}

// FindProjectRoot walks upward from startDir looking for a project marker
// (a `.gobby` directory, then a `.git` directory), returning the first
// directory it finds one in. If none is found before reaching the
// filesystem root, startDir itself is returned — every cwd belongs to
// *some* project, even an unmarked one.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range markerNames {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir, nil
		}
		dir = parent
	}
}
