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

// Package sync projects the memories, skills, and tasks tables to and from
// on-disk files, so a project directory stays readable (and editable) by
// tools that only know how to walk a filesystem. Exports are debounced and
// triggered by store change-listeners; imports run at Start and again
// whenever fsnotify reports the on-disk tree changed underneath it.
package sync

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gobbyhq/gobby/internal/store"
)

// Config tunes one Projector instance.
type Config struct {
	// MemoriesEnabled/SkillsEnabled/TasksEnabled gate each table's
	// projector independently, matching memory_sync.enabled and
	// skill_sync.enabled being configured separately.
	MemoriesEnabled bool
	SkillsEnabled   bool
	TasksEnabled    bool

	// Debounce is how long the projector waits after the last observed
	// store change before writing to disk.
	Debounce time.Duration

	// Stealth, when true, roots exports under HomeDir instead of each
	// project's own repo path.
	Stealth bool

	// HomeDir is the root used in Stealth mode. Defaults to os.UserHomeDir().
	HomeDir string
}

// DefaultConfig returns the projector's out-of-the-box tuning, with every
// table's export disabled — sync is opt-in per spec.
func DefaultConfig() Config {
	return Config{Debounce: time.Second}
}

// Projector watches the store for memory/skill/task changes and keeps a
// per-project on-disk mirror in sync, bridging to external tools that
// expect a plain-file layout (e.g. `.claude/skills/<name>/SKILL.md`).
type Projector struct {
	store  *store.Store
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	stop     chan struct{}
	watcher  *fsnotify.Watcher
	pending  map[string]bool // project ID -> export scheduled
	timers   map[string]*time.Timer
}

// New builds a Projector backed by st.
func New(st *store.Store, cfg Config, logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = time.Second
	}
	return &Projector{
		store:   st,
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]bool),
		timers:  make(map[string]*time.Timer),
	}
}

// Start performs an initial import for every known project, then
// registers store change-listeners (debounced export) and an fsnotify
// watcher (re-import on external edits). A no-op if every table's
// projector is disabled. Call once; call Close to stop it.
func (p *Projector) Start(ctx context.Context) error {
	if !p.cfg.MemoriesEnabled && !p.cfg.SkillsEnabled && !p.cfg.TasksEnabled {
		return nil
	}

	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return nil
	}
	p.stop = make(chan struct{})
	p.mu.Unlock()

	projects, err := p.store.ListProjects(ctx)
	if err != nil {
		return err
	}
	for _, proj := range projects {
		p.importProject(ctx, proj)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Warn("sync: fsnotify unavailable, import-on-change disabled", slog.Any("error", err))
	} else {
		p.watcher = watcher
		for _, proj := range projects {
			p.watchProject(proj)
		}
		go p.watchLoop()
	}

	if p.cfg.MemoriesEnabled {
		p.store.OnChange("memories", p.onStoreChange)
	}
	if p.cfg.SkillsEnabled {
		p.store.OnChange("skills", p.onStoreChange)
	}
	if p.cfg.TasksEnabled {
		p.store.OnChange("tasks", p.onStoreChange)
	}

	return nil
}

// Close stops the watcher and any pending debounce timers. Exports already
// in flight run to completion.
func (p *Projector) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return
	}
	close(p.stop)
	p.stop = nil
	if p.watcher != nil {
		p.watcher.Close()
		p.watcher = nil
	}
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = make(map[string]*time.Timer)
}

// onStoreChange is the store.ChangeFunc registered against the memories,
// skills, and tasks tables. id is the entity id, not the project id, so
// this schedules an export for the owning project resolved lazily inside
// the debounced callback rather than here.
func (p *Projector) onStoreChange(op store.ChangeOp, table string, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return
	}
	const allProjects = "*"
	if t, ok := p.timers[allProjects]; ok {
		t.Stop()
	}
	p.timers[allProjects] = time.AfterFunc(p.cfg.Debounce, p.exportAll)
}

// exportAll re-exports every project's enabled tables. Called off the
// debounce timer, so it owns its own background context.
func (p *Projector) exportAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	projects, err := p.store.ListProjects(ctx)
	if err != nil {
		p.logger.Error("sync: failed to list projects for export", slog.Any("error", err))
		return
	}
	for _, proj := range projects {
		p.exportProject(ctx, proj)
	}
}

func (p *Projector) exportProject(ctx context.Context, proj *store.Project) {
	root := p.projectRoot(proj)
	if err := os.MkdirAll(root, 0o755); err != nil {
		p.logger.Error("sync: failed to create export root", slog.String("project", proj.ID), slog.Any("error", err))
		return
	}
	if p.cfg.MemoriesEnabled {
		if err := p.exportMemories(ctx, proj, root); err != nil {
			p.logger.Error("sync: memory export failed", slog.String("project", proj.ID), slog.Any("error", err))
		}
	}
	if p.cfg.SkillsEnabled {
		if err := p.exportSkills(ctx, proj, root); err != nil {
			p.logger.Error("sync: skill export failed", slog.String("project", proj.ID), slog.Any("error", err))
		}
	}
	if p.cfg.TasksEnabled {
		if err := p.exportTasks(ctx, proj, root); err != nil {
			p.logger.Error("sync: task export failed", slog.String("project", proj.ID), slog.Any("error", err))
		}
	}
}

func (p *Projector) importProject(ctx context.Context, proj *store.Project) {
	root := p.projectRoot(proj)
	if p.cfg.MemoriesEnabled {
		if err := p.importMemories(ctx, proj, root); err != nil {
			p.logger.Error("sync: memory import failed", slog.String("project", proj.ID), slog.Any("error", err))
		}
	}
	if p.cfg.SkillsEnabled {
		if err := p.importSkills(ctx, proj, root); err != nil {
			p.logger.Error("sync: skill import failed", slog.String("project", proj.ID), slog.Any("error", err))
		}
	}
	if p.cfg.TasksEnabled {
		if err := p.importTasks(ctx, proj, root); err != nil {
			p.logger.Error("sync: task import failed", slog.String("project", proj.ID), slog.Any("error", err))
		}
	}
}

// projectRoot resolves where a project's sync files live: its own repo
// path normally, or a per-project subdirectory of HomeDir in stealth mode
// (so exports never touch the tracked project tree).
func (p *Projector) projectRoot(proj *store.Project) string {
	if !p.cfg.Stealth {
		return proj.RepoPath
	}
	home := p.cfg.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".gobby", "sync", proj.ID)
}

func (p *Projector) watchProject(proj *store.Project) {
	if p.watcher == nil {
		return
	}
	root := p.projectRoot(proj)
	for _, dir := range []string{gobbyDir(root), skillsDir(root)} {
		os.MkdirAll(dir, 0o755)
		if err := p.watcher.Add(dir); err != nil {
			p.logger.Debug("sync: could not watch directory", slog.String("dir", dir), slog.Any("error", err))
		}
	}
}

func (p *Projector) watchLoop() {
	for {
		select {
		case <-p.stop:
			return
		case _, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			// Any on-disk change triggers a full re-import; the content
			// hash dedup in importMemories/importSkills/importTasks makes
			// this safe to call far more often than the tree actually
			// changes.
			importCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			projects, err := p.store.ListProjects(importCtx)
			if err == nil {
				for _, proj := range projects {
					p.importProject(importCtx, proj)
				}
			}
			cancel()
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("sync: watcher error", slog.Any("error", err))
		}
	}
}

func gobbyDir(root string) string  { return filepath.Join(root, ".gobby") }
func skillsDir(root string) string { return filepath.Join(root, ".claude", "skills") }
