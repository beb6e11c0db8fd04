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

package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// triggerAliases maps alias trigger keys onto their canonical form, so a
// workflow author can write either name and the loader's merge-by-name
// logic (and the engine's trigger lookup) only ever sees the canonical
// one.
var triggerAliases = map[string]string{
	"on_prompt_submit": "on_before_agent",
}

// Loader finds and parses workflow definitions from an ordered list of
// directories (project-local first, user-global last — project entries
// shadow global ones of the same name) and resolves `extends` by name.
type Loader struct {
	dirs []string

	mu    sync.Mutex
	cache map[string]*Definition
}

// NewLoader creates a Loader searching dirs in order. Pass the
// project-local workflows directory first, then the user-global one.
func NewLoader(dirs ...string) *Loader {
	return &Loader{dirs: dirs, cache: make(map[string]*Definition)}
}

// Load reads and parses a workflow by name (without the .yaml
// extension), resolving `extends` and caching the result.
func (l *Loader) Load(name string) (*Definition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(name, map[string]bool{})
}

// load resolves name, tracking the in-progress extends chain in seen to
// reject a cycle rather than recursing forever.
func (l *Loader) load(name string, seen map[string]bool) (*Definition, error) {
	if def, ok := l.cache[name]; ok {
		return def, nil
	}
	if seen[name] {
		return nil, errors.Validation("extends", fmt.Sprintf("workflow %q extends itself", name))
	}
	seen[name] = true

	path := l.find(name)
	if path == "" {
		return nil, errors.NotFound("workflow", name)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.External("fs", "read-workflow", err)
	}

	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, errors.Validation("workflow", fmt.Sprintf("%s: %v", name, err))
	}
	normalizeTriggerKeys(&def)

	if def.Extends != "" {
		parent, err := l.load(def.Extends, seen)
		if err != nil {
			return nil, errors.Wrapf(err, "loading parent %q of workflow %q", def.Extends, name)
		}
		def = merge(*parent, def)
	}

	l.cache[name] = &def
	return &def, nil
}

// find returns the path to name.yaml in the first directory that has it.
func (l *Loader) find(name string) string {
	filename := name + ".yaml"
	for _, dir := range l.dirs {
		candidate := filepath.Join(dir, filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// ClearCache drops every cached definition, forcing the next Load to
// re-read from disk.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]*Definition)
}

func normalizeTriggerKeys(def *Definition) {
	if len(def.Triggers) == 0 {
		return
	}
	normalized := make(map[string][]TriggerEntry, len(def.Triggers))
	for key, entries := range def.Triggers {
		canonical, ok := triggerAliases[key]
		if !ok {
			canonical = key
		}
		normalized[canonical] = append(normalized[canonical], entries...)
	}
	def.Triggers = normalized
}

// merge deep-merges child over parent: scalar fields and maps are
// child-overrides-parent, Steps merge by Name (child wins on conflict,
// new steps append), Triggers merge by key (entries concatenate).
func merge(parent, child Definition) Definition {
	out := parent
	out.Name = child.Name
	if child.Description != "" {
		out.Description = child.Description
	}
	if child.Kind != "" {
		out.Kind = child.Kind
	}
	if child.Version != "" {
		out.Version = child.Version
	}
	out.Extends = ""
	if child.StuckAfterSeconds != 0 {
		out.StuckAfterSeconds = child.StuckAfterSeconds
	}
	if len(child.SessionVariables) > 0 {
		out.SessionVariables = child.SessionVariables
	}

	out.Variables = mergeVariables(parent.Variables, child.Variables)
	out.Steps = mergeSteps(parent.Steps, child.Steps)
	out.Triggers = mergeTriggers(parent.Triggers, child.Triggers)
	return out
}

func mergeVariables(parent, child map[string]interface{}) map[string]interface{} {
	if parent == nil && child == nil {
		return nil
	}
	out := make(map[string]interface{}, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func mergeSteps(parent, child []StepDefinition) []StepDefinition {
	if len(parent) == 0 {
		return child
	}
	order := make([]string, 0, len(parent))
	byName := make(map[string]StepDefinition, len(parent))
	for _, s := range parent {
		order = append(order, s.Name)
		byName[s.Name] = s
	}
	for _, s := range child {
		if _, exists := byName[s.Name]; !exists {
			order = append(order, s.Name)
		}
		byName[s.Name] = s
	}
	out := make([]StepDefinition, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

func mergeTriggers(parent, child map[string][]TriggerEntry) map[string][]TriggerEntry {
	if len(parent) == 0 {
		return child
	}
	out := make(map[string][]TriggerEntry, len(parent))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = append(append([]TriggerEntry{}, out[k]...), v...)
	}
	return out
}
