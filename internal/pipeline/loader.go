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

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// Loader finds and parses pipeline definitions from an ordered list of
// directories (project-local first, user-global last), mirroring
// internal/workflow.Loader's search-path and cache-by-name behavior.
// Pipelines don't support extends, so there's no merge step.
type Loader struct {
	dirs []string

	mu    sync.Mutex
	cache map[string]*Definition
}

// NewLoader creates a Loader searching dirs in order.
func NewLoader(dirs ...string) *Loader {
	return &Loader{dirs: dirs, cache: make(map[string]*Definition)}
}

// Load reads, parses, and validates a pipeline by name (without the
// .yaml extension), caching the result.
func (l *Loader) Load(name string) (*Definition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if def, ok := l.cache[name]; ok {
		return def, nil
	}

	path := l.find(name)
	if path == "" {
		return nil, errors.NotFound("pipeline", name)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.External("fs", "read-pipeline", err)
	}

	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, errors.Validation("pipeline", fmt.Sprintf("%s: %v", name, err))
	}
	if err := validateDAG(def.Steps); err != nil {
		return nil, errors.Wrapf(err, "pipeline %q", name)
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
