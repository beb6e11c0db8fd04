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

package expression

import (
	"context"
	"fmt"
	"sync"

	"github.com/gobbyhq/gobby/internal/store"
)

// TaskReader is the slice of *store.Store the builtin predicates need.
// Defined as an interface so tests can supply a fake without an on-disk
// database.
type TaskReader interface {
	GetTask(ctx context.Context, id string) (*store.Task, error)
	TaskTreeComplete(ctx context.Context, id string) (bool, error)
}

// Predicates binds the builtin helper functions — task_tree_complete,
// task_needs_user_review, has_stop_signal, and the mcp_* family — to a
// store and a stop registry, then exposes them through Env for a single
// Evaluate call. Plugin-contributed predicates share the same registration
// table, guarded against name collisions with the builtins and each other.
type Predicates struct {
	store TaskReader
	stops *StopRegistry

	mu       sync.RWMutex
	registry map[string]any
}

// NewPredicates wires the builtin predicate set against a task reader (a
// *store.Store in production, a fake in tests) and a stop registry.
func NewPredicates(st TaskReader, stops *StopRegistry) *Predicates {
	return &Predicates{store: st, stops: stops, registry: make(map[string]any)}
}

// RegisterPredicate adds a plugin-contributed function under name. It is
// rejected if name collides with a builtin or an already-registered plugin.
func (p *Predicates) RegisterPredicate(name string, fn any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, reserved := builtinPredicateNames[name]; reserved {
		return fmt.Errorf("expression: predicate name %q is reserved", name)
	}
	if _, exists := p.registry[name]; exists {
		return fmt.Errorf("expression: predicate %q already registered", name)
	}
	p.registry[name] = fn
	return nil
}

var builtinPredicateNames = map[string]bool{
	"task_tree_complete":    true,
	"task_needs_user_review": true,
	"has_stop_signal":        true,
	"mcp_called":             true,
	"mcp_result_is_null":     true,
	"mcp_failed":             true,
	"mcp_result_has":         true,
}

// bind returns the full set of predicate closures — builtins plus any
// registered plugins — ready to merge into an expr.Env for one Evaluate
// call. ctx flows through to the store-backed builtins.
func (p *Predicates) bind(ctx context.Context, variables map[string]any) map[string]any {
	env := map[string]any{
		"task_tree_complete": func(taskID string) (bool, error) {
			if taskID == "" {
				return true, nil
			}
			return p.store.TaskTreeComplete(ctx, taskID)
		},
		"task_needs_user_review": func(taskID string) (bool, error) {
			if taskID == "" {
				return false, nil
			}
			t, err := p.store.GetTask(ctx, taskID)
			if err != nil {
				return false, err
			}
			return t.Status == store.TaskNeedsReview, nil
		},
		"has_stop_signal": func(sessionID string) bool {
			return p.stops.Has(sessionID)
		},
		"mcp_called": func(server string, tool ...string) bool {
			calls, _ := variables["mcp_calls"].(map[string]any)
			if calls == nil {
				return false
			}
			if len(tool) == 0 || tool[0] == "" {
				for k := range calls {
					if serverOf(k) == server {
						return true
					}
				}
				return false
			}
			_, ok := calls[mcpKey(server, tool[0])]
			return ok
		},
		"mcp_result_is_null": func(server, tool string) bool {
			v, ok := mcpResult(variables, server, tool)
			return ok && v == nil
		},
		"mcp_failed": func(server, tool string) bool {
			v, ok := mcpResult(variables, server, tool)
			if !ok {
				return false
			}
			m, ok := v.(map[string]any)
			if !ok {
				return false
			}
			_, hasErr := m["error"]
			return hasErr
		},
		"mcp_result_has": func(server, tool, field string, value any) bool {
			v, ok := mcpResult(variables, server, tool)
			if !ok {
				return false
			}
			m, ok := v.(map[string]any)
			if !ok {
				return false
			}
			fv, ok := m[field]
			if !ok {
				return false
			}
			return fmt.Sprintf("%v", fv) == fmt.Sprintf("%v", value)
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for name, fn := range p.registry {
		env[name] = fn
	}
	return env
}

func mcpKey(server, tool string) string {
	return server + ":" + tool
}

func serverOf(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}

func mcpResult(variables map[string]any, server, tool string) (any, bool) {
	results, _ := variables["mcp_results"].(map[string]any)
	if results == nil {
		return nil, false
	}
	v, ok := results[mcpKey(server, tool)]
	return v, ok
}
