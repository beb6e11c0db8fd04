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

// Package expression is the sandboxed boolean-expression evaluator that
// drives workflow rules and transition triggers. It wraps expr-lang/expr,
// restricting resolution to a supplied context tree — session, event,
// tool_name, tool_args, variables — so expressions can never reach the
// host process, filesystem, or network, and so unknown paths through that
// tree degrade to a falsy Undefined sentinel instead of raising.
package expression

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// Context is the set of named roots an expression may reference. Each
// field is wrapped into Dict/List before compilation so nested lookups use
// the same falsy-Undefined semantics as the top level.
type Context struct {
	Session       map[string]any
	WorkflowState map[string]any
	Event         map[string]any
	ToolName      string
	ToolArgs      map[string]any
	Variables     map[string]any
}

// Evaluator compiles and caches expr-lang programs, and evaluates them
// against a Context plus the builtin and plugin predicates.
type Evaluator struct {
	predicates *Predicates

	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// New creates an Evaluator bound to a predicate set.
func New(predicates *Predicates) *Evaluator {
	return &Evaluator{
		predicates: predicates,
		cache:      make(map[string]*vm.Program),
	}
}

// Evaluate compiles (or reuses a cached compile of) expression and runs it
// against ctx, returning the Python-style truthiness of the result. An
// empty expression is always true, matching an absent rule/trigger
// condition in a workflow definition.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, c Context) (bool, error) {
	if expression == "" {
		return true, nil
	}

	envShape := e.envShape(c)
	program, err := e.compile(expression, envShape)
	if err != nil {
		return false, errors.Validation("expression", fmt.Sprintf("failed to compile expression: %s", err.Error()))
	}

	evalCtx := e.predicates.bind(ctx, c.Variables)
	for k, v := range envShape {
		evalCtx[k] = v
	}

	result, err := expr.Run(program, evalCtx)
	if err != nil {
		return false, errors.Validation("expression", fmt.Sprintf("expression evaluation failed: %s", err.Error()))
	}
	return toBool(result), nil
}

// envShape builds the identifier->value map an expression sees, wrapping
// every root into a navigable Dict.
func (e *Evaluator) envShape(c Context) map[string]any {
	return map[string]any{
		"session":        newDict(c.Session),
		"workflow_state": newDict(c.WorkflowState),
		"event":          newDict(c.Event),
		"tool_name":      c.ToolName,
		"tool_args":      newDict(c.ToolArgs),
		"variables":      newDict(c.Variables),
	}
}

// compile compiles expression against envShape, caching the result by
// source text. This deliberately does not pass expr.AsBool() at compile
// time: and/or must be free to return their
// actual operand (not a forced bool) so `(d.get(k) or {}).get(k2)`-style
// chains keep working. Only Evaluate's final toBool call coerces.
func (e *Evaluator) compile(expression string, envShape map[string]any) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	prog, err := expr.Compile(expression, expr.Env(envShape), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()
	return prog, nil
}

// ClearCache drops every cached compiled program. Used by tests and by the
// workflow loader after a hot-reload of workflow definitions changes which
// expressions are in circulation.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*vm.Program)
}
