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
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/gobbyhq/gobby/internal/jq"
)

// fieldRefPattern matches one $inputs.field or $step_id.output[.field]
// reference in the "$<step_id>.output[.field]" / "$inputs.<field>"
// grammar. Group 1 is the root ("inputs" or "step_id.output"), group 2 is
// the rest of the path (possibly empty, meaning "the whole root value").
var fieldRefPattern = regexp.MustCompile(`\$(inputs|[A-Za-z_][A-Za-z0-9_]*\.output)((?:\.[A-Za-z0-9_]+|\[[0-9]+\])*)`)

// resolver resolves $-references inside step input/prompt values against
// the pipeline's declared inputs and the outputs recorded by steps that
// have already run, using gojq (via internal/jq, the same package the
// teacher's transform/jsonata-style connectors already use) for the
// dotted/bracketed field-path part of each reference.
type resolver struct {
	jq     *jq.Executor
	inputs map[string]interface{}
}

func newResolver(inputs map[string]interface{}) *resolver {
	return &resolver{jq: jq.NewExecutor(0, 0), inputs: inputs}
}

// resolveValue walks v (a JSON-shaped tree: string/map/slice/scalar),
// substituting every $-reference it finds. A value that is *exactly* one
// reference resolves to that reference's native type (an object or array
// survives intact); a reference embedded in a larger string is
// interpolated as text.
func (r *resolver) resolveValue(ctx context.Context, v interface{}, outputs map[string]interface{}) (interface{}, error) {
	switch val := v.(type) {
	case string:
		return r.resolveString(ctx, val, outputs)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			resolved, err := r.resolveValue(ctx, child, outputs)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			resolved, err := r.resolveValue(ctx, child, outputs)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r *resolver) resolveString(ctx context.Context, s string, outputs map[string]interface{}) (interface{}, error) {
	matches := fieldRefPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		m := matches[0]
		return r.resolveRef(ctx, s[m[2]:m[3]], s[m[4]:m[5]], outputs)
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m[0]])
		val, err := r.resolveRef(ctx, s[m[2]:m[3]], s[m[4]:m[5]], outputs)
		if err != nil {
			return nil, err
		}
		sb.WriteString(fmt.Sprint(val))
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String(), nil
}

func (r *resolver) resolveRef(ctx context.Context, root, rest string, outputs map[string]interface{}) (interface{}, error) {
	var base interface{}
	if root == "inputs" {
		base = r.inputs
	} else {
		stepID := strings.TrimSuffix(root, ".output")
		out, ok := outputs[stepID]
		if !ok {
			return nil, fmt.Errorf("step %q has no recorded output to resolve %q against", stepID, root+rest)
		}
		base = out
	}
	if rest == "" {
		return base, nil
	}
	query := "." + strings.TrimPrefix(rest, ".")
	return r.jq.Execute(ctx, query, base)
}

// evalCondition runs a pipeline step's boolean `condition` expression
// (expr-lang/expr, the same engine internal/expression wraps for workflow
// rules) against the inputs bag and the outputs recorded so far. An empty
// condition is always true.
func evalCondition(condition string, inputs map[string]interface{}, outputs map[string]interface{}) (bool, error) {
	if condition == "" {
		return true, nil
	}
	env := map[string]interface{}{
		"inputs": inputs,
		"steps":  outputs,
	}
	result, err := expr.Eval(condition, env)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", condition, err)
	}
	b, _ := result.(bool)
	return b, nil
}
