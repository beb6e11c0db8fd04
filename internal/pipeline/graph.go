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
	"regexp"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// refPattern matches a $identifier reference, the leading token of either
// a $inputs.field or a $step_id.output[.field] expression. Golang
// identifier rules only: pipeline authors don't get to reference
// arbitrary host state through this.
var refPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// stepRefs returns the distinct step ids (excluding the "inputs" pseudo
// root) referenced anywhere in a step's condition, prompt, or input bag.
func stepRefs(step StepSpec) []string {
	seen := map[string]bool{}
	collect := func(s string) {
		for _, m := range refPattern.FindAllStringSubmatch(s, -1) {
			if m[1] != "inputs" {
				seen[m[1]] = true
			}
		}
	}
	collect(step.Condition)
	collect(step.Prompt)
	walkStrings(step.Input, collect)

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// walkStrings recurses through a JSON-shaped value, calling fn on every
// string leaf it finds.
func walkStrings(v interface{}, fn func(string)) {
	switch val := v.(type) {
	case string:
		fn(val)
	case map[string]interface{}:
		for _, child := range val {
			walkStrings(child, fn)
		}
	case []interface{}:
		for _, child := range val {
			walkStrings(child, fn)
		}
	}
}

// validateDAG checks step id uniqueness, that every reference resolves to
// a declared step, and that no step references one declared later than
// itself (a forward reference).
func validateDAG(steps []StepSpec) error {
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			return errors.Validation("step.id", "pipeline step is missing an id")
		}
		if _, dup := index[s.ID]; dup {
			return errors.Validation("step.id", fmt.Sprintf("duplicate step id %q", s.ID))
		}
		index[s.ID] = i
	}

	for i, s := range steps {
		for _, ref := range stepRefs(s) {
			pos, ok := index[ref]
			if !ok {
				return errors.Validation("step.input", fmt.Sprintf("step %q references unknown step %q", s.ID, ref))
			}
			if pos >= i {
				return errors.Validation("step.input", fmt.Sprintf("step %q references %q, which is not declared earlier (forward reference)", s.ID, ref))
			}
		}
	}
	return nil
}

// waves groups steps into topological batches: every step in wave N only
// depends on steps in waves < N. Within a wave, steps keep their
// declaration order.
func waves(steps []StepSpec) [][]StepSpec {
	deps := make(map[string][]string, len(steps))
	byID := make(map[string]StepSpec, len(steps))
	for _, s := range steps {
		deps[s.ID] = stepRefs(s)
		byID[s.ID] = s
	}

	done := map[string]bool{}
	var out [][]StepSpec
	remaining := append([]StepSpec{}, steps...)

	for len(remaining) > 0 {
		var wave []StepSpec
		var next []StepSpec
		for _, s := range remaining {
			ready := true
			for _, d := range deps[s.ID] {
				if !done[d] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, s)
			} else {
				next = append(next, s)
			}
		}
		if len(wave) == 0 {
			// validateDAG should make this unreachable; break rather
			// than loop forever if it somehow is.
			break
		}
		for _, s := range wave {
			done[s.ID] = true
		}
		out = append(out, wave)
		remaining = next
	}
	return out
}
