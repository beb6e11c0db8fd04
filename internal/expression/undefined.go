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

// Undefined is returned wherever an expression references a dictionary key
// or list index that does not exist. It is falsy, and both Get and At on an
// Undefined return itself, so chained access like
// `variables.Get("x").Get("y")` never raises — it just bottoms out at
// Undefined, mirroring the evaluator's Python ancestor. Expressions call
// Get/At with Go's exported capitalization: expr-lang dispatches method
// calls through reflection against the Go method name as written, and Go
// requires exported methods to start uppercase.
type Undefined struct{}

// Get implements the same method Dict exposes, so a chain that walks off
// the edge of the context tree keeps working.
func (Undefined) Get(key string, def ...any) any {
	if len(def) > 0 {
		return def[0]
	}
	return Undefined{}
}

// At implements the same method List exposes.
func (Undefined) At(i int) any {
	return Undefined{}
}

// String renders as empty, matching how an unset value should print in a
// templated message.
func (Undefined) String() string {
	return ""
}

// Dict is a context-tree map exposed to expressions. Expressions walk it
// with `d.Get(key)` / `d.Get(key, default)` rather than bare attribute
// access, since Go's reflection-based dispatch has no way to resolve an
// arbitrary unknown identifier as a struct field — a method call is the
// mechanism expr-lang gives us for dynamic, schema-free lookups.
type Dict map[string]any

// Get looks up key, wrapping nested maps/slices into Dict/List so the
// chain stays navigable, and falling back to def[0] or Undefined{}.
func (d Dict) Get(key string, def ...any) any {
	if v, ok := d[key]; ok {
		return wrap(v)
	}
	if len(def) > 0 {
		return def[0]
	}
	return Undefined{}
}

// Has reports whether key is present (distinct from present-but-falsy).
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// List is a context-tree slice exposed to expressions via `.at(index)`.
type List []any

// At returns the wrapped element at i, or Undefined{} if i is out of range.
func (l List) At(i int) any {
	if i < 0 || i >= len(l) {
		return Undefined{}
	}
	return wrap(l[i])
}

// Len returns the list's length.
func (l List) Len() int {
	return len(l)
}

// wrap converts a plain Go value produced by json.Unmarshal (map[string]any,
// []any, or a scalar) into the Dict/List types expressions navigate.
// Scalars and already-wrapped values pass through unchanged.
func wrap(v any) any {
	switch t := v.(type) {
	case map[string]any:
		d := make(Dict, len(t))
		for k, vv := range t {
			d[k] = vv
		}
		return d
	case Dict, List, Undefined:
		return t
	case []any:
		return List(t)
	default:
		return v
	}
}

// newDict builds a Dict from a plain map, wrapping every value.
func newDict(m map[string]any) Dict {
	return wrap(m).(Dict)
}

// toBool converts an expression result to Python-style truthiness: nil and
// Undefined are false, zero numbers and empty strings/collections are
// false, everything else is true. This is the *only* place a bool
// coercion happens — intermediate and/or results stay as whatever operand
// they were, per the evaluator's contract.
func toBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case Undefined:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case Dict:
		return len(t) > 0
	case List:
		return len(t) > 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
