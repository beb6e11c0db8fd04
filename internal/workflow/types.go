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

// Package workflow loads YAML workflow definitions and runs the
// per-session step machines and lifecycle trigger sets they declare.
package workflow

// Kind distinguishes a step-machine workflow (activated per session, one
// active at a time) from a lifecycle workflow (any number active in
// parallel, driven by trigger match rather than manual activation).
type Kind string

const (
	KindStep      Kind = "step"
	KindLifecycle Kind = "lifecycle"
	KindPipeline  Kind = "pipeline"
)

// AllToolsSentinel is the allowed_tools value meaning "every tool is
// permitted" rather than an explicit whitelist.
const AllToolsSentinel = "all"

// Definition is one loaded workflow YAML document.
type Definition struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Kind        Kind           `yaml:"kind" json:"kind"`
	Version     string         `yaml:"version,omitempty" json:"version,omitempty"`
	Extends     string         `yaml:"extends,omitempty" json:"extends,omitempty"`

	// Variables declares defaults seeded into a new WorkflowInstance,
	// overridden by activation arguments.
	Variables map[string]interface{} `yaml:"variables,omitempty" json:"variables,omitempty"`

	// SessionVariables names variables that should be copied onto the
	// owning session's own variable bag as they change, rather than kept
	// private to this workflow instance.
	SessionVariables []string `yaml:"session_variables,omitempty" json:"session_variables,omitempty"`

	// StuckAfterSeconds overrides the default 1800s (30m) stuck-detection
	// ceiling for step workflows. Zero means use the default.
	StuckAfterSeconds int `yaml:"stuck_after_seconds,omitempty" json:"stuck_after_seconds,omitempty"`

	// Steps is populated for kind=step.
	Steps []StepDefinition `yaml:"steps,omitempty" json:"steps,omitempty"`

	// Triggers is populated for kind=lifecycle, keyed by canonical or
	// alias event type name (see triggerAliases in loader.go).
	Triggers map[string][]TriggerEntry `yaml:"triggers,omitempty" json:"triggers,omitempty"`
}

// StepDefinition is one step of a step-machine workflow.
type StepDefinition struct {
	Name           string           `yaml:"name" json:"name"`
	AllowedTools   StringOrAll      `yaml:"allowed_tools,omitempty" json:"allowed_tools,omitempty"`
	BlockedTools   []string         `yaml:"blocked_tools,omitempty" json:"blocked_tools,omitempty"`
	Rules          []Rule           `yaml:"rules,omitempty" json:"rules,omitempty"`
	Transitions    []Transition     `yaml:"transitions,omitempty" json:"transitions,omitempty"`
	ExitConditions []string         `yaml:"exit_conditions,omitempty" json:"exit_conditions,omitempty"`
	OnEnter        []ActionSpec     `yaml:"on_enter,omitempty" json:"on_enter,omitempty"`
	OnExit         []ActionSpec     `yaml:"on_exit,omitempty" json:"on_exit,omitempty"`

	// Reflect marks this step as the stuck-detection recovery target. At
	// most one step per workflow should set this.
	Reflect bool `yaml:"reflect,omitempty" json:"reflect,omitempty"`
}

// StringOrAll is either the literal "all" or an explicit tool list.
// YAML unmarshals a bare string or a sequence into this type.
type StringOrAll struct {
	All  bool
	List []string
}

// Allows reports whether tool is permitted by this allowed_tools value.
func (s StringOrAll) Allows(tool string) bool {
	if s.All {
		return true
	}
	for _, t := range s.List {
		if t == tool {
			return true
		}
	}
	return false
}

func (s *StringOrAll) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		if str == AllToolsSentinel {
			s.All = true
			return nil
		}
		s.List = []string{str}
		return nil
	}
	var list []string
	if err := unmarshal(&list); err != nil {
		return err
	}
	s.List = list
	return nil
}

// Rule is a conditional action evaluated in declaration order against a
// tool-call event; the first matching rule wins.
type Rule struct {
	When    string `yaml:"when" json:"when"`
	Action  string `yaml:"action" json:"action"` // block | warn | require_approval | modify
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// Transition is a conditional step change evaluated in declaration order;
// the first match fires transition_to(To).
type Transition struct {
	When string `yaml:"when" json:"when"`
	To   string `yaml:"to" json:"to"`
}

// ActionSpec is one step of an on_enter/on_exit/trigger action list.
type ActionSpec struct {
	Action string                 `yaml:"action" json:"action"`
	With   map[string]interface{} `yaml:"with,omitempty" json:"with,omitempty"`
}

// TriggerEntry is one lifecycle-workflow action, optionally gated by a
// when condition evaluated against the firing event.
type TriggerEntry struct {
	When    string       `yaml:"when,omitempty" json:"when,omitempty"`
	Actions []ActionSpec `yaml:"actions" json:"actions"`
}
