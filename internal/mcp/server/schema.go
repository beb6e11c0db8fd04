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

package server

import (
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	pkgerrors "github.com/gobbyhq/gobby/pkg/errors"
)

// schemaCache compiles each tool's input schema once, belt-and-suspenders
// over mcp-go's own argument handling: malformed arguments are rejected as
// a ValidationError before a handler ever touches the store.
type schemaCache struct {
	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{schemas: make(map[string]*jsonschema.Schema)}
}

func (c *schemaCache) compile(toolName string, schemaDoc map[string]interface{}) (*jsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.schemas[toolName]; ok {
		return s, nil
	}

	url := "gobby://mcp/" + toolName + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource for %s: %w", toolName, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", toolName, err)
	}
	c.schemas[toolName] = schema
	return schema, nil
}

// validateArgs compiles (once, cached) and checks args against the tool's
// declared input schema. A schema compile failure is the porter's bug, not
// the caller's, so it surfaces as an Internal error; a validation failure
// surfaces as a ValidationError the caller can act on.
func (c *schemaCache) validateArgs(toolName string, schemaDoc map[string]interface{}, args map[string]interface{}) error {
	schema, err := c.compile(toolName, schemaDoc)
	if err != nil {
		return pkgerrors.Internal("mcp-schema", err)
	}

	instance := make(map[string]interface{}, len(args))
	for k, v := range args {
		instance[k] = v
	}

	if err := schema.Validate(instance); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return &pkgerrors.ValidationError{Field: toolName, Message: ve.Error()}
		}
		return &pkgerrors.ValidationError{Field: toolName, Message: err.Error()}
	}
	return nil
}
