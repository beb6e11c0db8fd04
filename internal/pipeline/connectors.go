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

	"github.com/gobbyhq/gobby/internal/action/file"
	actionhttp "github.com/gobbyhq/gobby/internal/action/http"
	"github.com/gobbyhq/gobby/internal/action/shell"
	"github.com/gobbyhq/gobby/internal/action/transform"
	"github.com/gobbyhq/gobby/internal/action/utility"
)

// Connector is the common shape every internal/action/* package already
// implements (Execute(ctx, operation, inputs) (*Result, error), with
// Result always an anonymous {Response, Metadata} pair) narrowed to
// exactly what an exec step needs, so the executor doesn't have to know
// about five distinct concrete Result types.
type Connector interface {
	Run(ctx context.Context, operation string, inputs map[string]interface{}) (response interface{}, metadata map[string]interface{}, err error)
}

type shellConnector struct{ c *shell.ShellConnector }

func (a shellConnector) Run(ctx context.Context, op string, inputs map[string]interface{}) (interface{}, map[string]interface{}, error) {
	res, err := a.c.Execute(ctx, op, inputs)
	if err != nil {
		return nil, nil, err
	}
	return res.Response, res.Metadata, nil
}

type fileConnector struct{ c *file.FileConnector }

func (a fileConnector) Run(ctx context.Context, op string, inputs map[string]interface{}) (interface{}, map[string]interface{}, error) {
	res, err := a.c.Execute(ctx, op, inputs)
	if err != nil {
		return nil, nil, err
	}
	return res.Response, res.Metadata, nil
}

type httpConnector struct{ c *actionhttp.HTTPAction }

func (a httpConnector) Run(ctx context.Context, op string, inputs map[string]interface{}) (interface{}, map[string]interface{}, error) {
	res, err := a.c.Execute(ctx, op, inputs)
	if err != nil {
		return nil, nil, err
	}
	return res.Response, res.Metadata, nil
}

type transformConnector struct{ c *transform.TransformConnector }

func (a transformConnector) Run(ctx context.Context, op string, inputs map[string]interface{}) (interface{}, map[string]interface{}, error) {
	res, err := a.c.Execute(ctx, op, inputs)
	if err != nil {
		return nil, nil, err
	}
	return res.Response, res.Metadata, nil
}

type utilityConnector struct{ c *utility.UtilityAction }

func (a utilityConnector) Run(ctx context.Context, op string, inputs map[string]interface{}) (interface{}, map[string]interface{}, error) {
	res, err := a.c.Execute(ctx, op, inputs)
	if err != nil {
		return nil, nil, err
	}
	return res.Response, res.Metadata, nil
}

// newConnectors builds the fixed set of exec-step connectors scoped to
// one project checkout: shell and file operations are confined to
// repoPath, matching how internal/worktree keeps physical git operations
// scoped to a single project's directory.
func newConnectors(repoPath string) (map[string]Connector, error) {
	sh, err := shell.New(&shell.Config{WorkingDir: repoPath})
	if err != nil {
		return nil, fmt.Errorf("shell connector: %w", err)
	}
	fl, err := file.New(&file.Config{WorkflowDir: repoPath, AllowedRoots: []string{repoPath}})
	if err != nil {
		return nil, fmt.Errorf("file connector: %w", err)
	}
	ht, err := actionhttp.New(actionhttp.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("http connector: %w", err)
	}
	tr, err := transform.New(nil)
	if err != nil {
		return nil, fmt.Errorf("transform connector: %w", err)
	}
	ut, err := utility.New(nil)
	if err != nil {
		return nil, fmt.Errorf("utility connector: %w", err)
	}

	return map[string]Connector{
		"shell":     shellConnector{c: sh},
		"file":      fileConnector{c: fl},
		"http":      httpConnector{c: ht},
		"transform": transformConnector{c: tr},
		"utility":   utilityConnector{c: ut},
	}, nil
}
