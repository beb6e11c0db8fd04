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

// Package pipelines is the `gobby pipelines` CLI group: running and
// resuming multi-step pipeline executions through the Pipeline Executor.
package pipelines

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gobbyhq/gobby/internal/cli/prompt"
	"github.com/gobbyhq/gobby/internal/commands/localdeps"
	"github.com/gobbyhq/gobby/internal/commands/shared"
	"github.com/gobbyhq/gobby/internal/pipeline"
	"github.com/gobbyhq/gobby/internal/store"
)

var (
	runInputsJSON  string
	runInteractive bool
	resumeApprove  bool
)

// NewCommand creates the pipelines command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipelines",
		Short: "Run and resume pipeline executions",
	}
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newResumeCommand())
	cmd.AddCommand(newGetCommand())
	return cmd
}

func printExecution(e *store.PipelineExecution) error {
	if shared.GetJSON() {
		return json.NewEncoder(os.Stdout).Encode(e)
	}
	fmt.Printf("ID:           %s\n", e.ID)
	fmt.Printf("Pipeline:     %s\n", e.PipelineName)
	fmt.Printf("Status:       %s\n", e.Status)
	if e.ResumeToken != "" {
		fmt.Printf("Resume token: %s\n", e.ResumeToken)
	}
	return nil
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <project-id> <pipeline-name>",
		Short: "Run a pipeline to completion or its first gate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := map[string]interface{}{}
			if runInputsJSON != "" {
				if err := json.Unmarshal([]byte(runInputsJSON), &inputs); err != nil {
					return shared.NewGobbyExitError("invalid --inputs JSON", err)
				}
			}

			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			if runInteractive {
				def, err := deps.PipelineLoader.Load(args[1])
				if err != nil {
					return shared.NewGobbyExitError("failed to load pipeline definition", err)
				}
				if err := promptMissingInputs(cmd.Context(), def, inputs); err != nil {
					return shared.NewGobbyExitError("input prompt failed", err)
				}
			}

			execution, err := deps.Pipelines.Run(context.Background(), args[0], args[1], inputs)
			if err != nil {
				return shared.NewGobbyExitError("pipeline run failed", err)
			}
			return printExecution(execution)
		},
	}
	cmd.Flags().StringVar(&runInputsJSON, "inputs", "", "JSON object of pipeline inputs")
	cmd.Flags().BoolVar(&runInteractive, "interactive", false, "Prompt for any declared inputs missing from --inputs")
	return cmd
}

// promptMissingInputs fills in inputs the caller didn't supply by asking
// for each one the pipeline definition declares, type-aware, falling
// back to the declared default when stdin isn't a terminal.
func promptMissingInputs(ctx context.Context, def *pipeline.Definition, inputs map[string]interface{}) error {
	p := prompt.NewSurveyPrompter(true)
	for name, spec := range def.Inputs {
		if _, ok := inputs[name]; ok {
			continue
		}
		var (
			value interface{}
			err   error
		)
		switch spec.Type {
		case "number":
			def := 0.0
			if f, ok := spec.Default.(float64); ok {
				def = f
			}
			value, err = p.PromptNumber(ctx, name, name, def)
		case "bool", "boolean":
			def, _ := spec.Default.(bool)
			value, err = p.PromptBool(ctx, name, name, def)
		case "array":
			value, err = p.PromptArray(ctx, name, name)
		case "object":
			value, err = p.PromptObject(ctx, name, name)
		default:
			def := ""
			if s, ok := spec.Default.(string); ok {
				def = s
			}
			value, err = p.PromptString(ctx, name, name, def)
		}
		if err != nil {
			return fmt.Errorf("input %q: %w", name, err)
		}
		inputs[name] = value
	}
	return nil
}

func newResumeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <resume-token>",
		Short: "Resume a gated pipeline execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			execution, err := deps.Pipelines.Resume(context.Background(), args[0], resumeApprove)
			if err != nil {
				return shared.NewGobbyExitError("pipeline resume failed", err)
			}
			return printExecution(execution)
		},
	}
	cmd.Flags().BoolVar(&resumeApprove, "approve", true, "Approve the gate (false rejects it)")
	return cmd
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <execution-id>",
		Short: "Show a pipeline execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := localdeps.Open(shared.GetConfigPath())
			if err != nil {
				return shared.NewGobbyExitError("failed to open store", err)
			}
			defer deps.Close()

			execution, err := deps.Store.GetPipelineExecution(context.Background(), args[0])
			if err != nil {
				return shared.NewGobbyExitError("pipeline execution not found", err)
			}
			return printExecution(execution)
		},
	}
}
