package workflow

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/gobbyhq/gobby/internal/commands/shared"
	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/examples"
	"github.com/gobbyhq/gobby/pkg/workflow"
)

// NewQuickstartCommand creates the quickstart command
func NewQuickstartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quickstart",
		Annotations: map[string]string{
			"group": "workflow",
		},
		Short: "Run the quickstart workflow",
		Long: `Run a simple hello world workflow to verify Gobby is working correctly.

This command runs an embedded example workflow that requires no additional
setup or configuration. It's the fastest way to see Gobby in action.`,
		RunE: runQuickstart,
	}

	return cmd
}

func runQuickstart(cmd *cobra.Command, args []string) error {
	fmt.Println("Running quickstart workflow...")
	fmt.Println()

	// Load the embedded quickstart workflow
	content, err := examples.Get("quickstart")
	if err != nil {
		return fmt.Errorf("failed to load quickstart workflow: %w", err)
	}

	// Parse the workflow
	def, err := workflow.ParseDefinition(content)
	if err != nil {
		return fmt.Errorf("failed to parse quickstart workflow: %w", err)
	}

	// Load config for provider resolution
	_, err = config.Load(shared.GetConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// TODO: Actual execution will be implemented in later phase
	// For now, just show that it validates correctly
	fmt.Printf("✓ Quickstart workflow validated successfully!\n")
	fmt.Printf("  Workflow: %s\n", def.Name)
	fmt.Printf("  Steps: %d\n", len(def.Steps))
	fmt.Println()
	fmt.Println("Note: Workflow execution not yet implemented")
	fmt.Println()

	// Show next steps
	fmt.Println("Next steps:")
	fmt.Println("  • gobby examples list        - Browse more examples")
	fmt.Println("  • gobby examples show <name> - View an example")
	fmt.Println("  • gobby run <workflow>       - Run your own workflow")
	fmt.Println("  • gobby --help               - See all available commands")
	fmt.Println()

	return nil
}
