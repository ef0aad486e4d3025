// cmd/tenprobe/commands/modules.go
package commands

import (
	"github.com/spf13/cobra"

	"github.com/tenprobe/tenprobe/pkg/engine"
)

func newModulesCommand() *cobra.Command {
	modulesCmd := &cobra.Command{
		Use:     "modules",
		Short:   "List the registered test modules",
		GroupID: groupManagement,
		Args:    cobra.NoArgs,
		RunE:    runModules,
	}
	modulesCmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	return modulesCmd
}

func runModules(cmd *cobra.Command, args []string) error {
	out := setupOutputPipeline(cmd)

	headers := []string{"Category", "Name", "Mode", "Version", "Description"}
	metas := engine.AllModuleMetadata()
	rows := make([][]string, 0, len(metas))
	for _, meta := range metas {
		mode := "active"
		if meta.Passive {
			mode = "passive"
		}
		rows = append(rows, []string{
			string(meta.Category),
			meta.Name,
			mode,
			meta.Version,
			meta.Description,
		})
	}

	out.Table(headers, rows)
	return nil
}
