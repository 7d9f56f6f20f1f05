package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var toolCmd = &cobra.Command{
	Use:   "tool [notebook] [cell-id]",
	Short: "Use the tool of the provider that owns a cell",
	Long: `Activates the tool offered by the provider that created the cell.
For example, using the tool on a simplified expression inserts it as a new
formula, and using it on handwriting converts the strokes into text.`,
	Args: cobra.ExactArgs(2),
	RunE: runTool,
}

func init() {
	rootCmd.AddCommand(toolCmd)
}

func runTool(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	id, err := parseStyleID(args[1])
	if err != nil {
		return err
	}
	result, err := notebookService.UseTool(cmd.Context(), args[0], id)
	return reportResult(cmd, result, err)
}
