package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mathnb/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [notebook]",
	Short: "Edit a notebook interactively",
	Long: `Opens a full screen editor on a notebook. Move with j/k, insert a formula
with i, edit with e, delete with d, use a provider's tool with t and reorder
cells with J/K.`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	ctx := cmd.Context()
	if err := notebookService.Open(ctx, args[0]); err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{Notebook: notebookService}, args[0])
	if err != nil {
		return err
	}
	return app.WithContext(ctx).Run()
}
