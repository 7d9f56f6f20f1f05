package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mathnb/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [notebook] [dir]",
	Short: "Keep a notebook in sync with a directory of formula files",
	Long: `Each regular file in the directory becomes one formula cell holding the
file's text. Edits, new files and removals are applied as they happen.
Runs until interrupted.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	w := watch.New(notebookService, args[0], args[1])
	cmd.Printf("Watching %s for notebook %s\n", args[1], args[0])
	return w.Run(cmd.Context())
}
