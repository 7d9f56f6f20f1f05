package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var notebookCmd = &cobra.Command{
	Use:   "notebook",
	Short: "Manage notebooks",
	Long:  `Create, list, show, delete, export or import notebooks.`,
}

var notebookNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create an empty notebook",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotebookNew,
}

var notebookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notebooks",
	Args:  cobra.NoArgs,
	RunE:  runNotebookList,
}

var notebookShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print the cells of a notebook",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotebookShow,
}

var notebookDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a notebook",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotebookDelete,
}

var notebookExportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "Write a notebook as a JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotebookExport,
}

var notebookImportCmd = &cobra.Command{
	Use:   "import [name] [file]",
	Short: "Load a notebook from a JSON snapshot",
	Long:  `Stores the snapshot under the given name, replacing any notebook with that name.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runNotebookImport,
}

// exportOutput is the --output flag of the export command.
var exportOutput string

func init() {
	notebookExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")

	notebookCmd.AddCommand(notebookNewCmd)
	notebookCmd.AddCommand(notebookListCmd)
	notebookCmd.AddCommand(notebookShowCmd)
	notebookCmd.AddCommand(notebookDeleteCmd)
	notebookCmd.AddCommand(notebookExportCmd)
	notebookCmd.AddCommand(notebookImportCmd)
	rootCmd.AddCommand(notebookCmd)
}

func runNotebookNew(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	if err := notebookService.Create(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to create notebook: %w", err)
	}
	cmd.Printf("Created notebook %s\n", args[0])
	return nil
}

func runNotebookList(cmd *cobra.Command, _ []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	infos, err := notebookService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list notebooks: %w", err)
	}

	if len(infos) == 0 {
		cmd.Println("No notebooks found.")
		return nil
	}

	cmd.Println("Notebooks:")
	cmd.Println()
	for _, info := range infos {
		cmd.Printf("  %s\n", info.Name)
		cmd.Printf("    Styles:  %d\n", info.StyleCount)
		if !info.UpdatedAt.IsZero() {
			cmd.Printf("    Updated: %s\n", info.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d notebooks\n", len(infos))
	return nil
}

func runNotebookShow(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	ctx := cmd.Context()
	name := args[0]

	styles, err := notebookService.Styles(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load notebook: %w", err)
	}
	rels, err := notebookService.Relationships(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load notebook: %w", err)
	}

	out := cmd.OutOrStdout()
	renderNotebook(out, stylesFor(out), name, styles, rels)
	return nil
}

func runNotebookDelete(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	if err := notebookService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete notebook: %w", err)
	}
	cmd.Printf("Deleted notebook %s\n", args[0])
	return nil
}

func runNotebookExport(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	if exportOutput == "" {
		if err := notebookService.Export(cmd.Context(), args[0], cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to export notebook: %w", err)
		}
		return nil
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := notebookService.Export(cmd.Context(), args[0], f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export notebook: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	cmd.Printf("Exported %s to %s\n", args[0], exportOutput)
	return nil
}

func runNotebookImport(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	name, path := args[0], args[1]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if err := notebookService.Import(cmd.Context(), name, f); err != nil {
		return fmt.Errorf("failed to import notebook: %w", err)
	}
	cmd.Printf("Imported %s from %s\n", name, path)
	return nil
}
