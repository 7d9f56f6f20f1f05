package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

var cellCmd = &cobra.Command{
	Use:   "cell",
	Short: "Edit the cells of a notebook",
	Long: `Insert, change, delete or move cells. Each edit runs the providers
until the notebook settles and prints every resulting change.`,
}

var cellInsertCmd = &cobra.Command{
	Use:   "insert [notebook] [text]",
	Short: "Insert a cell",
	Long: `Inserts a top-level cell, or an annotation when --parent is given.
For TEXT, EXPR and LATEX cells the argument is the text; for other types
it is the JSON encoded data.`,
	Example: `  mathnb cell insert algebra "x + x"
  mathnb cell insert algebra "a = 2" --after 0
  mathnb cell insert algebra "Introduction" --role TEXT --type TEXT`,
	Args: cobra.ExactArgs(2),
	RunE: runCellInsert,
}

var cellChangeCmd = &cobra.Command{
	Use:   "change [notebook] [cell-id] [text]",
	Short: "Replace the data of a cell",
	Args:  cobra.ExactArgs(3),
	RunE:  runCellChange,
}

var cellDeleteCmd = &cobra.Command{
	Use:   "delete [notebook] [cell-id]",
	Short: "Delete a cell and its annotations",
	Args:  cobra.ExactArgs(2),
	RunE:  runCellDelete,
}

var cellMoveCmd = &cobra.Command{
	Use:   "move [notebook] [cell-id]",
	Short: "Move a top-level cell",
	Long:  `Moves a cell after the cell given by --after. Use --after 0 to move it to the top.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runCellMove,
}

// Insert and move flags.
var (
	cellAfter   int64
	cellParent  int64
	cellRole    string
	cellSubrole string
	cellType    string
	moveAfter   int64
)

func init() {
	cellInsertCmd.Flags().Int64Var(&cellAfter, "after", int64(domain.PositionBottom), "Insert after this cell id (0 = top, -1 = bottom)")
	cellInsertCmd.Flags().Int64Var(&cellParent, "parent", 0, "Insert as an annotation of this cell")
	cellInsertCmd.Flags().StringVar(&cellRole, "role", string(domain.RoleFormula), "Cell role")
	cellInsertCmd.Flags().StringVar(&cellSubrole, "subrole", "", "Cell subrole")
	cellInsertCmd.Flags().StringVar(&cellType, "type", string(domain.TypeExpr), "Cell type")

	cellMoveCmd.Flags().Int64Var(&moveAfter, "after", 0, "Move after this cell id (0 = top, -1 = bottom)")
	_ = cellMoveCmd.MarkFlagRequired("after")

	cellCmd.AddCommand(cellInsertCmd)
	cellCmd.AddCommand(cellChangeCmd)
	cellCmd.AddCommand(cellDeleteCmd)
	cellCmd.AddCommand(cellMoveCmd)
	rootCmd.AddCommand(cellCmd)
}

func runCellInsert(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	styleType := domain.StyleType(cellType)
	data, err := parseCellData(styleType, args[1])
	if err != nil {
		return err
	}

	req := domain.InsertStyle{
		ParentID: domain.StyleID(cellParent),
		AfterID:  domain.StylePosition(cellAfter),
		Props: domain.StyleProps{
			Role:    domain.StyleRole(cellRole),
			Subrole: domain.StyleSubrole(cellSubrole),
			Type:    styleType,
			Data:    data,
		},
	}
	return requestChanges(cmd, args[0], req)
}

func runCellChange(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	name := args[0]
	id, err := parseStyleID(args[1])
	if err != nil {
		return err
	}

	style, err := findStyle(cmd, name, id)
	if err != nil {
		return err
	}
	data, err := parseCellData(style.Type, args[2])
	if err != nil {
		return err
	}
	return requestChanges(cmd, name, domain.ChangeStyle{StyleID: id, Data: data})
}

func runCellDelete(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	id, err := parseStyleID(args[1])
	if err != nil {
		return err
	}
	return requestChanges(cmd, args[0], domain.DeleteStyle{StyleID: id})
}

func runCellMove(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	id, err := parseStyleID(args[1])
	if err != nil {
		return err
	}
	return requestChanges(cmd, args[0], domain.MoveStyle{StyleID: id, AfterID: domain.StylePosition(moveAfter)})
}

// requestChanges submits user requests and prints the outcome. A rule
// cycle is reported as a warning since the applied changes are kept.
func requestChanges(cmd *cobra.Command, name string, requests ...domain.ChangeRequest) error {
	result, err := notebookService.RequestChanges(cmd.Context(), name, domain.SourceUser, requests)
	return reportResult(cmd, result, err)
}

func reportResult(cmd *cobra.Command, result *domain.ChangeResult, err error) error {
	out := cmd.OutOrStdout()
	st := stylesFor(out)

	var cycle *domain.RuleCycleError
	if errors.As(err, &cycle) {
		printResult(out, st, result)
		fmt.Fprintln(out, st.Warning.Render("Warning: "+cycle.Error()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply changes: %w", err)
	}

	printResult(out, st, result)
	return nil
}

func findStyle(cmd *cobra.Command, name string, id domain.StyleID) (*domain.Style, error) {
	styles, err := notebookService.Styles(cmd.Context(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to load notebook: %w", err)
	}
	for _, s := range styles {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", domain.ErrUnknownStyle, id)
}

func parseStyleID(s string) (domain.StyleID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid cell id %q", domain.ErrInvalidInput, s)
	}
	return domain.StyleID(id), nil
}

// parseCellData turns command line text into a payload of type t.
func parseCellData(t domain.StyleType, text string) (domain.Payload, error) {
	switch t {
	case domain.TypeText, domain.TypeExpr, domain.TypeLatex:
		return domain.TextPayload(text), nil
	case domain.TypeNone:
		return nil, nil
	}
	data, err := domain.DecodePayload(t, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s data: %w", t, err)
	}
	return data, nil
}
