package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

var applyCmd = &cobra.Command{
	Use:   "apply [notebook]",
	Short: "Apply change requests from a YAML file",
	Long: `Reads a list of change requests and submits them as one batch.
The requests are applied together and propagated once.

Example file:
  - type: insertStyle
    afterId: -1
    style:
      role: FORMULA
      type: EXPR
      data: "a = 2"
  - type: changeStyle
    styleId: 3
    styleType: EXPR
    data: "a + a"`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

// applyFile is the --file flag of the apply command.
var applyFile string

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "YAML file of change requests")
	_ = applyCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	if notebookService == nil {
		return errors.New("notebook service not configured")
	}

	raw, err := os.ReadFile(applyFile)
	if err != nil {
		return fmt.Errorf("failed to read request file: %w", err)
	}
	requests, err := parseRequests(raw)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		cmd.Println("No requests in file.")
		return nil
	}
	return requestChanges(cmd, args[0], requests...)
}

// parseRequests decodes a YAML list of wire requests.
func parseRequests(raw []byte) ([]domain.ChangeRequest, error) {
	var wire []domain.WireRequest
	if err := yaml.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}

	requests := make([]domain.ChangeRequest, 0, len(wire))
	for i := range wire {
		req, err := wire[i].ToRequest()
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}
