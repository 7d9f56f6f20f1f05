package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Long: `Validates and stores a setting. List values are comma separated and
durations use Go syntax, for example:

  mathnb config set engine.max_rounds 20
  mathnb config set engine.round_timeout 45s
  mathnb config set providers.enabled symbols,algebra`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	endpoint := s.Compute.Endpoint
	if endpoint == "" {
		endpoint = "(built-in)"
	}
	dataDir := s.Storage.DataDir
	if dataDir == "" {
		dataDir = "(default)"
	}

	cmd.Println("Engine:")
	cmd.Printf("  Max rounds:     %d\n", s.Engine.MaxRounds)
	cmd.Printf("  Round timeout:  %s\n", s.Engine.RoundTimeout)
	cmd.Println()
	cmd.Println("Providers:")
	cmd.Printf("  Enabled:        %s\n", strings.Join(s.Providers.Enabled, ", "))
	cmd.Println()
	cmd.Println("Compute:")
	cmd.Printf("  Endpoint:       %s\n", endpoint)
	cmd.Printf("  Rate limit:     %g/s (burst %d)\n", s.Compute.RequestsPerSecond, s.Compute.Burst)
	cmd.Println()
	cmd.Println("Storage:")
	cmd.Printf("  Backend:        %s\n", s.Storage.Backend)
	cmd.Printf("  Data dir:       %s\n", dataDir)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}
