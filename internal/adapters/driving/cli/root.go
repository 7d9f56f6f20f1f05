// Package cli provides the cobra command tree for mathnb.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mathnb/internal/core/ports/driving"
	"github.com/custodia-labs/mathnb/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// skipServices marks commands that run without the core services.
const skipServices = "mathnb/skip-services"

// Options are the global flags passed to the bootstrap function.
type Options struct {
	Verbose   bool
	ConfigDir string
	DataDir   string
}

// Services are the driving ports the commands use.
type Services struct {
	Notebook driving.NotebookService
	Settings driving.SettingsService

	// Close releases storage and backends. May be nil.
	Close func() error
}

// Bootstrap builds the services from the global flags.
type Bootstrap func(opts Options) (*Services, error)

var (
	notebookService driving.NotebookService
	settingsService driving.SettingsService
	closeServices   func() error

	bootstrap Bootstrap
	options   Options
)

var rootCmd = &cobra.Command{
	Use:   "mathnb",
	Short: "Collaborative math notebooks",
	Long: `mathnb keeps notebooks of formula cells. Every edit is propagated to
providers that simplify expressions, recognise handwriting, render
notation and track which definitions each formula uses.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&options.ConfigDir, "config-dir", "", "Config directory (default ~/.mathnb)")
	rootCmd.PersistentFlags().StringVar(&options.DataDir, "data-dir", "", "Data directory, overrides storage.data_dir")
}

// SetServices installs the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		notebookService, settingsService, closeServices = nil, nil, nil
		return
	}
	notebookService = s.Notebook
	settingsService = s.Settings
	closeServices = s.Close
}

// SetVersion sets the version reported by "mathnb version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the command tree. Services are built lazily by b the first
// time a command needs them and closed before Execute returns.
func Execute(ctx context.Context, b Bootstrap) error {
	bootstrap = b
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		closeServices = nil
	}
	return err
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(options.Verbose)

	if _, ok := cmd.Annotations[skipServices]; ok {
		return nil
	}
	if bootstrap == nil || notebookService != nil {
		return nil
	}

	services, err := bootstrap(options)
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}
